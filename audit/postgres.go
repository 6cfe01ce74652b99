package audit

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/corerpc/rfc-go"
)

// PostgresRecorder persists every Invoke's lifecycle to a Postgres table,
// giving an RFC deployment a durable audit trail of what was called and
// whether it succeeded: open once at startup, prepare a statement, execute
// it per event.
type PostgresRecorder struct {
	db         *sql.DB
	insertStmt *sql.Stmt
}

// OpenPostgresRecorder opens dataSourceName (a standard lib/pq connection
// string) and ensures the audit table exists.
func OpenPostgresRecorder(dataSourceName string) (*PostgresRecorder, error) {
	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("audit: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("audit: ping: %w", err)
	}

	const createTable = `
CREATE TABLE IF NOT EXISTS rfc_invoke_audit (
	id         BIGSERIAL PRIMARY KEY,
	uid        BIGINT NOT NULL,
	phase      TEXT NOT NULL,
	listener   TEXT,
	success    BOOLEAN,
	recorded_at TIMESTAMPTZ NOT NULL
)`
	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("audit: create table: %w", err)
	}

	stmt, err := db.Prepare(`
INSERT INTO rfc_invoke_audit (uid, phase, listener, success, recorded_at)
VALUES ($1, $2, $3, $4, $5)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("audit: prepare insert: %w", err)
	}

	return &PostgresRecorder{db: db, insertStmt: stmt}, nil
}

var _ rfc.Recorder = (*PostgresRecorder)(nil)

func (p *PostgresRecorder) RecordSend(uid uint32, listener string, params []rfc.Param) {
	_, _ = p.insertStmt.Exec(uid, string(PhaseSend), listener, nil, time.Now())
}

func (p *PostgresRecorder) RecordReturn(uid uint32, success bool) {
	_, _ = p.insertStmt.Exec(uid, string(PhaseReturn), nil, success, time.Now())
}

// Close releases the prepared statement and underlying connection pool.
func (p *PostgresRecorder) Close() error {
	p.insertStmt.Close()
	return p.db.Close()
}
