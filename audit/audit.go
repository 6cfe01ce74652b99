// Package audit provides an optional call-recording hook for
// github.com/corerpc/rfc-go Communicators: every outbound Invoke and every
// completed return can be logged for operational visibility, independent
// of the core call path.
package audit

import "github.com/corerpc/rfc-go"

// Entry is one recorded event in a call's lifecycle.
type Entry struct {
	Uid      uint32
	Listener string // empty for a RecordReturn entry
	Success  bool   // only meaningful for a RecordReturn entry
	Phase    Phase
}

// Phase distinguishes a send from its eventual return.
type Phase string

const (
	PhaseSend   Phase = "send"
	PhaseReturn Phase = "return"
)

// MemoryRecorder accumulates Entries in memory, chiefly for tests and for
// programs that want to inspect recent call history without a database.
type MemoryRecorder struct {
	entries []Entry
}

var _ rfc.Recorder = (*MemoryRecorder)(nil)

func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

func (m *MemoryRecorder) RecordSend(uid uint32, listener string, params []rfc.Param) {
	m.entries = append(m.entries, Entry{Uid: uid, Listener: listener, Phase: PhaseSend})
}

func (m *MemoryRecorder) RecordReturn(uid uint32, success bool) {
	m.entries = append(m.entries, Entry{Uid: uid, Success: success, Phase: PhaseReturn})
}

// Entries returns a copy of everything recorded so far.
func (m *MemoryRecorder) Entries() []Entry {
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}
