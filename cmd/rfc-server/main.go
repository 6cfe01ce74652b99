// rfc-server — a deployable RFC node that accepts WebSocket connections and
// exposes a small calculator provider to every connected peer.
//
// Configuration via environment variables:
//
//	RFC_LISTEN_ADDR — address to listen on (default ":8080")
//	RFC_SOCKET_PATH — HTTP path the WebSocket upgrade is served on (default "/rfc")
//
// Usage:
//
//	RFC_LISTEN_ADDR=:8080 go run ./cmd/rfc-server
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"

	"github.com/gorilla/websocket"

	rfc "github.com/corerpc/rfc-go"
	"github.com/corerpc/rfc-go/audit"
)

type calcProvider struct{}

func (calcProvider) Add(a, b int) (int, error) { return a + b, nil }
func (calcProvider) Sub(a, b int) (int, error) { return a - b, nil }

func main() {
	log.SetFlags(log.Ltime | log.Lmicroseconds)

	addr := os.Getenv("RFC_LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	path := os.Getenv("RFC_SOCKET_PATH")
	if path == "" {
		path = "/rfc"
	}

	recorder := audit.NewMemoryRecorder()
	upgrader := websocket.Upgrader{}

	mux := http.NewServeMux()
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		adapter := rfc.NewWSServerAdapter()
		if err := adapter.Accept(upgrader, w, r); err != nil {
			log.Printf("accept: %v", err)
			return
		}
		log.Printf("peer connected on %s", adapter.Path())

		rfc.NewCommunicator(calcProvider{}, adapter,
			rfc.WithErrorHandler(rfc.LogErrors(log.Default())),
			rfc.WithRecorder(recorder),
		)
	})

	server := &http.Server{Addr: addr, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		log.Printf("rfc-server listening on %s%s", addr, path)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")
	_ = server.Shutdown(context.Background())
}
