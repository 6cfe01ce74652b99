// rfc-client — dials an rfc-server and calls its calculator provider's Add
// and Sub once each.
//
// Configuration via environment variables:
//
//	RFC_NODE_URL — WebSocket URL of the node to dial (e.g. ws://localhost:8080/rfc)
//
// Usage:
//
//	RFC_NODE_URL=ws://localhost:8080/rfc go run ./cmd/rfc-client
package main

import (
	"context"
	"log"
	"time"

	rfc "github.com/corerpc/rfc-go"
)

type calcDriver struct {
	Add func(a, b int) (int, error)
	Sub func(a, b int) (int, error)
}

func main() {
	log.SetFlags(log.Ltime | log.Lmicroseconds)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	adapter, err := rfc.DialWS(ctx, rfc.Config{})
	if err != nil {
		log.Fatalf("dial: %v", err)
	}
	defer adapter.Close()

	client := rfc.NewCommunicator(nil, adapter, rfc.WithErrorHandler(rfc.LogErrors(log.Default())))
	calc := rfc.GetDriver[calcDriver](client)

	sum, err := calc.Add(7, 5)
	if err != nil {
		log.Fatalf("Add: %v", err)
	}
	log.Printf("7 + 5 = %d", sum)

	diff, err := calc.Sub(7, 5)
	if err != nil {
		log.Fatalf("Sub: %v", err)
	}
	log.Printf("7 - 5 = %d", diff)

	time.Sleep(50 * time.Millisecond)
}
