package rfc

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// Config holds the configuration for a WebSocket-backed RFC endpoint.
type Config struct {
	// URL is the WebSocket address to dial (client side).
	// Fallback: RFC_NODE_URL environment variable.
	URL string

	// HandshakeTimeout bounds the WebSocket upgrade.
	HandshakeTimeout time.Duration

	// CloseTimeout is given a default by resolveConfig. No adapter's Close
	// reads it: closing does not wait for a physical close to be confirmed.
	CloseTimeout time.Duration
}

// resolveConfig fills empty fields from environment variables and defaults,
// and validates the result.
func resolveConfig(cfg Config) (Config, error) {
	if cfg.URL == "" {
		cfg.URL = os.Getenv("RFC_NODE_URL")
	}
	if cfg.URL == "" {
		return cfg, fmt.Errorf("URL is required (set in Config or RFC_NODE_URL env)")
	}

	if rest, ok := strings.CutPrefix(cfg.URL, "https://"); ok {
		cfg.URL = "wss://" + rest
	} else if rest, ok := strings.CutPrefix(cfg.URL, "http://"); ok {
		cfg.URL = "ws://" + rest
	}

	if cfg.HandshakeTimeout == 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	if cfg.CloseTimeout == 0 {
		cfg.CloseTimeout = 10 * time.Second
	}

	return cfg, nil
}

// CleanCloseCodes are the WebSocket close codes treated as a graceful
// shutdown rather than a TransportError: 1000 (normal closure) and 1001
// (going away), the two codes the WebSocket RFC documents as graceful.
// Every other code is treated as a TransportError.
var CleanCloseCodes = []int{websocket.CloseNormalClosure, websocket.CloseGoingAway}

func isCleanClose(code int) bool {
	for _, c := range CleanCloseCodes {
		if c == code {
			return true
		}
	}
	return false
}
