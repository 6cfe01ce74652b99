package rfc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// mockRFCServer is an httptest.Server that upgrades every request to a
// WSServerAdapter and hands it to onAccept for the test to drive.
func mockRFCServer(t *testing.T, onAccept func(*WSServerAdapter)) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		adapter := NewWSServerAdapter()
		if err := adapter.Accept(upgrader, w, r); err != nil {
			t.Errorf("server Accept: %v", err)
			return
		}
		onAccept(adapter)
	}))
	t.Cleanup(server.Close)
	return server
}

func wsURL(httpURL string) string {
	return "ws" + httpURL[len("http"):]
}

func TestWSAdapters_RoundTrip(t *testing.T) {
	server := mockRFCServer(t, func(adapter *WSServerAdapter) {
		NewCommunicator(addProvider{}, adapter)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	clientAdapter, err := NewWSClientAdapter(ctx, wsURL(server.URL), Config{HandshakeTimeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("NewWSClientAdapter: %v", err)
	}
	defer clientAdapter.Close()

	client := NewCommunicator(nil, clientAdapter)
	driver := GetDriver[mathDriver](client)

	sum, err := driver.Add(4, 5)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if sum != 9 {
		t.Errorf("sum = %d, want 9", sum)
	}
}

func TestWSAdapters_ReuseAcrossCycles(t *testing.T) {
	server := mockRFCServer(t, func(adapter *WSServerAdapter) {
		NewCommunicator(addProvider{}, adapter)
	})

	for i := 0; i < 3; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		clientAdapter, err := NewWSClientAdapter(ctx, wsURL(server.URL), Config{HandshakeTimeout: 2 * time.Second})
		cancel()
		if err != nil {
			t.Fatalf("cycle %d: NewWSClientAdapter: %v", i, err)
		}

		client := NewCommunicator(nil, clientAdapter)
		driver := GetDriver[mathDriver](client)
		sum, err := driver.Add(i, 1)
		if err != nil {
			t.Fatalf("cycle %d: Add: %v", i, err)
		}
		if sum != i+1 {
			t.Errorf("cycle %d: sum = %d, want %d", i, sum, i+1)
		}

		if err := clientAdapter.Close(); err != nil {
			t.Fatalf("cycle %d: Close: %v", i, err)
		}
	}
}

func TestDialWS_ResolvesConfigAndConnects(t *testing.T) {
	server := mockRFCServer(t, func(adapter *WSServerAdapter) {
		NewCommunicator(addProvider{}, adapter)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	adapter, err := DialWS(ctx, Config{URL: wsURL(server.URL)})
	if err != nil {
		t.Fatalf("DialWS: %v", err)
	}
	defer adapter.Close()

	client := NewCommunicator(nil, adapter)
	driver := GetDriver[mathDriver](client)
	sum, err := driver.Add(10, 20)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if sum != 30 {
		t.Errorf("sum = %d, want 30", sum)
	}
}

func TestWSServerAdapter_Reject(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		adapter := NewWSServerAdapter()
		if err := adapter.Reject(w, http.StatusServiceUnavailable); err != nil {
			t.Errorf("Reject: %v", err)
		}
		if adapter.State() != StateClosed {
			t.Errorf("state = %v, want CLOSED after Reject", adapter.State())
		}
	}))
	defer server.Close()
	_ = upgrader

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}

func TestWSServerAdapter_DoubleAcceptFails(t *testing.T) {
	upgrader := websocket.Upgrader{}
	errCh := make(chan error, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		adapter := NewWSServerAdapter()
		if err := adapter.Accept(upgrader, w, r); err != nil {
			errCh <- err
			return
		}
		errCh <- adapter.Accept(upgrader, w, r)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	clientAdapter, err := NewWSClientAdapter(ctx, wsURL(server.URL), Config{HandshakeTimeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("NewWSClientAdapter: %v", err)
	}
	defer clientAdapter.Close()

	select {
	case err := <-errCh:
		if err == nil {
			t.Error("second Accept on the same adapter should fail")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server handler never ran")
	}
}
