package rfc

import (
	"context"
	"errors"
	"testing"
	"time"
)

type addProvider struct{}

func (addProvider) Add(a, b int) (int, error) { return a + b, nil }

func (addProvider) Fail() (int, error) { return 0, errors.New("nope") }

func newLinkedPair(t *testing.T, serverProvider any) (*Communicator, *Communicator) {
	t.Helper()
	serverAdapter, clientAdapter := NewPipePair()
	server := NewCommunicator(serverProvider, serverAdapter)
	client := NewCommunicator(nil, clientAdapter)
	return server, client
}

type mathDriver struct {
	Add  func(a, b int) (int, error)
	Fail func() (int, error)
}

func TestCommunicator_RoundTrip(t *testing.T) {
	_, client := newLinkedPair(t, addProvider{})
	driver := GetDriver[mathDriver](client)

	sum, err := driver.Add(2, 3)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if sum != 5 {
		t.Errorf("sum = %d, want 5", sum)
	}
}

func TestCommunicator_ErrorRoundTrip(t *testing.T) {
	_, client := newLinkedPair(t, addProvider{})
	driver := GetDriver[mathDriver](client)

	_, err := driver.Fail()
	if err == nil {
		t.Fatal("expected error")
	}
	var rerr *RemoteError
	if !errors.As(err, &rerr) {
		t.Fatalf("err = %T, want *RemoteError", err)
	}
	if rerr.Message != "nope" {
		t.Errorf("Message = %q, want nope", rerr.Message)
	}
}

func TestCommunicator_NoProvider(t *testing.T) {
	_, client := newLinkedPair(t, nil)
	driver := GetDriver[mathDriver](client)

	_, err := driver.Add(1, 2)
	if err == nil {
		t.Fatal("expected NoProviderError when peer has no provider")
	}
}

func TestCommunicator_UidMonotonicity(t *testing.T) {
	c := &Communicator{pending: make(map[uint32]*pendingCall)}
	first := c.nextUid.Add(1) - 1
	second := c.nextUid.Add(1) - 1
	if second != first+1 {
		t.Errorf("uids not strictly increasing: %d then %d", first, second)
	}
}

func TestCommunicator_ContextCancelDoesNotRemovePending(t *testing.T) {
	serverAdapter, clientAdapter := NewPipePair()
	// No Communicator on the server side: the call is delivered but never
	// answered, simulating an in-flight call.
	_ = serverAdapter
	client := NewCommunicator(nil, clientAdapter)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.sendInvoke(ctx, "never.answers", nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}

	client.mu.Lock()
	_, stillPending := client.pending[0]
	client.mu.Unlock()
	if !stillPending {
		t.Error("pending entry should survive a ctx cancellation")
	}
}

func TestCommunicator_DestructorDrainsPending(t *testing.T) {
	serverAdapter, clientAdapter := NewPipePair()
	// No Communicator on the server side, so the call is never answered.
	_ = serverAdapter
	client := NewCommunicator(nil, clientAdapter)

	resultCh := make(chan error, 1)
	go func() {
		_, err := client.sendInvoke(context.Background(), "never.answers", nil)
		resultCh <- err
	}()

	// Give sendInvoke time to register in the pending table.
	time.Sleep(20 * time.Millisecond)
	client.Destructor(nil)

	select {
	case err := <-resultCh:
		if !errors.Is(err, ErrCommunicatorClosed) {
			t.Errorf("err = %v, want ErrCommunicatorClosed", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Destructor did not drain pending call")
	}
}

func TestCommunicator_DestructorIsIdempotent(t *testing.T) {
	_, clientAdapter := NewPipePair()
	client := NewCommunicator(nil, clientAdapter)
	client.Destructor(nil)
	client.Destructor(errors.New("second call"))
}

func TestCommunicator_NoSpuriousDispatchAfterClose(t *testing.T) {
	serverAdapter, clientAdapter := NewPipePair()
	server := NewCommunicator(addProvider{}, serverAdapter)
	client := NewCommunicator(nil, clientAdapter)
	driver := GetDriver[mathDriver](client)

	server.Destructor(nil)

	_, err := driver.Add(1, 1)
	if err == nil {
		t.Fatal("expected error once the peer communicator is destroyed")
	}
}

func TestCommunicator_RecorderNotified(t *testing.T) {
	rec := &fakeRecorder{}
	serverAdapter, clientAdapter := NewPipePair()
	_ = NewCommunicator(addProvider{}, serverAdapter)
	client := NewCommunicator(nil, clientAdapter, WithRecorder(rec))
	driver := GetDriver[mathDriver](client)

	if _, err := driver.Add(1, 1); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if rec.sends != 1 || rec.returns != 1 {
		t.Errorf("recorder saw sends=%d returns=%d, want 1 and 1", rec.sends, rec.returns)
	}
}
