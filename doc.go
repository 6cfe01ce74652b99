// Package rfc implements the transport-agnostic core of a Remote Function
// Call (RFC) framework: an endpoint can invoke arbitrary nested methods on
// a remote endpoint's provider object as if it were local, with return
// values and thrown errors propagated across the wire.
//
// Three pieces do the work:
//
//   - Communicator multiplexes concurrent in-flight calls over one ordered
//     message stream, resolves member paths against a local provider, and
//     guarantees a clean shutdown.
//   - GetDriver builds a typed façade over a remote provider: calling a
//     function-typed field sends an Invoke and blocks for its return.
//   - Acceptor is the handshake/lifecycle state machine shared by every
//     transport.
//
// Concrete transports (transport_ws.go, transport_pipe.go,
// transport_process.go) plug into a Communicator through the Adapter
// interface; none of the core above knows which one is in use.
//
// Basic usage, over the in-process pair used in tests:
//
//	type Math struct {
//		Add func(a, b int) (int, error)
//	}
//
//	serverSide, clientSide := rfc.NewPipePair()
//	provider := &struct {
//		Add func(a, b int) (int, error)
//	}{Add: func(a, b int) (int, error) { return a + b, nil }}
//	_ = rfc.NewCommunicator(provider, serverSide)
//
//	client := rfc.NewCommunicator(nil, clientSide)
//	math := rfc.GetDriver[Math](client)
//	sum, err := math.Add(2, 3) // sum == 5
package rfc
