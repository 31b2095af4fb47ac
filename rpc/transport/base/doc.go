// Package base provides the foundation for the transport layers of the dDict
// client, implementing the single-shot request/response exchange independent of
// the network protocol (TCP, Unix sockets). It is extended with protocol-specific
// connectors.
//
// Key Components:
//
//   - IClientConnector/IServerConnector: Interfaces for protocol-specific operations
//     (dialing, listening, socket tuning).
//
//   - clientTransport: opens one connection per request, writes the request, reads
//     until the peer closes and closes the connection. Every exchange is bounded by
//     the configured timeout and by the deadline of the context; a cancelled
//     context aborts blocked reads and writes. Failures are reported as
//     common.Error with code ErrCNetwork (Timeout() is true for deadlines and
//     cancellation).
//
//   - serverTransport: accepts connections and runs the registered handler once per
//     connection, writes the answer and closes the connection, which marks the end
//     of the response for the client.
//
// Thread Safety:
//
//	Both transports are safe for concurrent use. The client holds no connection
//	state between requests; the server handles every connection in its own goroutine.
package base
