// Package transport defines the interfaces and abstractions for RPC communication
// of the dDict client. It provides a common contract that all transport
// implementations must fulfill.
//
// The protocol has no framing: a client opens one connection per request,
// writes the encoded request and reads until the server closes the connection.
// Connections are never reused.
//
// Key Components:
//
//   - IRPCClientTransport: Interface for client-side transport implementations
//     performing single-shot round-trips against a cluster member.
//
//   - IRPCServerTransport: Interface for server-side transport implementations that
//     accept connections and hand the request stream to a ServerHandleFunc.
//
// Implementations live in the tcp and unix subpackages, both built on base.
package transport
