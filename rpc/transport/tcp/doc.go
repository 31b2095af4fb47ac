// Package tcp implements the TCP socket transport of the dDict RPC layer.
// It provides the TCP connectors for the base package; connection handling,
// deadlines and error mapping are inherited from base.
//
// Key Components:
//
//   - clientConnector: dials host:port of a cluster member and applies the
//     socket options of common.ClientConfig (TCP_NODELAY, buffers, linger)
//
//   - serverConnector: creates the TCP listener of the standalone server
package tcp
