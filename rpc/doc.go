// Package rpc provides the communication layer of dDict: the wire protocol
// spoken with the cluster members and the client side routing on top of it.
//
// The package is organized into several subpackages:
//
//   - common: Core data structures and utilities used across the RPC system,
//     including the Message protocol, the error taxonomy, configuration
//     structures, and logging.
//
//   - transport: One connection per request, the end of a response is signaled by
//     the peer closing the connection. Pluggable implementations (TCP, Unix sockets)
//     and an in-memory fake for tests.
//
//   - serializer: Encoding of protocol maps (msgpack, JSON).
//
//   - client: ClusterRouter (leader tracking and bounded redirect following) and
//     WriteRetrier (bounded append attempts).
//
//   - server: A standalone in-memory server speaking the same protocol.
package rpc
