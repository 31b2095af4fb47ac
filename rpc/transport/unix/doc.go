// Package unix implements the transport of the dDict RPC layer over Unix domain
// sockets, for a client and server running on the same machine.
//
// A cluster member is addressed by its socket path stored in
// common.ClusterMember.Address; the port is ignored.
//
// Key Components:
//
//   - clientConnector: Establishes connections using Unix domain sockets
//
//   - serverConnector: Creates Unix socket listeners (removing a stale socket file first)
package unix
