// Package server implements a standalone in-memory server that speaks the
// dDict wire protocol. It is meant for local development, demos and integration
// tests of the client; it is not a consensus implementation and replicates nothing.
//
// The package focuses on:
//   - Answering get, append, diagnostic and config requests from memory
//   - Acting as a follower that redirects every request to a configured leader
//   - Injecting failed appends (RejectAppends) to exercise the client retry loop
//
// Key Components:
//
//   - Server: holds the key/value state in an xsync.MapOf and the membership list
//     reported in snapshots. Handle answers one decoded request and can be used
//     directly by tests without any network.
//
//   - NewServer: Factory function creating a server with the specified transport
//     and serializer mechanisms.
//
// Usage Example:
//
//	config := common.ServerConfig{
//	  Endpoint:      "0.0.0.0:9000",
//	  Self:          common.ClusterMember{Address: "127.0.0.1", Port: 9000},
//	  TimeoutSecond: 5,
//	  LogLevel:      "info",
//	}
//
//	s := server.NewServer(
//	  config,
//	  tcp.NewTCPServerTransport(),
//	  serializer.NewMsgpackSerializer(),
//	)
//
//	// Blocks until SIGINT or SIGTERM
//	if err := s.Serve(); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// Every connection carries exactly one request. The server decodes one value from
// the stream, writes the encoded answer and closes the connection. Undecodable
// requests are closed without answer.
//
// Thread Safety:
//
//	The server can handle concurrent requests across multiple connections.
//	Start should be called only once.
package server
