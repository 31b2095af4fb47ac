package transport

import (
	"context"
	"io"
	"net"

	"github.com/ValentinKolb/dDict/rpc/common"
)

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// ServerHandleFunc is a function type that handles incoming requests.
// It is called by a server transport once per connection with the request stream
// and returns the encoded response. Returning nil closes the connection without answer.
type ServerHandleFunc func(req io.Reader) (resp []byte)

// IRPCServerTransport is the interface for the server side of the transport layer
type IRPCServerTransport interface {
	// RegisterHandler registers the handler that is called for every connection
	RegisterHandler(handler ServerHandleFunc)
	// Listen binds the endpoint of config and starts accepting connections in the background.
	// It returns the bound address.
	Listen(config common.ServerConfig) (net.Addr, error)
	// Close stops accepting connections and waits for running handlers
	Close() error
}

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// IRPCClientTransport is the interface for the RPC client transport.
// Every request uses its own connection: the request is written, then all
// bytes are read until the peer closes the connection.
type IRPCClientTransport interface {
	// Configure initializes the transport with the given configuration
	Configure(config common.ClientConfig) error
	// Request performs one round-trip with member and returns the raw response bytes
	Request(ctx context.Context, member common.ClusterMember, req []byte) (resp []byte, err error)
	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string
}
