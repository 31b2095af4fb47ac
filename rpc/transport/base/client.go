package base

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/ValentinKolb/dDict/rpc/common"
	"github.com/ValentinKolb/dDict/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/pkg/errors"
)

var Logger = logger.GetLogger("transport/rpc")

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IClientConnector defines the interface for transport-specific connection operations
type IClientConnector interface {
	// Connect establishes a single connection to member using dialer
	Connect(ctx context.Context, dialer *net.Dialer, member common.ClusterMember) (net.Conn, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an established connection
	UpgradeConnection(conn net.Conn, config common.ClientConfig) error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// clientTransport implements the core client transport functionality
// independent of the specific transport medium (unix, tcp, etc.)
type clientTransport struct {
	connector IClientConnector
	config    common.ClientConfig
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseClientTransport creates a new base client transport with the specified connector
func NewBaseClientTransport(connector IClientConnector) transport.IRPCClientTransport {
	return &clientTransport{
		connector: connector,
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *clientTransport) Configure(config common.ClientConfig) error {
	if config.TimeoutSecond < 0 {
		return common.NewError(common.ErrCInvalidConfiguration, "timeout must not be negative", nil)
	}
	t.config = config
	return nil
}

func (t *clientTransport) Request(ctx context.Context, member common.ClusterMember, req []byte) ([]byte, error) {
	timeout := time.Duration(t.config.Timeout()) * time.Second

	// Connect
	dialer := &net.Dialer{Timeout: timeout}
	conn, err := t.connector.Connect(ctx, dialer, member)
	if err != nil {
		return nil, networkError(ctx, fmt.Sprintf("failed to connect to %s", member), err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			Logger.Debugf("Failed to close connection to %s: %v", member, err)
		}
	}()

	// Upgrade the connection with protocol-specific settings
	if err := t.connector.UpgradeConnection(conn, t.config); err != nil {
		return nil, networkError(ctx, fmt.Sprintf("failed to upgrade connection to %s", member), err)
	}

	// The whole exchange shares one deadline
	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return nil, networkError(ctx, fmt.Sprintf("failed to set deadline for %s", member), err)
	}

	// Unblock reads and writes when the context is cancelled
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	// Send the request
	if _, err := conn.Write(req); err != nil {
		return nil, networkError(ctx, fmt.Sprintf("failed to send request to %s", member), err)
	}

	// The end of the response is signaled by the peer closing the connection
	resp, err := io.ReadAll(conn)
	if err != nil {
		return nil, networkError(ctx, fmt.Sprintf("failed to read response from %s", member), err)
	}

	Logger.Debugf("Round-trip with %s: sent %d bytes, received %d bytes", member, len(req), len(resp))
	return resp, nil
}

func (t *clientTransport) GetName() string {
	return t.connector.GetName()
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// networkError converts a connection error into a common.Error with code ErrCNetwork
func networkError(ctx context.Context, msg string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return common.NewTimeoutError(msg, errors.Wrap(ctxErr, err.Error()))
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return common.NewTimeoutError(msg, errors.WithStack(err))
	}
	return common.NewError(common.ErrCNetwork, msg, errors.WithStack(err))
}
