package base

import (
	"bufio"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/dDict/rpc/common"
	"github.com/ValentinKolb/dDict/rpc/transport"
	"github.com/pkg/errors"
)

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IServerConnector defines the interface for transport-specific server operations
type IServerConnector interface {
	// Listen creates a listener and returns it
	Listen(config common.ServerConfig) (net.Listener, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// serverTransport implements the core server transport functionality
type serverTransport struct {
	connector IServerConnector
	handler   transport.ServerHandleFunc
	config    common.ServerConfig
	listener  net.Listener
	wg        sync.WaitGroup
	closed    atomic.Bool
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseServerTransport creates a new base server transport with the specified connector
func NewBaseServerTransport(connector IServerConnector) transport.IRPCServerTransport {
	return &serverTransport{
		connector: connector,
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCServerTransport)
// --------------------------------------------------------------------------

func (t *serverTransport) RegisterHandler(handler transport.ServerHandleFunc) {
	t.handler = handler
}

func (t *serverTransport) Listen(config common.ServerConfig) (net.Addr, error) {
	if t.handler == nil {
		return nil, fmt.Errorf("no handler registered")
	}
	t.config = config

	// Create listener using the connector
	listener, err := t.connector.Listen(config)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create listener")
	}
	t.listener = listener

	Logger.Infof("Starting %s server on %s", t.connector.GetName(), listener.Addr())

	t.wg.Add(1)
	go t.acceptLoop()

	return listener.Addr(), nil
}

func (t *serverTransport) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}
	var err error
	if t.listener != nil {
		err = t.listener.Close()
	}
	t.wg.Wait()
	return err
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// acceptLoop accepts connections until the listener is closed
func (t *serverTransport) acceptLoop() {
	defer t.wg.Done()
	for {
		conn, err := t.listener.Accept()
		if err != nil {
			if t.closed.Load() || errors.Is(err, net.ErrClosed) {
				return
			}
			Logger.Errorf("Accept error: %v", err)
			continue
		}

		// Handle the connection in a goroutine
		t.wg.Add(1)
		go t.handleConnection(conn)
	}
}

// handleConnection answers the single request of one connection and closes it
func (t *serverTransport) handleConnection(conn net.Conn) {
	defer t.wg.Done()
	defer conn.Close()

	if t.config.TimeoutSecond > 0 {
		timeout := time.Duration(t.config.TimeoutSecond) * time.Second
		if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
			Logger.Errorf("Failed to set deadline: %v", err)
			return
		}
	}

	start := time.Now()
	resp := t.handler(bufio.NewReader(conn))
	if resp == nil {
		Logger.Debugf("Handler dropped request from %s", conn.RemoteAddr())
		return
	}

	// Closing the connection afterward marks the end of the response
	if _, err := conn.Write(resp); err != nil {
		Logger.Errorf("Failed to write response: %v", err)
		return
	}
	Logger.Debugf("Processed request from %s in %s", conn.RemoteAddr(), time.Since(start))
}
