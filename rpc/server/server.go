package server

import (
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/ValentinKolb/dDict/rpc/common"
	"github.com/ValentinKolb/dDict/rpc/serializer"
	"github.com/ValentinKolb/dDict/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("server")

// Config actions accepted by config requests
const (
	ConfigActionAdd    = "add"
	ConfigActionDelete = "delete"
)

// NewServer creates a new standalone server
// It takes a config, transport and serializer as parameters
//
// Usage:
//
//	s := server.NewServer(
//		*config,
//		tcp.NewTCPServerTransport(),
//		serializer.NewMsgpackSerializer(),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	}
func NewServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
) *Server {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	Logger.Infof("Created standalone server")
	Logger.Infof(config.String())

	return &Server{
		config:     config,
		transport:  transport,
		serializer: serializer,
		data:       xsync.NewMapOf[string, interface{}](),
		requests:   xsync.NewMapOf[string, *xsync.Counter](),
		members:    slices.Clone(config.Members),
		started:    time.Now(),
	}
}

// Server keeps the whole state in memory and answers requests the way a
// cluster leader does: appends are applied immediately and every get returns
// the full state together with the membership.
type Server struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer

	data     *xsync.MapOf[string, interface{}]
	requests *xsync.MapOf[string, *xsync.Counter]

	mu      sync.Mutex
	members []common.ClusterMember

	// number of upcoming appends that are answered with success=false
	rejectAppends atomic.Int64

	started time.Time
}

// --------------------------------------------------------------------------
// Lifecycle
// --------------------------------------------------------------------------

// Start registers the request handler and starts listening in the background.
// It returns the bound address.
func (s *Server) Start() (net.Addr, error) {
	s.transport.RegisterHandler(s.handleRequest)
	addr, err := s.transport.Listen(s.config)
	if err != nil {
		return nil, err
	}
	Logger.Infof("Standalone server listening on %s", addr)
	return addr, nil
}

// Serve starts the server and blocks until SIGINT or SIGTERM is received
func (s *Server) Serve() error {
	if _, err := s.Start(); err != nil {
		return err
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)

	received := <-sig
	Logger.Infof("Received %s, shutting down", received)
	return s.Close()
}

// Close stops the transport
func (s *Server) Close() error {
	return s.transport.Close()
}

// --------------------------------------------------------------------------
// Request handling
// --------------------------------------------------------------------------

// Handle answers one decoded request
func (s *Server) Handle(msg *common.Message) *common.Response {
	counter, _ := s.requests.LoadOrCompute(msg.MsgType.String(), xsync.NewCounter)
	counter.Inc()

	// Case follower: every request goes to the leader
	if s.config.RedirectTo != nil {
		return common.NewRedirectResponse(*s.config.RedirectTo)
	}

	switch msg.MsgType {
	case common.MsgTGet:
		return common.NewSnapshotResponse(s.State(), s.Members())
	case common.MsgTAppend:
		return common.NewAppendResponse(s.apply(msg.Data))
	case common.MsgTDiagnostic:
		return common.NewPayloadResponse(s.diagnostic())
	case common.MsgTConfig:
		return common.NewPayloadResponse(s.configure(msg))
	default:
		return common.NewPayloadResponse(map[string]interface{}{
			"success": false,
			"error":   fmt.Sprintf("unsupported message type: %s", msg.MsgType),
		})
	}
}

// handleRequest decodes exactly one request from the connection and encodes the answer
func (s *Server) handleRequest(req io.Reader) []byte {
	raw, err := s.serializer.DeserializeFrom(req)
	if err != nil {
		Logger.Warningf("Failed to decode request: %v", err)
		return nil
	}
	msg, err := common.MessageFromMap(raw)
	if err != nil {
		Logger.Warningf("Invalid request: %v", err)
		return nil
	}

	resp := s.Handle(msg)

	out, err := s.serializer.Serialize(resp.ToMap())
	if err != nil {
		Logger.Errorf("Failed to encode %s response: %v", resp.Kind, err)
		return nil
	}
	Logger.Debugf("Answered %s request with %s", msg.MsgType, resp.Kind)
	return out
}

// apply executes an append and reports whether it was committed
func (s *Server) apply(data *common.AppendData) bool {
	// consume one pending rejection
	for {
		n := s.rejectAppends.Load()
		if n <= 0 {
			break
		}
		if s.rejectAppends.CompareAndSwap(n, n-1) {
			Logger.Debugf("Rejected append %s %q", data.Action, data.Key)
			return false
		}
	}

	switch data.Action {
	case common.AppendChange:
		s.data.Store(data.Key, data.Value)
	case common.AppendDelete:
		s.data.Delete(data.Key)
	default:
		return false
	}
	Logger.Debugf("Applied append %s %q", data.Action, data.Key)
	return true
}

func (s *Server) diagnostic() map[string]interface{} {
	requests := make(map[string]interface{})
	s.requests.Range(func(typ string, c *xsync.Counter) bool {
		requests[typ] = c.Value()
		return true
	})

	role := "leader"
	if s.config.RedirectTo != nil {
		role = "follower"
	}

	members := s.Members()
	cluster := make([]interface{}, 0, len(members))
	for _, m := range members {
		cluster = append(cluster, m.String())
	}

	return map[string]interface{}{
		"role":     role,
		"self":     s.config.Self.String(),
		"cluster":  cluster,
		"keys":     s.data.Size(),
		"uptime":   time.Since(s.started).Round(time.Second).String(),
		"requests": requests,
	}
}

func (s *Server) configure(msg *common.Message) map[string]interface{} {
	member := common.ClusterMember{Address: msg.Address, Port: msg.Port}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.Index(s.members, member)
	switch msg.Action {
	case ConfigActionAdd:
		if idx < 0 && member != s.config.Self {
			s.members = append(s.members, member)
		}
	case ConfigActionDelete:
		if idx >= 0 {
			s.members = slices.Delete(s.members, idx, idx+1)
		}
	default:
		return map[string]interface{}{
			"success": false,
			"error":   fmt.Sprintf("unknown config action %q (must be %s or %s)", msg.Action, ConfigActionAdd, ConfigActionDelete),
		}
	}
	Logger.Infof("Cluster configuration changed: %s %s", msg.Action, member)
	return map[string]interface{}{"success": true}
}

// --------------------------------------------------------------------------
// Accessors
// --------------------------------------------------------------------------

// State returns a copy of the stored key/value pairs
func (s *Server) State() map[string]interface{} {
	state := make(map[string]interface{}, s.data.Size())
	s.data.Range(func(k string, v interface{}) bool {
		state[k] = v
		return true
	})
	return state
}

// Members returns the membership reported in snapshots (self first)
func (s *Server) Members() []common.ClusterMember {
	s.mu.Lock()
	defer s.mu.Unlock()
	members := make([]common.ClusterMember, 0, len(s.members)+1)
	if !s.config.Self.IsZero() {
		members = append(members, s.config.Self)
	}
	return append(members, s.members...)
}

// Put stores a value directly, bypassing the request path
func (s *Server) Put(key string, value interface{}) {
	s.data.Store(key, value)
}

// RejectAppends answers the next n appends with success=false without applying them
func (s *Server) RejectAppends(n int) {
	s.rejectAppends.Store(int64(n))
}
