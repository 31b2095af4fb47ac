// Package fake provides an in-memory test double for transport.IRPCClientTransport.
// Requests are decoded with a real serializer and answered by handlers registered
// per cluster member, so the routing and map layers can be tested without sockets.
package fake

import (
	"context"
	"fmt"
	"sync"

	"github.com/ValentinKolb/dDict/rpc/common"
	"github.com/ValentinKolb/dDict/rpc/serializer"
)

// Handler answers one request sent to member. Returning an error simulates a network failure.
type Handler func(member common.ClusterMember, msg *common.Message) (*common.Response, error)

// Call records one request
type Call struct {
	Member common.ClusterMember
	Msg    *common.Message
}

// Transport is a scripted transport.IRPCClientTransport
type Transport struct {
	mu         sync.Mutex
	serializer serializer.IRPCSerializer
	handlers   map[common.ClusterMember]Handler
	fallback   Handler
	calls      []Call
	config     common.ClientConfig
}

// NewTransport creates a fake transport encoding with s
func NewTransport(s serializer.IRPCSerializer) *Transport {
	return &Transport{
		serializer: s,
		handlers:   make(map[common.ClusterMember]Handler),
	}
}

// Handle registers the handler for requests sent to member
func (t *Transport) Handle(member common.ClusterMember, h Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers[member] = h
}

// HandleAll registers the handler for members without their own handler
func (t *Transport) HandleAll(h Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fallback = h
}

// Calls returns all recorded requests
func (t *Transport) Calls() []Call {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Call(nil), t.calls...)
}

// CallCount returns the number of recorded requests of type msgType
func (t *Transport) CallCount(msgType common.MessageType) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, c := range t.calls {
		if c.Msg.MsgType == msgType {
			n++
		}
	}
	return n
}

// Reset forgets all recorded requests
func (t *Transport) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = nil
}

// Config returns the configuration passed to Configure
func (t *Transport) Config() common.ClientConfig {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.config
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *Transport) Configure(config common.ClientConfig) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.config = config
	return nil
}

func (t *Transport) Request(ctx context.Context, member common.ClusterMember, req []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.NewTimeoutError(fmt.Sprintf("request to %s cancelled", member), err)
	}

	raw, err := t.serializer.Deserialize(req)
	if err != nil {
		return nil, err
	}
	msg, err := common.MessageFromMap(raw)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	t.calls = append(t.calls, Call{Member: member, Msg: msg})
	h, ok := t.handlers[member]
	if !ok {
		h = t.fallback
	}
	t.mu.Unlock()

	if h == nil {
		return nil, common.NewError(common.ErrCNetwork, fmt.Sprintf("failed to connect to %s", member), fmt.Errorf("connection refused"))
	}

	resp, err := h(member, msg)
	if err != nil {
		return nil, common.NewError(common.ErrCNetwork, fmt.Sprintf("request to %s failed", member), err)
	}
	if resp == nil {
		// peer closed the connection without answer
		return []byte{}, nil
	}
	return t.serializer.Serialize(resp.ToMap())
}

func (t *Transport) GetName() string {
	return "fake"
}

// --------------------------------------------------------------------------
// Handler helpers
// --------------------------------------------------------------------------

// Redirect answers every request with a redirect to leader
func Redirect(leader common.ClusterMember) Handler {
	return func(common.ClusterMember, *common.Message) (*common.Response, error) {
		return common.NewRedirectResponse(leader), nil
	}
}

// Refuse fails every request with a network error
func Refuse() Handler {
	return func(member common.ClusterMember, _ *common.Message) (*common.Response, error) {
		return nil, fmt.Errorf("connection refused by %s", member)
	}
}
