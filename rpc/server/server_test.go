package server

import (
	"context"
	"net"
	"testing"

	"github.com/ValentinKolb/dDict/rpc/client"
	"github.com/ValentinKolb/dDict/rpc/common"
	"github.com/ValentinKolb/dDict/rpc/serializer"
	"github.com/ValentinKolb/dDict/rpc/transport/tcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var self = common.ClusterMember{Address: "10.0.0.1", Port: 9000}

func newTestServer(redirectTo *common.ClusterMember) *Server {
	return NewServer(common.ServerConfig{
		Endpoint:      "127.0.0.1:0",
		Self:          self,
		Members:       []common.ClusterMember{{Address: "10.0.0.2", Port: 9000}},
		RedirectTo:    redirectTo,
		TimeoutSecond: 5,
	}, tcp.NewTCPServerTransport(), serializer.NewMsgpackSerializer())
}

// startTCP starts s on a random loopback port and returns its member address
func startTCP(t *testing.T, s *Server) common.ClusterMember {
	t.Helper()
	addr, err := s.Start()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return common.ClusterMember{Address: "127.0.0.1", Port: addr.(*net.TCPAddr).Port}
}

func TestHandleAppendAndGet(t *testing.T) {
	s := newTestServer(nil)

	resp := s.Handle(common.NewAppendRequest(common.NewChangeData("x", int64(5))))
	assert.Equal(t, common.RespKAppend, resp.Kind)
	assert.True(t, resp.Success)

	resp = s.Handle(common.NewAppendRequest(common.NewChangeData("cluster", "app value")))
	assert.True(t, resp.Success)

	resp = s.Handle(common.NewGetRequest())
	require.Equal(t, common.RespKSnapshot, resp.Kind)
	assert.Equal(t, map[string]interface{}{"x": int64(5), "cluster": "app value"}, resp.Snapshot.Data)
	assert.Equal(t, []common.ClusterMember{self, {Address: "10.0.0.2", Port: 9000}}, resp.Snapshot.Cluster)

	resp = s.Handle(common.NewAppendRequest(common.NewDeleteData("x")))
	assert.True(t, resp.Success)
	assert.NotContains(t, s.State(), "x")

	// deleting an absent key is still committed
	resp = s.Handle(common.NewAppendRequest(common.NewDeleteData("x")))
	assert.True(t, resp.Success)
}

func TestRejectAppends(t *testing.T) {
	s := newTestServer(nil)
	s.RejectAppends(2)

	for i := 0; i < 2; i++ {
		assert.False(t, s.Handle(common.NewAppendRequest(common.NewChangeData("x", "v"))).Success)
	}
	assert.Empty(t, s.State())
	assert.True(t, s.Handle(common.NewAppendRequest(common.NewChangeData("x", "v"))).Success)
	assert.Equal(t, "v", s.State()["x"])
}

func TestHandleConfig(t *testing.T) {
	s := newTestServer(nil)
	added := common.ClusterMember{Address: "10.0.0.3", Port: 9001}

	resp := s.Handle(common.NewConfigRequest(ConfigActionAdd, added.Address, added.Port))
	assert.Equal(t, true, resp.Payload["success"])
	// adding twice does not duplicate
	s.Handle(common.NewConfigRequest(ConfigActionAdd, added.Address, added.Port))
	assert.Len(t, s.Members(), 3)
	assert.Contains(t, s.Members(), added)

	s.Handle(common.NewConfigRequest(ConfigActionDelete, added.Address, added.Port))
	assert.NotContains(t, s.Members(), added)

	resp = s.Handle(common.NewConfigRequest("rename", added.Address, added.Port))
	assert.Equal(t, false, resp.Payload["success"])
}

func TestHandleDiagnostic(t *testing.T) {
	s := newTestServer(nil)
	s.Put("a", int64(1))
	s.Handle(common.NewGetRequest())

	resp := s.Handle(common.NewDiagnosticRequest())
	require.Equal(t, common.RespKPayload, resp.Kind)
	assert.Equal(t, "leader", resp.Payload["role"])
	assert.Equal(t, self.String(), resp.Payload["self"])
	assert.Equal(t, 1, resp.Payload["keys"])

	requests := resp.Payload["requests"].(map[string]interface{})
	assert.Equal(t, int64(1), requests["get"])
	assert.Equal(t, int64(1), requests["diagnostic"])
}

func TestFollowerRedirectsEverything(t *testing.T) {
	leader := common.ClusterMember{Address: "10.0.0.9", Port: 1}
	s := newTestServer(&leader)

	for _, msg := range []*common.Message{
		common.NewGetRequest(),
		common.NewAppendRequest(common.NewChangeData("x", 1)),
		common.NewDiagnosticRequest(),
		common.NewConfigRequest(ConfigActionAdd, "h", 1),
	} {
		resp := s.Handle(msg)
		assert.Equal(t, common.RespKRedirect, resp.Kind, msg.MsgType.String())
		assert.Equal(t, leader, resp.Leader)
	}
	assert.Empty(t, s.State())
}

// TestRoundTripOverTCP drives the server with the real client stack: the client is seeded
// with a follower and converges to the leader through a redirect.
func TestRoundTripOverTCP(t *testing.T) {
	leaderSrv := NewServer(common.ServerConfig{Endpoint: "127.0.0.1:0", TimeoutSecond: 5},
		tcp.NewTCPServerTransport(), serializer.NewMsgpackSerializer())
	leader := startTCP(t, leaderSrv)

	follower := startTCP(t, NewServer(common.ServerConfig{Endpoint: "127.0.0.1:0", RedirectTo: &leader, TimeoutSecond: 5},
		tcp.NewTCPServerTransport(), serializer.NewMsgpackSerializer()))

	router, err := client.NewClusterRouter(common.ClientConfig{Seed: follower, TimeoutSecond: 5},
		tcp.NewTCPClientTransport(), serializer.NewMsgpackSerializer(), nil)
	require.NoError(t, err)

	ctx := context.Background()
	result := client.NewWriteRetrier(router, 0).AppendWithRetry(ctx, common.NewChangeData("x", 5), 3)
	require.True(t, result.Success)
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, leader, router.Leader())

	nested := map[string]interface{}{"list": []interface{}{"a", int64(2)}}
	result = client.NewWriteRetrier(router, 0).AppendWithRetry(ctx, common.NewChangeData("nested", nested), 3)
	require.True(t, result.Success)

	snapshot, err := router.FetchSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), snapshot.Data["x"])
	assert.Equal(t, nested, snapshot.Data["nested"])
	assert.Empty(t, snapshot.Cluster)

	resp, err := router.Send(ctx, common.NewDiagnosticRequest())
	require.NoError(t, err)
	assert.Equal(t, "leader", resp.Payload["role"])
	assert.Equal(t, int64(2), resp.Payload["keys"])
}

// TestMalformedRequestIsDropped verifies that undecodable requests are closed without answer
func TestMalformedRequestIsDropped(t *testing.T) {
	member := startTCP(t, newTestServer(nil))

	resp, err := tcp.NewTCPClientTransport().Request(context.Background(), member, []byte{0xc1})
	require.NoError(t, err)
	assert.Empty(t, resp)
}
