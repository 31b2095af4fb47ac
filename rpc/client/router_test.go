package client

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/ValentinKolb/dDict/rpc/common"
	"github.com/ValentinKolb/dDict/rpc/serializer"
	"github.com/ValentinKolb/dDict/rpc/transport/fake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	memberA = common.ClusterMember{Address: "a", Port: 1}
	memberB = common.ClusterMember{Address: "b", Port: 2}
	memberC = common.ClusterMember{Address: "c", Port: 3}
)

// newTestRouter creates a router seeded with memberA on top of a fake transport
func newTestRouter(t *testing.T, maxHops int) (*ClusterRouter, *fake.Transport) {
	t.Helper()
	ft := fake.NewTransport(serializer.NewMsgpackSerializer())
	router, err := NewClusterRouter(common.ClientConfig{Seed: memberA, MaxRedirectHops: maxHops}, ft, serializer.NewMsgpackSerializer(), nil)
	require.NoError(t, err)
	return router, ft
}

// snapshotHandler answers get requests with a fixed snapshot
func snapshotHandler(data map[string]interface{}, cluster ...common.ClusterMember) fake.Handler {
	return func(_ common.ClusterMember, msg *common.Message) (*common.Response, error) {
		if msg.MsgType != common.MsgTGet {
			return common.NewAppendResponse(true), nil
		}
		return common.NewSnapshotResponse(data, cluster), nil
	}
}

// TestNewClusterRouter verifies the initial session state
func TestNewClusterRouter(t *testing.T) {
	router, ft := newTestRouter(t, 0)

	assert.Equal(t, memberA, router.Leader())
	assert.Equal(t, []common.ClusterMember{memberA}, router.Members())
	assert.Equal(t, common.DefaultMaxRedirectHops, router.HopBound())
	assert.Equal(t, memberA, ft.Config().Seed, "transport must be configured")

	_, err := NewClusterRouter(common.ClientConfig{}, ft, serializer.NewMsgpackSerializer(), nil)
	assert.True(t, errors.Is(err, common.ErrInvalidConfiguration))
}

// TestRedirectConvergence verifies that a redirect updates the leader and the request is resent
func TestRedirectConvergence(t *testing.T) {
	router, ft := newTestRouter(t, 0)
	ft.Handle(memberA, fake.Redirect(memberB))
	ft.Handle(memberB, snapshotHandler(map[string]interface{}{"k": "from-b"}, memberA, memberB))

	snapshot, err := router.FetchSnapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, memberB, router.Leader())
	assert.Equal(t, "from-b", snapshot.Data["k"])
	assert.Equal(t, []common.ClusterMember{memberA, memberB}, router.Members())

	calls := ft.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, memberA, calls[0].Member)
	assert.Equal(t, memberB, calls[1].Member)
	assert.Equal(t, calls[0].Msg, calls[1].Msg, "the same request must be resent")
}

// TestSendFollowsRedirectChain verifies that writes reach the leader through several hops
func TestSendFollowsRedirectChain(t *testing.T) {
	router, ft := newTestRouter(t, 3)
	ft.Handle(memberA, fake.Redirect(memberB))
	ft.Handle(memberB, fake.Redirect(memberC))
	ft.Handle(memberC, appendHandler(true, true))

	resp, err := router.Send(context.Background(), common.NewAppendRequest(common.NewChangeData("x", 5)))
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, memberC, router.Leader())

	calls := ft.Calls()
	require.Len(t, calls, 3)
	for _, c := range calls {
		require.Equal(t, common.MsgTAppend, c.Msg.MsgType)
		assert.Equal(t, "x", c.Msg.Data.Key)
	}

	// the next request goes to the leader directly
	ft.Reset()
	_, err = router.Send(context.Background(), common.NewAppendRequest(common.NewChangeData("y", 6)))
	require.NoError(t, err)
	calls = ft.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, memberC, calls[0].Member)
	assert.Equal(t, "y", calls[0].Msg.Data.Key)
}

// TestHopBound verifies that a redirect chain longer than the bound fails with a RedirectLoopError
func TestHopBound(t *testing.T) {
	router, ft := newTestRouter(t, 3)

	// a -> m1 -> m2 -> m3 -> m4 -> ... (every member redirects to the next)
	ft.HandleAll(func(member common.ClusterMember, _ *common.Message) (*common.Response, error) {
		return common.NewRedirectResponse(common.ClusterMember{Address: "m", Port: member.Port + 1}), nil
	})

	_, err := router.Send(context.Background(), common.NewDiagnosticRequest())
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrRedirectLoop))

	// 1 initial request + 3 followed hops
	assert.Len(t, ft.Calls(), 4)
	// the unfollowed redirect does not update the leader
	assert.Equal(t, common.ClusterMember{Address: "m", Port: 4}, router.Leader())
}

// TestHopBoundLoop verifies that two members redirecting to each other terminate
func TestHopBoundLoop(t *testing.T) {
	router, ft := newTestRouter(t, 0)
	ft.Handle(memberA, fake.Redirect(memberB))
	ft.Handle(memberB, fake.Redirect(memberA))

	_, err := router.FetchSnapshot(context.Background())
	assert.True(t, errors.Is(err, common.ErrRedirectLoop))
	assert.Len(t, ft.Calls(), common.DefaultMaxRedirectHops+1)
}

// TestHopBoundGrowsWithCluster verifies the automatic bound follows the cluster size
func TestHopBoundGrowsWithCluster(t *testing.T) {
	router, ft := newTestRouter(t, 0)

	cluster := make([]common.ClusterMember, 0, 8)
	for i := 0; i < 8; i++ {
		cluster = append(cluster, common.ClusterMember{Address: "n" + strconv.Itoa(i), Port: i})
	}
	ft.HandleAll(snapshotHandler(map[string]interface{}{}, cluster...))

	_, err := router.FetchSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, router.HopBound())
}

// TestFetchSnapshotPicksRandomMember verifies that reads are spread over the membership
func TestFetchSnapshotPicksRandomMember(t *testing.T) {
	router, ft := newTestRouter(t, 0)
	ft.HandleAll(snapshotHandler(map[string]interface{}{}, memberA, memberB, memberC))

	_, err := router.FetchSnapshot(context.Background())
	require.NoError(t, err)

	// deterministic picks
	picks := []int{2, 1, 0}
	router.pick = func(n int) int {
		assert.Equal(t, 3, n)
		p := picks[0]
		picks = picks[1:]
		return p
	}

	ft.Reset()
	for i := 0; i < 3; i++ {
		_, err := router.FetchSnapshot(context.Background())
		require.NoError(t, err)
	}

	calls := ft.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, memberC, calls[0].Member)
	assert.Equal(t, memberB, calls[1].Member)
	assert.Equal(t, memberA, calls[2].Member)

	// reading from a follower does not move the leader
	assert.Equal(t, memberA, router.Leader())
}

// TestFetchSnapshotWithoutMembersUsesLeader verifies the fallback for an empty membership
func TestFetchSnapshotWithoutMembersUsesLeader(t *testing.T) {
	router, ft := newTestRouter(t, 0)
	ft.HandleAll(snapshotHandler(map[string]interface{}{"k": int64(1)}))

	_, err := router.FetchSnapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, router.Members())

	ft.Reset()
	_, err = router.FetchSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, memberA, ft.Calls()[0].Member)
}

// TestSendPropagatesErrors verifies that network and decode errors reach the caller
func TestSendPropagatesErrors(t *testing.T) {
	router, ft := newTestRouter(t, 0)

	ft.Handle(memberA, fake.Refuse())
	_, err := router.FetchSnapshot(context.Background())
	assert.True(t, errors.Is(err, common.ErrNetwork))

	// an append answer to a get request lacks the snapshot fields
	ft.Handle(memberA, func(common.ClusterMember, *common.Message) (*common.Response, error) {
		return common.NewAppendResponse(true), nil
	})
	_, err = router.FetchSnapshot(context.Background())
	assert.True(t, errors.Is(err, common.ErrDecode))

	// closing without answer
	ft.Handle(memberA, func(common.ClusterMember, *common.Message) (*common.Response, error) {
		return nil, nil
	})
	_, err = router.Send(context.Background(), common.NewDiagnosticRequest())
	assert.True(t, errors.Is(err, common.ErrDecode))
}

// TestSendReportsEncodeFailures verifies that a request the serializer cannot encode never reaches the network
func TestSendReportsEncodeFailures(t *testing.T) {
	ft := fake.NewTransport(serializer.NewJSONSerializer())
	router, err := NewClusterRouter(common.ClientConfig{Seed: memberA}, ft, serializer.NewJSONSerializer(), nil)
	require.NoError(t, err)

	_, err = router.Send(context.Background(), common.NewAppendRequest(common.NewChangeData("x", func() {})))
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrEncode))
	assert.False(t, errors.Is(err, common.ErrDecode))
	assert.Empty(t, ft.Calls())
}
