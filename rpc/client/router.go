package client

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/ValentinKolb/dDict/rpc/common"
	"github.com/ValentinKolb/dDict/rpc/serializer"
	"github.com/ValentinKolb/dDict/rpc/transport"
	"github.com/VictoriaMetrics/metrics"
)

// ClusterRouter hides leader discovery from its callers. It tracks the believed
// leader of one client session, sends requests to it and transparently follows
// redirects, bounded by a maximum number of hops.
//
// The router is safe for concurrent use, but concurrent callers may race on
// which redirect updates the tracked leader last.
type ClusterRouter struct {
	mu      sync.Mutex
	leader  common.ClusterMember
	members []common.ClusterMember
	maxHops int

	transport  transport.IRPCClientTransport
	serializer serializer.IRPCSerializer

	// pick returns a random index in [0, n)
	pick func(n int) int

	metrics   *metrics.Set
	redirects *metrics.Counter
	failures  *metrics.Counter
	duration  *metrics.Histogram
}

// NewClusterRouter creates a new router seeded with config.Seed as the believed leader
// and the only known member. Metrics are registered in set (a new set is created if nil).
func NewClusterRouter(
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
	set *metrics.Set,
) (*ClusterRouter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Configure the transport
	if err := transport.Configure(config); err != nil {
		return nil, err
	}

	if set == nil {
		set = metrics.NewSet()
	}

	return &ClusterRouter{
		leader:     config.Seed,
		members:    []common.ClusterMember{config.Seed},
		maxHops:    config.MaxRedirectHops,
		transport:  transport,
		serializer: serializer,
		pick:       rand.IntN,
		metrics:    set,
		redirects:  set.GetOrCreateCounter("ddict_redirects_total"),
		failures:   set.GetOrCreateCounter("ddict_request_errors_total"),
		duration:   set.GetOrCreateHistogram("ddict_request_duration_seconds"),
	}, nil
}

// --------------------------------------------------------------------------
// Public Methods
// --------------------------------------------------------------------------

// Send sends msg to the believed leader and follows redirects.
// It fails with a RedirectLoopError if more than the hop bound of redirects is received.
func (r *ClusterRouter) Send(ctx context.Context, msg *common.Message) (*common.Response, error) {
	return r.route(ctx, r.Leader(), msg)
}

// FetchSnapshot requests the full state from a member chosen uniformly at random
// from the last known membership and replaces the membership with the one of the snapshot.
// Reads do not need the leader, but a redirect still updates the tracked leader.
func (r *ClusterRouter) FetchSnapshot(ctx context.Context) (*common.Snapshot, error) {
	contact := r.contactPoint()

	resp, err := r.route(ctx, contact, common.NewGetRequest())
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.members = append([]common.ClusterMember(nil), resp.Snapshot.Cluster...)
	r.mu.Unlock()

	Logger.Debugf("Fetched snapshot from %s: %d keys, %d members", contact, len(resp.Snapshot.Data), len(resp.Snapshot.Cluster))
	return resp.Snapshot, nil
}

// Leader returns the believed leader
func (r *ClusterRouter) Leader() common.ClusterMember {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.leader
}

// Members returns a copy of the last known membership
func (r *ClusterRouter) Members() []common.ClusterMember {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]common.ClusterMember(nil), r.members...)
}

// HopBound returns the maximum number of redirects followed per request
func (r *ClusterRouter) HopBound() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.maxHops > 0 {
		return r.maxHops
	}
	return max(common.DefaultMaxRedirectHops, len(r.members))
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// route sends msg to target and re-sends it to the announced leader on every redirect
func (r *ClusterRouter) route(ctx context.Context, target common.ClusterMember, msg *common.Message) (*common.Response, error) {
	maxHops := r.HopBound()

	for hops := 0; ; hops++ {
		start := time.Now()
		resp, err := invokeRPCRequest(ctx, target, msg, r.transport, r.serializer)
		r.duration.UpdateDuration(start)
		r.metrics.GetOrCreateCounter(fmt.Sprintf(`ddict_requests_total{type=%q}`, msg.MsgType)).Inc()
		if err != nil {
			r.failures.Inc()
			Logger.Debugf("%s request to %s failed: %v", msg.MsgType, target, err)
			return nil, err
		}

		if resp.Kind != common.RespKRedirect {
			return resp, nil
		}

		if hops >= maxHops {
			r.failures.Inc()
			Logger.Warningf("%s request exceeded %d redirect hops, last redirect from %s to %s", msg.MsgType, maxHops, target, resp.Leader)
			return nil, common.NewError(common.ErrCRedirectLoop,
				fmt.Sprintf("%s request exceeded %d redirect hops (last redirect to %s)", msg.MsgType, maxHops, resp.Leader), nil)
		}

		r.redirects.Inc()
		Logger.Debugf("Redirected from %s to %s (hop %d/%d)", target, resp.Leader, hops+1, maxHops)

		r.mu.Lock()
		r.leader = resp.Leader
		r.mu.Unlock()

		target = resp.Leader
	}
}

// contactPoint selects a random member of the last known membership, or the leader if none is known
func (r *ClusterRouter) contactPoint() common.ClusterMember {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.members) == 0 {
		return r.leader
	}
	return r.members[r.pick(len(r.members))]
}
