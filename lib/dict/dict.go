package dict

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/ValentinKolb/dDict/lib/policy"
	"github.com/ValentinKolb/dDict/rpc/client"
	"github.com/ValentinKolb/dDict/rpc/common"
	"github.com/ValentinKolb/dDict/rpc/serializer"
	"github.com/ValentinKolb/dDict/rpc/transport"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
	uuid "github.com/satori/go.uuid"
)

var Logger = logger.GetLogger("dict")

// DistributedDict is a client of a replicated dictionary. It keeps a local mirror of the
// last snapshot fetched from the cluster and composes a client.ClusterRouter, a
// client.WriteRetrier and a policy.IRefreshPolicy.
//
// All operations of one instance are serialized, so a reader never observes a half
// replaced mirror. Independent instances share no state.
type DistributedDict struct {
	mu     sync.Mutex
	id     uuid.UUID
	mirror map[string]interface{}

	attempts int
	router   *client.ClusterRouter
	retrier  *client.WriteRetrier
	policy   policy.IRefreshPolicy

	metrics   *metrics.Set
	refreshes *metrics.Counter
	skipped   *metrics.Counter
}

// compile time check
var _ IDict = (*DistributedDict)(nil)

// NewDistributedDict creates a new dict seeded with config.Seed and populates the
// local mirror with a forced refresh. A nil refresh policy refreshes on every read.
func NewDistributedDict(
	ctx context.Context,
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
	refreshPolicy policy.IRefreshPolicy,
) (*DistributedDict, error) {
	set := metrics.NewSet()

	router, err := client.NewClusterRouter(config, transport, serializer, set)
	if err != nil {
		return nil, err
	}

	if refreshPolicy == nil {
		refreshPolicy = policy.NewAlwaysPolicy()
	}

	d := &DistributedDict{
		id:        uuid.NewV4(),
		mirror:    map[string]interface{}{},
		attempts:  config.Attempts(),
		router:    router,
		retrier:   client.NewWriteRetrier(router, time.Duration(config.RetryBackoffMs)*time.Millisecond),
		policy:    refreshPolicy,
		metrics:   set,
		refreshes: set.GetOrCreateCounter("ddict_refresh_total"),
		skipped:   set.GetOrCreateCounter("ddict_refresh_skipped_total"),
	}

	Logger.Infof("[%s] Created dict (seed %s, %s transport, %s serializer, policy %s)",
		d.id, config.Seed, transport.GetName(), serializer.GetName(), refreshPolicy.Name())

	if err := d.Refresh(ctx, true); err != nil {
		return nil, err
	}
	return d, nil
}

// --------------------------------------------------------------------------
// Refresh
// --------------------------------------------------------------------------

// Refresh replaces the local mirror with a new snapshot if force is set or the
// refresh policy allows it. Errors of the fetch are returned unchanged.
func (d *DistributedDict) Refresh(ctx context.Context, force bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.refresh(ctx, force)
}

func (d *DistributedDict) refresh(ctx context.Context, force bool) error {
	// The policy is only consulted if the refresh is not forced
	if !force && !d.policy.Decide() {
		d.skipped.Inc()
		Logger.Debugf("[%s] Refresh skipped by policy %s", d.id, d.policy.Name())
		return nil
	}

	snapshot, err := d.router.FetchSnapshot(ctx)
	if err != nil {
		return err
	}
	d.mirror = snapshot.Data
	d.refreshes.Inc()
	Logger.Debugf("[%s] Refreshed mirror: %d keys", d.id, len(d.mirror))
	return nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see dict.IDict)
// --------------------------------------------------------------------------

func (d *DistributedDict) Get(ctx context.Context, key string) (interface{}, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.refresh(ctx, false); err != nil {
		return nil, err
	}
	value, ok := d.mirror[key]
	if !ok {
		return nil, keyNotFound(key)
	}
	return value, nil
}

// Set does not update the local mirror. Under a policy other than always a following
// Get may return the previous value until the policy allows the next refresh.
func (d *DistributedDict) Set(ctx context.Context, key string, value interface{}) common.AppendResult {
	d.mu.Lock()
	defer d.mu.Unlock()

	result := d.retrier.AppendWithRetry(ctx, common.NewChangeData(key, value), d.attempts)
	Logger.Debugf("[%s] Set %q: success=%t after %d attempts", d.id, key, result.Success, result.Attempts)
	return result
}

// Delete forces a refresh, removes key from the local mirror and then appends the deletion.
// If all attempts fail the mirror lacks the key until the next refresh restores it.
func (d *DistributedDict) Delete(ctx context.Context, key string) (common.AppendResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.refresh(ctx, true); err != nil {
		return common.AppendResult{}, err
	}
	if _, ok := d.mirror[key]; !ok {
		return common.AppendResult{}, keyNotFound(key)
	}
	delete(d.mirror, key)

	result := d.retrier.AppendWithRetry(ctx, common.NewDeleteData(key), d.attempts)
	if !result.Success {
		Logger.Warningf("[%s] Delete of %q not committed after %d attempts, local view diverges until the next refresh", d.id, key, result.Attempts)
	}
	return result, nil
}

func (d *DistributedDict) Has(ctx context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.refresh(ctx, false); err != nil {
		return false, err
	}
	_, ok := d.mirror[key]
	return ok, nil
}

func (d *DistributedDict) Keys(ctx context.Context) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.refresh(ctx, false); err != nil {
		return nil, err
	}
	return slices.Sorted(maps.Keys(d.mirror)), nil
}

func (d *DistributedDict) Len(ctx context.Context) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.refresh(ctx, false); err != nil {
		return 0, err
	}
	return len(d.mirror), nil
}

// --------------------------------------------------------------------------
// Additional Methods
// --------------------------------------------------------------------------

// Items returns a copy of all key/value pairs
func (d *DistributedDict) Items(ctx context.Context) (map[string]interface{}, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.refresh(ctx, false); err != nil {
		return nil, err
	}
	return maps.Clone(d.mirror), nil
}

// Diagnostic asks the leader for diagnostic information. The local mirror is not touched.
func (d *DistributedDict) Diagnostic(ctx context.Context) (map[string]interface{}, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	resp, err := d.router.Send(ctx, common.NewDiagnosticRequest())
	if err != nil {
		return nil, err
	}
	return resp.Payload, nil
}

// ConfigureCluster asks the leader to change the cluster configuration
// (action is e.g. "add" or "delete"). The local mirror is not touched.
func (d *DistributedDict) ConfigureCluster(ctx context.Context, action, address string, port int) (map[string]interface{}, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	resp, err := d.router.Send(ctx, common.NewConfigRequest(action, address, port))
	if err != nil {
		return nil, err
	}
	Logger.Infof("[%s] Cluster configuration %s %s:%d sent to %s", d.id, action, address, port, d.router.Leader())
	return resp.Payload, nil
}

// Leader returns the believed leader
func (d *DistributedDict) Leader() common.ClusterMember {
	return d.router.Leader()
}

// Members returns the membership of the last snapshot
func (d *DistributedDict) Members() []common.ClusterMember {
	return d.router.Members()
}

// ID returns the instance id used in log lines
func (d *DistributedDict) ID() string {
	return d.id.String()
}

// Policy returns the refresh policy, e.g. to toggle a *policy.LockPolicy
func (d *DistributedDict) Policy() policy.IRefreshPolicy {
	return d.policy
}

// WritePrometheus writes the metrics of this instance in Prometheus text format
func (d *DistributedDict) WritePrometheus(w io.Writer) {
	d.metrics.WritePrometheus(w)
}

func keyNotFound(key string) error {
	return common.NewError(common.ErrCKeyNotFound, fmt.Sprintf("key %q not found", key), nil)
}
