package dict

import (
	"context"

	"github.com/ValentinKolb/dDict/rpc/common"
)

// IDict is the map personality of a distributed dict. Reads are served from the
// locally cached snapshot, which is refreshed according to the refresh policy
// before every read. Writes are sent to the cluster and never patch the cache.
type IDict interface {
	// Get returns the value of key. It fails with a KeyNotFound error if the key is absent.
	Get(ctx context.Context, key string) (value interface{}, err error)
	// Set appends a change of key to the log of the cluster.
	// A failed write is reported through AppendResult.Success, not as an error.
	Set(ctx context.Context, key string, value interface{}) common.AppendResult
	// Delete removes key from the local view immediately and appends its deletion to the log.
	// The error is non-nil only if the forced refresh failed or the key does not exist.
	Delete(ctx context.Context, key string) (common.AppendResult, error)
	// Has returns whether key exists
	Has(ctx context.Context, key string) (bool, error)
	// Keys returns all keys in ascending order
	Keys(ctx context.Context) ([]string, error)
	// Len returns the number of keys
	Len(ctx context.Context) (int, error)
}
