package client

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/ValentinKolb/dDict/rpc/common"
	"github.com/VictoriaMetrics/metrics"
)

// WriteRetrier wraps append requests with a bounded retry loop keyed on the
// success flag reported by the server.
type WriteRetrier struct {
	router  *ClusterRouter
	backoff time.Duration

	attempts  *metrics.Counter
	exhausted *metrics.Counter
}

// NewWriteRetrier creates a new retrier sending through router.
// backoff is the pause before the second attempt, doubled for every further attempt (0 = no pause).
func NewWriteRetrier(router *ClusterRouter, backoff time.Duration) *WriteRetrier {
	return &WriteRetrier{
		router:    router,
		backoff:   backoff,
		attempts:  router.metrics.GetOrCreateCounter("ddict_append_attempts_total"),
		exhausted: router.metrics.GetOrCreateCounter("ddict_append_exhausted_total"),
	}
}

// AppendWithRetry sends the payload until the server reports success or maxAttempts
// attempts were made (at least one). Errors of single attempts count as failed attempts.
//
// The last result is returned regardless of the outcome; exhaustion is not an error,
// callers must inspect AppendResult.Success.
func (w *WriteRetrier) AppendWithRetry(ctx context.Context, payload common.AppendData, maxAttempts int) common.AppendResult {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var result common.AppendResult
	backoff := w.backoff

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result.Attempts = attempt
		w.attempts.Inc()

		resp, err := w.router.Send(ctx, common.NewAppendRequest(payload))
		result.LastErr = err
		result.Success = err == nil && resp.Success
		if result.Success {
			return result
		}
		Logger.Debugf("Append attempt %d/%d (%s %q) failed: success=false err=%v", attempt, maxAttempts, payload.Action, payload.Key, err)

		// Stop early if the caller gave up
		if ctx.Err() != nil {
			break
		}

		if attempt < maxAttempts && backoff > 0 {
			// Exponential backoff with a small random jitter (+-10%)
			jitter := time.Duration(float64(backoff) * (0.9 + 0.2*rand.Float64()))
			select {
			case <-ctx.Done():
			case <-time.After(jitter):
			}
			if ctx.Err() != nil {
				break
			}
			backoff *= 2
		}
	}

	w.exhausted.Inc()
	Logger.Warningf("Append (%s %q) failed after %d attempts: %v", payload.Action, payload.Key, result.Attempts, result.LastErr)
	return result
}
