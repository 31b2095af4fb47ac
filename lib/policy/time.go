package policy

import (
	"fmt"
	"sync"
	"time"

	"github.com/ValentinKolb/dDict/rpc/common"
)

// TimePolicy refreshes if no refresh was decided yet or if more than interval
// passed since the last positive decision.
type TimePolicy struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
	now      func() time.Time
}

// NewTimePolicy creates a time gated policy using the wall clock
func NewTimePolicy(interval time.Duration) (*TimePolicy, error) {
	return NewTimePolicyWithClock(interval, time.Now)
}

// NewTimePolicyWithClock creates a time gated policy reading the time from now
func NewTimePolicyWithClock(interval time.Duration, now func() time.Time) (*TimePolicy, error) {
	if interval <= 0 {
		return nil, common.NewError(common.ErrCInvalidConfiguration,
			fmt.Sprintf("time policy interval must be positive, got %s", interval), nil)
	}
	if now == nil {
		now = time.Now
	}
	return &TimePolicy{interval: interval, now: now}, nil
}

func (p *TimePolicy) Decide() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	t := p.now()
	if p.last.IsZero() || t.Sub(p.last) > p.interval {
		p.last = t
		return true
	}
	return false
}

func (p *TimePolicy) Name() string {
	return "time:" + p.interval.String()
}
