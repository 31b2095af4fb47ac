package policy

import (
	"fmt"
	"sync"

	"github.com/ValentinKolb/dDict/rpc/common"
)

// CountPolicy refreshes on every maximum-th read.
// With maximum 3 the sequence of decisions is false, false, true, false, false, true, ...
type CountPolicy struct {
	mu      sync.Mutex
	maximum int
	counter int
}

// NewCountPolicy creates a count gated policy. maximum must be at least 1;
// a maximum of 1 refreshes on every read.
func NewCountPolicy(maximum int) (*CountPolicy, error) {
	if maximum < 1 {
		return nil, common.NewError(common.ErrCInvalidConfiguration,
			fmt.Sprintf("count policy maximum must be at least 1, got %d", maximum), nil)
	}
	return &CountPolicy{maximum: maximum}, nil
}

func (p *CountPolicy) Decide() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.counter++
	if p.counter >= p.maximum {
		p.counter = 0
		return true
	}
	return false
}

func (p *CountPolicy) Name() string {
	return fmt.Sprintf("count:%d", p.maximum)
}
