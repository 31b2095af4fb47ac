package policy

import (
	"strconv"
	"sync/atomic"
)

// LockPolicy refreshes while its flag is set. The flag is owned by the caller;
// Decide only reads it.
type LockPolicy struct {
	status atomic.Bool
}

// NewLockPolicy creates a lock gated policy with the given initial flag
func NewLockPolicy(status bool) *LockPolicy {
	p := &LockPolicy{}
	p.status.Store(status)
	return p
}

// SetStatus sets the flag
func (p *LockPolicy) SetStatus(status bool) {
	p.status.Store(status)
}

// Enable allows refreshes
func (p *LockPolicy) Enable() {
	p.status.Store(true)
}

// Disable suppresses refreshes
func (p *LockPolicy) Disable() {
	p.status.Store(false)
}

// Status returns the current flag
func (p *LockPolicy) Status() bool {
	return p.status.Load()
}

func (p *LockPolicy) Decide() bool {
	return p.status.Load()
}

func (p *LockPolicy) Name() string {
	return "lock:" + strconv.FormatBool(p.status.Load())
}
