package policy

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/dDict/rpc/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlwaysPolicy(t *testing.T) {
	p := NewAlwaysPolicy()
	for i := 0; i < 5; i++ {
		assert.True(t, p.Decide())
	}
}

func TestLockPolicy(t *testing.T) {
	p := NewLockPolicy(false)
	assert.False(t, p.Decide())
	assert.False(t, p.Decide(), "decide must not toggle the flag")

	p.Enable()
	assert.True(t, p.Decide())
	assert.True(t, p.Decide())

	p.SetStatus(false)
	assert.False(t, p.Decide())
	assert.Equal(t, "lock:false", p.Name())
}

// TestCountPolicySequence verifies the periodic sequence of decisions
func TestCountPolicySequence(t *testing.T) {
	p, err := NewCountPolicy(3)
	require.NoError(t, err)

	expected := []bool{false, false, true, false, false, true, false, false, true}
	for i, want := range expected {
		assert.Equal(t, want, p.Decide(), "decision %d", i)
	}
}

func TestCountPolicyBounds(t *testing.T) {
	for _, maximum := range []int{0, -1} {
		_, err := NewCountPolicy(maximum)
		assert.True(t, errors.Is(err, common.ErrInvalidConfiguration), "maximum %d", maximum)
	}

	p, err := NewCountPolicy(1)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		assert.True(t, p.Decide())
	}
}

// TestCountPolicyConcurrent verifies that concurrent decisions never lose a count
func TestCountPolicyConcurrent(t *testing.T) {
	p, err := NewCountPolicy(4)
	require.NoError(t, err)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		hits int
	)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				if p.Decide() {
					mu.Lock()
					hits++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 800/4, hits)
}

// TestTimePolicy verifies the decisions at 0s, 0.1s and 1.1s after the first refresh
func TestTimePolicy(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := base
	p, err := NewTimePolicyWithClock(time.Second, func() time.Time { return now })
	require.NoError(t, err)

	assert.True(t, p.Decide(), "first call")

	now = base.Add(100 * time.Millisecond)
	assert.False(t, p.Decide(), "0.1s later")

	now = base.Add(1100 * time.Millisecond)
	assert.True(t, p.Decide(), "1.1s after the first refresh")

	// the baseline moved to 1.1s
	now = base.Add(2 * time.Second)
	assert.False(t, p.Decide())

	// exactly one interval is not enough
	now = base.Add(2100 * time.Millisecond)
	assert.False(t, p.Decide())
}

func TestTimePolicyBounds(t *testing.T) {
	for _, interval := range []time.Duration{0, -time.Second} {
		_, err := NewTimePolicy(interval)
		assert.True(t, errors.Is(err, common.ErrInvalidConfiguration), "interval %s", interval)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		name string
	}{
		{"always", "always"},
		{"", "always"},
		{"lock", "lock:true"},
		{"lock:false", "lock:false"},
		{"count:10", "count:10"},
		{" Count:2 ", "count:2"},
		{"time:1500ms", "time:1.5s"},
	}
	for _, tt := range tests {
		p, err := Parse(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.name, p.Name(), tt.in)
	}

	for _, in := range []string{"sometimes", "count", "count:x", "count:0", "time:5", "time:-1s", "lock:maybe", "always:1"} {
		_, err := Parse(in)
		assert.True(t, errors.Is(err, common.ErrInvalidConfiguration), in)
	}
}
