package common

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsIntBounds(t *testing.T) {
	tests := []struct {
		in   interface{}
		want int
		ok   bool
	}{
		{int64(5254), 5254, true},
		{uint64(5254), 5254, true},
		{float64(7), 7, true},
		{json.Number("12"), 12, true},
		{int64(math.MaxInt32), math.MaxInt32, true},
		{int64(math.MinInt32), math.MinInt32, true},
		{int64(math.MaxInt32) + 1, 0, false},
		{int64(math.MinInt32) - 1, 0, false},
		{uint64(math.MaxInt32) + 1, 0, false},
		{float64(1 << 40), 0, false},
		{json.Number("4294967296"), 0, false},
		{float64(1.5), 0, false},
		{"1", 0, false},
	}
	for _, tt := range tests {
		got, ok := asInt(tt.in)
		assert.Equal(t, tt.ok, ok, "%T(%v)", tt.in, tt.in)
		assert.Equal(t, tt.want, got, "%T(%v)", tt.in, tt.in)
	}
}

func TestNormalizeKeepsLargeIntegers(t *testing.T) {
	assert.Equal(t, int64(math.MaxUint32), normalize(uint32(math.MaxUint32)))
	assert.Equal(t, int64(1<<40), normalize(1<<40))
}

func TestRedirectWithInvalidPort(t *testing.T) {
	for _, port := range []interface{}{int64(-1), int64(70000), uint64(1 << 40), "80"} {
		raw := map[string]interface{}{
			"type":   "redirect",
			"leader": []interface{}{"node-1", port},
		}
		_, err := ParseResponse(MsgTGet, raw)
		require.Error(t, err, "port %v", port)
		assert.True(t, errors.Is(err, ErrDecode), "port %v", port)
	}

	resp, err := ParseResponse(MsgTGet, map[string]interface{}{
		"type":   "redirect",
		"leader": []interface{}{"node-1", uint64(65535)},
	})
	require.NoError(t, err)
	assert.Equal(t, ClusterMember{Address: "node-1", Port: 65535}, resp.Leader)
}

func TestSnapshotWithInvalidMemberPort(t *testing.T) {
	raw := map[string]interface{}{
		"data":    map[string]interface{}{},
		"cluster": []interface{}{[]interface{}{"node-1", int64(5254)}, []interface{}{"node-2", int64(65536)}},
	}
	_, err := ParseResponse(MsgTGet, raw)
	assert.True(t, errors.Is(err, ErrDecode))
}

func TestConfigRequestWithInvalidPort(t *testing.T) {
	_, err := MessageFromMap(NewConfigRequest("add", "node-4", 70000).ToMap())
	assert.True(t, errors.Is(err, ErrDecode))

	msg, err := MessageFromMap(NewConfigRequest("add", "node-4", 5254).ToMap())
	require.NoError(t, err)
	assert.Equal(t, 5254, msg.Port)
}
