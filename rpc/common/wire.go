package common

import (
	"encoding/json"
	"fmt"
	"math"
)

// --------------------------------------------------------------------------
// Helpers for interpreting decoded (schemaless) values.
// Decoders differ in the concrete types they produce (msgpack yields
// int64/uint64 and possibly []byte or map[interface{}]interface{},
// json yields float64 or json.Number), so every access goes through these.
// --------------------------------------------------------------------------

func asString(v interface{}) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case []byte:
		return string(s), true
	default:
		return "", false
	}
}

// asInt accepts integral values of any decoded numeric type that fit into an int32
func asInt(v interface{}) (int, bool) {
	var n int64
	switch x := v.(type) {
	case int:
		n = int64(x)
	case int8:
		n = int64(x)
	case int16:
		n = int64(x)
	case int32:
		n = int64(x)
	case int64:
		n = x
	case uint8:
		n = int64(x)
	case uint16:
		n = int64(x)
	case uint32:
		n = int64(x)
	case uint64:
		if x > math.MaxInt32 {
			return 0, false
		}
		n = int64(x)
	case float64:
		if x != math.Trunc(x) || x > math.MaxInt32 || x < math.MinInt32 {
			return 0, false
		}
		n = int64(x)
	case json.Number:
		i, err := x.Int64()
		if err != nil {
			return 0, false
		}
		n = i
	default:
		return 0, false
	}
	if n > math.MaxInt32 || n < math.MinInt32 {
		return 0, false
	}
	return int(n), true
}

// asPort accepts integral values in the TCP port range
func asPort(v interface{}) (int, bool) {
	port, ok := asInt(v)
	if !ok || port < 0 || port > math.MaxUint16 {
		return 0, false
	}
	return port, true
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(m))
		for k, val := range m {
			key, ok := asString(k)
			if !ok {
				key = fmt.Sprint(k)
			}
			out[key] = val
		}
		return out, true
	default:
		return nil, false
	}
}

// NormalizeValue converts a decoded value into the representation produced by ParseResponse:
// maps become map[string]interface{}, integers become int64 and json numbers int64 or float64
func NormalizeValue(v interface{}) interface{} {
	return normalize(v)
}

// normalize converts nested generic maps into map[string]interface{} and
// json numbers into int64 or float64 so values compare the same regardless of the codec
func normalize(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}, map[interface{}]interface{}:
		m, _ := asMap(val)
		for k, inner := range m {
			m[k] = normalize(inner)
		}
		return m
	case []interface{}:
		for i, inner := range val {
			val[i] = normalize(inner)
		}
		return val
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		f, _ := val.Float64()
		return f
	case int:
		return int64(val)
	case int8:
		return int64(val)
	case int16:
		return int64(val)
	case int32:
		return int64(val)
	case uint8:
		return int64(val)
	case uint16:
		return int64(val)
	case uint32:
		return int64(val)
	case uint64:
		if val <= math.MaxInt64 {
			return int64(val)
		}
		return val
	default:
		return v
	}
}

// memberFromWire parses the [address, port] pair used on the wire
func memberFromWire(v interface{}) (ClusterMember, error) {
	pair, ok := v.([]interface{})
	if !ok || len(pair) != 2 {
		return ClusterMember{}, NewError(ErrCDecode, fmt.Sprintf("malformed member %v", v), nil)
	}
	address, ok := asString(pair[0])
	if !ok {
		return ClusterMember{}, NewError(ErrCDecode, fmt.Sprintf("malformed member address %v", pair[0]), nil)
	}
	port, ok := asPort(pair[1])
	if !ok {
		return ClusterMember{}, NewError(ErrCDecode, fmt.Sprintf("malformed member port %v", pair[1]), nil)
	}
	return ClusterMember{Address: address, Port: port}, nil
}
