package serializer

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/ValentinKolb/dDict/rpc/common"
)

// testSerializers is a map of serializer name to factory function
var testSerializers = map[string]func() IRPCSerializer{
	"JSON":    NewJSONSerializer,
	"Msgpack": NewMsgpackSerializer,
}

// testRequests creates one request of every type
func testRequests() []*common.Message {
	return []*common.Message{
		common.NewGetRequest(),
		common.NewAppendRequest(common.NewChangeData("test-key", "test-value")),
		common.NewAppendRequest(common.NewChangeData("counter", 42)),
		common.NewAppendRequest(common.NewDeleteData("test-key")),
		common.NewDiagnosticRequest(),
		common.NewConfigRequest("add", "10.0.0.7", 5254),
	}
}

// TestRequestRoundTrip tests that requests survive encoding with their types intact
func TestRequestRoundTrip(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for i, req := range testRequests() {
				data, err := serializer.Serialize(req.ToMap())
				if err != nil {
					t.Errorf("Failed to serialize request %d: %v", i, err)
					continue
				}

				raw, err := serializer.Deserialize(data)
				if err != nil {
					t.Errorf("Failed to deserialize request %d: %v", i, err)
					continue
				}

				result, err := common.MessageFromMap(raw)
				if err != nil {
					t.Errorf("Failed to parse request %d: %v", i, err)
					continue
				}

				// integers come back as int64 from every codec
				if req.Data != nil {
					if v, ok := req.Data.Value.(int); ok {
						req.Data.Value = int64(v)
					}
				}

				if !reflect.DeepEqual(req, result) {
					t.Errorf("Request %d doesn't match after round trip:\nOriginal: %+v\nResult: %+v", i, req, result)
				}
			}
		})
	}
}

// TestSnapshotKeepsNamespacesApart tests that an application key named like the
// membership field does not disturb the membership list
func TestSnapshotKeepsNamespacesApart(t *testing.T) {
	cluster := []common.ClusterMember{{Address: "a", Port: 1}, {Address: "b", Port: 2}}
	data := map[string]interface{}{
		"cluster": "application value",
		"x":       "y",
	}

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			b, err := serializer.Serialize(common.NewSnapshotResponse(data, cluster).ToMap())
			if err != nil {
				t.Fatalf("Failed to serialize snapshot: %v", err)
			}
			raw, err := serializer.Deserialize(b)
			if err != nil {
				t.Fatalf("Failed to deserialize snapshot: %v", err)
			}
			resp, err := common.ParseResponse(common.MsgTGet, raw)
			if err != nil {
				t.Fatalf("Failed to parse snapshot: %v", err)
			}

			if resp.Kind != common.RespKSnapshot {
				t.Fatalf("Expected snapshot, got %s", resp.Kind)
			}
			if !reflect.DeepEqual(resp.Snapshot.Cluster, cluster) {
				t.Errorf("Membership changed: %+v", resp.Snapshot.Cluster)
			}
			if resp.Snapshot.Data["cluster"] != "application value" {
				t.Errorf("Application key 'cluster' lost: %+v", resp.Snapshot.Data)
			}
		})
	}
}

// TestRedirectOverridesRequestType tests that a redirect is recognized for every request type
func TestRedirectOverridesRequestType(t *testing.T) {
	leader := common.ClusterMember{Address: "leader", Port: 9000}

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()
			b, err := serializer.Serialize(common.NewRedirectResponse(leader).ToMap())
			if err != nil {
				t.Fatalf("Failed to serialize redirect: %v", err)
			}

			for _, reqType := range []common.MessageType{common.MsgTGet, common.MsgTAppend, common.MsgTDiagnostic, common.MsgTConfig} {
				raw, err := serializer.Deserialize(b)
				if err != nil {
					t.Fatalf("Failed to deserialize redirect: %v", err)
				}
				resp, err := common.ParseResponse(reqType, raw)
				if err != nil {
					t.Fatalf("Failed to parse redirect for %s: %v", reqType, err)
				}
				if resp.Kind != common.RespKRedirect || resp.Leader != leader {
					t.Errorf("Expected redirect to %s for %s, got %+v", leader, reqType, resp)
				}
			}
		})
	}
}

// TestMalformedInput tests that garbage is reported as a decode error
func TestMalformedInput(t *testing.T) {
	inputs := map[string][]byte{
		"empty":     {},
		"truncated": {0x82, 0xa4, 't'},
		"not a map": []byte("42"),
		"garbage":   []byte("{not json"),
	}

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()
			for inputName, input := range inputs {
				_, err := serializer.Deserialize(input)
				if err == nil {
					t.Errorf("Expected error for %s input", inputName)
					continue
				}
				if !errors.Is(err, common.ErrDecode) {
					t.Errorf("Expected decode error for %s input, got %v", inputName, err)
				}
			}
		})
	}
}

// TestDeserializeFromReadsOneMessage tests that stream decoding stops after the first message
func TestDeserializeFromReadsOneMessage(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			first, err := serializer.Serialize(common.NewDiagnosticRequest().ToMap())
			if err != nil {
				t.Fatalf("Failed to serialize: %v", err)
			}
			second, err := serializer.Serialize(common.NewGetRequest().ToMap())
			if err != nil {
				t.Fatalf("Failed to serialize: %v", err)
			}

			stream := bytes.NewReader(append(first, second...))
			raw, err := serializer.DeserializeFrom(stream)
			if err != nil {
				t.Fatalf("Failed to read first message: %v", err)
			}
			msg, err := common.MessageFromMap(raw)
			if err != nil {
				t.Fatalf("Failed to parse first message: %v", err)
			}
			if msg.MsgType != common.MsgTDiagnostic {
				t.Errorf("Expected diagnostic, got %s", msg.MsgType)
			}
		})
	}
}
