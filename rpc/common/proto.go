package common

import (
	"fmt"
	"net"
	"strconv"
)

// --------------------------------------------------------------------------
// Cluster Member
// --------------------------------------------------------------------------

// ClusterMember identifies one reachable node of the cluster
type ClusterMember struct {
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
}

// String returns the member in host:port notation
func (m ClusterMember) String() string {
	return net.JoinHostPort(m.Address, strconv.Itoa(m.Port))
}

// IsZero reports whether the member is unset
func (m ClusterMember) IsZero() bool {
	return m.Address == "" && m.Port == 0
}

// ParseClusterMember parses a member in host:port notation
func ParseClusterMember(s string) (ClusterMember, error) {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return ClusterMember{}, NewError(ErrCInvalidConfiguration, fmt.Sprintf("invalid member %q", s), err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 0 || port > 65535 {
		return ClusterMember{}, NewError(ErrCInvalidConfiguration, fmt.Sprintf("invalid port in member %q", s), err)
	}
	return ClusterMember{Address: host, Port: port}, nil
}

// toWire encodes the member as the [address, port] pair used on the wire
func (m ClusterMember) toWire() []interface{} {
	return []interface{}{m.Address, m.Port}
}

// --------------------------------------------------------------------------
// Message Structure (requests)
// --------------------------------------------------------------------------

// Message represents a single request sent to a cluster member.
// Which fields are used depends on the type of message.
type Message struct {
	// Type of message
	MsgType MessageType

	// Used for: Append
	Data *AppendData

	// Used for: Config
	Action  string
	Address string
	Port    int
}

// AppendData is the payload of an append request
type AppendData struct {
	Action AppendAction
	Key    string
	Value  interface{} // Only used for AppendChange
}

// AppendAction is the kind of change an append request carries
type AppendAction string

const (
	AppendChange AppendAction = "change"
	AppendDelete AppendAction = "delete"
)

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewGetRequest creates a new Get request (full snapshot transfer)
func NewGetRequest() *Message {
	return &Message{MsgType: MsgTGet}
}

// NewAppendRequest creates a new Append request carrying the given payload
func NewAppendRequest(data AppendData) *Message {
	return &Message{
		MsgType: MsgTAppend,
		Data:    &data,
	}
}

// NewChangeData creates the append payload for setting key to value
func NewChangeData(key string, value interface{}) AppendData {
	return AppendData{Action: AppendChange, Key: key, Value: value}
}

// NewDeleteData creates the append payload for removing key
func NewDeleteData(key string) AppendData {
	return AppendData{Action: AppendDelete, Key: key}
}

// NewDiagnosticRequest creates a new Diagnostic request
func NewDiagnosticRequest() *Message {
	return &Message{MsgType: MsgTDiagnostic}
}

// NewConfigRequest creates a new cluster Config request
func NewConfigRequest(action, address string, port int) *Message {
	return &Message{
		MsgType: MsgTConfig,
		Action:  action,
		Address: address,
		Port:    port,
	}
}

// ToMap converts the message into the generic map shape that is handed to a serializer
func (m *Message) ToMap() map[string]interface{} {
	out := map[string]interface{}{"type": m.MsgType.String()}
	switch m.MsgType {
	case MsgTAppend:
		data := map[string]interface{}{}
		if m.Data != nil {
			data["action"] = string(m.Data.Action)
			data["key"] = m.Data.Key
			if m.Data.Action == AppendChange {
				data["value"] = m.Data.Value
			}
		}
		out["data"] = data
	case MsgTConfig:
		out["action"] = m.Action
		out["address"] = m.Address
		out["port"] = m.Port
	}
	return out
}

// MessageFromMap parses a decoded request map
func MessageFromMap(raw map[string]interface{}) (*Message, error) {
	typ, ok := asString(raw["type"])
	if !ok {
		return nil, NewError(ErrCDecode, "request without type", nil)
	}
	msgType, err := ParseMessageType(typ)
	if err != nil {
		return nil, err
	}

	msg := &Message{MsgType: msgType}
	switch msgType {
	case MsgTAppend:
		data, ok := asMap(raw["data"])
		if !ok {
			return nil, NewError(ErrCDecode, "append request without data", nil)
		}
		action, _ := asString(data["action"])
		key, ok := asString(data["key"])
		if !ok {
			return nil, NewError(ErrCDecode, "append request without key", nil)
		}
		switch AppendAction(action) {
		case AppendChange, AppendDelete:
		default:
			return nil, NewError(ErrCDecode, fmt.Sprintf("unknown append action %q", action), nil)
		}
		msg.Data = &AppendData{Action: AppendAction(action), Key: key, Value: normalize(data["value"])}
	case MsgTConfig:
		msg.Action, _ = asString(raw["action"])
		msg.Address, _ = asString(raw["address"])
		port, ok := asPort(raw["port"])
		if !ok {
			return nil, NewError(ErrCDecode, fmt.Sprintf("config request with invalid port %v", raw["port"]), nil)
		}
		msg.Port = port
	case MsgTRedirect:
		return nil, NewError(ErrCDecode, "redirect is not a request", nil)
	}
	return msg, nil
}

// --------------------------------------------------------------------------
// Response Structure
// --------------------------------------------------------------------------

// Snapshot is the full authoritative state as of one Get round-trip.
// Membership is carried apart from the application keys.
type Snapshot struct {
	Data    map[string]interface{}
	Cluster []ClusterMember
}

// AppendResult is the outcome of an append request (or a bounded series of them)
type AppendResult struct {
	Success bool
	// Attempts is the number of append requests issued
	Attempts int
	// LastErr holds the error of the last attempt if it failed without a server answer
	LastErr error
}

// Response is the decoded answer of a cluster member. Kind tells which field is populated.
type Response struct {
	Kind     ResponseKind
	Leader   ClusterMember          // Redirect
	Snapshot *Snapshot              // Snapshot
	Success  bool                   // Append
	Payload  map[string]interface{} // Diagnostic, Config
}

// ResponseKind is the shape of a response
type ResponseKind uint8

const (
	RespKUnknown ResponseKind = iota
	RespKRedirect
	RespKSnapshot
	RespKAppend
	RespKPayload
)

// String returns the string representation of a ResponseKind.
func (k ResponseKind) String() string {
	switch k {
	case RespKRedirect:
		return "redirect"
	case RespKSnapshot:
		return "snapshot"
	case RespKAppend:
		return "append"
	case RespKPayload:
		return "payload"
	default:
		return "unknown"
	}
}

// NewRedirectResponse creates a redirect pointing at leader
func NewRedirectResponse(leader ClusterMember) *Response {
	return &Response{Kind: RespKRedirect, Leader: leader}
}

// NewSnapshotResponse creates a snapshot response
func NewSnapshotResponse(data map[string]interface{}, cluster []ClusterMember) *Response {
	return &Response{Kind: RespKSnapshot, Snapshot: &Snapshot{Data: data, Cluster: cluster}}
}

// NewAppendResponse creates an append response
func NewAppendResponse(success bool) *Response {
	return &Response{Kind: RespKAppend, Success: success}
}

// NewPayloadResponse creates a diagnostic or config response
func NewPayloadResponse(payload map[string]interface{}) *Response {
	return &Response{Kind: RespKPayload, Payload: payload}
}

// ToMap converts the response into the generic map shape that is handed to a serializer
func (r *Response) ToMap() map[string]interface{} {
	switch r.Kind {
	case RespKRedirect:
		return map[string]interface{}{
			"type":   MsgTRedirect.String(),
			"leader": r.Leader.toWire(),
		}
	case RespKSnapshot:
		data := r.Snapshot.Data
		if data == nil {
			data = map[string]interface{}{}
		}
		cluster := make([]interface{}, 0, len(r.Snapshot.Cluster))
		for _, m := range r.Snapshot.Cluster {
			cluster = append(cluster, m.toWire())
		}
		return map[string]interface{}{"data": data, "cluster": cluster}
	case RespKAppend:
		return map[string]interface{}{"success": r.Success}
	default:
		if r.Payload == nil {
			return map[string]interface{}{}
		}
		return r.Payload
	}
}

// ParseResponse interprets a decoded response map as the answer to a request of type reqType.
// Any request may be answered with a redirect instead of its regular response.
func ParseResponse(reqType MessageType, raw map[string]interface{}) (*Response, error) {
	if raw == nil {
		return nil, NewError(ErrCDecode, "empty response", nil)
	}

	// Case redirect (legal for every request type)
	if typ, ok := asString(raw["type"]); ok && typ == MsgTRedirect.String() {
		leader, err := memberFromWire(raw["leader"])
		if err != nil {
			return nil, err
		}
		return NewRedirectResponse(leader), nil
	}

	switch reqType {
	case MsgTGet:
		data, ok := asMap(raw["data"])
		if !ok {
			return nil, NewError(ErrCDecode, "snapshot without data field", nil)
		}
		list, ok := raw["cluster"].([]interface{})
		if !ok {
			return nil, NewError(ErrCDecode, "snapshot without cluster field", nil)
		}
		cluster := make([]ClusterMember, 0, len(list))
		for _, entry := range list {
			m, err := memberFromWire(entry)
			if err != nil {
				return nil, err
			}
			cluster = append(cluster, m)
		}
		for k, v := range data {
			data[k] = normalize(v)
		}
		return NewSnapshotResponse(data, cluster), nil
	case MsgTAppend:
		success, ok := raw["success"].(bool)
		if !ok {
			return nil, NewError(ErrCDecode, "append response without success flag", nil)
		}
		return NewAppendResponse(success), nil
	case MsgTDiagnostic, MsgTConfig:
		for k, v := range raw {
			raw[k] = normalize(v)
		}
		return NewPayloadResponse(raw), nil
	default:
		return nil, NewError(ErrCDecode, fmt.Sprintf("no response shape for request type %s", reqType), nil)
	}
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message used in RPC communication.
type MessageType uint8

const (
	MsgTUnknown    MessageType = iota
	MsgTGet                    // Fetch the full state
	MsgTAppend                 // Append a change to the log
	MsgTDiagnostic             // Ask a member for diagnostic information
	MsgTConfig                 // Change the cluster configuration
	MsgTRedirect               // Response only: resend to the leader
)

// String returns the wire representation of a MessageType.
func (t MessageType) String() string {
	switch t {
	case MsgTGet:
		return "get"
	case MsgTAppend:
		return "append"
	case MsgTDiagnostic:
		return "diagnostic"
	case MsgTConfig:
		return "config"
	case MsgTRedirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// ParseMessageType converts the wire representation back into a MessageType
func ParseMessageType(s string) (MessageType, error) {
	switch s {
	case "get":
		return MsgTGet, nil
	case "append":
		return MsgTAppend, nil
	case "diagnostic":
		return MsgTDiagnostic, nil
	case "config":
		return MsgTConfig, nil
	case "redirect":
		return MsgTRedirect, nil
	default:
		return MsgTUnknown, NewError(ErrCDecode, fmt.Sprintf("unknown message type: %s", s), nil)
	}
}
