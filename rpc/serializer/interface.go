package serializer

import "io"

// IRPCSerializer is the interface for all message serializers.
// Messages are handled in their generic map shape (see common.Message.ToMap
// and common.ParseResponse), so the codec stays opaque to the protocol.
type IRPCSerializer interface {
	// Serialize serializes a message into a byte array
	Serialize(msg map[string]interface{}) ([]byte, error)
	// Deserialize deserializes a complete byte array into a message
	Deserialize(b []byte) (map[string]interface{}, error)
	// DeserializeFrom reads exactly one message from r without waiting for the end of the stream
	DeserializeFrom(r io.Reader) (map[string]interface{}, error)
	// GetName returns the name of the serializer (e.g., "msgpack", "json")
	GetName() string
}
