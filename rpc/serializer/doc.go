// Package serializer provides message serialization for the dDict RPC layer.
// It defines a common interface and two implementations that turn the generic
// map shape of a message into bytes and back.
//
// Key Components:
//
//   - IRPCSerializer: Core interface that all serializer implementations must satisfy.
//
//   - msgpackSerializerImpl: msgpack encoding, the format spoken by the cluster
//     servers. This is the default.
//
//   - jsonSerializerImpl: JSON encoding, useful for debugging against the
//     standalone server.
//
// Decoding errors are reported as common.Error with code ErrCDecode.
//
// Thread Safety:
//
//	All serializer implementations are stateless (the msgpack handle is only read
//	after construction) and safe for concurrent use across multiple goroutines.
//
// Usage:
//
//	s := serializer.NewMsgpackSerializer()
//	data, err := s.Serialize(common.NewGetRequest().ToMap())
//	// ... send data ...
//	raw, err := s.Deserialize(receivedData)
//	resp, err := common.ParseResponse(common.MsgTGet, raw)
package serializer
