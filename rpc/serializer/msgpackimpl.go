package serializer

import (
	"bytes"
	"io"
	"reflect"

	"github.com/ValentinKolb/dDict/rpc/common"
	"github.com/hashicorp/go-msgpack/codec"
	"github.com/pkg/errors"
)

// NewMsgpackSerializer creates a new serializer using msgpack encoding.
// This is the encoding spoken by the cluster servers.
func NewMsgpackSerializer() IRPCSerializer {
	h := &codec.MsgpackHandle{
		RawToString: true, // decode str into string, not []byte
		WriteExt:    true, // use the str8 and bin types of the current msgpack format
	}
	h.MapType = reflect.TypeOf(map[string]interface{}(nil))
	return &msgpackSerializerImpl{handle: h}
}

// msgpackSerializerImpl implements the IRPCSerializer interface using msgpack encoding
type msgpackSerializerImpl struct {
	handle *codec.MsgpackHandle
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (m msgpackSerializerImpl) Serialize(msg map[string]interface{}) ([]byte, error) {
	var out []byte
	if err := codec.NewEncoderBytes(&out, m.handle).Encode(msg); err != nil {
		return nil, errors.Wrap(err, "msgpack encode")
	}
	return out, nil
}

func (m msgpackSerializerImpl) Deserialize(b []byte) (map[string]interface{}, error) {
	if len(b) == 0 {
		return nil, common.NewError(common.ErrCDecode, "empty msgpack message", nil)
	}
	return m.DeserializeFrom(bytes.NewReader(b))
}

func (m msgpackSerializerImpl) DeserializeFrom(r io.Reader) (msg map[string]interface{}, err error) {
	// the codec reports some malformed input by panicking
	defer func() {
		if rec := recover(); rec != nil {
			msg = nil
			err = common.NewError(common.ErrCDecode, "malformed msgpack message", errors.Errorf("%v", rec))
		}
	}()

	if err := codec.NewDecoder(r, m.handle).Decode(&msg); err != nil {
		return nil, common.NewError(common.ErrCDecode, "malformed msgpack message", errors.WithStack(err))
	}
	if msg == nil {
		return nil, common.NewError(common.ErrCDecode, "msgpack message is not a map", nil)
	}
	return msg, nil
}

func (m msgpackSerializerImpl) GetName() string {
	return "msgpack"
}
