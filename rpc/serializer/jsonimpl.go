package serializer

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/ValentinKolb/dDict/rpc/common"
	"github.com/pkg/errors"
)

// NewJSONSerializer creates a new serializer using json encoding
func NewJSONSerializer() IRPCSerializer {
	return &jsonSerializerImpl{}
}

// jsonSerializerImpl implements the IRPCSerializer interface using json encoding
type jsonSerializerImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (j jsonSerializerImpl) Serialize(msg map[string]interface{}) ([]byte, error) {
	return json.Marshal(msg)
}

func (j jsonSerializerImpl) Deserialize(b []byte) (map[string]interface{}, error) {
	return j.DeserializeFrom(bytes.NewReader(b))
}

func (j jsonSerializerImpl) DeserializeFrom(r io.Reader) (map[string]interface{}, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var msg map[string]interface{}
	if err := dec.Decode(&msg); err != nil {
		return nil, common.NewError(common.ErrCDecode, "malformed json message", errors.WithStack(err))
	}
	if msg == nil {
		return nil, common.NewError(common.ErrCDecode, "json message is not an object", nil)
	}
	return msg, nil
}

func (j jsonSerializerImpl) GetName() string {
	return "json"
}
