package serializer

import (
	"bytes"
	"encoding/json"
)

// NewJSONSerializer creates a new serializer using json encoding
func NewJSONSerializer() IPayloadSerializer {
	return &jsonSerializerImpl{}
}

// jsonSerializerImpl implements the IPayloadSerializer interface using json encoding.
// encoding/json sorts map keys, which keeps the output deterministic.
type jsonSerializerImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IPayloadSerializer)
// --------------------------------------------------------------------------

func (j jsonSerializerImpl) Name() string {
	return "json"
}

func (j jsonSerializerImpl) Serialize(payload any) ([]byte, error) {
	if isNilPayload(payload) {
		return absent(), nil
	}
	return json.Marshal(payload)
}

func (j jsonSerializerImpl) Deserialize(b []byte) (any, error) {
	if isAbsent(b) {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
