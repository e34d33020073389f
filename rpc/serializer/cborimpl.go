package serializer

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// NewCBORSerializer creates a new serializer using CBOR in core deterministic encoding
func NewCBORSerializer() IPayloadSerializer {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		// the options are static, this only fails on a library bug
		panic(fmt.Sprintf("cbor: invalid core deterministic options: %v", err))
	}

	dm, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("cbor: invalid decode options: %v", err))
	}

	return &cborSerializerImpl{enc: em, dec: dm}
}

// cborSerializerImpl implements the IPayloadSerializer interface using CBOR.
// Map keys are sorted and integers use their shortest form (RFC 8949 4.2.1).
type cborSerializerImpl struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IPayloadSerializer)
// --------------------------------------------------------------------------

func (c cborSerializerImpl) Name() string {
	return "cbor"
}

func (c cborSerializerImpl) Serialize(payload any) ([]byte, error) {
	if isNilPayload(payload) {
		return absent(), nil
	}
	return c.enc.Marshal(payload)
}

func (c cborSerializerImpl) Deserialize(b []byte) (any, error) {
	if isAbsent(b) {
		return nil, nil
	}

	var v any
	if err := c.dec.Unmarshal(b, &v); err != nil {
		return nil, err
	}
	return v, nil
}
