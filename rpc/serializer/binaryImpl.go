package serializer

import (
	"encoding"
	"encoding/binary"
	"fmt"
	"math"
)

// NewBinarySerializer creates a new serializer using a compact tagged binary format
func NewBinarySerializer() IPayloadSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IPayloadSerializer using a custom binary format.
// Every value starts with a one byte tag, lengths are little endian uint32.
type binarySerializerImpl struct {
}

// Type tags of the binary format
const (
	tagString     byte = 0x01
	tagBytes      byte = 0x02
	tagBool       byte = 0x03
	tagInt        byte = 0x04
	tagUint       byte = 0x05
	tagFloat      byte = 0x06
	tagMarshaler  byte = 0x07
	tagStringList byte = 0x08
	tagAbsent     byte = 0x0A // followed by a single zero byte
)

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IPayloadSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Name() string {
	return "binary"
}

func (b binarySerializerImpl) Serialize(payload any) ([]byte, error) {
	if isNilPayload(payload) {
		return absent(), nil
	}

	switch v := payload.(type) {
	case string:
		return appendBlob([]byte{tagString}, []byte(v))
	case []byte:
		return appendBlob([]byte{tagBytes}, v)
	case bool:
		if v {
			return []byte{tagBool, 1}, nil
		}
		return []byte{tagBool, 0}, nil
	case int:
		return fixed64(tagInt, uint64(int64(v))), nil
	case int8:
		return fixed64(tagInt, uint64(int64(v))), nil
	case int16:
		return fixed64(tagInt, uint64(int64(v))), nil
	case int32:
		return fixed64(tagInt, uint64(int64(v))), nil
	case int64:
		return fixed64(tagInt, uint64(v)), nil
	case uint:
		return fixed64(tagUint, uint64(v)), nil
	case uint8:
		return fixed64(tagUint, uint64(v)), nil
	case uint16:
		return fixed64(tagUint, uint64(v)), nil
	case uint32:
		return fixed64(tagUint, uint64(v)), nil
	case uint64:
		return fixed64(tagUint, v), nil
	case float32:
		return fixed64(tagFloat, math.Float64bits(float64(v))), nil
	case float64:
		return fixed64(tagFloat, math.Float64bits(v)), nil
	case []string:
		return serializeStringList(v)
	case encoding.BinaryMarshaler:
		data, err := v.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("marshal %T: %w", v, err)
		}
		return appendBlob([]byte{tagMarshaler}, data)
	default:
		return nil, fmt.Errorf("unsupported payload type %T", payload)
	}
}

func (b binarySerializerImpl) Deserialize(data []byte) (any, error) {
	// Check minimum size (tag + at least one byte)
	if len(data) < 2 {
		return nil, fmt.Errorf("data too short for payload header")
	}

	tag := data[0]
	body := data[1:]

	switch tag {
	case tagAbsent:
		if !isAbsent(data) {
			return nil, fmt.Errorf("malformed absent marker")
		}
		return nil, nil
	case tagString:
		blob, err := readBlob(body)
		if err != nil {
			return nil, err
		}
		return string(blob), nil
	case tagBytes, tagMarshaler:
		blob, err := readBlob(body)
		if err != nil {
			return nil, err
		}
		out := make([]byte, len(blob))
		copy(out, blob)
		return out, nil
	case tagBool:
		if len(body) != 1 {
			return nil, fmt.Errorf("invalid length for bool")
		}
		return body[0] != 0, nil
	case tagInt, tagUint, tagFloat:
		if len(body) != 8 {
			return nil, fmt.Errorf("invalid length for 64 bit value")
		}
		raw := binary.LittleEndian.Uint64(body)
		switch tag {
		case tagInt:
			return int64(raw), nil
		case tagUint:
			return raw, nil
		default:
			return math.Float64frombits(raw), nil
		}
	case tagStringList:
		return deserializeStringList(body)
	default:
		return nil, fmt.Errorf("unknown payload tag 0x%02x", tag)
	}
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// fixed64 encodes a tag followed by an 8 byte little endian value
func fixed64(tag byte, v uint64) []byte {
	result := make([]byte, 9)
	result[0] = tag
	binary.LittleEndian.PutUint64(result[1:], v)
	return result
}

// appendBlob appends a uint32 length prefix and the data to dst
func appendBlob(dst []byte, data []byte) ([]byte, error) {
	if uint64(len(data)) > math.MaxUint32 {
		return nil, fmt.Errorf("blob of %d bytes exceeds uint32 length", len(data))
	}
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(data)))
	return append(dst, data...), nil
}

// readBlob reads a length prefixed blob that must span the whole input
func readBlob(data []byte) ([]byte, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("data too short for blob length")
	}
	n := binary.LittleEndian.Uint32(data[:4])
	if uint64(len(data)-4) != uint64(n) {
		return nil, fmt.Errorf("blob length %d does not match %d remaining bytes", n, len(data)-4)
	}
	return data[4:], nil
}

func serializeStringList(list []string) ([]byte, error) {
	result := []byte{tagStringList}
	result = binary.LittleEndian.AppendUint32(result, uint32(len(list)))
	for _, s := range list {
		var err error
		if result, err = appendBlob(result, []byte(s)); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func deserializeStringList(data []byte) ([]string, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("data too short for list length")
	}
	count := binary.LittleEndian.Uint32(data[:4])
	pos := 4

	list := make([]string, 0, min(int(count), len(data)/4))
	for i := uint32(0); i < count; i++ {
		if pos+4 > len(data) {
			return nil, fmt.Errorf("data too short for list item %d length", i)
		}
		n := int(binary.LittleEndian.Uint32(data[pos : pos+4]))
		pos += 4
		if pos+n > len(data) {
			return nil, fmt.Errorf("data too short for list item %d", i)
		}
		list = append(list, string(data[pos:pos+n]))
		pos += n
	}
	if pos != len(data) {
		return nil, fmt.Errorf("%d trailing bytes after list", len(data)-pos)
	}
	return list, nil
}
