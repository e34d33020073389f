package serializer

import "reflect"

// AbsentSentinel is what every serializer produces for an absent (nil) payload.
// It is never empty so the payload field of a frame always carries bytes.
var AbsentSentinel = []byte{0x0A, 0x00}

// IPayloadSerializer is the interface for all payload serializers
type IPayloadSerializer interface {
	// Serialize turns a payload into bytes. It must be deterministic:
	// the same logical value always yields the same bytes.
	// A nil payload yields AbsentSentinel.
	Serialize(payload any) ([]byte, error)
	// Deserialize turns bytes produced by Serialize back into a value.
	// AbsentSentinel yields nil.
	Deserialize(b []byte) (any, error)
	// Name returns the registry name of the serializer
	Name() string
}

// isAbsent reports whether b is the absent sentinel
func isAbsent(b []byte) bool {
	return len(b) == len(AbsentSentinel) && b[0] == AbsentSentinel[0] && b[1] == AbsentSentinel[1]
}

// absent returns a fresh copy of the sentinel, callers may keep the slice
func absent() []byte {
	return []byte{AbsentSentinel[0], AbsentSentinel[1]}
}

// isNilPayload reports whether payload is nil or a nil pointer, map, slice,
// channel, func or interface wrapped in the any. Those are encoded as absent.
func isNilPayload(payload any) bool {
	if payload == nil {
		return true
	}
	v := reflect.ValueOf(payload)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return v.IsNil()
	default:
		return false
	}
}
