// Package serializer provides payload serialization for the command client.
// It defines a common interface and multiple implementations that turn the
// opaque payload of a command into the bytes of the payload field of a frame.
//
// The package focuses on:
//   - Providing a consistent interface for different serialization formats
//   - Deterministic output, the same logical value always yields the same bytes
//   - A fixed, non-empty sentinel for absent payloads shared by all formats
//
// Key Components:
//
//   - IPayloadSerializer: Core interface that all serializer implementations must satisfy.
//
//   - binarySerializerImpl: Compact tagged binary format for scalar values, byte
//     slices, string lists and encoding.BinaryMarshaler values. This is the
//     default and the format the peer expects.
//
//   - jsonSerializerImpl: JSON encoding, useful for structured payloads and
//     debugging. Map keys are sorted by encoding/json.
//
//   - cborSerializerImpl: CBOR using the core deterministic encoding options of
//     fxamacker/cbor, for structured payloads that must stay compact.
//
//   - Registry: Register/Get/Names resolve serializers by name for the CLI.
//
// Absent Payloads:
//
//	Every serializer encodes nil as AbsentSentinel ({0x0A, 0x00}) and decodes
//	the sentinel back to nil. The payload length field of a frame is therefore
//	never zero.
//
// Thread Safety:
//
//	All serializer implementations are stateless and safe for concurrent use
//	across multiple goroutines without additional synchronization.
//
// Usage:
//
//	s, err := serializer.Get("binary")
//	data, err := s.Serialize("hello")
//	value, err := s.Deserialize(data)
package serializer
