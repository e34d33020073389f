package base

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"net/netip"

	"github.com/ValentinKolb/cmdclient/rpc/common"
	"github.com/ValentinKolb/cmdclient/rpc/serializer"
	"github.com/ValentinKolb/cmdclient/rpc/transport"
)

// fieldCount is the number of fields in a frame
const fieldCount = 5

// Frame is one encoded command, split into its five wire fields:
// - 4 bytes: kind code (uint32, little endian)
// - 4 bytes: address length (uint32, little endian)
// - N bytes: address text
// - 4 bytes: payload length (uint32, little endian)
// - N bytes: payload
//
// All fields are sub-slices of one buffer built by EncodeFrame.
type Frame struct {
	buf    []byte
	fields [fieldCount][]byte
}

// EncodeFrame encodes a command into a frame using s for the payload.
// It has no side effects; on error no frame is produced.
func EncodeFrame(cmd common.Command, s serializer.IPayloadSerializer) (Frame, error) {
	code, err := cmd.Kind().Code()
	if err != nil {
		return Frame{}, &common.EncodingError{Field: common.FieldKind, Err: err}
	}

	address, err := cmd.TargetText()
	if err != nil {
		return Frame{}, &common.EncodingError{Field: common.FieldAddress, Err: err}
	}

	if s == nil {
		return Frame{}, &common.EncodingError{Field: common.FieldPayload, Err: errors.New("no payload serializer")}
	}
	payload, err := s.Serialize(cmd.Payload())
	if err != nil {
		return Frame{}, &common.EncodingError{Field: common.FieldPayload, Err: err}
	}
	if uint64(len(payload)) > math.MaxUint32 {
		return Frame{}, &common.EncodingError{Field: common.FieldPayloadLength, Err: common.ErrFrameTooLarge}
	}

	// Build the whole frame in memory before anything touches a stream
	buf := make([]byte, 0, 12+len(address)+len(payload))
	buf = binary.LittleEndian.AppendUint32(buf, code)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(address)))
	buf = append(buf, address...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(payload)))
	buf = append(buf, payload...)

	addrEnd := 8 + len(address)
	f := Frame{buf: buf}
	f.fields[common.FieldKind] = buf[0:4]
	f.fields[common.FieldAddressLength] = buf[4:8]
	f.fields[common.FieldAddress] = buf[8:addrEnd]
	f.fields[common.FieldPayloadLength] = buf[addrEnd : addrEnd+4]
	f.fields[common.FieldPayload] = buf[addrEnd+4:]
	return f, nil
}

// Field returns the bytes of one field
func (f Frame) Field(field common.FrameField) []byte {
	if int(field) >= fieldCount {
		return nil
	}
	return f.fields[field]
}

// Fields returns the five fields in wire order
func (f Frame) Fields() [][]byte {
	out := make([][]byte, fieldCount)
	copy(out, f.fields[:])
	return out
}

// Len returns the total encoded size
func (f Frame) Len() int {
	return len(f.buf)
}

// Bytes returns a copy of the complete frame
func (f Frame) Bytes() []byte {
	out := make([]byte, len(f.buf))
	copy(out, f.buf)
	return out
}

// WriteFrame writes the fields of f to the stream in wire order and flushes
// after every single field. The peer reads field by field, so the flushes are
// part of the protocol and must not be merged.
// The first failure is returned as *common.StreamIOError and stops the write.
func WriteFrame(stream transport.IStream, f Frame) error {
	for i, data := range f.fields {
		field := common.FrameField(i)

		n, err := stream.Write(data)
		if err == nil && n != len(data) {
			err = io.ErrShortWrite
		}
		if err != nil {
			return &common.StreamIOError{Field: field, Op: "write", Err: err}
		}

		if err := stream.Flush(); err != nil {
			return &common.StreamIOError{Field: field, Op: "flush", Err: err}
		}
	}
	return nil
}

// --------------------------------------------------------------------------
// Frame reading
// --------------------------------------------------------------------------

// Limits constrains the memory a single frame may claim on read
type Limits struct {
	MaxAddressBytes uint32
	MaxPayloadBytes uint32
}

// DefaultLimits returns limits suitable for command traffic
func DefaultLimits() Limits {
	return Limits{
		MaxAddressBytes: 256,
		MaxPayloadBytes: 16 * 1024 * 1024,
	}
}

// RawFrame is a frame as read from a stream, before kind and payload are interpreted
type RawFrame struct {
	Code    uint32
	Address string
	Payload []byte
}

// Kind resolves the kind code
func (r RawFrame) Kind() (common.CommandKind, error) {
	return common.CommandKindFromCode(r.Code)
}

// Target parses the address text
func (r RawFrame) Target() (netip.Addr, error) {
	addr, err := netip.ParseAddr(r.Address)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("%w: %v", common.ErrInvalidAddress, err)
	}
	return addr, nil
}

// Command rebuilds the command, decoding the payload with s
func (r RawFrame) Command(s serializer.IPayloadSerializer) (common.Command, error) {
	kind, err := r.Kind()
	if err != nil {
		return common.Command{}, err
	}
	target, err := r.Target()
	if err != nil {
		return common.Command{}, err
	}
	payload, err := s.Deserialize(r.Payload)
	if err != nil {
		return common.Command{}, fmt.Errorf("decode payload: %w", err)
	}
	return common.NewCommand(kind, target, payload), nil
}

// ReadFrame reads exactly one frame from r.
// A clean end of stream before the first byte returns io.EOF.
func ReadFrame(r io.Reader, limits Limits) (RawFrame, error) {
	var word [4]byte

	// Read kind code
	if _, err := io.ReadFull(r, word[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return RawFrame{}, fmt.Errorf("%w: kind", common.ErrShortFrame)
		}
		return RawFrame{}, err
	}
	code := binary.LittleEndian.Uint32(word[:])

	address, err := readField(r, limits.MaxAddressBytes, "address")
	if err != nil {
		return RawFrame{}, err
	}

	payload, err := readField(r, limits.MaxPayloadBytes, "payload")
	if err != nil {
		return RawFrame{}, err
	}

	return RawFrame{Code: code, Address: string(address), Payload: payload}, nil
}

// readField reads a uint32 length prefix and the bytes that follow
func readField(r io.Reader, limit uint32, name string) ([]byte, error) {
	var word [4]byte
	if _, err := io.ReadFull(r, word[:]); err != nil {
		return nil, fmt.Errorf("%w: %s length: %v", common.ErrShortFrame, name, err)
	}

	n := binary.LittleEndian.Uint32(word[:])
	if n > limit {
		return nil, fmt.Errorf("%w: %s of %d bytes (limit %d)", common.ErrFrameTooLarge, name, n, limit)
	}

	data := make([]byte, n)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", common.ErrShortFrame, name, err)
	}
	return data, nil
}
