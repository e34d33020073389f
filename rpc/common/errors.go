package common

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownCommandKind = errors.New("unknown command kind")
	ErrInvalidAddress     = errors.New("invalid target address")
	ErrNoStream           = errors.New("no stream set on client")
	ErrNoGuard            = errors.New("no guard set on client")
	ErrNoConnector        = errors.New("no stream connector configured")
	ErrFrameTooLarge      = errors.New("frame field exceeds limit")
	ErrShortFrame         = errors.New("short frame")
)

// --------------------------------------------------------------------------
// Frame Fields
// --------------------------------------------------------------------------

// FrameField names one of the five fields of an encoded frame
type FrameField uint8

const (
	FieldKind FrameField = iota
	FieldAddressLength
	FieldAddress
	FieldPayloadLength
	FieldPayload
)

func (f FrameField) String() string {
	switch f {
	case FieldKind:
		return "kind"
	case FieldAddressLength:
		return "address length"
	case FieldAddress:
		return "address"
	case FieldPayloadLength:
		return "payload length"
	case FieldPayload:
		return "payload"
	default:
		return fmt.Sprintf("field(%d)", uint8(f))
	}
}

// --------------------------------------------------------------------------
// Error Types
// --------------------------------------------------------------------------

// EncodingError is returned when a command cannot be turned into a frame.
// No byte has reached the stream when it is returned.
type EncodingError struct {
	Field FrameField
	Err   error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encode %s: %v", e.Field, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

// StreamIOError is returned when writing or flushing a frame field fails.
// The stream may hold a partial frame afterward and should be torn down.
type StreamIOError struct {
	Field FrameField
	Op    string // "write" or "flush"
	Err   error
}

func (e *StreamIOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Field, e.Err)
}

func (e *StreamIOError) Unwrap() error { return e.Err }
