// Package common provides core data structures and utilities shared across
// the command client. It defines the command model, the error taxonomy,
// configuration structures and logging used by the other packages.
//
// The package focuses on:
//   - Command definition, the value that is encoded into one frame
//   - Error types that separate encoding failures from stream failures
//   - Configuration structures for the client and its transport
//   - Logging integrated with the Dragonboat logger interface
//
// Key Components:
//
//   - CommandKind: Closed enumeration of all instructions. Every kind has a
//     stable wire code stored in an explicit table; kinds without an entry
//     cannot be encoded.
//
//   - Command: Immutable {kind, target, payload} value. The target is an
//     netip.Addr written as its canonical text form, the payload is opaque and
//     may be absent (nil).
//
//   - EncodingError / StreamIOError: Failures of the send path. An EncodingError
//     means nothing was written, a StreamIOError means the stream may contain a
//     partial frame. Both unwrap to the underlying cause.
//
//   - ClientConfig: Endpoint, transport, serializer and guard settings.
//
//   - Logger: Dragonboat logger.ILogger implementation backed by zerolog.
package common
