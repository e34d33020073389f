// Package rpc provides the client side of the command protocol: a fire and
// forget channel that sends framed commands to a peer over one shared stream.
//
// The package is organized into several subpackages:
//
//   - common: Command kinds and their wire codes, the Command type, error types,
//     configuration structures and logging.
//
//   - serializer: Payload serialization with multiple format options (Binary, JSON, CBOR).
//     Every serializer is deterministic and encodes an absent payload as the
//     same two byte sentinel.
//
//   - transport: Stream, guard and connector abstractions. The base subpackage
//     holds the frame codec, tcp and unix provide connectors.
//
//   - client: The command client. It encodes a command and writes the frame to
//     the stream field by field while holding the guard.
package rpc
