// Package base provides the protocol independent part of the command transport:
// the frame codec, the guards that serialize writers and a buffered stream over
// any net.Conn. Protocol specific connectors (tcp, unix) only dial and tune the
// connection, everything else lives here.
//
// Wire format, all integers are little endian uint32:
//
//	| kind code (4) | address length (4) | address text | payload length (4) | payload |
//
// Key Components:
//
//   - EncodeFrame: builds the complete frame in memory. It has no side effects
//     and fails with *common.EncodingError before any byte reaches a stream.
//
//   - WriteFrame: writes the five fields in order and flushes after every field.
//     The peer reads the stream field by field, so the five write/flush pairs
//     are part of the protocol.
//
//   - ReadFrame: the inverse of EncodeFrame, used by tools and tests that play
//     the peer. Limits bound the memory a single frame may claim.
//
//   - Guards: NewSemaphoreGuard (buffered channel) and NewWeightedGuard
//     (golang.org/x/sync/semaphore). Acquire blocks without timeout.
//
//   - ConnStream / Dial: a bufio.Writer in front of a net.Conn with an optional
//     write deadline per operation.
//
// Thread Safety:
//
//	EncodeFrame and ReadFrame are pure. ConnStream is not safe for concurrent
//	use; callers must hold a guard around WriteFrame.
package base
