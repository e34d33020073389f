// Package transport defines the interfaces the command client is built on.
// It keeps the send path independent of how the stream is produced and of how
// exclusive access to it is enforced.
//
// The package focuses on:
//   - A minimal stream contract with an explicit flush
//   - An injectable guard that provides single-writer access to a stream
//   - Pluggable connectors (TCP, Unix sockets) that produce connections
//
// Key Components:
//
//   - IStream: Write + Flush. The client flushes after every frame field.
//
//   - IGuard: Acquire/Release pair. Acquire blocks indefinitely.
//
//   - IStreamConnector: Dials an endpoint and tunes the connection; the base
//     package wraps the connection into an IStream.
package transport
