// Package client implements the command client: the single-writer send path
// that turns a common.Command into one frame on a shared stream.
//
// The package focuses on:
//   - Exclusive write access through an injected guard
//   - Exact field order with a flush after every field
//   - Guaranteed guard release on every return path
//   - Surfacing stream errors verbatim after the guard is released
//
// Key Components:
//
//   - CmdClient: Holds the network name, the stream, the guard and the payload
//     serializer. Stream and guard are set through SetStream/SetGuard or by
//     Connect, which dials through the connector passed to NewCmdClient.
//
//   - Send: Acquires the guard, encodes the command (base.EncodeFrame) and
//     writes the five fields (base.WriteFrame). Five writes and five flushes
//     per successful call.
//
// Usage Example:
//
//	// Dial a peer
//	c := client.NewCmdClient(tcp.NewTCPConnector(), "office-pc")
//	if err := c.Connect(common.DefaultClientConfig()); err != nil {
//	  return err
//	}
//	defer c.Close()
//
//	// Send a command
//	err := c.Send(common.NewUserExitCommand(netip.MustParseAddr("127.0.0.1")))
//
//	// Or inject a stream owned by a connection manager
//	c = client.NewCmdClient(nil, "office-pc")
//	c.SetStream(stream)
//	c.SetGuard(sharedGuard)
//
// Failure Semantics:
//
//	A failed Send means the frame was possibly not delivered and the stream is
//	possibly desynchronized. The client does not retry and does not repair the
//	stream; callers should tear down the connection.
//
// Thread Safety:
//
//	Send is safe for concurrent use. Frames of concurrent calls are never
//	interleaved as long as all writers of a stream share one single-permit guard.
package client
