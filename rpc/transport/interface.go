package transport

import (
	"net"

	"github.com/ValentinKolb/cmdclient/rpc/common"
)

// --------------------------------------------------------------------------
// Stream
// --------------------------------------------------------------------------

// IStream is the byte stream frames are written to.
// Every field of a frame is written with one Write call followed by one Flush.
type IStream interface {
	// Write writes p to the stream, it returns an error if not all bytes were written
	Write(p []byte) (n int, err error)
	// Flush pushes buffered bytes to the underlying transport
	Flush() error
}

// --------------------------------------------------------------------------
// Guard
// --------------------------------------------------------------------------

// IGuard serializes access to a shared stream.
// Acquire blocks until access is granted and has no timeout.
// Every Acquire must be paired with exactly one Release.
type IGuard interface {
	Acquire()
	Release()
}

// --------------------------------------------------------------------------
// Stream Connector
// --------------------------------------------------------------------------

// IStreamConnector opens the connections streams are built on (the stream factory)
type IStreamConnector interface {
	// Connect establishes a single connection to the endpoint
	Connect(endpoint string) (net.Conn, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an established connection
	UpgradeConnection(conn net.Conn, config common.ClientConfig) error
}
