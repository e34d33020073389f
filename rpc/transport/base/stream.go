package base

import (
	"bufio"
	"fmt"
	"net"
	"time"

	"github.com/ValentinKolb/cmdclient/rpc/common"
	"github.com/ValentinKolb/cmdclient/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("transport")

// defaultWriteBufferSize is used when the config does not set a buffer size
const defaultWriteBufferSize = 4 * 1024

// ConnStream is an IStream over a net.Conn with a buffered writer in front.
// Bytes only reach the connection on Flush or when the buffer is full.
type ConnStream struct {
	conn    net.Conn
	w       *bufio.Writer
	timeout time.Duration
}

// NewConnStream wraps conn into a stream configured by config
func NewConnStream(conn net.Conn, config common.ClientConfig) *ConnStream {
	size := config.WriteBufferSize
	if size <= 0 {
		size = defaultWriteBufferSize
	}

	return &ConnStream{
		conn:    conn,
		w:       bufio.NewWriterSize(conn, size),
		timeout: time.Duration(config.TimeoutSecond) * time.Second,
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IStream)
// --------------------------------------------------------------------------

func (s *ConnStream) Write(p []byte) (int, error) {
	if err := s.setDeadline(); err != nil {
		return 0, err
	}
	return s.w.Write(p)
}

func (s *ConnStream) Flush() error {
	if err := s.setDeadline(); err != nil {
		return err
	}
	return s.w.Flush()
}

// Close closes the underlying connection without flushing
func (s *ConnStream) Close() error {
	return s.conn.Close()
}

// RemoteAddr returns the address of the peer
func (s *ConnStream) RemoteAddr() net.Addr {
	return s.conn.RemoteAddr()
}

// setDeadline refreshes the write deadline if a timeout is configured
func (s *ConnStream) setDeadline() error {
	if s.timeout <= 0 {
		return nil
	}
	return s.conn.SetWriteDeadline(time.Now().Add(s.timeout))
}

// --------------------------------------------------------------------------
// Stream Factory Method (used for tcp, unix, etc.)
// --------------------------------------------------------------------------

// Dial connects to the configured endpoint using connector and wraps the
// connection into a ConnStream
func Dial(connector transport.IStreamConnector, config common.ClientConfig) (*ConnStream, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("no endpoint provided")
	}

	conn, err := connector.Connect(config.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", config.Endpoint, err)
	}

	// Upgrade the connection with protocol-specific settings
	if err := connector.UpgradeConnection(conn, config); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to upgrade connection to %s: %w", config.Endpoint, err)
	}

	stream := NewConnStream(conn, config)
	Logger.Infof("Connected to %s (%s) using %s transport", config.Endpoint, stream.RemoteAddr(), connector.GetName())
	return stream, nil
}
