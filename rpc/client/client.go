package client

import (
	"fmt"
	"sync"
	"time"

	"github.com/ValentinKolb/cmdclient/rpc/common"
	"github.com/ValentinKolb/cmdclient/rpc/serializer"
	"github.com/ValentinKolb/cmdclient/rpc/transport"
	"github.com/ValentinKolb/cmdclient/rpc/transport/base"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	Logger = logger.GetLogger("client")
)

var (
	encodeErrors    = metrics.NewCounter(`cmdclient_send_errors_total{stage="encode"}`)
	writeErrors     = metrics.NewCounter(`cmdclient_send_errors_total{stage="write"}`)
	frameBytes      = metrics.NewHistogram(`cmdclient_frame_bytes`)
	guardWaitSecond = metrics.NewHistogram(`cmdclient_guard_wait_seconds`)
)

// CmdClient sends commands to a peer over a shared stream.
// Concurrent Send calls are serialized by the guard; the stream and the guard
// are injected and owned by the caller unless the client dialed the stream
// itself through Connect.
type CmdClient struct {
	networkName string
	connector   transport.IStreamConnector

	mu         sync.RWMutex // protects the fields below, not the stream itself
	stream     transport.IStream
	guard      transport.IGuard
	serializer serializer.IPayloadSerializer
	owned      *base.ConnStream // stream opened by Connect
}

// NewCmdClient creates a new command client.
// connector may be nil when the stream is injected with SetStream.
// The client starts with its own single-permit guard and the binary serializer.
func NewCmdClient(connector transport.IStreamConnector, networkName string) *CmdClient {
	return &CmdClient{
		networkName: networkName,
		connector:   connector,
		guard:       base.NewSemaphoreGuard(1),
		serializer:  serializer.NewBinarySerializer(),
	}
}

// NetworkName returns the label the client was created with
func (c *CmdClient) NetworkName() string {
	return c.networkName
}

// SetStream sets the stream frames are written to.
// The client does not take ownership of s.
func (c *CmdClient) SetStream(s transport.IStream) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stream = s
}

// SetGuard replaces the guard. Clients sharing one stream must share one guard.
func (c *CmdClient) SetGuard(g transport.IGuard) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.guard = g
}

// SetSerializer replaces the payload serializer
func (c *CmdClient) SetSerializer(s serializer.IPayloadSerializer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.serializer = s
}

// Guard returns the current guard, e.g. to share it with another client
func (c *CmdClient) Guard() transport.IGuard {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.guard
}

// Connect dials a stream with the connector given at construction and uses it
// for all following sends. A stream dialed by an earlier Connect is closed.
func (c *CmdClient) Connect(config common.ClientConfig) error {
	if c.connector == nil {
		return common.ErrNoConnector
	}

	stream, err := base.Dial(c.connector, config)
	if err != nil {
		return err
	}

	c.mu.Lock()
	prev := c.owned
	c.stream = stream
	c.owned = stream
	c.mu.Unlock()

	if prev != nil {
		if err := prev.Close(); err != nil {
			Logger.Warningf("Failed to close previous stream: %v", err)
		}
	}
	return nil
}

// Close closes the stream opened by Connect. Injected streams are left open.
func (c *CmdClient) Close() error {
	c.mu.Lock()
	owned := c.owned
	if owned != nil && c.stream == transport.IStream(owned) {
		c.stream = nil
	}
	c.owned = nil
	c.mu.Unlock()

	if owned == nil {
		return nil
	}
	return owned.Close()
}

// Send encodes cmd and writes it to the stream as one frame.
//
// The guard is acquired first and held until every field has been written
// and flushed; it is released exactly once on every return path. Acquire
// blocks without timeout. Errors are *common.EncodingError (nothing written)
// or *common.StreamIOError (stream possibly holds a partial frame and should
// be torn down). There is no retry.
func (c *CmdClient) Send(cmd common.Command) error {
	c.mu.RLock()
	stream, guard, s := c.stream, c.guard, c.serializer
	c.mu.RUnlock()

	if stream == nil {
		return common.ErrNoStream
	}
	if guard == nil {
		return common.ErrNoGuard
	}

	start := time.Now()
	guard.Acquire()
	defer guard.Release()
	guardWaitSecond.UpdateDuration(start)

	frame, err := base.EncodeFrame(cmd, s)
	if err != nil {
		encodeErrors.Inc()
		Logger.Warningf("Failed to encode %s: %v", cmd, err)
		return err
	}

	if err := base.WriteFrame(stream, frame); err != nil {
		writeErrors.Inc()
		Logger.Errorf("Failed to send %s: %v", cmd, err)
		return err
	}

	frameBytes.Update(float64(frame.Len()))
	metrics.GetOrCreateCounter(fmt.Sprintf(`cmdclient_frames_sent_total{kind=%q}`, cmd.Kind())).Inc()
	Logger.Debugf("Sent %s (%d bytes)", cmd, frame.Len())
	return nil
}
