package common

import (
	"fmt"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// Guard configuration
// --------------------------------------------------------------------------

type GuardType string

const (
	GuardTypeSemaphore GuardType = "semaphore"
	GuardTypeWeighted  GuardType = "weighted"
)

// --------------------------------------------------------------------------
// Client configuration struct
// --------------------------------------------------------------------------

// TCPConf holds the socket options applied to TCP connections
type TCPConf struct {
	TCPNoDelay      bool
	TCPKeepAliveSec int
	TCPLingerSec    int
}

// ClientConfig holds everything needed to dial a stream for a command client
type ClientConfig struct {
	// NetworkName is the label of the client, it has no protocol effect
	NetworkName string

	// Endpoint is the address to dial (host:port or socket path)
	Endpoint string
	// Transport is the connector name (tcp, unix)
	Transport string
	// Serializer is the payload serializer name (binary, json, cbor)
	Serializer string

	// TimeoutSecond is applied as write deadline per field, 0 disables it
	TimeoutSecond int
	// WriteBufferSize is the size of the buffered writer in front of the conn
	WriteBufferSize int

	// Guard settings
	Guard        GuardType
	GuardPermits int

	TCPConf TCPConf

	// Logging configuration
	LogLevel string
}

// DefaultClientConfig returns a config for a local tcp peer
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		NetworkName:     "cmdc",
		Endpoint:        "127.0.0.1:8000",
		Transport:       "tcp",
		Serializer:      "binary",
		TimeoutSecond:   10,
		WriteBufferSize: 4 * 1024,
		Guard:           GuardTypeSemaphore,
		GuardPermits:    1,
		TCPConf: TCPConf{
			TCPNoDelay:   true,
			TCPLingerSec: -1,
		},
		LogLevel: "info",
	}
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Client Configuration")
	addField("Network Name", c.NetworkName)
	addField("Serializer", c.Serializer)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))

	addSection("Transport")
	addField("Type", c.Transport)
	addField("Endpoint", c.Endpoint)
	addField("Write Buffer", fmt.Sprintf("%d bytes", c.WriteBufferSize))
	if c.Transport == "tcp" {
		addField("TCP NoDelay", strconv.FormatBool(c.TCPConf.TCPNoDelay))
		addField("TCP KeepAlive", fmt.Sprintf("%d sec", c.TCPConf.TCPKeepAliveSec))
		addField("TCP Linger", fmt.Sprintf("%d sec", c.TCPConf.TCPLingerSec))
	}

	addSection("Guard")
	addField("Type", string(c.Guard))
	addField("Permits", strconv.Itoa(c.GuardPermits))

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}
