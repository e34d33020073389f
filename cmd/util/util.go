package util

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/cmdclient/rpc/client"
	"github.com/ValentinKolb/cmdclient/rpc/common"
	"github.com/ValentinKolb/cmdclient/rpc/serializer"
	"github.com/ValentinKolb/cmdclient/rpc/transport"
	"github.com/ValentinKolb/cmdclient/rpc/transport/base"
	"github.com/ValentinKolb/cmdclient/rpc/transport/tcp"
	"github.com/ValentinKolb/cmdclient/rpc/transport/unix"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupClientFlags adds the connection flags shared by all client commands
func SetupClientFlags(cmd *cobra.Command) {
	def := common.DefaultClientConfig()

	key := "serializer"
	cmd.PersistentFlags().String(key, def.Serializer, WrapString("Payload serializer to use ("+strings.Join(serializer.Names(), ", ")+")"))

	key = "transport"
	cmd.PersistentFlags().String(key, def.Transport, WrapString("Transport to use (tcp, unix)"))

	key = "endpoint"
	cmd.PersistentFlags().String(key, def.Endpoint, WrapString("Address of the peer (host:port for tcp, socket path for unix)"))

	key = "network-name"
	cmd.PersistentFlags().String(key, def.NetworkName, WrapString("Label of this client, only used for logging"))

	key = "timeout"
	cmd.PersistentFlags().Int(key, def.TimeoutSecond, WrapString("Write deadline per field in seconds (0 disables it)"))

	key = "guard"
	cmd.PersistentFlags().String(key, string(def.Guard), WrapString("Guard serializing concurrent sends (semaphore, weighted)"))

	key = "guard-permits"
	cmd.PersistentFlags().Int(key, def.GuardPermits, WrapString("Number of concurrent writers the guard admits. Anything but 1 allows frames to interleave"))

	key = "write-buffer"
	cmd.PersistentFlags().Int(key, def.WriteBufferSize/1024, WrapString("Size of the write buffer in front of the connection (in KB)"))

	key = "tcp-nodelay"
	cmd.PersistentFlags().Bool(key, def.TCPConf.TCPNoDelay, WrapString("Whether to enable TCP_NODELAY (tcp only)"))

	key = "tcp-keepalive"
	cmd.PersistentFlags().Int(key, def.TCPConf.TCPKeepAliveSec, WrapString("Keepalive interval in seconds, 0 keeps the system default (tcp only)"))

	key = "tcp-linger"
	cmd.PersistentFlags().Int(key, def.TCPConf.TCPLingerSec, WrapString("Linger time in seconds, negative keeps the system default (tcp only)"))

	key = "log-level"
	cmd.PersistentFlags().String(key, def.LogLevel, WrapString("Log level (debug, info, warn, error)"))
}

// InitClientConfig initializes configuration from environment variables
func InitClientConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("cmdc")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// GetClientConfig reads client configuration from viper
func GetClientConfig() *common.ClientConfig {
	return &common.ClientConfig{
		NetworkName:     viper.GetString("network-name"),
		Endpoint:        viper.GetString("endpoint"),
		Transport:       viper.GetString("transport"),
		Serializer:      viper.GetString("serializer"),
		TimeoutSecond:   viper.GetInt("timeout"),
		WriteBufferSize: viper.GetInt("write-buffer") * 1024,
		Guard:           common.GuardType(viper.GetString("guard")),
		GuardPermits:    viper.GetInt("guard-permits"),
		TCPConf: common.TCPConf{
			TCPNoDelay:      viper.GetBool("tcp-nodelay"),
			TCPKeepAliveSec: viper.GetInt("tcp-keepalive"),
			TCPLingerSec:    viper.GetInt("tcp-linger"),
		},
		LogLevel: viper.GetString("log-level"),
	}
}

// GetSerializer creates the payload serializer named in the configuration
func GetSerializer(config *common.ClientConfig) (serializer.IPayloadSerializer, error) {
	return serializer.Get(config.Serializer)
}

// GetConnector creates the stream connector named in the configuration
func GetConnector(config *common.ClientConfig) (transport.IStreamConnector, error) {
	switch config.Transport {
	case "tcp":
		return tcp.NewTCPConnector(), nil
	case "unix":
		return unix.NewUnixConnector(), nil
	default:
		return nil, fmt.Errorf("invalid transport %s (expected one of: tcp, unix)", config.Transport)
	}
}

// GetGuard creates the guard described by the configuration
func GetGuard(config *common.ClientConfig) (transport.IGuard, error) {
	return base.NewGuard(*config)
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// NewConnectedClient builds a command client from the configuration and dials the endpoint
func NewConnectedClient(config *common.ClientConfig) (*client.CmdClient, error) {
	connector, err := GetConnector(config)
	if err != nil {
		return nil, err
	}

	s, err := GetSerializer(config)
	if err != nil {
		return nil, err
	}

	guard, err := GetGuard(config)
	if err != nil {
		return nil, err
	}

	c := client.NewCmdClient(connector, config.NetworkName)
	c.SetSerializer(s)
	c.SetGuard(guard)

	if err := c.Connect(*config); err != nil {
		return nil, err
	}
	return c, nil
}
