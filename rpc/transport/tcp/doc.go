// Package tcp implements the TCP stream connector for the command client.
//
// The connector dials the endpoint and applies the TCPConf options of the
// client configuration (TCP_NODELAY, keep-alive, linger). The base package
// wraps the connection into a buffered stream, see base.Dial.
//
// Key Components:
//
//   - clientConnector: TCP-specific implementation of transport.IStreamConnector
package tcp
