// Package unix implements the Unix domain socket stream connector for the
// command client. The endpoint is the socket path.
package unix
