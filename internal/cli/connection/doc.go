// Package connection provides the HTTP client snapkv-cli uses to reach a
// server, over TCP or over the server's local Unix socket.
package connection
