// Package localserver exposes the HTTP API on a Unix domain socket.
//
// The socket is intended for operators on the same host: it serves the
// full router without per-IP rate limiting, and adds a status endpoint.
// Access is controlled by file system permissions on the socket, which is
// created with mode 0600.
package localserver
