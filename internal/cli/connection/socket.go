package connection

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"
)

// UnixScheme prefixes a server address that names a local socket, as in
// unix:///var/run/snapkv/snapkv.sock.
const UnixScheme = "unix://"

// socketPath returns the socket path of a unix:// server address.
func socketPath(server string) (string, bool) {
	if !strings.HasPrefix(server, UnixScheme) {
		return "", false
	}
	return strings.TrimPrefix(server, UnixScheme), true
}

// unixTransport dials every request to the socket at path, ignoring the
// request's host.
func unixTransport(path string) *http.Transport {
	dialer := &net.Dialer{Timeout: 5 * time.Second}
	return &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			return dialer.DialContext(ctx, "unix", path)
		},
		MaxIdleConns:    2,
		IdleConnTimeout: 30 * time.Second,
	}
}
