package localserver

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/snapkv/internal/server/httpserver"
	"github.com/yndnr/snapkv/internal/storage/memory"
)

// socketPath returns a short path; Unix socket paths are limited to about
// 100 bytes.
func socketPath(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "snapkv")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "s.sock")
}

func unixClient(path string) *http.Client {
	return &http.Client{
		Timeout: 5 * time.Second,
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, "unix", path)
			},
		},
	}
}

func startLocal(t *testing.T, cfg httpserver.RouterConfig) (*Server, *http.Client) {
	t.Helper()

	path := socketPath(t)
	srv := New(path, NewHandler(cfg), nil)
	if err := srv.Listen(); err != nil {
		t.Fatalf("Listen() error = %v", err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve() }()

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			t.Errorf("Shutdown() error = %v", err)
		}
		if err := <-errCh; err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	})
	return srv, unixClient(path)
}

func TestServer_SocketPermissions(t *testing.T) {
	srv, _ := startLocal(t, httpserver.RouterConfig{Store: memory.New()})

	fi, err := os.Stat(srv.Path())
	if err != nil {
		t.Fatal(err)
	}
	if perm := fi.Mode().Perm(); perm != 0o600 {
		t.Errorf("socket mode = %o, want 600", perm)
	}
}

func TestServer_ServesRouterWithoutRateLimit(t *testing.T) {
	cfg := *httpserver.DefaultRouterConfig()
	cfg.Store = memory.New()
	cfg.RateLimit = 1
	cfg.RateBurst = 1
	cfg.EnableAudit = false
	_, client := startLocal(t, cfg)

	req, _ := http.NewRequest(http.MethodPut, "http://local/kv/a", strings.NewReader(`{"x":1}`))
	resp, err := client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT status = %d", resp.StatusCode)
	}

	for i := range 5 {
		resp, err := client.Get("http://local/kv/a")
		if err != nil {
			t.Fatal(err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("GET #%d status = %d", i, resp.StatusCode)
		}
		if !strings.Contains(string(body), `"value":{"x":1}`) {
			t.Fatalf("GET #%d body = %s", i, body)
		}
	}
}

func TestServer_Status(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	if _, err := store.Put(ctx, "a", []byte(`1`)); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Put(ctx, "b", []byte(`2`)); err != nil {
		t.Fatal(err)
	}
	_, client := startLocal(t, httpserver.RouterConfig{Store: store})

	resp, err := client.Get("http://local" + StatusPath)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}

	var env struct {
		Code string `json:"code"`
		Data Status `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatal(err)
	}
	if env.Code != "OK" {
		t.Errorf("code = %q", env.Code)
	}
	if env.Data.Keys != 2 {
		t.Errorf("keys = %d, want 2", env.Data.Keys)
	}
	if env.Data.Build.Version == "" || env.Data.Build.GoVersion == "" {
		t.Errorf("build info incomplete: %+v", env.Data.Build)
	}
}

func TestServer_ShutdownRemovesSocket(t *testing.T) {
	path := socketPath(t)
	srv := New(path, http.NotFoundHandler(), nil)
	if err := srv.Listen(); err != nil {
		t.Fatal(err)
	}
	done := make(chan error, 1)
	go func() { done <- srv.Serve() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if err := <-done; err != nil {
		t.Errorf("Serve() error = %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("socket still exists: %v", err)
	}
}

func TestServer_ListenRemovesStaleSocket(t *testing.T) {
	path := socketPath(t)

	// A listener closed without unlinking leaves a stale socket file.
	ln, err := net.Listen("unix", path)
	if err != nil {
		t.Fatal(err)
	}
	ln.(*net.UnixListener).SetUnlinkOnClose(false)
	ln.Close()

	srv := New(path, http.NotFoundHandler(), nil)
	if err := srv.Listen(); err != nil {
		t.Fatalf("Listen() over stale socket error = %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}

func TestServer_ListenRefusesRegularFile(t *testing.T) {
	path := socketPath(t)
	if err := os.WriteFile(path, []byte("data"), 0o600); err != nil {
		t.Fatal(err)
	}

	srv := New(path, http.NotFoundHandler(), nil)
	if err := srv.Listen(); err == nil {
		t.Fatal("Listen() should refuse to replace a regular file")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("regular file was removed: %v", err)
	}
}

func TestServer_ServeWithoutListen(t *testing.T) {
	srv := New(socketPath(t), http.NotFoundHandler(), nil)
	if err := srv.Serve(); err == nil {
		t.Fatal("Serve() without Listen should fail")
	}
}
