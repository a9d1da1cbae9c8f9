package redisserver

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/yndnr/snapkv/internal/core/domain"
	"github.com/yndnr/snapkv/internal/storage/memory"
	"github.com/yndnr/snapkv/internal/telemetry/metric"
)

// ============================================================
// Test Helper: Create a mock Conn using net.Pipe
// ============================================================

type testConn struct {
	*Conn
	output *bytes.Buffer
	server net.Conn
	client net.Conn
}

func newTestConn() *testConn {
	server, client := net.Pipe()
	output := &bytes.Buffer{}

	tc := &testConn{
		output: output,
		server: server,
		client: client,
	}

	tc.Conn = &Conn{
		netConn: server,
		br:      bufio.NewReader(server),
		bw:      bufio.NewWriter(output),
	}

	return tc
}

func (tc *testConn) Close() {
	tc.server.Close()
	tc.client.Close()
}

func (tc *testConn) FlushAndGetOutput() string {
	tc.bw.Flush()
	out := tc.output.String()
	tc.output.Reset()
	return out
}

func newTestCommandHandler(cfg *Config) (*CommandHandler, *memory.Store) {
	store := memory.New()
	if cfg == nil {
		cfg = &Config{}
	}
	return NewCommandHandler(store, cfg, nil), store
}

func cmd(parts ...string) [][]byte {
	args := make([][]byte, len(parts))
	for i, p := range parts {
		args[i] = []byte(p)
	}
	return args
}

// run executes one command and returns the raw reply.
func run(h *CommandHandler, tc *testConn, parts ...string) string {
	h.Handle(context.Background(), tc.Conn, cmd(parts...))
	return tc.FlushAndGetOutput()
}

// ============================================================
// Test: formatRedisError
// ============================================================

func TestFormatRedisError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"domain error", domain.ErrKeyNotFound, "ERR SK-KV-4040 key not found"},
		{"domain error with details", domain.ErrKeyAlreadyExists.WithDetails("b"), "ERR SK-KV-4090 key already exists"},
		{"plain error", errors.New("boom"), "ERR boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatRedisError(tt.err); got != tt.want {
				t.Errorf("formatRedisError() = %q, want %q", got, tt.want)
			}
		})
	}
}

// ============================================================
// Test: Handle (main router)
// ============================================================

func TestCommandHandler_Handle_UnknownCommand(t *testing.T) {
	h, _ := newTestCommandHandler(nil)
	tc := newTestConn()
	defer tc.Close()

	if out := run(h, tc, "FLUSHALL"); !strings.HasPrefix(out, "-ERR unknown command 'FLUSHALL'") {
		t.Errorf("got %q", out)
	}
}

func TestCommandHandler_Handle_EmptyCommand(t *testing.T) {
	h, _ := newTestCommandHandler(nil)
	tc := newTestConn()
	defer tc.Close()

	h.Handle(context.Background(), tc.Conn, nil)
	if out := tc.FlushAndGetOutput(); !strings.Contains(out, "ERR no command") {
		t.Errorf("got %q", out)
	}
}

func TestCommandHandler_Handle_CaseInsensitive(t *testing.T) {
	h, _ := newTestCommandHandler(nil)
	tc := newTestConn()
	defer tc.Close()

	if out := run(h, tc, "ping"); out != "+PONG\r\n" {
		t.Errorf("got %q", out)
	}
	if out := run(h, tc, "dbSize"); out != ":0\r\n" {
		t.Errorf("got %q", out)
	}
}

func TestCommandHandler_Ping(t *testing.T) {
	h, _ := newTestCommandHandler(nil)
	tc := newTestConn()
	defer tc.Close()

	if out := run(h, tc, "PING"); out != "+PONG\r\n" {
		t.Errorf("PING = %q", out)
	}
	if out := run(h, tc, "PING", "hello"); out != "$5\r\nhello\r\n" {
		t.Errorf("PING hello = %q", out)
	}
}

func TestCommandHandler_Echo(t *testing.T) {
	h, _ := newTestCommandHandler(nil)
	tc := newTestConn()
	defer tc.Close()

	if out := run(h, tc, "ECHO", "hi there"); out != "$8\r\nhi there\r\n" {
		t.Errorf("ECHO = %q", out)
	}
	if out := run(h, tc, "ECHO"); !strings.Contains(out, "wrong number of arguments") {
		t.Errorf("ECHO without args = %q", out)
	}
}

func TestCommandHandler_Quit(t *testing.T) {
	h, _ := newTestCommandHandler(nil)
	tc := newTestConn()
	defer tc.Close()

	if out := run(h, tc, "QUIT"); out != "+OK\r\n" {
		t.Errorf("QUIT = %q", out)
	}
	if !tc.closed.Load() {
		t.Error("connection should be closed after QUIT")
	}
}

// ============================================================
// Test: AUTH
// ============================================================

func TestCommandHandler_Auth(t *testing.T) {
	h, _ := newTestCommandHandler(&Config{Password: "s3cret"})
	tc := newTestConn()
	defer tc.Close()

	if out := run(h, tc, "GET", "k"); !strings.HasPrefix(out, "-NOAUTH") {
		t.Errorf("GET before AUTH = %q", out)
	}
	if out := run(h, tc, "PING"); out != "+PONG\r\n" {
		t.Errorf("PING before AUTH = %q", out)
	}
	if out := run(h, tc, "AUTH", "wrong"); !strings.HasPrefix(out, "-WRONGPASS") {
		t.Errorf("AUTH wrong = %q", out)
	}
	if out := run(h, tc, "AUTH", "s3cret"); out != "+OK\r\n" {
		t.Errorf("AUTH = %q", out)
	}
	if out := run(h, tc, "GET", "k"); out != "$-1\r\n" {
		t.Errorf("GET after AUTH = %q", out)
	}
}

func TestCommandHandler_Auth_NoPasswordConfigured(t *testing.T) {
	h, _ := newTestCommandHandler(nil)
	tc := newTestConn()
	defer tc.Close()

	if out := run(h, tc, "AUTH", "x"); !strings.Contains(out, "no password is set") {
		t.Errorf("got %q", out)
	}
	if out := run(h, tc, "AUTH"); !strings.Contains(out, "wrong number of arguments") {
		t.Errorf("got %q", out)
	}
}

// ============================================================
// Test: GET / SET
// ============================================================

func TestCommandHandler_SetGet(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		stored  string
		fetched string
	}{
		{"plain text becomes JSON string", "hello world", `"hello world"`, "hello world"},
		{"JSON number", "42", `42`, "42"},
		{"JSON object compacted", `{"a": 1}`, `{"a":1}`, `{"a":1}`},
		{"JSON string unwrapped", `"quoted"`, `"quoted"`, "quoted"},
		{"empty value", "", `""`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, store := newTestCommandHandler(nil)
			tc := newTestConn()
			defer tc.Close()

			if out := run(h, tc, "SET", "k", tt.value); out != "+OK\r\n" {
				t.Fatalf("SET = %q", out)
			}

			e, err := store.Get(context.Background(), "k")
			if err != nil {
				t.Fatal(err)
			}
			if string(e.Value) != tt.stored {
				t.Errorf("stored %s, want %s", e.Value, tt.stored)
			}

			want := "$" + strconv.Itoa(len(tt.fetched)) + "\r\n" + tt.fetched + "\r\n"
			if out := run(h, tc, "GET", "k"); out != want {
				t.Errorf("GET = %q, want %q", out, want)
			}
		})
	}
}

func TestCommandHandler_Get_NotFound(t *testing.T) {
	h, _ := newTestCommandHandler(nil)
	tc := newTestConn()
	defer tc.Close()

	if out := run(h, tc, "GET", "missing"); out != "$-1\r\n" {
		t.Errorf("got %q", out)
	}
}

func TestCommandHandler_WrongArgs(t *testing.T) {
	h, _ := newTestCommandHandler(nil)
	tc := newTestConn()
	defer tc.Close()

	for _, c := range [][]string{
		{"GET"},
		{"SET", "k"},
		{"SET", "k", "v", "EX"},
		{"DEL"},
		{"EXISTS"},
		{"KEYS"},
		{"RENAME", "a"},
		{"DBSIZE", "x"},
	} {
		if out := run(h, tc, c...); !strings.Contains(out, "wrong number of arguments for '"+c[0]+"'") {
			t.Errorf("%v = %q", c, out)
		}
	}
}

func TestCommandHandler_Set_EmptyKey(t *testing.T) {
	h, _ := newTestCommandHandler(nil)
	tc := newTestConn()
	defer tc.Close()

	if out := run(h, tc, "SET", "", "v"); !strings.Contains(out, domain.ErrInvalidKey.Code) {
		t.Errorf("got %q", out)
	}
}

// ============================================================
// Test: DEL / EXISTS / DBSIZE
// ============================================================

func TestCommandHandler_DelExists(t *testing.T) {
	h, _ := newTestCommandHandler(nil)
	tc := newTestConn()
	defer tc.Close()

	run(h, tc, "SET", "a", "1")
	run(h, tc, "SET", "b", "2")

	if out := run(h, tc, "EXISTS", "a", "b", "c", "a"); out != ":3\r\n" {
		t.Errorf("EXISTS = %q", out)
	}
	if out := run(h, tc, "DBSIZE"); out != ":2\r\n" {
		t.Errorf("DBSIZE = %q", out)
	}
	if out := run(h, tc, "DEL", "a", "c"); out != ":1\r\n" {
		t.Errorf("DEL = %q", out)
	}
	if out := run(h, tc, "DBSIZE"); out != ":1\r\n" {
		t.Errorf("DBSIZE after DEL = %q", out)
	}
}

func TestCommandHandler_Del_Limit(t *testing.T) {
	h, _ := newTestCommandHandler(nil)
	tc := newTestConn()
	defer tc.Close()

	parts := []string{"DEL"}
	for i := 0; i <= maxKeysPerCommand; i++ {
		parts = append(parts, "k")
	}
	if out := run(h, tc, parts...); !strings.Contains(out, "maximum 1000 keys") {
		t.Errorf("got %q", out)
	}
}

// ============================================================
// Test: KEYS
// ============================================================

func TestCommandHandler_Keys(t *testing.T) {
	h, _ := newTestCommandHandler(nil)
	tc := newTestConn()
	defer tc.Close()

	for _, k := range []string{"user:2", "user:1", "order:1"} {
		run(h, tc, "SET", k, "1")
	}

	tests := []struct {
		pattern string
		want    string
	}{
		{"*", "*3\r\n$7\r\norder:1\r\n$6\r\nuser:1\r\n$6\r\nuser:2\r\n"},
		{"user:*", "*2\r\n$6\r\nuser:1\r\n$6\r\nuser:2\r\n"},
		{"user:?", "*2\r\n$6\r\nuser:1\r\n$6\r\nuser:2\r\n"},
		{"*:1", "*2\r\n$7\r\norder:1\r\n$6\r\nuser:1\r\n"},
		{"nothing*", "*0\r\n"},
	}
	for _, tt := range tests {
		if out := run(h, tc, "KEYS", tt.pattern); out != tt.want {
			t.Errorf("KEYS %s = %q, want %q", tt.pattern, out, tt.want)
		}
	}

	if out := run(h, tc, "KEYS", "[bad"); !strings.Contains(out, "invalid pattern") {
		t.Errorf("KEYS [bad = %q", out)
	}
}

// ============================================================
// Test: RENAME
// ============================================================

func TestCommandHandler_Rename(t *testing.T) {
	h, store := newTestCommandHandler(nil)
	tc := newTestConn()
	defer tc.Close()
	ctx := context.Background()

	run(h, tc, "SET", "a", "1")
	run(h, tc, "SET", "b", "2")

	if out := run(h, tc, "RENAME", "missing", "x"); out != "-ERR no such key\r\n" {
		t.Errorf("RENAME missing = %q", out)
	}
	if out := run(h, tc, "RENAME", "a", "b"); !strings.Contains(out, domain.ErrKeyAlreadyExists.Code) {
		t.Errorf("RENAME onto existing = %q", out)
	}
	if !store.Has(ctx, "a") {
		t.Fatal("failed RENAME removed the source")
	}
	if out := run(h, tc, "RENAME", "a", "c"); out != "+OK\r\n" {
		t.Errorf("RENAME = %q", out)
	}
	if store.Has(ctx, "a") || !store.Has(ctx, "c") {
		t.Error("RENAME did not move the key")
	}
}

// ============================================================
// Test: rate limiting and metrics
// ============================================================

func TestCommandHandler_RateLimit(t *testing.T) {
	h, _ := newTestCommandHandler(&Config{RateLimit: 1, RateBurst: 2})
	tc := newTestConn()
	defer tc.Close()

	run(h, tc, "DBSIZE")
	run(h, tc, "DBSIZE")
	if out := run(h, tc, "DBSIZE"); !strings.Contains(out, domain.ErrRateLimited.Code) {
		t.Errorf("third DBSIZE = %q", out)
	}
	if out := run(h, tc, "PING"); out != "+PONG\r\n" {
		t.Errorf("PING should bypass the limiter, got %q", out)
	}
}

func TestCommandHandler_Metrics(t *testing.T) {
	h, _ := newTestCommandHandler(nil)
	reg := metric.NewRegistry()
	h.metrics = reg
	tc := newTestConn()
	defer tc.Close()

	run(h, tc, "SET", "k", "v")
	run(h, tc, "RENAME", "nope", "x")

	body := scrape(t, reg)
	for _, want := range []string{
		`snapkv_http_requests_total{method="RESP",route="SET",status="ok"} 1`,
		`snapkv_http_requests_total{method="RESP",route="RENAME",status="error"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func scrape(t *testing.T, reg *metric.Registry) string {
	t.Helper()
	rec := httptest.NewRecorder()
	reg.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(body)
}
