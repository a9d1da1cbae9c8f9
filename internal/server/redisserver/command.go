package redisserver

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"path"
	"time"

	"github.com/yndnr/snapkv/internal/core/domain"
	"github.com/yndnr/snapkv/internal/infra/ratelimit"
	"github.com/yndnr/snapkv/internal/telemetry/metric"
)

// maxKeysPerCommand bounds DEL and EXISTS.
const maxKeysPerCommand = 1000

// Store is the key-value surface the RESP commands need.
type Store interface {
	Get(ctx context.Context, key string) (*domain.Entry, error)
	Has(ctx context.Context, key string) bool
	Put(ctx context.Context, key string, value []byte) (*domain.Entry, error)
	Delete(ctx context.Context, key string) (*domain.Entry, error)
	Rename(ctx context.Context, oldKey, newKey string) error
	Keys(ctx context.Context) []string
	Len(ctx context.Context) int
}

// formatRedisError converts an error to a Redis error string.
// For DomainErrors, returns "ERR <code> <message>".
// For other errors, returns "ERR <message>".
func formatRedisError(err error) string {
	var de *domain.DomainError
	if errors.As(err, &de) {
		return "ERR " + de.Code + " " + de.Message
	}
	return "ERR " + err.Error()
}

// CommandHandler executes commands against the store.
type CommandHandler struct {
	store    Store
	password string
	logger   *slog.Logger
	limiter  *ratelimit.Limiter
	metrics  *metric.Registry
}

// NewCommandHandler creates a new CommandHandler.
func NewCommandHandler(store Store, cfg *Config, logger *slog.Logger) *CommandHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}

	return &CommandHandler{
		store:    store,
		password: cfg.Password,
		logger:   logger,
		limiter:  ratelimit.New(cfg.RateLimit, cfg.RateBurst),
	}
}

// commandFunc runs one command; it writes the reply and returns the error
// it reported, if any, for metrics.
type commandFunc func(h *CommandHandler, ctx context.Context, conn *Conn, args [][]byte) error

var commands = map[string]commandFunc{
	"GET":    (*CommandHandler).handleGet,
	"SET":    (*CommandHandler).handleSet,
	"DEL":    (*CommandHandler).handleDel,
	"EXISTS": (*CommandHandler).handleExists,
	"KEYS":   (*CommandHandler).handleKeys,
	"RENAME": (*CommandHandler).handleRename,
	"DBSIZE": (*CommandHandler).handleDBSize,
}

// errReplied marks a command that already wrote an error reply.
var errReplied = errors.New("error reply")

// Handle handles a command (RESP array of bulk strings).
func (h *CommandHandler) Handle(ctx context.Context, conn *Conn, args [][]byte) {
	if len(args) == 0 {
		_ = WriteError(conn.bw, "ERR no command")
		return
	}

	cmdName := normalizeCommandName(args[0])

	// Connection-level commands work without authentication.
	switch cmdName {
	case "PING":
		h.handlePing(conn, args)
		return
	case "ECHO":
		h.handleEcho(conn, args)
		return
	case "AUTH":
		h.handleAuth(conn, args)
		return
	case "QUIT":
		h.handleQuit(conn)
		return
	}

	if h.password != "" && !conn.GetState().Authenticated {
		_ = WriteError(conn.bw, "NOAUTH Authentication required")
		return
	}

	fn, ok := commands[cmdName]
	if !ok {
		_ = WriteError(conn.bw, "ERR unknown command '"+cmdName+"'")
		return
	}

	start := time.Now()
	if !h.limiter.Allow(remoteIP(conn)) {
		_ = WriteError(conn.bw, "ERR "+domain.ErrRateLimited.Code+" rate limit exceeded")
		h.record(cmdName, start, errReplied)
		return
	}

	err := fn(h, ctx, conn, args)
	h.record(cmdName, start, err)
}

func (h *CommandHandler) record(cmdName string, start time.Time, err error) {
	if h.metrics == nil {
		return
	}
	status := metric.ResultOK
	if err != nil {
		status = metric.ResultError
	}
	h.metrics.RecordRequest("RESP", cmdName, status)
	h.metrics.ObserveRequestDuration("RESP", cmdName, time.Since(start).Seconds())
}

func remoteIP(conn *Conn) string {
	addr := conn.RemoteAddr()
	if addr == nil {
		return ""
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}

func wrongArgs(conn *Conn, cmd string) error {
	_ = WriteError(conn.bw, "ERR wrong number of arguments for '"+cmd+"' command")
	return errReplied
}

func replyError(conn *Conn, err error) error {
	_ = WriteError(conn.bw, formatRedisError(err))
	return err
}

func (h *CommandHandler) handlePing(conn *Conn, args [][]byte) {
	if len(args) > 1 {
		_ = WriteBulk(conn.bw, args[1])
		return
	}
	_ = WriteSimpleString(conn.bw, "PONG")
}

// ECHO <message>
func (h *CommandHandler) handleEcho(conn *Conn, args [][]byte) {
	if len(args) != 2 {
		_ = wrongArgs(conn, "ECHO")
		return
	}
	_ = WriteBulk(conn.bw, args[1])
}

// AUTH <password>
func (h *CommandHandler) handleAuth(conn *Conn, args [][]byte) {
	if len(args) != 2 {
		_ = wrongArgs(conn, "AUTH")
		return
	}
	if h.password == "" {
		_ = WriteError(conn.bw, "ERR Client sent AUTH, but no password is set")
		return
	}
	if subtle.ConstantTimeCompare(args[1], []byte(h.password)) != 1 {
		h.logger.Warn("resp auth failed", "remote", remoteIP(conn))
		_ = WriteError(conn.bw, "WRONGPASS invalid password")
		return
	}

	conn.SetState(ConnState{Authenticated: true})
	_ = WriteSimpleString(conn.bw, "OK")
}

func (h *CommandHandler) handleQuit(conn *Conn) {
	_ = WriteSimpleString(conn.bw, "OK")
	_ = conn.bw.Flush()
	_ = conn.Close()
}

// GET <key>
//
// JSON strings are returned unquoted; any other JSON value is returned as
// its JSON text.
func (h *CommandHandler) handleGet(ctx context.Context, conn *Conn, args [][]byte) error {
	if len(args) != 2 {
		return wrongArgs(conn, "GET")
	}

	entry, err := h.store.Get(ctx, string(args[1]))
	if err != nil {
		if errors.Is(err, domain.ErrKeyNotFound) {
			return WriteNullBulk(conn.bw)
		}
		return replyError(conn, err)
	}
	return WriteBulk(conn.bw, fromJSON(entry.Value))
}

// SET <key> <value>
//
// A value that parses as JSON is stored as that document; anything else is
// stored as a JSON string.
func (h *CommandHandler) handleSet(ctx context.Context, conn *Conn, args [][]byte) error {
	if len(args) != 3 {
		return wrongArgs(conn, "SET")
	}

	if _, err := h.store.Put(ctx, string(args[1]), toJSON(args[2])); err != nil {
		return replyError(conn, err)
	}
	return WriteSimpleString(conn.bw, "OK")
}

// DEL <key> [key ...]
func (h *CommandHandler) handleDel(ctx context.Context, conn *Conn, args [][]byte) error {
	if len(args) < 2 {
		return wrongArgs(conn, "DEL")
	}
	if len(args)-1 > maxKeysPerCommand {
		_ = WriteError(conn.bw, "ERR maximum 1000 keys per DEL command")
		return errReplied
	}

	deleted := 0
	for _, key := range args[1:] {
		_, err := h.store.Delete(ctx, string(key))
		switch {
		case err == nil:
			deleted++
		case errors.Is(err, domain.ErrKeyNotFound):
		default:
			return replyError(conn, err)
		}
	}
	return WriteInteger(conn.bw, int64(deleted))
}

// EXISTS <key> [key ...]
func (h *CommandHandler) handleExists(ctx context.Context, conn *Conn, args [][]byte) error {
	if len(args) < 2 {
		return wrongArgs(conn, "EXISTS")
	}
	if len(args)-1 > maxKeysPerCommand {
		_ = WriteError(conn.bw, "ERR maximum 1000 keys per EXISTS command")
		return errReplied
	}

	count := 0
	for _, key := range args[1:] {
		if h.store.Has(ctx, string(key)) {
			count++
		}
	}
	return WriteInteger(conn.bw, int64(count))
}

// KEYS <pattern>
//
// Patterns use path.Match syntax (*, ?, [...]); keys are returned sorted.
func (h *CommandHandler) handleKeys(ctx context.Context, conn *Conn, args [][]byte) error {
	if len(args) != 2 {
		return wrongArgs(conn, "KEYS")
	}

	pattern := string(args[1])
	if _, err := path.Match(pattern, ""); err != nil {
		_ = WriteError(conn.bw, "ERR invalid pattern")
		return errReplied
	}

	keys := h.store.Keys(ctx)
	if pattern != "*" {
		matched := keys[:0]
		for _, k := range keys {
			if ok, _ := path.Match(pattern, k); ok {
				matched = append(matched, k)
			}
		}
		keys = matched
	}
	return WriteBulkStrings(conn.bw, keys)
}

// RENAME <key> <newkey>
//
// Unlike Redis, an existing newkey is never overwritten.
func (h *CommandHandler) handleRename(ctx context.Context, conn *Conn, args [][]byte) error {
	if len(args) != 3 {
		return wrongArgs(conn, "RENAME")
	}

	if err := h.store.Rename(ctx, string(args[1]), string(args[2])); err != nil {
		if errors.Is(err, domain.ErrKeyNotFound) {
			_ = WriteError(conn.bw, "ERR no such key")
			return err
		}
		return replyError(conn, err)
	}
	return WriteSimpleString(conn.bw, "OK")
}

// DBSIZE
func (h *CommandHandler) handleDBSize(ctx context.Context, conn *Conn, args [][]byte) error {
	if len(args) != 1 {
		return wrongArgs(conn, "DBSIZE")
	}
	return WriteInteger(conn.bw, int64(h.store.Len(ctx)))
}

// toJSON returns raw when it is a JSON document, otherwise raw encoded as
// a JSON string.
func toJSON(raw []byte) []byte {
	if json.Valid(raw) {
		return raw
	}
	b, _ := json.Marshal(string(raw))
	return b
}

// fromJSON unwraps JSON strings and returns other documents unchanged.
func fromJSON(v json.RawMessage) []byte {
	if len(v) > 0 && v[0] == '"' {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			return []byte(s)
		}
	}
	return v
}
