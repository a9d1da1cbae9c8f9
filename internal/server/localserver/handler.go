package localserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/yndnr/snapkv/internal/infra/buildinfo"
	"github.com/yndnr/snapkv/internal/server/httpserver"
	"github.com/yndnr/snapkv/internal/server/httpserver/handler"
	"github.com/yndnr/snapkv/internal/telemetry/logger"
)

// StatusPath reports build information, uptime and key count.
const StatusPath = "/local/status"

// Status is the payload of GET /local/status.
type Status struct {
	Build         buildinfo.Info `json:"build"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	Keys          int            `json:"keys"`
}

// NewHandler builds the socket handler from a copy of cfg with rate
// limiting disabled.
func NewHandler(cfg httpserver.RouterConfig) http.Handler {
	cfg.RateLimit = 0
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	started := time.Now()
	mux := http.NewServeMux()
	mux.Handle("/", httpserver.NewRouter(&cfg))
	mux.Handle("GET "+StatusPath, httpserver.Chain(
		statusHandler(cfg.Store, started),
		httpserver.Recover(cfg.Logger),
		httpserver.RequestID(),
	))
	return mux
}

func statusHandler(store handler.Store, started time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := Status{
			Build:         buildinfo.Get(),
			UptimeSeconds: int64(time.Since(started).Seconds()),
			Keys:          store.Len(r.Context()),
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(handler.NewResponse(logger.RequestIDFromContext(r.Context()), st))
	}
}
