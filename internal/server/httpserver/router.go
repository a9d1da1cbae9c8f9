package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/yndnr/snapkv/internal/server/httpserver/handler"
	"github.com/yndnr/snapkv/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Store backs the /kv routes.
	Store handler.Store

	// Logger for request logging.
	Logger *slog.Logger

	// Metrics receives request metrics and serves /metrics. Nil disables both.
	Metrics *metric.Registry

	// RateLimit is the per-IP rate limit (requests/second); 0 disables it.
	RateLimit float64

	// RateBurst is the per-IP bucket size.
	RateBurst int

	// MaxBodyBytes caps request bodies; 0 disables the cap.
	MaxBodyBytes int64

	// MaxTextBytes caps the text field of /v1 requests.
	MaxTextBytes int

	// EnableAudit enables audit logging for all requests.
	EnableAudit bool
}

// NewRouter creates and configures the HTTP router with all routes and middleware.
//
// Order per route: Recover -> RequestID -> RateLimit -> MaxBody -> Metrics -> Audit -> Handler.
func NewRouter(cfg *RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	h := handler.New(cfg.Store, logger, handler.WithMaxTextBytes(cfg.MaxTextBytes))
	limiter := RateLimit(cfg.RateLimit, cfg.RateBurst)

	mux := http.NewServeMux()

	for _, route := range handler.Routes() {
		middlewares := []Middleware{
			Recover(logger),
			RequestID(),
			limiter,
			MaxBody(cfg.MaxBodyBytes),
			Metrics(cfg.Metrics, route),
		}
		if cfg.EnableAudit {
			middlewares = append(middlewares, Audit(logger))
		}
		mux.Handle(route, Chain(h, middlewares...))
	}

	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", Chain(cfg.Metrics.Handler(), Recover(logger)))
	}

	return mux
}

// DefaultRouterConfig returns default router configuration.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		RateLimit:    100,
		RateBurst:    200,
		MaxBodyBytes: 4 << 20,
		MaxTextBytes: handler.DefaultMaxTextBytes,
		EnableAudit:  true,
	}
}
