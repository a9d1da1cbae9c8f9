package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/yndnr/snapkv/internal/core/domain"
	"github.com/yndnr/snapkv/internal/telemetry/logger"
)

// DefaultMaxTextBytes caps the text field of the /v1 endpoints.
const DefaultMaxTextBytes = 1 << 20

// Store is the key-value surface the handlers need.
type Store interface {
	Get(ctx context.Context, key string) (*domain.Entry, error)
	Put(ctx context.Context, key string, value []byte) (*domain.Entry, error)
	Delete(ctx context.Context, key string) (*domain.Entry, error)
	Rename(ctx context.Context, oldKey, newKey string) error
	List(ctx context.Context) (map[string]json.RawMessage, error)
	Len(ctx context.Context) int
}

// Handler is the main HTTP handler that routes requests to appropriate handlers.
type Handler struct {
	store        Store
	logger       *slog.Logger
	mux          *http.ServeMux
	maxTextBytes int
}

// Option configures a Handler.
type Option func(*Handler)

// WithMaxTextBytes overrides DefaultMaxTextBytes.
func WithMaxTextBytes(n int) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxTextBytes = n
		}
	}
}

// New creates a new Handler serving store.
func New(store Store, logger *slog.Logger, opts ...Option) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		store:        store,
		logger:       logger,
		mux:          http.NewServeMux(),
		maxTextBytes: DefaultMaxTextBytes,
	}
	for _, opt := range opts {
		opt(h)
	}

	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// Routes returns the patterns registered by the handler.
func Routes() []string {
	return []string{
		"GET /health",
		"GET /ready",
		"GET /kv",
		"GET /kv/{key}",
		"PUT /kv/{key}",
		"POST /kv/{key}",
		"DELETE /kv/{key}",
		"POST /kv/{key}/rename",
		"POST /v1/stats",
		"POST /v1/uniq",
		"POST /v1/grep",
	}
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /ready", h.handleReady)

	h.mux.HandleFunc("GET /kv", h.handleList)
	h.mux.HandleFunc("GET /kv/{key}", h.handleGet)
	h.mux.HandleFunc("PUT /kv/{key}", h.handlePut)
	h.mux.HandleFunc("POST /kv/{key}", h.handlePut)
	h.mux.HandleFunc("DELETE /kv/{key}", h.handleDelete)
	h.mux.HandleFunc("POST /kv/{key}/rename", h.handleRename)

	h.mux.HandleFunc("POST /v1/stats", h.handleStats)
	h.mux.HandleFunc("POST /v1/uniq", h.handleUniq)
	h.mux.HandleFunc("POST /v1/grep", h.handleGrep)
}

// writeJSON writes a JSON response with standard envelope format.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	requestID := getRequestID(r)
	response := NewResponse(requestID, data)

	w.Header().Set("Content-Type", "application/json")
	if requestID != "" {
		w.Header().Set("X-Request-ID", requestID)
	}
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// writeError writes an error response with standard envelope format.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	requestID := getRequestID(r)
	response := NewErrorResponse(requestID, code, message, details)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	if requestID != "" {
		w.Header().Set("X-Request-ID", requestID)
	}
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

// getRequestID returns the ID assigned by the RequestID middleware, falling
// back to the inbound header.
func getRequestID(r *http.Request) string {
	if reqID := logger.RequestIDFromContext(r.Context()); reqID != "" {
		return reqID
	}
	return r.Header.Get("X-Request-ID")
}

// decodeJSON reads a JSON request body into v. Oversized bodies are
// reported as ErrPayloadTooLarge, everything else as ErrBadRequest.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return bodyError(err)
	}
	return nil
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return domain.ErrPayloadTooLarge.WithCause(err)
	}
	return domain.ErrBadRequest.WithDetails("invalid request body").WithCause(err)
}

// handleServiceError converts store errors to HTTP responses.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if domain.IsDomainError(err, "") {
		code := domain.GetErrorCode(err)
		status := errorCodeToHTTPStatus(code)
		if status >= http.StatusInternalServerError {
			h.logger.Error("request failed", "path", r.URL.Path, "code", code, "error", err)
		}
		h.writeError(w, r, status, code, err.Error(), nil)
		return
	}

	h.logger.Error("internal error", "path", r.URL.Path, "error", err)
	h.writeError(w, r, http.StatusInternalServerError, domain.ErrInternalServer.Code, "internal server error", nil)
}

// errorCodeToHTTPStatus maps error codes to HTTP status codes.
func errorCodeToHTTPStatus(code string) int {
	switch domain.StatusClass(code) {
	case "4040":
		return http.StatusNotFound
	case "4090":
		return http.StatusConflict
	case "4130":
		return http.StatusRequestEntityTooLarge
	case "4290":
		return http.StatusTooManyRequests
	case "4000", "4001", "4002":
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
