package handler

import (
	"encoding/json"
	"time"

	"github.com/yndnr/snapkv/internal/textkit"
)

// Response is the standard API response envelope.
// All JSON responses use this format (except /metrics which uses Prometheus format).
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Details   any    `json:"details,omitempty"` // Additional error details
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string, details any) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Details:   details,
	}
}

// EntryResponse is a single key and its value.
type EntryResponse struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// RenameRequest is the request body for POST /kv/{key}/rename.
type RenameRequest struct {
	To string `json:"to"`
}

// RenameResponse is the response body for POST /kv/{key}/rename.
type RenameResponse struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// StatsRequest is the request body for POST /v1/stats.
type StatsRequest struct {
	Text string `json:"text"`
}

// UniqRequest is the request body for POST /v1/uniq.
type UniqRequest struct {
	Text       string `json:"text"`
	All        bool   `json:"all,omitempty"`
	IgnoreCase bool   `json:"ignore_case,omitempty"`
}

// UniqResponse is the response body for POST /v1/uniq.
type UniqResponse struct {
	Text    string `json:"text"`
	Removed int    `json:"removed"`
}

// GrepRequest is the request body for POST /v1/grep.
type GrepRequest struct {
	Text       string `json:"text"`
	Pattern    string `json:"pattern"`
	LineNumber bool   `json:"line_number,omitempty"`
	IgnoreCase bool   `json:"ignore_case,omitempty"`
	Invert     bool   `json:"invert,omitempty"`
}

// GrepResponse is the response body for POST /v1/grep.
// Line is 0 in every match unless line numbers were requested.
type GrepResponse struct {
	Matches []textkit.Match `json:"matches"`
	Count   int             `json:"count"`
}

// HealthResponse is the response body for GET /health and GET /ready.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
	Keys   *int   `json:"keys,omitempty"`
}
