package domain

import (
	"errors"
	"fmt"
	"strings"
)

// DomainError is an error carrying a stable, machine-readable code.
//
// Codes have the form SK-<AREA>-<NNNN>. The last four digits follow HTTP
// status semantics (4040 is "not found", 4090 is "conflict", and so on) so
// that transports can map them without knowing every error.
type DomainError struct {
	Code    string // Error code (e.g., "SK-KV-4040")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// Wrap is an alias of WithCause.
func (e *DomainError) Wrap(cause error) *DomainError {
	return e.WithCause(cause)
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// StatusClass returns the four-digit status suffix of a code ("4040" for
// "SK-KV-4040"), or "" when the code is malformed.
func StatusClass(code string) string {
	i := strings.LastIndexByte(code, '-')
	if i < 0 || len(code)-i-1 != 4 {
		return ""
	}
	return code[i+1:]
}

// Key-value errors.
var (
	// ErrKeyNotFound indicates the requested key is absent.
	ErrKeyNotFound = NewDomainError("SK-KV-4040", "key not found")

	// ErrKeyAlreadyExists indicates the destination key is already present.
	ErrKeyAlreadyExists = NewDomainError("SK-KV-4090", "key already exists")

	// ErrInvalidKey indicates an empty or otherwise unusable key.
	ErrInvalidKey = NewDomainError("SK-KV-4001", "invalid key")

	// ErrInvalidValue indicates a value that is not a JSON document.
	ErrInvalidValue = NewDomainError("SK-KV-4002", "invalid value")
)

// Snapshot errors.
var (
	// ErrDecode indicates the persisted snapshot is not valid encoded data.
	ErrDecode = NewDomainError("SK-SNAP-5001", "snapshot decode failed")

	// ErrUnsupportedVersion indicates a snapshot envelope with an unknown version tag.
	ErrUnsupportedVersion = NewDomainError("SK-SNAP-5002", "unsupported snapshot version")
)

// System errors.
var (
	// ErrBadRequest indicates a malformed request.
	ErrBadRequest = NewDomainError("SK-SYS-4000", "bad request")

	// ErrPayloadTooLarge indicates a request body over the configured limit.
	ErrPayloadTooLarge = NewDomainError("SK-SYS-4130", "payload too large")

	// ErrRateLimited indicates too many requests.
	ErrRateLimited = NewDomainError("SK-SYS-4290", "too many requests")

	// ErrInternalServer indicates an internal server error.
	ErrInternalServer = NewDomainError("SK-SYS-5000", "internal server error")

	// ErrStorageIO indicates a read, write or rename failure on durable storage.
	ErrStorageIO = NewDomainError("SK-SYS-5001", "storage io error")
)
