package domain

import (
	"bytes"
	"encoding/json"
)

// Entry is a single key and its value.
//
// Value is an arbitrary JSON document kept as raw bytes. The store never
// decodes it, so renaming or listing an entry does not re-encode it.
type Entry struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// ValidateKey reports ErrInvalidKey for an empty key.
func ValidateKey(key string) error {
	if key == "" {
		return ErrInvalidKey.WithDetails("key must not be empty")
	}
	return nil
}

// NormalizeValue checks that raw holds exactly one JSON document and
// returns a compacted private copy of it.
func NormalizeValue(raw []byte) (json.RawMessage, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, ErrInvalidValue.WithDetails("value must not be empty")
	}
	if !json.Valid(raw) {
		return nil, ErrInvalidValue.WithDetails("value is not valid JSON")
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, ErrInvalidValue.WithCause(err)
	}
	return json.RawMessage(buf.Bytes()), nil
}

// Clone returns a deep copy of the entry.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	return &Entry{
		Key:   e.Key,
		Value: append(json.RawMessage(nil), e.Value...),
	}
}
