package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/yndnr/snapkv/internal/core/domain"
)

// Version is the only envelope version this package reads and writes.
const Version = 1

const tempSuffix = ".tmp"

type envelope struct {
	Version int                        `json:"version"`
	Records map[string]json.RawMessage `json:"records"`
}

// DecodeError reports snapshot bytes that are not a valid envelope.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("snapshot: decode: %v", e.Err)
	}
	return fmt.Sprintf("snapshot: decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Is matches domain.ErrDecode.
func (e *DecodeError) Is(target error) bool {
	return errors.Is(domain.ErrDecode, target)
}

// UnsupportedVersionError reports an envelope whose version tag is not Version.
type UnsupportedVersionError struct {
	Version int
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("snapshot: unsupported version %d", e.Version)
}

// Is matches domain.ErrUnsupportedVersion.
func (e *UnsupportedVersionError) Is(target error) bool {
	return errors.Is(domain.ErrUnsupportedVersion, target)
}

// TempPath returns the sibling path used while writing path.
func TempPath(path string) string {
	return path + tempSuffix
}

// Encode returns the envelope bytes for records.
func Encode(records map[string]json.RawMessage) ([]byte, error) {
	if records == nil {
		records = map[string]json.RawMessage{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(envelope{Version: Version, Records: records}); err != nil {
		return nil, fmt.Errorf("snapshot: encode: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Decode parses envelope bytes. The version tag is checked before the
// records are accepted.
func Decode(data []byte) (map[string]json.RawMessage, error) {
	var probe struct {
		Version *int `json:"version"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, &DecodeError{Err: err}
	}
	if probe.Version == nil {
		return nil, &DecodeError{Err: errors.New("missing version")}
	}
	if *probe.Version != Version {
		return nil, &UnsupportedVersionError{Version: *probe.Version}
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &DecodeError{Err: err}
	}
	if env.Records == nil {
		env.Records = map[string]json.RawMessage{}
	}
	return env.Records, nil
}

// Save atomically replaces path with a snapshot of records and returns the
// number of bytes written.
func Save(records map[string]json.RawMessage, path string) (int, error) {
	data, err := Encode(records)
	if err != nil {
		return 0, err
	}

	tempPath := TempPath(path)
	file, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0640)
	if err != nil {
		return 0, domain.ErrStorageIO.WithDetails("create temp file").WithCause(err)
	}

	committed := false
	defer func() {
		if !committed {
			os.Remove(tempPath)
		}
	}()

	if _, err := file.Write(data); err != nil {
		file.Close()
		return 0, domain.ErrStorageIO.WithDetails("write temp file").WithCause(err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return 0, domain.ErrStorageIO.WithDetails("sync temp file").WithCause(err)
	}
	if err := file.Close(); err != nil {
		return 0, domain.ErrStorageIO.WithDetails("close temp file").WithCause(err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return 0, domain.ErrStorageIO.WithDetails("rename temp file").WithCause(err)
	}
	committed = true

	syncDir(filepath.Dir(path))
	return len(data), nil
}

// Load reads the snapshot at path. A missing file yields an empty map.
func Load(path string) (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]json.RawMessage{}, nil
		}
		return nil, domain.ErrStorageIO.WithDetails("read snapshot").WithCause(err)
	}

	records, err := Decode(data)
	if err != nil {
		var de *DecodeError
		if errors.As(err, &de) {
			de.Path = path
		}
		return nil, err
	}
	return records, nil
}

// syncDir makes the rename durable. Failures are ignored: not every
// platform supports fsync on a directory.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
