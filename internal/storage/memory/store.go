package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/yndnr/snapkv/internal/core/domain"
	"github.com/yndnr/snapkv/internal/storage/snapshot"
	"github.com/yndnr/snapkv/internal/telemetry/logger"
)

// Operation names passed to the Recorder.
const (
	OpGet    = "get"
	OpPut    = "put"
	OpDelete = "delete"
	OpList   = "list"
	OpRename = "rename"
	OpLoad   = "load"
)

// Recorder receives store and snapshot measurements.
type Recorder interface {
	RecordStoreOp(op string, err error)
	RecordSnapshotWrite(d time.Duration, size int, err error)
}

type nopRecorder struct{}

func (nopRecorder) RecordStoreOp(string, error)                   {}
func (nopRecorder) RecordSnapshotWrite(time.Duration, int, error) {}

// Store is a concurrency-safe map from keys to JSON values.
type Store struct {
	mu      sync.RWMutex
	records map[string]json.RawMessage

	// Snapshot file; empty means memory only.
	path     string
	recorder Recorder
}

// Option configures the Store.
type Option func(*Store)

// WithSnapshot persists the store to path after every mutation.
func WithSnapshot(path string) Option {
	return func(s *Store) {
		s.path = path
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Store) {
		if r != nil {
			s.recorder = r
		}
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		records:  make(map[string]json.RawMessage),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open creates a store persisted at path and hydrates it from the
// snapshot there. A missing file yields an empty store.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	s := New(append(opts, WithSnapshot(path))...)
	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the snapshot path, or "" for a memory-only store.
func (s *Store) Path() string {
	return s.path
}

// Load replaces the contents of the store with the snapshot on disk.
// It is a no-op for a memory-only store.
func (s *Store) Load(ctx context.Context) error {
	if s.path == "" {
		return nil
	}

	records, err := snapshot.Load(s.path)
	s.recorder.RecordStoreOp(OpLoad, err)
	if err != nil {
		logger.L(ctx).Error("snapshot load failed", "path", s.path, "error", err)
		return err
	}

	s.mu.Lock()
	s.records = records
	s.mu.Unlock()

	logger.L(ctx).Info("snapshot loaded", "path", s.path, "keys", len(records))
	return nil
}

// Get returns the entry stored under key.
func (s *Store) Get(_ context.Context, key string) (*domain.Entry, error) {
	s.mu.RLock()
	value, ok := s.records[key]
	s.mu.RUnlock()

	if !ok {
		s.recorder.RecordStoreOp(OpGet, domain.ErrKeyNotFound)
		return nil, domain.ErrKeyNotFound.WithDetails(key)
	}
	s.recorder.RecordStoreOp(OpGet, nil)
	return newEntry(key, value), nil
}

// Has reports whether key is present.
func (s *Store) Has(_ context.Context, key string) bool {
	s.mu.RLock()
	_, ok := s.records[key]
	s.mu.RUnlock()
	return ok
}

// Put inserts or overwrites the value under key. The value must be a
// single JSON document; it is stored compacted.
func (s *Store) Put(ctx context.Context, key string, value []byte) (entry *domain.Entry, err error) {
	defer func() { s.recorder.RecordStoreOp(OpPut, err) }()

	if err := domain.ValidateKey(key); err != nil {
		return nil, err
	}
	normalized, err := domain.NormalizeValue(value)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.records[key]
	s.records[key] = normalized

	if err := s.persistLocked(ctx); err != nil {
		if existed {
			s.records[key] = prev
		} else {
			delete(s.records, key)
		}
		return nil, err
	}

	logger.L(ctx).Debug("key stored", "key", key, "replaced", existed)
	return newEntry(key, normalized), nil
}

// Delete removes key and returns the entry it held.
func (s *Store) Delete(ctx context.Context, key string) (entry *domain.Entry, err error) {
	defer func() { s.recorder.RecordStoreOp(OpDelete, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.records[key]
	if !ok {
		return nil, domain.ErrKeyNotFound.WithDetails(key)
	}
	delete(s.records, key)

	if err := s.persistLocked(ctx); err != nil {
		s.records[key] = prev
		return nil, err
	}

	logger.L(ctx).Debug("key deleted", "key", key)
	return newEntry(key, prev), nil
}

// Rename moves the value under oldKey to newKey. It fails with
// ErrKeyNotFound when oldKey is absent and ErrKeyAlreadyExists when newKey
// is present; in both cases the store is unchanged.
func (s *Store) Rename(ctx context.Context, oldKey, newKey string) (err error) {
	defer func() { s.recorder.RecordStoreOp(OpRename, err) }()

	if err := domain.ValidateKey(newKey); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.records[oldKey]
	if !ok {
		return domain.ErrKeyNotFound.WithDetails(oldKey)
	}
	if _, exists := s.records[newKey]; exists {
		return domain.ErrKeyAlreadyExists.WithDetails(newKey)
	}

	delete(s.records, oldKey)
	s.records[newKey] = value

	if err := s.persistLocked(ctx); err != nil {
		delete(s.records, newKey)
		s.records[oldKey] = value
		return err
	}

	logger.L(ctx).Debug("key renamed", "old_key", oldKey, "new_key", newKey)
	return nil
}

// List returns a copy of every key and value.
func (s *Store) List(_ context.Context) (map[string]json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]json.RawMessage, len(s.records))
	for k, v := range s.records {
		out[k] = cloneValue(v)
	}
	s.recorder.RecordStoreOp(OpList, nil)
	return out, nil
}

// Keys returns all keys in lexical order.
func (s *Store) Keys(_ context.Context) []string {
	s.mu.RLock()
	keys := make([]string, 0, len(s.records))
	for k := range s.records {
		keys = append(keys, k)
	}
	s.mu.RUnlock()

	sort.Strings(keys)
	return keys
}

// Len returns the number of keys.
func (s *Store) Len(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// persistLocked writes the full map to the snapshot file. The caller must
// hold the write lock.
func (s *Store) persistLocked(ctx context.Context) error {
	if s.path == "" {
		return nil
	}

	start := time.Now()
	size, err := snapshot.Save(s.records, s.path)
	s.recorder.RecordSnapshotWrite(time.Since(start), size, err)
	if err != nil {
		logger.L(ctx).Error("snapshot write failed, mutation rolled back", "path", s.path, "error", err)
		return err
	}
	return nil
}

func newEntry(key string, value json.RawMessage) *domain.Entry {
	return &domain.Entry{Key: key, Value: cloneValue(value)}
}

func cloneValue(v json.RawMessage) json.RawMessage {
	return append(json.RawMessage(nil), v...)
}
