// Package memory provides the in-memory key-value store for snapkv.
//
// A Store owns a single map guarded by one sync.RWMutex. Reads take the
// read lock. Mutations take the write lock and, when a snapshot path is
// configured, persist the whole map before releasing it, so snapshot
// writes are ordered exactly like the mutations that caused them.
//
// If persisting fails the mutation is undone before the lock is released
// and the caller receives the error. Readers never observe a value that is
// not on disk.
package memory
