// Package storage groups the snapkv persistence layers.
//
//   - memory: the concurrency-safe key/value store, saved after every mutation
//   - snapshot: the on-disk file format and its atomic writer
package storage
