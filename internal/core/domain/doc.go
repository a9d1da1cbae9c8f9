// Package domain defines the core domain types for snapkv.
//
// Domain types are plain values without any IO dependencies. This package
// contains:
//
//   - Entry: a key and its opaque JSON value
//   - Errors: coded errors shared by the store, the snapshot codec and
//     the network front-ends
package domain
