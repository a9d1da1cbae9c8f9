// Package snapshot encodes the whole key-value map to a single file and
// reads it back.
//
// File format (UTF-8 JSON):
//
//	{"version": 1, "records": {"<key>": <value>, ...}}
//
// Values are stored verbatim as JSON documents. A write goes to a sibling
// temp file (<path>.tmp) which is fsynced and then renamed over <path>, so
// the canonical file always holds either the previous or the new complete
// snapshot.
package snapshot
