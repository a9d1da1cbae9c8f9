// Package confloader layers configuration sources with koanf.
//
// Sources are applied lowest priority first:
//
//  1. Defaults, as dotted keys
//  2. A YAML file
//  3. Environment variables carrying the prefix (SNAPKV_ by default)
//
// Environment names are matched against keys already known from the lower
// layers, so SNAPKV_SERVER_HTTP_RATE_LIMIT sets server.http.rate_limit
// rather than server.http.rate.limit.
//
// A Watcher reports edits to a single file, coalescing the bursts of events
// that editors produce on save.
package confloader
