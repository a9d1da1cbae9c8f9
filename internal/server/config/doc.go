// Package config provides server configuration for snapkv.
//
// This package defines the server configuration structure and validation:
//
//   - spec.go: ServerConfig struct definition
//   - default.go: default values, also exported as a flat map for the loader
//   - load.go: loading through internal/infra/confloader
//   - verify.go: validation (addresses, limits, paths, log settings)
//   - sanitize.go: log sanitization (hide sensitive values)
package config
