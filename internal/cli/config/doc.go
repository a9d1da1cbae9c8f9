// Package config holds snapkv-cli's local settings, stored as YAML in
// ~/.snapkv/cli.yaml.
//
// The file supplies the default server and output format, and named
// server aliases that --server may refer to.
package config
