// Package main provides the entry point for snapkv-cli.
//
// The CLI manages keys on a snapkv server and runs the text utilities
// locally:
//
//	snapkv-cli kv put user:1 '{"name":"ada"}'
//	snapkv-cli -o yaml kv list
//	snapkv-cli -s unix:///var/run/snapkv/snapkv.sock system status
//	cat app.log | snapkv-cli text grep -n -i error -
//	snapkv-cli shell
//
// Defaults for --server and --output come from ~/.snapkv/cli.yaml.
package main
