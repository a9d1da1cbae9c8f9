// Package textkit implements small line-oriented text utilities used by
// the /v1 endpoints and the CLI: statistics, duplicate-line removal and
// substring search.
//
// Lines are split on "\n"; a trailing "\r" is dropped and a final newline
// does not produce an empty last line.
package textkit
