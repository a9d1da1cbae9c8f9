// Package repl provides the interactive shell of snapkv-cli.
//
// Each input line is split shell-style (single and double quotes, and
// backslash escapes inside double quotes) and handed to an Executor.
// Lines are kept in a history file between sessions.
package repl
