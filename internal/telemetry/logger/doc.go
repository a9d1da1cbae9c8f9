// Package logger configures log/slog for snapkv.
//
// New picks a handler by format name (json, text or console) and wires in
// attribute redaction. Every logger it builds shares one level, which
// SetLevel changes at runtime when the configuration file is reloaded.
// The console format renders through tint and only emits color codes
// when the output is a terminal.
//
// L tags the default logger with the request ID carried by a context.
package logger
