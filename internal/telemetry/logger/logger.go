package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Config selects the handler and minimum level.
type Config struct {
	// Level is debug, info, warn or error. Empty means info.
	Level string
	// Format is json, text or console. Empty means json.
	Format string
	// Output defaults to os.Stderr.
	Output    io.Writer
	AddSource bool
}

var levels = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

var formats = map[string]func(io.Writer, *slog.HandlerOptions) slog.Handler{
	"json": func(w io.Writer, o *slog.HandlerOptions) slog.Handler { return slog.NewJSONHandler(w, o) },
	"text": func(w io.Writer, o *slog.HandlerOptions) slog.Handler { return slog.NewTextHandler(w, o) },
	// Human-oriented lines through tint. Color only on a terminal.
	"console": newConsoleHandler,
}

// level is shared by every logger built with New so a reload can change
// it at runtime.
var level slog.LevelVar

// New builds a logger from cfg and sets the shared level.
func New(cfg Config) (*slog.Logger, error) {
	lvl, ok := parseLevel(cfg.Level)
	if !ok {
		return nil, fmt.Errorf("logger: unknown level %q", cfg.Level)
	}
	format := strings.ToLower(cfg.Format)
	if format == "" {
		format = "json"
	}
	build, ok := formats[format]
	if !ok {
		return nil, fmt.Errorf("logger: unknown format %q", cfg.Format)
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	level.Set(lvl)
	return slog.New(build(out, &slog.HandlerOptions{
		Level:     &level,
		AddSource: cfg.AddSource,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			return redactSensitive(a)
		},
	})), nil
}

func newConsoleHandler(w io.Writer, opts *slog.HandlerOptions) slog.Handler {
	noColor := true
	if f, ok := w.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		noColor = false
		w = colorable.NewColorable(f)
	}
	return tint.NewHandler(w, &tint.Options{
		Level:       opts.Level,
		AddSource:   opts.AddSource,
		ReplaceAttr: opts.ReplaceAttr,
		TimeFormat:  "15:04:05.000",
		NoColor:     noColor,
	})
}

func parseLevel(s string) (slog.Level, bool) {
	if s == "" {
		return slog.LevelInfo, true
	}
	l, ok := levels[strings.ToLower(s)]
	return l, ok
}

// ValidLevel reports whether New accepts level.
func ValidLevel(s string) bool {
	_, ok := parseLevel(s)
	return ok && s != ""
}

// ValidFormat reports whether New accepts format.
func ValidFormat(s string) bool {
	_, ok := formats[strings.ToLower(s)]
	return ok
}

// Formats lists the accepted format names.
func Formats() []string {
	names := make([]string, 0, len(formats))
	for name := range formats {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// SetLevel changes the level of every logger built with New. Unknown names
// are ignored.
func SetLevel(s string) {
	if l, ok := parseLevel(s); ok {
		level.Set(l)
	}
}

// GetLevel returns the current level name in lower case.
func GetLevel() string {
	return strings.ToLower(level.Level().String())
}

// SetDefault installs l as the slog default.
func SetDefault(l *slog.Logger) {
	slog.SetDefault(l)
}
