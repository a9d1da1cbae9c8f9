package textkit

import (
	"errors"
	"strconv"
	"strings"
)

// ErrEmptyPattern is returned by Grep for a blank pattern.
var ErrEmptyPattern = errors.New("textkit: pattern must not be empty")

// GrepOptions controls Grep.
type GrepOptions struct {
	IgnoreCase bool
	// Invert selects lines that do not contain the pattern.
	Invert bool
}

// Match is a selected line and its 1-based line number.
type Match struct {
	Line int    `json:"line" yaml:"line"`
	Text string `json:"text" yaml:"text"`
}

// String formats the match like grep, optionally prefixed with "n:".
func (m Match) String(withLineNumber bool) string {
	if withLineNumber {
		return strconv.Itoa(m.Line) + ":" + m.Text
	}
	return m.Text
}

// Grep returns the lines of text containing pattern as a substring.
func Grep(text, pattern string, opts GrepOptions) ([]Match, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, ErrEmptyPattern
	}

	needle := pattern
	if opts.IgnoreCase {
		needle = strings.ToLower(pattern)
	}

	var matches []Match
	for i, line := range Lines(text) {
		hay := line
		if opts.IgnoreCase {
			hay = strings.ToLower(line)
		}
		if strings.Contains(hay, needle) != opts.Invert {
			matches = append(matches, Match{Line: i + 1, Text: line})
		}
	}
	return matches, nil
}
