package textkit

import (
	"strings"
	"unicode/utf8"
)

// Stats summarizes a text.
type Stats struct {
	Lines int `json:"lines" yaml:"lines"`
	Words int `json:"words" yaml:"words"`
	Chars int `json:"chars" yaml:"chars"`
	Bytes int `json:"bytes" yaml:"bytes"`
}

// Analyze counts lines, whitespace-separated words, runes and bytes.
func Analyze(text string) Stats {
	return Stats{
		Lines: len(Lines(text)),
		Words: len(strings.Fields(text)),
		Chars: utf8.RuneCountInString(text),
		Bytes: len(text),
	}
}
