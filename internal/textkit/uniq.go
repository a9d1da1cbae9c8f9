package textkit

import "strings"

// UniqOptions controls Uniq.
type UniqOptions struct {
	// All removes every repeated line, not only adjacent repeats.
	All bool
	// IgnoreCase compares lines case-insensitively. The first spelling seen
	// is kept.
	IgnoreCase bool
}

// Uniq collapses duplicate lines. By default only consecutive duplicates
// are collapsed, like uniq(1). With All, the first occurrence of each
// line is kept and later ones dropped.
func Uniq(text string, opts UniqOptions) []string {
	lines := Lines(text)
	out := make([]string, 0, len(lines))

	norm := func(s string) string { return s }
	if opts.IgnoreCase {
		norm = strings.ToLower
	}

	if opts.All {
		seen := make(map[string]struct{}, len(lines))
		for _, line := range lines {
			k := norm(line)
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, line)
		}
		return out
	}

	var prev string
	for i, line := range lines {
		k := norm(line)
		if i > 0 && k == prev {
			continue
		}
		out = append(out, line)
		prev = k
	}
	return out
}
