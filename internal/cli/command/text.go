package command

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/snapkv/internal/cli/output"
	"github.com/yndnr/snapkv/internal/textkit"
)

type uniqResult struct {
	Lines   []string `json:"lines" yaml:"lines"`
	Removed int      `json:"removed" yaml:"removed"`
}

type grepResult struct {
	Matches []textkit.Match `json:"matches" yaml:"matches"`
	Count   int             `json:"count" yaml:"count"`
}

// TextCommand returns the text subcommand group. These commands run
// locally and need no server.
func TextCommand() *cli.Command {
	return &cli.Command{
		Name:  "text",
		Usage: "Line-oriented text utilities (PATH - reads stdin)",
		Subcommands: []*cli.Command{
			{
				Name:      "stats",
				Usage:     "Count lines, words, characters and bytes",
				ArgsUsage: "PATH",
				Action:    textStats,
			},
			{
				Name:      "uniq",
				Usage:     "Collapse duplicate lines",
				ArgsUsage: "PATH",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "all",
						Aliases: []string{"a"},
						Usage:   "Remove all repeats, not only adjacent ones",
					},
					&cli.BoolFlag{
						Name:    "ignore-case",
						Aliases: []string{"i"},
						Usage:   "Compare lines case-insensitively",
					},
				},
				Action: textUniq,
			},
			{
				Name:      "grep",
				Usage:     "Print lines containing PATTERN",
				ArgsUsage: "PATTERN PATH",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "line-number",
						Aliases: []string{"n"},
						Usage:   "Prefix each line with its line number",
					},
					&cli.BoolFlag{
						Name:    "ignore-case",
						Aliases: []string{"i"},
						Usage:   "Match case-insensitively",
					},
					&cli.BoolFlag{
						Name:    "invert-match",
						Aliases: []string{"v"},
						Usage:   "Select non-matching lines",
					},
				},
				Action: textGrep,
			},
		},
	}
}

// readText reads path, or stdin when path is "-".
func readText(c *cli.Context, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin(c))
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

func textStats(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	text, err := readText(c, c.Args().First())
	if err != nil {
		return err
	}
	return render(c, textkit.Analyze(text))
}

func textUniq(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	text, err := readText(c, c.Args().First())
	if err != nil {
		return err
	}

	kept := textkit.Uniq(text, textkit.UniqOptions{
		All:        c.Bool("all"),
		IgnoreCase: c.Bool("ignore-case"),
	})

	if ParseGlobalFlags(c).Output == output.FormatTable {
		_, err := io.WriteString(stdout(c), textkit.Join(kept))
		return err
	}
	return render(c, uniqResult{
		Lines:   kept,
		Removed: max(len(textkit.Lines(text))-len(kept), 0),
	})
}

func textGrep(c *cli.Context) error {
	if err := requireArgs(c, 2); err != nil {
		return err
	}
	pattern := c.Args().Get(0)
	text, err := readText(c, c.Args().Get(1))
	if err != nil {
		return err
	}

	matches, err := textkit.Grep(text, pattern, textkit.GrepOptions{
		IgnoreCase: c.Bool("ignore-case"),
		Invert:     c.Bool("invert-match"),
	})
	if err != nil {
		return err
	}

	if ParseGlobalFlags(c).Output == output.FormatTable {
		w := stdout(c)
		for _, m := range matches {
			if _, err := fmt.Fprintln(w, m.String(c.Bool("line-number"))); err != nil {
				return err
			}
		}
		return nil
	}

	if matches == nil {
		matches = []textkit.Match{}
	}
	return render(c, grepResult{Matches: matches, Count: len(matches)})
}
