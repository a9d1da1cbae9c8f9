package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/snapkv/internal/cli/repl"
)

// ShellCommand returns the interactive shell command.
func ShellCommand() *cli.Command {
	return &cli.Command{
		Name:  "shell",
		Usage: "Start an interactive shell",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "history",
				Usage: "History file; empty disables persistence",
				Value: repl.DefaultHistoryPath(),
			},
		},
		Action: shell,
	}
}

func shell(c *cli.Context) error {
	names := []string{"help"}
	for _, cmd := range App().Commands {
		if cmd.Name != "shell" {
			names = append(names, cmd.Name)
		}
	}

	r := repl.New(shellExecutor(c),
		repl.WithIO(stdin(c), stdout(c)),
		repl.WithHistory(repl.NewHistory(c.String("history"))),
		repl.WithCompleter(repl.NewCompleter(names)),
	)
	return r.Run()
}

// shellExecutor runs each line as a fresh CLI invocation carrying the
// shell's global flags.
func shellExecutor(c *cli.Context) repl.Executor {
	base := []string{c.App.Name, "--config", c.String("config")}
	if s := c.String("server"); s != "" {
		base = append(base, "--server", s)
	}
	if o := c.String("output"); o != "" {
		base = append(base, "--output", o)
	}

	return func(args []string) error {
		app := App()
		app.Writer = stdout(c)
		app.ErrWriter = c.App.ErrWriter
		app.Reader = stdin(c)
		// Errors are reported by the shell; never exit the process.
		app.ExitErrHandler = func(*cli.Context, error) {}
		return app.Run(append(append([]string(nil), base...), args...))
	}
}
