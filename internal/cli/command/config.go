package command

import (
	"fmt"
	"sort"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/snapkv/internal/cli/config"
	"github.com/yndnr/snapkv/internal/cli/output"
)

// ConfigCommand returns the config subcommand group, which edits the CLI
// config file.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Show or edit the CLI config file",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the CLI configuration",
				Action: configShow,
			},
			{
				Name:      "set-server",
				Usage:     "Set the default server",
				ArgsUsage: "ADDRESS",
				Action:    configSetServer,
			},
			{
				Name:      "set-output",
				Usage:     "Set the default output format",
				ArgsUsage: "FORMAT",
				Action:    configSetOutput,
			},
			{
				Name:      "alias",
				Usage:     "Name a server address",
				ArgsUsage: "NAME ADDRESS",
				Action:    configAlias,
			},
		},
	}
}

func configShow(c *cli.Context) error {
	cfg := cliConfig(c)

	if ParseGlobalFlags(c).Output != output.FormatTable {
		return render(c, cfg)
	}

	t := &output.Table{Headers: []string{"SETTING", "VALUE"}}
	t.AddRow("file", c.String("config"))
	t.AddRow("default_server", cfg.DefaultServer)
	t.AddRow("default_output", cfg.DefaultOutput)

	names := make([]string, 0, len(cfg.Servers))
	for name := range cfg.Servers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		t.AddRow("servers."+name, cfg.Servers[name])
	}
	return t.Render(stdout(c))
}

func configSetServer(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	return updateConfig(c, func(cfg *config.CLIConfig) {
		cfg.DefaultServer = c.Args().First()
	})
}

func configSetOutput(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	f, err := output.ParseFormat(c.Args().First())
	if err != nil {
		return err
	}
	return updateConfig(c, func(cfg *config.CLIConfig) {
		cfg.DefaultOutput = string(f)
	})
}

func configAlias(c *cli.Context) error {
	if err := requireArgs(c, 2); err != nil {
		return err
	}
	return updateConfig(c, func(cfg *config.CLIConfig) {
		cfg.Servers[c.Args().Get(0)] = c.Args().Get(1)
	})
}

func updateConfig(c *cli.Context, mutate func(*config.CLIConfig)) error {
	cfg := cliConfig(c)
	mutate(cfg)

	path := c.String("config")
	if err := config.Save(cfg, path); err != nil {
		return fmt.Errorf("save cli config: %w", err)
	}
	fmt.Fprintf(stdout(c), "Saved %s\n", path)
	return nil
}
