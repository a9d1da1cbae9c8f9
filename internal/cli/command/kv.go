package command

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/snapkv/internal/cli/connection"
	"github.com/yndnr/snapkv/internal/cli/output"
)

// entry mirrors the server's key/value payload.
type entry struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// MarshalYAML renders the value as a YAML structure.
func (e entry) MarshalYAML() (any, error) {
	return map[string]any{"key": e.Key, "value": decodeValue(e.Value)}, nil
}

func decodeValue(raw json.RawMessage) any {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	return v
}

type renameResult struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// KVCommand returns the kv subcommand group.
func KVCommand() *cli.Command {
	return &cli.Command{
		Name:  "kv",
		Usage: "Read and modify keys",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List all keys and values",
				Action: kvList,
			},
			{
				Name:      "get",
				Usage:     "Get a key",
				ArgsUsage: "KEY",
				Action:    kvGet,
			},
			{
				Name:      "put",
				Aliases:   []string{"set"},
				Usage:     "Create or replace a key with a JSON value (- reads stdin)",
				ArgsUsage: "KEY VALUE",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "string",
						Aliases: []string{"S"},
						Usage:   "Store VALUE as a JSON string",
					},
				},
				Action: kvPut,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a key",
				ArgsUsage: "KEY",
				Action:    kvDelete,
			},
			{
				Name:      "rename",
				Aliases:   []string{"mv"},
				Usage:     "Rename a key; fails if NEW exists",
				ArgsUsage: "OLD NEW",
				Action:    kvRename,
			},
		},
	}
}

func kvList(c *cli.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := client(c).Get(ctx, "/kv")
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	records := map[string]json.RawMessage{}
	if err := connection.ParseResponse(resp, &records); err != nil {
		return err
	}
	return render(c, records)
}

func kvGet(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := client(c).Get(ctx, connection.KeyPath(c.Args().First()))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var e entry
	if err := connection.ParseResponse(resp, &e); err != nil {
		return err
	}
	return renderEntry(c, e)
}

func kvPut(c *cli.Context) error {
	if err := requireArgs(c, 2); err != nil {
		return err
	}
	key, value := c.Args().Get(0), c.Args().Get(1)

	raw := []byte(value)
	if value == "-" {
		data, err := io.ReadAll(stdin(c))
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		raw = data
	}
	if c.Bool("string") {
		b, err := json.Marshal(string(raw))
		if err != nil {
			return err
		}
		raw = b
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := client(c).Put(ctx, connection.KeyPath(key), raw)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var e entry
	if err := connection.ParseResponse(resp, &e); err != nil {
		return err
	}
	return renderEntry(c, e)
}

func kvDelete(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := client(c).Delete(ctx, connection.KeyPath(c.Args().First()))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var e entry
	if err := connection.ParseResponse(resp, &e); err != nil {
		return err
	}
	if ParseGlobalFlags(c).Output == output.FormatTable {
		fmt.Fprintf(stdout(c), "Deleted %s\n", e.Key)
		return nil
	}
	return render(c, e)
}

func kvRename(c *cli.Context) error {
	if err := requireArgs(c, 2); err != nil {
		return err
	}
	from, to := c.Args().Get(0), c.Args().Get(1)

	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := client(c).Post(ctx, connection.KeyPath(from)+"/rename", map[string]string{"to": to})
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var res renameResult
	if err := connection.ParseResponse(resp, &res); err != nil {
		return err
	}
	if ParseGlobalFlags(c).Output == output.FormatTable {
		fmt.Fprintf(stdout(c), "Renamed %s -> %s\n", res.From, res.To)
		return nil
	}
	return render(c, res)
}

// renderEntry prints the bare value in table mode so it can be piped.
func renderEntry(c *cli.Context, e entry) error {
	if ParseGlobalFlags(c).Output == output.FormatTable {
		_, err := fmt.Fprintln(stdout(c), string(e.Value))
		return err
	}
	return render(c, e)
}
