package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/snapkv/internal/cli/connection"
)

// SystemCommand returns the system subcommand group.
func SystemCommand() *cli.Command {
	return &cli.Command{
		Name:    "system",
		Aliases: []string{"sys"},
		Usage:   "Server health and status",
		Subcommands: []*cli.Command{
			{
				Name:   "health",
				Usage:  "Check server liveness",
				Action: systemGet("/health"),
			},
			{
				Name:   "ready",
				Usage:  "Check readiness and key count",
				Action: systemGet("/ready"),
			},
			{
				Name:   "status",
				Usage:  "Show build, uptime and key count (local socket only)",
				Action: systemGet("/local/status"),
			},
		},
	}
}

func systemGet(path string) cli.ActionFunc {
	return func(c *cli.Context) error {
		ctx, cancel := requestContext(c)
		defer cancel()

		resp, err := client(c).Get(ctx, path)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}

		var result map[string]any
		if err := connection.ParseResponse(resp, &result); err != nil {
			return err
		}
		return render(c, flatten(result, ""))
	}
}

// flatten turns nested objects into dotted keys for table output.
func flatten(m map[string]any, prefix string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		key := prefix + k
		if nested, ok := v.(map[string]any); ok {
			for nk, nv := range flatten(nested, key+".") {
				out[nk] = nv
			}
			continue
		}
		if n, ok := v.(float64); ok && n == float64(int64(n)) {
			out[key] = int64(n)
			continue
		}
		out[key] = v
	}
	return out
}
