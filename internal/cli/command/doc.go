// Package command defines the snapkv-cli commands on urfave/cli/v2.
//
// Commands under kv and system talk to a server over HTTP (or its local
// socket). Commands under text run locally on a file or stdin.
package command
