package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"authdemo/internal/config"
	"authdemo/internal/exitcode"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "authdemo help" }
func (c *HelpCmd) NeedsAuth() bool   { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	fmt.Fprint(out, helpText)
	fmt.Fprintln(out, "\nCommands:")
	if err := DefaultRegistry.WriteSummary(out); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	return exitcode.Success
}

const helpText = `Usage:
  authdemo                                         List tasks
  authdemo list [common flags] [--filter <f>]      f: all, active, completed
  authdemo add [common flags] <title...>
  authdemo done [common flags] <ref...>            Toggle completed
  authdemo public [common flags] <ref...>          Toggle public
  authdemo rm [common flags] <ref...>
  authdemo clear [common flags]                    Delete completed tasks
  authdemo org [common flags]
  authdemo login [common flags] --email <e> --password <p>
  authdemo signup [common flags] --email <e> --password <p> --name <n>
                  [--company <c>] [--age <n>] [--newsletter]
  authdemo anon [common flags]
  authdemo logout [common flags]
  authdemo whoami [common flags]
  authdemo serve [common flags] [--addr <host:port>]
  authdemo import-google [common flags] [--list <list-name>]
  authdemo google-login [common flags]
  authdemo google-logout [common flags]
  authdemo help
  authdemo version

A <ref> is a number as printed by list, or a task id.

Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr
`
