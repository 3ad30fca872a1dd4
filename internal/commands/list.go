package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"authdemo/internal/config"
	"authdemo/internal/exitcode"
	"authdemo/internal/output"
	"authdemo/internal/service"
	"authdemo/internal/tasklist"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command.
// Handles both `authdemo` (no args) and `authdemo list`.
type ListCmd struct {
	filter string
}

// SetFilter sets the filter (for testing).
func (c *ListCmd) SetFilter(f string) {
	c.filter = f
}

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return []string{"ls"} }
func (c *ListCmd) Synopsis() string  { return "List tasks" }
func (c *ListCmd) Usage() string     { return "authdemo list [--filter all|active|completed]" }
func (c *ListCmd) NeedsAuth() bool   { return true }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.filter, "filter", string(tasklist.FilterAll), "")
	fs.StringVar(&c.filter, "f", string(tasklist.FilterAll), "")
}

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	filter, err := tasklist.ParseFilter(c.filter)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	// Guests see the public board.
	var viewer *service.User
	user, err := app.SignedIn(ctx)
	switch {
	case err == nil:
		viewer = &user
	case !errors.Is(err, ErrNotLoggedIn):
		return reportError(errOut, err)
	}

	m, err := app.TaskList(ctx, viewer)
	if err != nil {
		return reportError(errOut, err)
	}
	m.SetFilter(filter)

	// Numbers are positions in the full list so refs stay stable
	// across filters.
	printed := 0
	for i, t := range m.Tasks() {
		if !filter.Match(t) {
			continue
		}
		output.FormatTask(out, i+1, t)
		printed++
	}

	if printed == 0 {
		if !cfg.Quiet {
			fmt.Fprintln(out, "no tasks found")
		}
		return exitcode.Success
	}
	if !cfg.Quiet {
		output.FormatSummary(out, m.Total(), m.ActiveCount(), m.CompletedCount())
	}
	return exitcode.Success
}
