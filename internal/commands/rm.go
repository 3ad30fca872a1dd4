package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"authdemo/internal/config"
	"authdemo/internal/exitcode"
	"authdemo/internal/service"
	"authdemo/internal/tasklist"
)

func init() {
	Register(&RmCmd{})
	Register(&ClearCmd{})
}

// RmCmd implements the rm command.
type RmCmd struct{}

func (c *RmCmd) Name() string      { return "rm" }
func (c *RmCmd) Aliases() []string { return []string{"delete"} }
func (c *RmCmd) Synopsis() string  { return "Delete a task" }
func (c *RmCmd) Usage() string     { return "authdemo rm <ref...>" }
func (c *RmCmd) NeedsAuth() bool   { return true }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *RmCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	return runForEach(ctx, cfg, app, args, out, errOut, func(m *tasklist.Model, t service.Task) error {
		return m.Delete(ctx, t.ID)
	})
}

// ClearCmd implements the clear command.
type ClearCmd struct{}

func (c *ClearCmd) Name() string      { return "clear" }
func (c *ClearCmd) Aliases() []string { return nil }
func (c *ClearCmd) Synopsis() string  { return "Delete all completed tasks" }
func (c *ClearCmd) Usage() string     { return "authdemo clear" }
func (c *ClearCmd) NeedsAuth() bool   { return true }

func (c *ClearCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ClearCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	user, err := app.SignedIn(ctx)
	if err != nil {
		return reportError(errOut, err)
	}
	m, err := app.TaskList(ctx, &user)
	if err != nil {
		return reportError(errOut, err)
	}
	n := m.CompletedCount()
	if err := m.ClearCompleted(ctx); err != nil {
		return reportError(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintf(out, "ok (%d removed)\n", n)
	}
	return exitcode.Success
}
