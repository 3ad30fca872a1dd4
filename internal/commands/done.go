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
	Register(&DoneCmd{})
	Register(&PublicCmd{})
}

// DoneCmd implements the done command. It flips the completed flag, so
// running it twice reopens the task.
type DoneCmd struct{}

func (c *DoneCmd) Name() string      { return "done" }
func (c *DoneCmd) Aliases() []string { return []string{"toggle"} }
func (c *DoneCmd) Synopsis() string  { return "Toggle a task's completed flag" }
func (c *DoneCmd) Usage() string     { return "authdemo done <ref...>" }
func (c *DoneCmd) NeedsAuth() bool   { return true }

func (c *DoneCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *DoneCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	return runForEach(ctx, cfg, app, args, out, errOut, func(m *tasklist.Model, t service.Task) error {
		return m.Toggle(ctx, t.ID)
	})
}

// PublicCmd implements the public command.
type PublicCmd struct{}

func (c *PublicCmd) Name() string      { return "public" }
func (c *PublicCmd) Aliases() []string { return []string{"share"} }
func (c *PublicCmd) Synopsis() string  { return "Toggle a task's public flag" }
func (c *PublicCmd) Usage() string     { return "authdemo public <ref...>" }
func (c *PublicCmd) NeedsAuth() bool   { return true }

func (c *PublicCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *PublicCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	return runForEach(ctx, cfg, app, args, out, errOut, func(m *tasklist.Model, t service.Task) error {
		return m.SetPublic(ctx, t.ID)
	})
}

// runForEach resolves every ref against the loaded list, then applies op
// to each task in order. It stops at the first failure; earlier changes
// are kept.
func runForEach(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer,
	op func(m *tasklist.Model, t service.Task) error) int {
	refs, err := ParseTaskRefs(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
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
	tasks, err := resolveRefs(m.Tasks(), refs)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	for _, t := range tasks {
		if err := op(m, t); err != nil {
			return reportError(errOut, err)
		}
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
