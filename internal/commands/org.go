package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"authdemo/internal/config"
	"authdemo/internal/exitcode"
	"authdemo/internal/orgsync"
	"authdemo/internal/output"
)

func init() {
	Register(&OrgCmd{})
}

// OrgCmd implements the org command.
type OrgCmd struct{}

func (c *OrgCmd) Name() string      { return "org" }
func (c *OrgCmd) Aliases() []string { return []string{"organization"} }
func (c *OrgCmd) Synopsis() string  { return "Show the active organization" }
func (c *OrgCmd) Usage() string     { return "authdemo org" }
func (c *OrgCmd) NeedsAuth() bool   { return true }

func (c *OrgCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *OrgCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	user, err := app.SignedIn(ctx)
	if err != nil {
		return reportError(errOut, err)
	}
	data, err := orgsync.NewLoader(app.Session).Load(ctx, &user)
	if err != nil {
		return reportError(errOut, err)
	}

	output.FormatOrganization(out, data.Organization, data.UserRole, data.Members)
	return exitcode.Success
}
