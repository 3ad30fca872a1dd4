package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"authdemo/internal/config"
	"authdemo/internal/exitcode"
	"authdemo/internal/output"
	"authdemo/internal/service"
)

func init() {
	Register(&LoginCmd{})
	Register(&SignupCmd{})
	Register(&AnonCmd{})
	Register(&LogoutCmd{})
	Register(&WhoamiCmd{})
}

// LoginCmd implements the login command.
type LoginCmd struct {
	email    string
	password string
}

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return []string{"signin"} }
func (c *LoginCmd) Synopsis() string  { return "Sign in with email and password" }
func (c *LoginCmd) Usage() string {
	return "authdemo login --email <email> [--password <password>]"
}
func (c *LoginCmd) NeedsAuth() bool { return true }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.email, "email", "", "")
	fs.StringVar(&c.password, "password", "", "")
}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	email := strings.TrimSpace(c.email)
	if email == "" || c.password == "" {
		fmt.Fprintln(errOut, "error: --email and --password are required")
		return exitcode.UserError
	}

	if _, err := app.Session.SignInEmail(ctx, email, c.password); err != nil {
		fmt.Fprintf(errOut, "error: sign in failed: %v\n", err)
		return exitcode.AuthError
	}
	if _, err := app.SignedIn(ctx); err != nil {
		return reportError(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// SignupCmd implements the signup command.
type SignupCmd struct {
	email      string
	password   string
	name       string
	company    string
	age        string
	newsletter bool
}

func (c *SignupCmd) Name() string      { return "signup" }
func (c *SignupCmd) Aliases() []string { return []string{"register"} }
func (c *SignupCmd) Synopsis() string  { return "Create an account and sign in" }
func (c *SignupCmd) Usage() string {
	return "authdemo signup --email <email> --password <password> --name <name> [--company <c>] [--age <n>] [--newsletter]"
}
func (c *SignupCmd) NeedsAuth() bool { return true }

func (c *SignupCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.email, "email", "", "")
	fs.StringVar(&c.password, "password", "", "")
	fs.StringVar(&c.name, "name", "", "")
	fs.StringVar(&c.company, "company", "", "")
	fs.StringVar(&c.age, "age", "", "")
	fs.BoolVar(&c.newsletter, "newsletter", false, "")
}

func (c *SignupCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	req := service.SignUp{
		Email:    strings.TrimSpace(c.email),
		Password: c.password,
		Name:     strings.TrimSpace(c.name),
	}
	if req.Email == "" || req.Password == "" || req.Name == "" {
		fmt.Fprintln(errOut, "error: --email, --password and --name are required")
		return exitcode.UserError
	}

	values := map[string]string{
		"company":    strings.TrimSpace(c.company),
		"age":        strings.TrimSpace(c.age),
		"newsletter": "",
	}
	if c.newsletter {
		values["newsletter"] = "true"
	}
	for _, f := range cfg.UI.Fields {
		if err := f.Validate(values[f.Name]); err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
	}
	req.Company = values["company"]
	if values["age"] != "" {
		n, err := strconv.Atoi(values["age"])
		if err != nil {
			fmt.Fprintf(errOut, "error: invalid age: %s\n", values["age"])
			return exitcode.UserError
		}
		req.Age = &n
	}
	if c.newsletter {
		req.Newsletter = &c.newsletter
	}

	if _, err := app.Session.SignUpEmail(ctx, req); err != nil {
		fmt.Fprintf(errOut, "error: sign up failed: %v\n", err)
		return exitcode.AuthError
	}
	if _, err := app.SignedIn(ctx); err != nil {
		return reportError(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// AnonCmd implements the anon command.
type AnonCmd struct{}

func (c *AnonCmd) Name() string      { return "anon" }
func (c *AnonCmd) Aliases() []string { return []string{"anonymous"} }
func (c *AnonCmd) Synopsis() string  { return "Start an anonymous session" }
func (c *AnonCmd) Usage() string     { return "authdemo anon" }
func (c *AnonCmd) NeedsAuth() bool   { return true }

func (c *AnonCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *AnonCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	if _, err := app.Session.SignInAnonymous(ctx); err != nil {
		fmt.Fprintf(errOut, "error: anonymous sign in failed: %v\n", err)
		return exitcode.AuthError
	}
	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// LogoutCmd implements the logout command.
type LogoutCmd struct{}

func (c *LogoutCmd) Name() string      { return "logout" }
func (c *LogoutCmd) Aliases() []string { return []string{"signout"} }
func (c *LogoutCmd) Synopsis() string  { return "Sign out and remove the stored session" }
func (c *LogoutCmd) Usage() string     { return "authdemo logout [common flags]" }
func (c *LogoutCmd) NeedsAuth() bool   { return true }

func (c *LogoutCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *LogoutCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	user, err := app.CurrentUser(ctx)
	if err != nil {
		return reportError(errOut, err)
	}
	if user == nil {
		if !cfg.Quiet {
			fmt.Fprintln(out, "not logged in")
		}
		return exitcode.Success
	}

	// The stored session is removed on close once the cookies are gone.
	if err := app.Session.SignOut(ctx); err != nil {
		fmt.Fprintf(errOut, "error: sign out failed: %v\n", err)
		return exitcode.AuthError
	}
	if err := app.Guard.Reset(ctx, syncScope); err != nil {
		app.logger().Warn("Failed to reset organization sync", "error", err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// WhoamiCmd implements the whoami command.
type WhoamiCmd struct{}

func (c *WhoamiCmd) Name() string      { return "whoami" }
func (c *WhoamiCmd) Aliases() []string { return nil }
func (c *WhoamiCmd) Synopsis() string  { return "Show the signed-in user" }
func (c *WhoamiCmd) Usage() string     { return "authdemo whoami" }
func (c *WhoamiCmd) NeedsAuth() bool   { return true }

func (c *WhoamiCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *WhoamiCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	user, err := app.SignedIn(ctx)
	if err != nil {
		return reportError(errOut, err)
	}
	output.FormatUser(out, user)
	return exitcode.Success
}
