package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"authdemo/internal/config"
	"authdemo/internal/exitcode"
	"authdemo/internal/metrics"
	"authdemo/internal/web"
)

func init() {
	Register(&ServeCmd{})
}

// ServeCmd implements the serve command.
type ServeCmd struct {
	addr string
}

func (c *ServeCmd) Name() string      { return "serve" }
func (c *ServeCmd) Aliases() []string { return nil }
func (c *ServeCmd) Synopsis() string  { return "Run the web app" }
func (c *ServeCmd) Usage() string     { return "authdemo serve [--addr <host:port>]" }
func (c *ServeCmd) NeedsAuth() bool   { return true }

func (c *ServeCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.addr, "addr", "", "")
}

func (c *ServeCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	if err := cfg.ValidateServe(); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	addr := c.addr
	if addr == "" {
		addr = cfg.ListenAddr
	}

	// Browser sessions get their own in-memory sync guard, keyed by
	// browser id.
	srv, err := web.New(app.Backend, cfg,
		web.WithLogger(app.logger().With("component", "web")),
		web.WithMetrics(metrics.New()),
	)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	if !cfg.Quiet {
		fmt.Fprintf(out, "listening on %s (%s)\n", addr, cfg.PublicBaseURL)
	}
	if err := srv.ListenAndServe(ctx, addr); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
	return exitcode.Success
}
