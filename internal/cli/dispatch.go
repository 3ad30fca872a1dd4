package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"authdemo/internal/commands"
	"authdemo/internal/config"
	"authdemo/internal/exitcode"
	"authdemo/internal/logging"
)

// AppFactory creates the App a command runs against.
// Used to inject the backend during dispatch.
type AppFactory func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*commands.App, error)

// OpenApp is the production AppFactory. It validates the settings before
// connecting.
func OpenApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*commands.App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, exitcode.Wrap(exitcode.UserError, err)
	}
	return commands.OpenApp(ctx, cfg, logger)
}

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  AppFactory
}

// NewDispatcher creates a new dispatcher with the given registry and app factory.
func NewDispatcher(registry *commands.Registry, factory AppFactory) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		factory:  factory,
	}
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	// No args -> dispatch to "list" command with no args
	if len(args) == 0 {
		return d.dispatch(ctx, "list", nil, out, errOut)
	}

	cmdName := args[0]

	// If first token starts with -, it's an error (flags require a command)
	if strings.HasPrefix(cmdName, "-") {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}

	cmd, ok := d.registry.Find(cmdName)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}

	return d.dispatchCommand(ctx, cmd, args[1:], out, errOut)
}

func (d *Dispatcher) dispatch(ctx context.Context, cmdName string, args []string, out, errOut io.Writer) int {
	cmd, ok := d.registry.Find(cmdName)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}
	return d.dispatchCommand(ctx, cmd, args, out, errOut)
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, cmd commands.Command, args []string, out, errOut io.Writer) int {
	// Create flag set with custom error handling
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard) // We handle errors ourselves

	// Common flags
	var configDir string
	var quiet bool
	var debug bool

	fs.StringVar(&configDir, "config", "", "")
	fs.BoolVar(&quiet, "quiet", false, "")
	fs.BoolVar(&debug, "debug", false, "")

	cmd.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		return reportFlagError(err, errOut)
	}

	// Check if first positional arg starts with - (should have been parsed as flag)
	positionalArgs := fs.Args()
	if len(positionalArgs) > 0 && strings.HasPrefix(positionalArgs[0], "-") {
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", positionalArgs[0])
		return exitcode.UserError
	}

	cfg, err := config.Load(configDir)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	cfg.Quiet = quiet
	cfg.Debug = debug

	if !cmd.NeedsAuth() {
		return cmd.Run(ctx, cfg, nil, positionalArgs, out, errOut)
	}

	factory := d.factory
	if factory == nil {
		factory = OpenApp
	}
	app, err := factory(ctx, cfg, newLogger(cfg, errOut))
	if err != nil {
		code := exitcode.Of(err)
		switch code {
		case exitcode.UserError:
			fmt.Fprintf(errOut, "error: %s\n", err)
		case exitcode.AuthError:
			fmt.Fprintf(errOut, "error: auth error: %s\n", err)
		default:
			fmt.Fprintf(errOut, "error: backend error: %s\n", err)
		}
		return code
	}
	defer func() {
		if err := app.Close(); err != nil {
			fmt.Fprintf(errOut, "error: %s\n", err)
		}
	}()

	return cmd.Run(ctx, cfg, app, positionalArgs, out, errOut)
}

// newLogger logs to errOut. The CLI stays quiet below warn unless
// --debug or LOG_LEVEL says otherwise.
func newLogger(cfg *config.Config, errOut io.Writer) *slog.Logger {
	level := cfg.LogLevel
	if cfg.Debug {
		level = "debug"
	}
	if level == "" {
		level = "warn"
	}
	return logging.New(errOut, level)
}

func reportFlagError(err error, errOut io.Writer) int {
	errStr := err.Error()

	// Check for missing flag value
	if strings.HasPrefix(errStr, "flag needs an argument:") {
		flagName := strings.TrimSpace(strings.TrimPrefix(errStr, "flag needs an argument:"))
		fmt.Fprintf(errOut, "error: flag needs an argument: %s\n", flagName)
		return exitcode.UserError
	}

	// Check for unknown flag
	if strings.HasPrefix(errStr, "flag provided but not defined:") {
		flagName := strings.TrimPrefix(errStr, "flag provided but not defined: ")
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", flagName)
		return exitcode.UserError
	}

	fmt.Fprintf(errOut, "error: %s\n", errStr)
	return exitcode.UserError
}
