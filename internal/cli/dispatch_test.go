package cli_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"authdemo/internal/cli"
	"authdemo/internal/commands"
	"authdemo/internal/config"
	"authdemo/internal/exitcode"
	"authdemo/internal/logging"
	"authdemo/internal/syncstate"
	"authdemo/internal/testutil"
)

// testFactory creates an app factory over the given FakeBackend.
func testFactory(be *testutil.FakeBackend) cli.AppFactory {
	return func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*commands.App, error) {
		sess, err := be.Session(nil)
		if err != nil {
			return nil, err
		}
		return &commands.App{
			Backend: be,
			Session: sess,
			Guard:   syncstate.NewMemory(),
			Logger:  logging.Discard(),
		}, nil
	}
}

func newDispatcher(t *testing.T, be *testutil.FakeBackend) *cli.Dispatcher {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	return cli.NewDispatcher(commands.DefaultRegistry, testFactory(be))
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	dispatcher := newDispatcher(t, testutil.NewFakeBackend(""))

	var stdout, stderr bytes.Buffer
	code := dispatcher.Run(context.Background(), []string{"unknowncmd"}, &stdout, &stderr)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown command: unknowncmd\n"
	if stderr.String() != expected {
		t.Errorf("expected %q, got %q", expected, stderr.String())
	}
}

func TestDispatcher_FlagBeforeCommand(t *testing.T) {
	dispatcher := newDispatcher(t, testutil.NewFakeBackend(""))

	var stdout, stderr bytes.Buffer
	code := dispatcher.Run(context.Background(), []string{"--quiet"}, &stdout, &stderr)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown command: --quiet\n"
	if stderr.String() != expected {
		t.Errorf("expected %q, got %q", expected, stderr.String())
	}
}

func TestDispatcher_HelpCommand(t *testing.T) {
	dispatcher := newDispatcher(t, testutil.NewFakeBackend(""))

	var stdout, stderr bytes.Buffer
	code := dispatcher.Run(context.Background(), []string{"help"}, &stdout, &stderr)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr.String() != "" {
		t.Errorf("expected no stderr, got %q", stderr.String())
	}
	if !bytes.Contains(stdout.Bytes(), []byte("Usage:")) {
		t.Error("expected help output to contain 'Usage:'")
	}
}

func TestDispatcher_VersionCommand(t *testing.T) {
	dispatcher := newDispatcher(t, testutil.NewFakeBackend(""))

	var stdout, stderr bytes.Buffer
	code := dispatcher.Run(context.Background(), []string{"version"}, &stdout, &stderr)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout.String() != "authdemo 0.1.0\n" {
		t.Errorf("expected 'authdemo 0.1.0\\n', got %q", stdout.String())
	}
}

func TestDispatcher_UnknownFlag(t *testing.T) {
	dispatcher := newDispatcher(t, testutil.NewFakeBackend(""))

	var stdout, stderr bytes.Buffer
	code := dispatcher.Run(context.Background(), []string{"help", "--unknown"}, &stdout, &stderr)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown flag: -unknown\n"
	if stderr.String() != expected {
		t.Errorf("expected %q, got %q", expected, stderr.String())
	}
}

func TestDispatcher_FlagNeedsArgument(t *testing.T) {
	dispatcher := newDispatcher(t, testutil.NewFakeBackend(""))

	var stdout, stderr bytes.Buffer
	code := dispatcher.Run(context.Background(), []string{"list", "--filter"}, &stdout, &stderr)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: flag needs an argument: -filter\n"
	if stderr.String() != expected {
		t.Errorf("expected %q, got %q", expected, stderr.String())
	}
}

func TestDispatcher_NoArgsListsTasks(t *testing.T) {
	be := testutil.NewFakeBackend("")
	be.Store.Seed("Public note", "someone", false, true)
	dispatcher := newDispatcher(t, be)

	var stdout, stderr bytes.Buffer
	code := dispatcher.Run(context.Background(), nil, &stdout, &stderr)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr.String())
	}
	expected := "   1  [ ] Public note (public)\n1 task, 1 active, 0 completed\n"
	if stdout.String() != expected {
		t.Errorf("expected %q, got %q", expected, stdout.String())
	}
}

func TestDispatcher_QuietFlag(t *testing.T) {
	be := testutil.NewFakeBackend("")
	dispatcher := newDispatcher(t, be)

	var stdout, stderr bytes.Buffer
	code := dispatcher.Run(context.Background(), []string{"list", "--quiet"}, &stdout, &stderr)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout.String() != "" {
		t.Errorf("expected no stdout, got %q", stdout.String())
	}
}

func TestDispatcher_FactoryErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"config", exitcode.Wrap(exitcode.UserError, config.ErrNoAuthURL), exitcode.UserError},
		{"session", exitcode.Wrap(exitcode.AuthError, errors.New("invalid session.json")), exitcode.AuthError},
		{"backend", errors.New("connection refused"), exitcode.BackendError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("XDG_CONFIG_HOME", t.TempDir())
			factory := func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*commands.App, error) {
				return nil, tt.err
			}
			dispatcher := cli.NewDispatcher(commands.DefaultRegistry, factory)

			var stdout, stderr bytes.Buffer
			code := dispatcher.Run(context.Background(), []string{"whoami"}, &stdout, &stderr)

			if code != tt.code {
				t.Errorf("expected exit code %d, got %d (stderr %q)", tt.code, code, stderr.String())
			}
		})
	}
}

func TestDispatcher_DefaultFactoryValidatesConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("NEON_AUTH_URL", "")
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, nil)

	var stdout, stderr bytes.Buffer
	code := dispatcher.Run(context.Background(), []string{"whoami", "--config", t.TempDir()}, &stdout, &stderr)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: NEON_AUTH_URL is not set\n"
	if stderr.String() != expected {
		t.Errorf("expected %q, got %q", expected, stderr.String())
	}
}

func TestDispatcher_AliasRunsCommand(t *testing.T) {
	be := testutil.NewFakeBackend("user-1")
	be.Auth.SignInAs(testutil.NewFakeAuth().AddAccount("ada@example.com", "pw", "Ada"))
	dispatcher := newDispatcher(t, be)

	var stdout, stderr bytes.Buffer
	code := dispatcher.Run(context.Background(), []string{"create", "Buy", "milk"}, &stdout, &stderr)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr.String())
	}
	if rows := be.Store.Rows(); len(rows) != 1 || rows[0].Title != "Buy milk" {
		t.Errorf("unexpected rows %+v", rows)
	}
}
