package commands

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"

	"authdemo/internal/backend/googletasks"
	"authdemo/internal/config"
	"authdemo/internal/exitcode"
)

const (
	// OAuth callback timeout
	oauthCallbackTimeout = 5 * time.Minute

	// Token exchange timeout
	tokenExchangeTimeout = 30 * time.Second

	// Starting port for OAuth callback server
	oauthStartPort = 8085

	// Max port attempts
	oauthMaxPortAttempts = 5
)

func init() {
	Register(&GoogleLoginCmd{})
	Register(&GoogleLogoutCmd{})
	Register(&ImportGoogleCmd{})
}

// GoogleLoginCmd implements the google-login command. It authorizes
// read access to Google Tasks for import-google.
type GoogleLoginCmd struct{}

func (c *GoogleLoginCmd) Name() string      { return "google-login" }
func (c *GoogleLoginCmd) Aliases() []string { return nil }
func (c *GoogleLoginCmd) Synopsis() string  { return "Authorize Google Tasks import" }
func (c *GoogleLoginCmd) Usage() string     { return "authdemo google-login [common flags]" }
func (c *GoogleLoginCmd) NeedsAuth() bool   { return false }

func (c *GoogleLoginCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *GoogleLoginCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	if !cfg.HasOAuthClient() {
		fmt.Fprintf(errOut, "error: oauth_client.json not found in %s\n\n", cfg.Dir)
		fmt.Fprintln(errOut, "To import from Google Tasks, you need OAuth credentials:")
		fmt.Fprintln(errOut, "")
		fmt.Fprintln(errOut, "1. Go to https://console.cloud.google.com/apis/credentials")
		fmt.Fprintln(errOut, "2. Enable the Google Tasks API:")
		fmt.Fprintln(errOut, "   https://console.cloud.google.com/apis/library/tasks.googleapis.com")
		fmt.Fprintln(errOut, "3. Create an OAuth client ID of type 'Desktop app' and download the JSON file")
		fmt.Fprintln(errOut, "4. Save it as:")
		fmt.Fprintf(errOut, "   %s\n", cfg.OAuthClientPath())
		fmt.Fprintln(errOut, "")
		fmt.Fprintln(errOut, "Then run 'authdemo google-login' again.")
		return exitcode.AuthError
	}

	oauthConfig, err := googletasks.OAuthConfig(cfg)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	}

	if cfg.HasToken() && isTokenValid(ctx, cfg, oauthConfig) {
		if !cfg.Quiet {
			fmt.Fprintln(out, "already logged in")
		}
		return exitcode.Success
	}

	port, listener, err := findAvailablePort()
	if err != nil {
		fmt.Fprintf(errOut, "error: could not bind to local port for OAuth callback\n")
		return exitcode.AuthError
	}
	defer listener.Close()

	oauthConfig.RedirectURL = fmt.Sprintf("http://localhost:%d/callback", port)

	verifier := oauth2.GenerateVerifier()
	authURL := oauthConfig.AuthCodeURL("state",
		oauth2.AccessTypeOffline,
		oauth2.S256ChallengeOption(verifier),
	)

	fmt.Fprintln(errOut, "Open this URL in your browser:")
	fmt.Fprintln(errOut, authURL)

	code, err := waitForCode(ctx, listener)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	}

	exchangeCtx, cancelExchange := context.WithTimeout(ctx, tokenExchangeTimeout)
	defer cancelExchange()

	token, err := oauthConfig.Exchange(exchangeCtx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		fmt.Fprintf(errOut, "error: failed to exchange code for token: %v\n", err)
		return exitcode.AuthError
	}

	if err := cfg.EnsureDir(); err != nil {
		fmt.Fprintf(errOut, "error: failed to create config directory: %v\n", err)
		return exitcode.AuthError
	}
	if err := saveToken(cfg.TokenPath(), token); err != nil {
		fmt.Fprintf(errOut, "error: failed to save token: %v\n", err)
		return exitcode.AuthError
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// waitForCode serves the OAuth redirect on listener until it carries a
// code, the callback times out, or ctx ends.
func waitForCode(ctx context.Context, listener net.Listener) (string, error) {
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "No code in callback", http.StatusBadRequest)
			select {
			case errCh <- fmt.Errorf("no code in callback"):
			default:
			}
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html><body><h1>Authorization complete</h1><p>You may close this window.</p></body></html>")
		select {
		case codeCh <- code:
		default:
		}
	})

	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			select {
			case errCh <- err:
			default:
			}
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	select {
	case code := <-codeCh:
		return code, nil
	case err := <-errCh:
		return "", err
	case <-time.After(oauthCallbackTimeout):
		return "", fmt.Errorf("oauth callback timed out")
	case <-ctx.Done():
		return "", fmt.Errorf("cancelled")
	}
}

// findAvailablePort tries to find an available port starting from oauthStartPort.
func findAvailablePort() (int, net.Listener, error) {
	for i := 0; i < oauthMaxPortAttempts; i++ {
		port := oauthStartPort + i
		listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", port))
		if err == nil {
			return port, listener, nil
		}
	}
	return 0, nil, fmt.Errorf("no available port found")
}

// isTokenValid checks if the stored token has a refresh token and can
// still be refreshed.
func isTokenValid(ctx context.Context, cfg *config.Config, oauthConfig *oauth2.Config) bool {
	data, err := os.ReadFile(cfg.TokenPath())
	if err != nil {
		return false
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return false
	}
	if token.RefreshToken == "" {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, err = oauthConfig.TokenSource(ctx, &token).Token()
	return err == nil
}

// saveToken saves an OAuth token to a file with mode 0600.
func saveToken(path string, token *oauth2.Token) error {
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// GoogleLogoutCmd implements the google-logout command.
type GoogleLogoutCmd struct{}

func (c *GoogleLogoutCmd) Name() string      { return "google-logout" }
func (c *GoogleLogoutCmd) Aliases() []string { return nil }
func (c *GoogleLogoutCmd) Synopsis() string  { return "Remove the stored Google token" }
func (c *GoogleLogoutCmd) Usage() string     { return "authdemo google-logout [common flags]" }
func (c *GoogleLogoutCmd) NeedsAuth() bool   { return false }

func (c *GoogleLogoutCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *GoogleLogoutCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	if !cfg.HasToken() {
		if !cfg.Quiet {
			fmt.Fprintln(out, "not logged in")
		}
		return exitcode.Success
	}

	if err := cfg.RemoveToken(); err != nil {
		fmt.Fprintf(errOut, "error: failed to remove token: %v\n", err)
		return exitcode.AuthError
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// ImportGoogleCmd implements the import-google command. Open Google
// tasks are added as new todos, oldest last so they keep their order.
type ImportGoogleCmd struct {
	listName string
}

// SetListName sets the list name (for testing).
func (c *ImportGoogleCmd) SetListName(name string) {
	c.listName = name
}

func (c *ImportGoogleCmd) Name() string      { return "import-google" }
func (c *ImportGoogleCmd) Aliases() []string { return nil }
func (c *ImportGoogleCmd) Synopsis() string  { return "Import open tasks from Google Tasks" }
func (c *ImportGoogleCmd) Usage() string {
	return "authdemo import-google [--list <list-name>]"
}
func (c *ImportGoogleCmd) NeedsAuth() bool { return true }

func (c *ImportGoogleCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.listName, "list", "", "")
	fs.StringVar(&c.listName, "l", "", "")
}

func (c *ImportGoogleCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	user, err := app.SignedIn(ctx)
	if err != nil {
		return reportError(errOut, err)
	}
	if app.Importer == nil {
		fmt.Fprintln(errOut, "error: google import is not available")
		return exitcode.UserError
	}
	src, err := app.Importer(ctx, cfg)
	if err != nil {
		fmt.Fprintf(errOut, "error: auth error: %v (run: authdemo google-login)\n", err)
		return exitcode.AuthError
	}
	imported, err := src.OpenTasks(ctx, c.listName)
	if err != nil {
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}

	m, err := app.TaskList(ctx, &user)
	if err != nil {
		return reportError(errOut, err)
	}
	// Insert in reverse so the newest-first list matches Google's order.
	n := 0
	for i := len(imported) - 1; i >= 0; i-- {
		if err := m.Add(ctx, imported[i].Title); err != nil {
			fmt.Fprintf(errOut, "error: imported %d of %d: %v\n", n, len(imported), err)
			return exitcode.BackendError
		}
		n++
	}

	if !cfg.Quiet {
		fmt.Fprintf(out, "ok (%d imported)\n", n)
	}
	return exitcode.Success
}
