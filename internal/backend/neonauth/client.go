// Package neonauth is a client for the hosted Better Auth service: session
// reads, email/anonymous/social sign-in, account settings, organizations
// and JWTs for the data API.
package neonauth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

const (
	// APITimeout is the timeout for API calls.
	APITimeout = 10 * time.Second

	maxBody = 1 << 20
)

// Client talks to one auth service deployment. It carries the caller's
// session in a cookie jar, so a Client represents one signed-in user.
type Client struct {
	baseURL   *url.URL
	transport http.RoundTripper
	jar       http.CookieJar
	hc        *http.Client
	origin    string
	timeout   time.Duration
	logger    *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTransport sets the HTTP transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.transport = rt }
}

// WithOrigin sets the Origin header sent with every request. The auth
// service rejects cookie-authenticated POSTs from unknown origins.
func WithOrigin(origin string) Option {
	return func(c *Client) { c.origin = strings.TrimRight(origin, "/") }
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a signed-out client for the auth service at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid auth url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid auth url: %q", baseURL)
	}
	c := &Client{
		baseURL:   u,
		transport: http.DefaultTransport,
		timeout:   APITimeout,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.resetJar(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) resetJar() error {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return fmt.Errorf("create cookie jar: %w", err)
	}
	c.jar = jar
	c.hc = &http.Client{Transport: c.transport, Jar: jar}
	return nil
}

// BaseURL returns the auth service URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Cookies returns the session cookies the auth service has set.
func (c *Client) Cookies() []*http.Cookie {
	return c.jar.Cookies(c.baseURL)
}

// WithCookies returns a copy of c whose jar holds only the given cookies.
// The copy shares configuration but not session state with c.
func (c *Client) WithCookies(cookies []*http.Cookie) (*Client, error) {
	cp := *c
	if err := cp.resetJar(); err != nil {
		return nil, err
	}
	if len(cookies) > 0 {
		seeded := make([]*http.Cookie, len(cookies))
		for i, ck := range cookies {
			seeded[i] = &http.Cookie{
				Name:   ck.Name,
				Value:  ck.Value,
				Path:   "/",
				Secure: c.baseURL.Scheme == "https",
			}
		}
		cp.jar.SetCookies(c.baseURL, seeded)
	}
	return &cp, nil
}

// ClearCookies drops the local session.
func (c *Client) ClearCookies() error {
	return c.resetJar()
}

func (c *Client) endpoint(path string) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	return u.String()
}

// do sends a JSON request and decodes a JSON response into dst.
func (c *Client) do(ctx context.Context, method, path string, body, dst any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode body: %w", err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), rd)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.origin != "" {
		req.Header.Set("Origin", c.origin)
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		return wrapError(err)
	}
	defer resp.Body.Close()
	c.logger.Debug("auth request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start))

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return wrapError(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, data)
	}
	if dst == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// APIError is a non-2xx response from the auth service.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("auth: %d: %s", e.Status, msg)
}

var (
	// ErrUnauthorized means the session is missing or expired.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidCredentials means the email or password was rejected.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrTimeout means the request did not finish within the call timeout.
	ErrTimeout = errors.New("request timed out")
)

// Is matches the package sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrInvalidCredentials:
		return e.Code == "INVALID_EMAIL_OR_PASSWORD"
	}
	return false
}

func decodeError(status int, data []byte) error {
	apiErr := &APIError{Status: status}
	if err := json.Unmarshal(data, apiErr); err != nil {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	return apiErr
}

func wrapError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}
