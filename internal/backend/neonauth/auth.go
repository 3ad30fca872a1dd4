package neonauth

import (
	"context"
	"errors"
	"net/http"

	"authdemo/internal/service"
)

// ErrNoRedirect is returned when a social sign-in response has no provider URL.
var ErrNoRedirect = errors.New("auth service returned no redirect url")

type userResponse struct {
	Token string       `json:"token"`
	User  service.User `json:"user"`
}

// GetSession implements service.Auth. It returns nil when signed out.
func (c *Client) GetSession(ctx context.Context) (*service.AuthSession, error) {
	var out *service.AuthSession
	if err := c.do(ctx, http.MethodGet, "/get-session", nil, &out); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			return nil, nil
		}
		return nil, err
	}
	if out == nil || out.User.ID == "" {
		return nil, nil
	}
	return out, nil
}

// SignInEmail implements service.Auth.
func (c *Client) SignInEmail(ctx context.Context, email, password string) (service.User, error) {
	var out userResponse
	err := c.do(ctx, http.MethodPost, "/sign-in/email", map[string]any{
		"email":    email,
		"password": password,
	}, &out)
	return out.User, err
}

// SignUpEmail implements service.Auth.
func (c *Client) SignUpEmail(ctx context.Context, req service.SignUp) (service.User, error) {
	var out userResponse
	err := c.do(ctx, http.MethodPost, "/sign-up/email", req, &out)
	return out.User, err
}

// SignInAnonymous implements service.Auth.
func (c *Client) SignInAnonymous(ctx context.Context) (service.User, error) {
	var out userResponse
	err := c.do(ctx, http.MethodPost, "/sign-in/anonymous", struct{}{}, &out)
	return out.User, err
}

// SignInSocial implements service.Auth. The returned URL starts the
// provider's consent flow; the provider redirects to callbackURL.
func (c *Client) SignInSocial(ctx context.Context, provider, callbackURL string) (string, error) {
	var out struct {
		URL      string `json:"url"`
		Redirect bool   `json:"redirect"`
	}
	err := c.do(ctx, http.MethodPost, "/sign-in/social", map[string]any{
		"provider":    provider,
		"callbackURL": callbackURL,
	}, &out)
	if err != nil {
		return "", err
	}
	if out.URL == "" {
		return "", ErrNoRedirect
	}
	return out.URL, nil
}

// SignOut implements service.Auth. Local cookies are dropped even when the
// remote call fails.
func (c *Client) SignOut(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/sign-out", struct{}{}, nil)
	if resetErr := c.resetJar(); err == nil {
		err = resetErr
	}
	return err
}

// RequestPasswordReset implements service.Auth.
func (c *Client) RequestPasswordReset(ctx context.Context, email, redirectTo string) error {
	return c.do(ctx, http.MethodPost, "/request-password-reset", map[string]any{
		"email":      email,
		"redirectTo": redirectTo,
	}, nil)
}

// ResetPassword implements service.Auth.
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) error {
	return c.do(ctx, http.MethodPost, "/reset-password", map[string]any{
		"token":       token,
		"newPassword": newPassword,
	}, nil)
}

// UpdateUser implements service.Auth.
func (c *Client) UpdateUser(ctx context.Context, p service.ProfileUpdate) error {
	return c.do(ctx, http.MethodPost, "/update-user", p, nil)
}

// ChangePassword implements service.Auth.
func (c *Client) ChangePassword(ctx context.Context, current, next string, revokeOthers bool) error {
	return c.do(ctx, http.MethodPost, "/change-password", map[string]any{
		"currentPassword":     current,
		"newPassword":         next,
		"revokeOtherSessions": revokeOthers,
	}, nil)
}

// ListSessions implements service.Auth.
func (c *Client) ListSessions(ctx context.Context) ([]service.SessionInfo, error) {
	var out []service.SessionInfo
	if err := c.do(ctx, http.MethodGet, "/list-sessions", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RevokeSession implements service.Auth.
func (c *Client) RevokeSession(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/revoke-session", map[string]any{"token": token}, nil)
}
