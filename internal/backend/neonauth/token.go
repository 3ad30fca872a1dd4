package neonauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// ErrNoToken is returned when the token endpoint answers without a JWT.
var ErrNoToken = errors.New("auth service returned no token")

// TokenSource returns a source of data API bearer tokens for the session
// held by c. Tokens are reused until shortly before their exp claim.
func (c *Client) TokenSource(ctx context.Context) oauth2.TokenSource {
	return oauth2.ReuseTokenSource(nil, &jwtSource{ctx: ctx, c: c})
}

type jwtSource struct {
	ctx context.Context
	c   *Client
}

func (s *jwtSource) Token() (*oauth2.Token, error) {
	var out struct {
		Token string `json:"token"`
	}
	if err := s.c.do(s.ctx, http.MethodGet, "/token", nil, &out); err != nil {
		return nil, fmt.Errorf("fetch data api token: %w", err)
	}
	if out.Token == "" {
		return nil, ErrNoToken
	}
	claims, err := ParseClaims(out.Token)
	if err != nil {
		return nil, err
	}
	tok := &oauth2.Token{AccessToken: out.Token, TokenType: "Bearer"}
	if claims.ExpiresAt != nil {
		tok.Expiry = claims.ExpiresAt.Time
	}
	return tok, nil
}

// ParseClaims reads the registered claims of a JWT issued by the auth
// service. The signature is checked by the data API, not here.
func ParseClaims(raw string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	return claims, nil
}
