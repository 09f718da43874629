package api

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenResponse is the credential issued by the demo login endpoint.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login obtains a bearer token for userID. expiresInMinutes <= 0 leaves the
// server default in place.
func (c *Client) Login(ctx context.Context, userID string, expiresInMinutes int) (*TokenResponse, error) {
	payload := map[string]interface{}{"user_id": userID}
	if expiresInMinutes > 0 {
		payload["expires_in_minutes"] = expiresInMinutes
	}
	var out TokenResponse
	if err := c.postJSON(ctx, "/auth/login", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TokenDetails summarizes an unverified decode of a bearer token.
type TokenDetails struct {
	Subject   string
	Audience  []string
	ExpiresAt time.Time
}

// Expired reports whether the token's expiry, if any, has passed.
func (d *TokenDetails) Expired() bool {
	return !d.ExpiresAt.IsZero() && time.Now().After(d.ExpiresAt)
}

// InspectToken decodes a JWT without verifying its signature. The client
// holds no signing secret; verification stays on the server.
func InspectToken(token string) (*TokenDetails, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	details := &TokenDetails{}
	if sub, err := claims.GetSubject(); err == nil {
		details.Subject = sub
	}
	if aud, err := claims.GetAudience(); err == nil {
		details.Audience = aud
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		details.ExpiresAt = exp.Time
	}
	return details, nil
}
