package models

import "time"

// RefreshToken is the cached record behind an opaque refresh token.
type RefreshToken struct {
	UserID    string    `json:"user_id"`
	TenantID  string    `json:"tenant_id"`
	Scope     *string   `json:"scope,omitempty"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenResponse is the OAuth2-style bearer token response.
type TokenResponse struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	RefreshToken string    `json:"refresh_token"`
	Scope        *string   `json:"scope,omitempty"`
	UserID       string    `json:"user_id"`
	TenantID     string    `json:"tenant_id"`
	TokenID      string    `json:"token_id"`
	IssuedAt     time.Time `json:"issued_at"`
}

type RefreshTokenRequest struct {
	RefreshToken string  `json:"refresh_token"`
	GrantType    string  `json:"grant_type"`
	Scope        *string `json:"scope"`
}
