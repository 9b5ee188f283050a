package models

import "time"

// RevokedToken is a session token invalidated before its natural expiry.
type RevokedToken struct {
	Token     string    `bson:"token" json:"token"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
}

// TokenResponse is the body returned by register and login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
