// Package session issues and looks up the per-session CSRF token.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// TokenStore issues one CSRF token per session and returns it until the session ends.
type TokenStore interface {
	// IssueToken returns the session's token, creating it on first use.
	IssueToken(ctx context.Context, sessionID string) (string, error)
	// Token returns the session's token or "" if none was issued.
	Token(ctx context.Context, sessionID string) (string, error)
}

// NewToken returns 16 random bytes hex encoded (32 characters).
func NewToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate csrf token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
