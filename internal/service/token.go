package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const (
	tokenBytes       = 16
	maxTokenAttempts = 5
)

// NewShareToken returns 32 hex characters from crypto/rand.
func NewShareToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("service.NewShareToken: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// tokenChecker reports whether a token is already in use.
type tokenChecker func(ctx context.Context, token string) (bool, error)

// freshToken returns a token that differs from previous and is not in use.
func freshToken(ctx context.Context, previous string, taken tokenChecker) (string, error) {
	for attempt := 0; attempt < maxTokenAttempts; attempt++ {
		tok, err := NewShareToken()
		if err != nil {
			return "", err
		}
		if tok == previous {
			continue
		}
		exists, err := taken(ctx, tok)
		if err != nil {
			return "", fmt.Errorf("service.freshToken: %w", err)
		}
		if !exists {
			return tok, nil
		}
	}
	return "", fmt.Errorf("service.freshToken: no free token after %d attempts", maxTokenAttempts)
}
