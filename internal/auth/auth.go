// Package auth supplies the bearer token and user profile for the realtime connection.
package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/rickgao/supportdesk/internal/model"
)

// ErrMissingToken is returned when neither a token nor a token file is configured.
var ErrMissingToken = errors.New("bearer token is required")

// Provider exposes the current session's credentials.
type Provider interface {
	Token() string
	User() *model.User
}

// Credentials is a Provider loaded at startup. The token may be replaced
// later by a TokenWatcher; the user never changes.
type Credentials struct {
	mu    sync.RWMutex
	token string
	user  *model.User
}

// NewCredentials creates credentials from an already known token.
func NewCredentials(token string, user *model.User) *Credentials {
	return &Credentials{token: strings.TrimSpace(token), user: user}
}

// LoadCredentials resolves the token, reading tokenPath when token is empty.
func LoadCredentials(token, tokenPath string, user *model.User) (*Credentials, error) {
	if token == "" && tokenPath == "" {
		return nil, ErrMissingToken
	}

	if token == "" {
		t, err := LoadToken(tokenPath)
		if err != nil {
			return nil, fmt.Errorf("load token: %w", err)
		}
		token = t
	}

	return NewCredentials(token, user), nil
}

// LoadToken reads a bearer token from a file, ignoring surrounding whitespace.
func LoadToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("token file %s is empty", path)
	}
	return token, nil
}

// Token returns the bearer token.
func (c *Credentials) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken replaces the bearer token. Returns false if it is unchanged.
func (c *Credentials) SetToken(token string) bool {
	token = strings.TrimSpace(token)

	c.mu.Lock()
	defer c.mu.Unlock()
	if token == c.token {
		return false
	}
	c.token = token
	return true
}

// User returns the authenticated user, or nil if unknown.
func (c *Credentials) User() *model.User {
	return c.user
}

// IsAdmin reports whether the provider's user is an administrator.
func IsAdmin(p Provider) bool {
	if p == nil {
		return false
	}
	u := p.User()
	return u != nil && u.IsAdmin
}
