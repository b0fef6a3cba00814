// Package auth is the client side of the identity provider.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrNotSignedIn        = errors.New("not signed in")
	ErrResetInvalid       = errors.New("reset token invalid or expired")
)

// User is the authenticated account as the app sees it.
type User struct {
	ID        int    `json:"id"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Session is a signed-in user and the bearer token proving it.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      User      `json:"user"`
}

func (s *Session) Expired(now time.Time) bool {
	return s == nil || (!s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt))
}

// Provider is the identity provider contract. The wellness core only asks
// whether someone is signed in.
type Provider interface {
	SignUp(ctx context.Context, email, password string) (*User, error)
	SignIn(ctx context.Context, email, password string) (*User, error)
	SignOut(ctx context.Context) error
	ResetPassword(ctx context.Context, email string) error
	UpdatePassword(ctx context.Context, token, password string) error
	CurrentUser(ctx context.Context) (*User, error)
	OnAuthStateChange(fn func(*User)) (unsubscribe func())
}

// APIError is an unexpected answer from the identity endpoints.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("auth service status %d", e.StatusCode)
	}
	return fmt.Sprintf("auth service status %d: %s", e.StatusCode, e.Message)
}

// RequireUser returns the signed-in user or ErrNotSignedIn.
func RequireUser(ctx context.Context, p Provider) (*User, error) {
	u, err := p.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNotSignedIn
	}
	return u, nil
}
