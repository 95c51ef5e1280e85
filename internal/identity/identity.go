// Package identity signs users in with one-time codes sent by email.
package identity

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNoPendingCode = errors.New("no sign-in code requested")
	ErrInvalidCode   = errors.New("invalid code")
	ErrCodeExpired   = errors.New("code expired")
	ErrTooManyTries  = errors.New("too many attempts, request a new code")
)

// User is the signed-in principal.
type User struct {
	ID        string
	Email     string
	Username  string
	CreatedAt time.Time
}

// DisplayName is the username, or the fallback shown for nameless authors.
func (u *User) DisplayName() string {
	if u == nil || u.Username == "" {
		return "Anonymous"
	}
	return u.Username
}

// Service authenticates users.
type Service interface {
	// SendCode emails a one-time code. usernameHint is stored for users
	// signing in for the first time.
	SendCode(ctx context.Context, email, usernameHint string) error
	// VerifyCode completes the pending sign-in.
	VerifyCode(ctx context.Context, code string) (*User, error)
	// OnChange registers fn, calls it at once with the current user and
	// again on every sign-in or sign-out. The returned func unregisters it.
	OnChange(fn func(*User)) (cancel func())
	SignOut(ctx context.Context) error
	// Current returns the signed-in user or nil.
	Current() *User
}
