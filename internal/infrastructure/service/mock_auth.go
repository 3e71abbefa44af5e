// Package service contains stand-ins for services the social store talks to.
package service

import (
	"context"
	"log/slog"

	"github.com/tyler-paryz/oompa-social/internal/domain/shared"
	"github.com/tyler-paryz/oompa-social/internal/domain/user"
)

// MessageUserNotFound is returned by a failed login.
const MessageUserNotFound = "User not found"

// LoginResult is the outcome of an authentication attempt.
type LoginResult struct {
	Success bool
	User    user.User
	Message string
}

// MockAuthenticator signs users in by email only. Any password is accepted.
type MockAuthenticator struct {
	users  user.Directory
	logger *slog.Logger
}

// NewMockAuthenticator creates a new MockAuthenticator.
func NewMockAuthenticator(users user.Directory, logger *slog.Logger) *MockAuthenticator {
	if logger == nil {
		logger = slog.Default()
	}
	return &MockAuthenticator{
		users:  users,
		logger: logger.With("component", "mock_auth"),
	}
}

// Login looks the email up exactly as given; case is significant.
func (a *MockAuthenticator) Login(email, _ string) LoginResult {
	u, err := a.users.GetByEmail(email)
	if err != nil {
		if !shared.IsNotFound(err) {
			a.logger.Warn("login lookup failed", "error", err)
		}
		return LoginResult{Success: false, Message: MessageUserNotFound}
	}
	return LoginResult{Success: true, User: u}
}

// Authenticator is the login collaborator used by SignIn.
type Authenticator interface {
	Login(email, password string) LoginResult
}

// Session is the part of the session context SignIn needs.
type Session interface {
	Login(u user.User) error
}

// SignIn authenticates and, on success, makes the user current in sess.
func SignIn(ctx context.Context, auth Authenticator, sess Session, email, password string) (LoginResult, error) {
	if err := ctx.Err(); err != nil {
		return LoginResult{}, err
	}
	res := auth.Login(email, password)
	if !res.Success {
		return res, nil
	}
	if err := sess.Login(res.User); err != nil {
		return LoginResult{}, err
	}
	return res, nil
}
