// Package shared holds what the post, conversation, social and user domains
// have in common: ids, error kinds and analytics events. It imports nothing
// outside the standard library except uuid.
package shared

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is or the Is* helpers below.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidID       = errors.New("invalid id")
	ErrInvalidKind     = errors.New("invalid kind")
	ErrStateTransition = errors.New("invalid state transition")
	ErrUnauthenticated = errors.New("no user is logged in")
)

// DomainError carries where a domain rule failed and which kind of failure
// it was.
type DomainError struct {
	Domain  string // post, conversation, social, user, session
	Op      string
	Kind    error
	Message string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap exposes Kind, so errors.Is(err, ErrNotFound) works.
func (e *DomainError) Unwrap() error { return e.Kind }

func newError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{Domain: domain, Op: op, Kind: kind, Message: message}
}

var (
	ErrUserNotFound  = newError("user", "Find", ErrNotFound, "user not found")
	ErrInvalidUserID = newError("user", "Validate", ErrInvalidID, "user id is required")
	ErrNotLoggedIn   = newError("session", "Require", ErrUnauthenticated, "login required")

	ErrFriendRequestResolved = newError("social", "Respond", ErrStateTransition, "friend request already resolved")
	ErrInvalidNotification   = newError("social", "Validate", ErrInvalidKind, "unknown notification kind")
)

// IsNotFound reports whether err is of kind ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsUnauthenticated reports whether err means nobody is signed in.
func IsUnauthenticated(err error) bool { return errors.Is(err, ErrUnauthenticated) }
