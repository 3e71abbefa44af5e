// Package session holds the store set for one signed-in visitor.
package session

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/tyler-paryz/oompa-social/internal/domain/conversation"
	"github.com/tyler-paryz/oompa-social/internal/domain/post"
	"github.com/tyler-paryz/oompa-social/internal/domain/shared"
	"github.com/tyler-paryz/oompa-social/internal/domain/social"
	"github.com/tyler-paryz/oompa-social/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// SESSION CONTEXT
// The stores are built once by the caller and handed in. Nothing here is
// global; two Contexts never share state unless they share stores.
// ══════════════════════════════════════════════════════════════════════════════

// Analytics identity reported on login.
const (
	VisitorRole = "oompa_loompa"
	AccountID   = "oompa-social-app"
)

// Config contains the collaborators of a Context.
type Config struct {
	Posts         post.Store
	Conversations conversation.Store
	Social        social.Store
	Users         user.Directory

	// Events receives session.login / session.logout (default: shared.NopPublisher).
	Events shared.EventPublisher

	// Logger for structured logging
	Logger *slog.Logger
}

// Context is the dependency-injected store set plus the signed-in user.
type Context struct {
	Posts         post.Store
	Conversations conversation.Store
	Social        social.Store
	Users         user.Directory
	Events        shared.EventPublisher

	mu      sync.RWMutex
	current user.User
	logger  *slog.Logger
}

// New creates a Context with nobody signed in.
func New(cfg Config) (*Context, error) {
	if cfg.Posts == nil || cfg.Conversations == nil || cfg.Social == nil {
		return nil, errors.New("session: posts, conversations and social stores are required")
	}
	if cfg.Users == nil {
		return nil, errors.New("session: user directory is required")
	}
	if cfg.Events == nil {
		cfg.Events = shared.NopPublisher{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Context{
		Posts:         cfg.Posts,
		Conversations: cfg.Conversations,
		Social:        cfg.Social,
		Users:         cfg.Users,
		Events:        cfg.Events,
		logger:        cfg.Logger.With("component", "session"),
	}, nil
}

// Login makes u the current user and identifies the visitor to analytics.
// A previous user is replaced without running Logout.
func (c *Context) Login(u user.User) error {
	if u.IsZero() {
		return shared.ErrInvalidUserID
	}

	c.mu.Lock()
	c.current = u
	c.mu.Unlock()

	c.logger.Info("visitor signed in", "user_id", u.ID)
	shared.PublishSafe(c.Events, shared.NewTrackedEvent(shared.EventSessionLogin, u.ID, map[string]interface{}{
		"visitor_id": u.ID,
		"email":      u.Email,
		"full_name":  u.Name,
		"role":       VisitorRole,
		"account_id": AccountID,
	}), c.logger)
	return nil
}

// Logout clears the current user and empties the social store. Posts and
// conversations are left as they are.
func (c *Context) Logout() {
	c.mu.Lock()
	prev := c.current
	c.current = user.User{}
	c.mu.Unlock()

	c.Social.Reset()

	if prev.IsZero() {
		return
	}
	c.logger.Info("visitor signed out", "user_id", prev.ID)
	shared.PublishSafe(c.Events, shared.NewTrackedEvent(shared.EventSessionLogout, prev.ID, map[string]interface{}{
		"visitor_id": prev.ID,
	}), c.logger)
}

// IsAuthenticated reports whether someone is signed in.
func (c *Context) IsAuthenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.current.IsZero()
}

// CurrentUser returns the signed-in user, if any.
func (c *Context) CurrentUser() (user.User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current, !c.current.IsZero()
}

// CurrentUserID returns the signed-in user's id, or "" for a guest.
func (c *Context) CurrentUserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current.ID
}

// RequireUser returns the signed-in user or shared.ErrNotLoggedIn.
func (c *Context) RequireUser() (user.User, error) {
	u, ok := c.CurrentUser()
	if !ok {
		return user.User{}, shared.ErrNotLoggedIn
	}
	return u, nil
}
