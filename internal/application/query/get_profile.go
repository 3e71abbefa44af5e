package query

import (
	"context"
	"fmt"

	"github.com/tyler-paryz/oompa-social/internal/application/session"
	"github.com/tyler-paryz/oompa-social/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PROFILE QUERY
// ══════════════════════════════════════════════════════════════════════════════

// GetProfileQuery names the profile to show. An empty UserID means the
// session user.
type GetProfileQuery struct {
	UserID string
}

// ProfileDTO is a user with their posts.
type ProfileDTO struct {
	User  user.User
	Posts []FeedEntryDTO

	// IsSelf is true when the profile belongs to the session user.
	IsSelf bool

	// IsFriend is true when the session user has befriended this user.
	IsFriend bool

	// FriendCount is the size of the session user's friend list. It is only
	// filled in on the session user's own profile.
	FriendCount int
}

// GetProfileHandler handles GetProfileQuery.
type GetProfileHandler struct {
	sess *session.Context
}

// NewGetProfileHandler creates a new GetProfileHandler.
func NewGetProfileHandler(sess *session.Context) *GetProfileHandler {
	return &GetProfileHandler{sess: sess}
}

// Handle executes the query. An unknown user yields shared.ErrUserNotFound.
func (h *GetProfileHandler) Handle(ctx context.Context, q GetProfileQuery) (*ProfileDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	viewer, err := h.sess.RequireUser()
	if err != nil {
		return nil, fmt.Errorf("get_profile: %w", err)
	}

	id := q.UserID
	if id == "" {
		id = viewer.ID
	}
	u, err := h.sess.Users.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("get_profile: %w", err)
	}

	profile := &ProfileDTO{
		User:   u,
		Posts:  renderPosts(h.sess.Users, viewer.ID, h.sess.Posts.GetPostsByUser(id)),
		IsSelf: id == viewer.ID,
	}
	if profile.IsSelf {
		profile.FriendCount = len(h.sess.Social.Friends())
	} else {
		profile.IsFriend = h.sess.Social.IsFriend(id)
	}
	return profile, nil
}
