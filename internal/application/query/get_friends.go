package query

import (
	"context"
	"fmt"
	"time"

	"github.com/tyler-paryz/oompa-social/internal/application/session"
	"github.com/tyler-paryz/oompa-social/internal/domain/social"
	"github.com/tyler-paryz/oompa-social/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET FRIENDS QUERY
// Friends, pending requests and notifications of the session user.
// ══════════════════════════════════════════════════════════════════════════════

// GetFriendsQuery has no parameters.
type GetFriendsQuery struct{}

// FriendDTO is a friend resolved through the directory. Known is false when
// the id is not in the directory; Name then falls back to the id.
type FriendDTO struct {
	ID     string
	Name   string
	Avatar string
	Known  bool
}

// PendingRequestDTO is a pending request with the requester's name.
type PendingRequestDTO struct {
	RequestID     string
	RequesterID   string
	RequesterName string
	TargetID      string
	Timestamp     time.Time
}

// GetFriendsResult contains the social view.
type GetFriendsResult struct {
	Friends             []FriendDTO
	Pending             []PendingRequestDTO
	Notifications       []social.Notification
	UnreadNotifications int
}

// GetFriendsHandler handles GetFriendsQuery.
type GetFriendsHandler struct {
	sess *session.Context
}

// NewGetFriendsHandler creates a new GetFriendsHandler.
func NewGetFriendsHandler(sess *session.Context) *GetFriendsHandler {
	return &GetFriendsHandler{sess: sess}
}

// Handle executes the query.
func (h *GetFriendsHandler) Handle(ctx context.Context, _ GetFriendsQuery) (*GetFriendsResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := h.sess.RequireUser(); err != nil {
		return nil, fmt.Errorf("get_friends: %w", err)
	}

	friendIDs := h.sess.Social.Friends()
	pending := h.sess.Social.PendingRequests()

	result := &GetFriendsResult{
		Friends:             make([]FriendDTO, 0, len(friendIDs)),
		Pending:             make([]PendingRequestDTO, 0, len(pending)),
		Notifications:       h.sess.Social.Notifications(),
		UnreadNotifications: h.sess.Social.UnreadNotificationCount(),
	}
	for _, id := range friendIDs {
		dto := FriendDTO{ID: id, Name: id}
		if u, err := h.sess.Users.GetByID(id); err == nil {
			dto.Name, dto.Avatar, dto.Known = u.Name, u.Avatar, true
		}
		result.Friends = append(result.Friends, dto)
	}
	for _, r := range pending {
		result.Pending = append(result.Pending, PendingRequestDTO{
			RequestID:     r.ID,
			RequesterID:   r.RequesterID,
			RequesterName: user.DisplayName(h.sess.Users, r.RequesterID),
			TargetID:      r.TargetID,
			Timestamp:     r.Timestamp,
		})
	}
	return result, nil
}
