// Package social contains the friend graph of the session user: friends,
// pending friend requests and notifications.
package social

import (
	"time"

	"github.com/tyler-paryz/oompa-social/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// FRIEND REQUESTS
// ══════════════════════════════════════════════════════════════════════════════

// RequestStatus is the lifecycle state of a FriendRequest.
type RequestStatus string

const (
	// RequestStatusPending - created, waiting for the target's answer.
	RequestStatusPending RequestStatus = "pending"

	// RequestStatusAccepted - the requester became a friend. Terminal.
	RequestStatusAccepted RequestStatus = "accepted"

	// RequestStatusRejected - dismissed without effect. Terminal.
	RequestStatusRejected RequestStatus = "rejected"
)

// IsValid checks that the status is known.
func (s RequestStatus) IsValid() bool {
	switch s {
	case RequestStatusPending, RequestStatusAccepted, RequestStatusRejected:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is possible.
func (s RequestStatus) IsTerminal() bool {
	return s == RequestStatusAccepted || s == RequestStatusRejected
}

// FriendRequest asks TargetID to add RequesterID as a friend.
type FriendRequest struct {
	ID          string        `json:"id" yaml:"id"`
	RequesterID string        `json:"from" yaml:"from"`
	TargetID    string        `json:"to" yaml:"to"`
	Timestamp   time.Time     `json:"timestamp" yaml:"timestamp"`
	Status      RequestStatus `json:"status" yaml:"status,omitempty"`
}

// IsPending reports whether the request still awaits an answer.
// A zero status counts as pending so bootstrap data may omit it.
func (r FriendRequest) IsPending() bool {
	return r.Status == "" || r.Status == RequestStatusPending
}

// SamePair reports whether both requests go from the same requester to the
// same target.
func (r FriendRequest) SamePair(other FriendRequest) bool {
	return r.RequesterID == other.RequesterID && r.TargetID == other.TargetID
}

// Accept moves a pending request to accepted.
func (r *FriendRequest) Accept() error {
	if !r.IsPending() {
		return shared.ErrFriendRequestResolved
	}
	r.Status = RequestStatusAccepted
	return nil
}

// Reject moves a pending request to rejected.
func (r *FriendRequest) Reject() error {
	if !r.IsPending() {
		return shared.ErrFriendRequestResolved
	}
	r.Status = RequestStatusRejected
	return nil
}

// NewFriendRequest creates a pending request from requesterID to targetID.
func NewFriendRequest(ids shared.IDGenerator, clock shared.Clock, requesterID, targetID string) FriendRequest {
	if ids == nil {
		ids = shared.PrefixedIDGenerator{Prefix: "req_"}
	}
	return FriendRequest{
		ID:          ids.NewID(),
		RequesterID: requesterID,
		TargetID:    targetID,
		Timestamp:   clock.Now(),
		Status:      RequestStatusPending,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATIONS
// ══════════════════════════════════════════════════════════════════════════════

// NotificationKind says what a notification is about.
type NotificationKind string

const (
	NotificationLike          NotificationKind = "like"
	NotificationComment       NotificationKind = "comment"
	NotificationFriendRequest NotificationKind = "friend_request"
)

// IsValid checks that the kind is known.
func (k NotificationKind) IsValid() bool {
	switch k {
	case NotificationLike, NotificationComment, NotificationFriendRequest:
		return true
	default:
		return false
	}
}

// Notification is an entry in the session user's notification feed.
type Notification struct {
	ID        string           `json:"id" yaml:"id"`
	UserID    string           `json:"user_id" yaml:"userId"`
	Kind      NotificationKind `json:"type" yaml:"type"`
	Content   string           `json:"content" yaml:"content"`
	RelatedID string           `json:"related_id" yaml:"relatedId"`
	Timestamp time.Time        `json:"timestamp" yaml:"timestamp"`
	Read      bool             `json:"read" yaml:"read"`
}

// NewNotificationParams holds the fields accepted when creating a notification.
type NewNotificationParams struct {
	UserID    string
	Kind      NotificationKind
	Content   string
	RelatedID string
}

// NewNotification creates an unread notification.
func NewNotification(ids shared.IDGenerator, clock shared.Clock, params NewNotificationParams) (Notification, error) {
	if !params.Kind.IsValid() {
		return Notification{}, shared.ErrInvalidNotification
	}
	if ids == nil {
		ids = shared.PrefixedIDGenerator{Prefix: "notif_"}
	}
	return Notification{
		ID:        ids.NewID(),
		UserID:    params.UserID,
		Kind:      params.Kind,
		Content:   params.Content,
		RelatedID: params.RelatedID,
		Timestamp: clock.Now(),
		Read:      false,
	}, nil
}
