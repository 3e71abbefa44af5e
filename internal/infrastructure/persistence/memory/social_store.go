package memory

import (
	"log/slog"
	"sync"

	"github.com/tyler-paryz/oompa-social/internal/domain/shared"
	"github.com/tyler-paryz/oompa-social/internal/domain/social"
)

// SocialStoreOptions configures a SocialStore.
type SocialStoreOptions struct {
	Options

	// DedupeRequests drops a pending request when another pending request
	// already exists for the same requester and target.
	DedupeRequests bool
}

// SocialStore holds the session user's friends, pending requests and
// notifications.
type SocialStore struct {
	mu            sync.RWMutex
	friends       []string
	pending       []social.FriendRequest
	notifications []social.Notification

	dedupe    bool
	publisher shared.EventPublisher
	logger    *slog.Logger
}

// Compile-time check.
var _ social.Store = (*SocialStore)(nil)

// NewSocialStore creates an empty SocialStore.
func NewSocialStore(opts SocialStoreOptions) *SocialStore {
	base := opts.Options.withDefaults(nil)
	return &SocialStore{
		friends:       []string{},
		pending:       []social.FriendRequest{},
		notifications: []social.Notification{},
		dedupe:        opts.DedupeRequests,
		publisher:     base.Publisher,
		logger:        base.Logger.With("component", "social_store"),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Friends
// ─────────────────────────────────────────────────────────────────────────────

// AddFriend implements social.Store.
func (s *SocialStore) AddFriend(friendID string) bool {
	s.mu.Lock()
	added := s.addFriendLocked(friendID)
	s.mu.Unlock()

	if added {
		shared.PublishSafe(s.publisher, shared.NewTrackedEvent(shared.EventFriendAdded, friendID, map[string]interface{}{
			"friend_id": friendID,
		}), s.logger)
	}
	return added
}

func (s *SocialStore) addFriendLocked(friendID string) bool {
	var added bool
	s.friends, added = shared.AppendUnique(s.friends, friendID)
	return added
}

// Friends implements social.Store.
func (s *SocialStore) Friends() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string{}, s.friends...)
}

// IsFriend implements social.Store.
func (s *SocialStore) IsFriend(friendID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return shared.ContainsString(s.friends, friendID)
}

// ─────────────────────────────────────────────────────────────────────────────
// Friend requests
// ─────────────────────────────────────────────────────────────────────────────

// AddFriendRequest implements social.Store.
func (s *SocialStore) AddFriendRequest(req social.FriendRequest) bool {
	req.Status = social.RequestStatusPending

	s.mu.Lock()
	if s.dedupe {
		for _, existing := range s.pending {
			if existing.SamePair(req) {
				s.mu.Unlock()
				s.logger.Debug("duplicate friend request dropped",
					"request_id", req.ID,
					"existing_id", existing.ID,
				)
				return false
			}
		}
	}
	s.pending = append(s.pending, req)
	s.mu.Unlock()

	shared.PublishSafe(s.publisher, shared.NewTrackedEvent(shared.EventFriendRequestCreated, req.ID, map[string]interface{}{
		"request_id":   req.ID,
		"requester_id": req.RequesterID,
		"target_id":    req.TargetID,
	}), s.logger)
	return true
}

// AcceptFriendRequest implements social.Store.
func (s *SocialStore) AcceptFriendRequest(requestID string) (social.FriendRequest, bool) {
	s.mu.Lock()
	req, ok := s.takePendingLocked(requestID)
	if !ok {
		s.mu.Unlock()
		return social.FriendRequest{}, false
	}
	// takePendingLocked only yields pending requests, so Accept cannot fail.
	_ = req.Accept()
	s.addFriendLocked(req.RequesterID)
	s.mu.Unlock()

	shared.PublishSafe(s.publisher, shared.NewTrackedEvent(shared.EventFriendRequestAccepted, req.ID, map[string]interface{}{
		"request_id": req.ID,
		"friend_id":  req.RequesterID,
	}), s.logger)
	return req, true
}

// RejectFriendRequest implements social.Store.
func (s *SocialStore) RejectFriendRequest(requestID string) (social.FriendRequest, bool) {
	s.mu.Lock()
	req, ok := s.takePendingLocked(requestID)
	if !ok {
		s.mu.Unlock()
		return social.FriendRequest{}, false
	}
	_ = req.Reject()
	s.mu.Unlock()

	shared.PublishSafe(s.publisher, shared.NewTrackedEvent(shared.EventFriendRequestRejected, req.ID, map[string]interface{}{
		"request_id":   req.ID,
		"requester_id": req.RequesterID,
	}), s.logger)
	return req, true
}

// takePendingLocked removes and returns the pending request with the id.
// A request leaves the pending set exactly once.
func (s *SocialStore) takePendingLocked(requestID string) (social.FriendRequest, bool) {
	for i, req := range s.pending {
		if req.ID == requestID {
			s.pending = append(s.pending[:i:i], s.pending[i+1:]...)
			return req, true
		}
	}
	return social.FriendRequest{}, false
}

// PendingRequests implements social.Store.
func (s *SocialStore) PendingRequests() []social.FriendRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]social.FriendRequest{}, s.pending...)
}

// ─────────────────────────────────────────────────────────────────────────────
// Notifications
// ─────────────────────────────────────────────────────────────────────────────

// AddNotification implements social.Store.
func (s *SocialStore) AddNotification(n social.Notification) {
	s.mu.Lock()
	s.notifications = append(s.notifications, n)
	s.mu.Unlock()

	shared.PublishSafe(s.publisher, shared.NewTrackedEvent(shared.EventNotificationAdded, n.ID, map[string]interface{}{
		"notification_id": n.ID,
		"type":            string(n.Kind),
		"related_id":      n.RelatedID,
	}), s.logger)
}

// ClearNotification implements social.Store.
func (s *SocialStore) ClearNotification(notificationID string) bool {
	s.mu.Lock()
	removed := false
	for i, n := range s.notifications {
		if n.ID == notificationID {
			s.notifications = append(s.notifications[:i:i], s.notifications[i+1:]...)
			removed = true
			break
		}
	}
	s.mu.Unlock()

	if removed {
		shared.PublishSafe(s.publisher, shared.NewTrackedEvent(shared.EventNotificationCleared, notificationID, map[string]interface{}{
			"notification_id": notificationID,
		}), s.logger)
	}
	return removed
}

// MarkNotificationRead implements social.Store.
func (s *SocialStore) MarkNotificationRead(notificationID string) bool {
	s.mu.Lock()
	changed := false
	for i := range s.notifications {
		if s.notifications[i].ID == notificationID && !s.notifications[i].Read {
			s.notifications[i].Read = true
			changed = true
			break
		}
	}
	s.mu.Unlock()

	if changed {
		shared.PublishSafe(s.publisher, shared.NewTrackedEvent(shared.EventNotificationMarkedRead, notificationID, map[string]interface{}{
			"notification_id": notificationID,
		}), s.logger)
	}
	return changed
}

// Notifications implements social.Store.
func (s *SocialStore) Notifications() []social.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]social.Notification{}, s.notifications...)
}

// UnreadNotificationCount implements social.Store.
func (s *SocialStore) UnreadNotificationCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, n := range s.notifications {
		if !n.Read {
			count++
		}
	}
	return count
}

// ─────────────────────────────────────────────────────────────────────────────
// Session
// ─────────────────────────────────────────────────────────────────────────────

// Import implements social.Store.
func (s *SocialStore) Import(friends []string, requests []social.FriendRequest, notifications []social.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range friends {
		s.addFriendLocked(id)
	}
	for _, req := range requests {
		if req.IsPending() {
			req.Status = social.RequestStatusPending
			s.pending = append(s.pending, req)
		}
	}
	s.notifications = append(s.notifications, notifications...)
}

// Reset implements social.Store.
func (s *SocialStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.friends = []string{}
	s.pending = []social.FriendRequest{}
	s.notifications = []social.Notification{}
}
