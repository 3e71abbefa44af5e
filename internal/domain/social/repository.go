package social

// Store owns the friend list, pending friend requests and notifications of
// the current session's user.
//
// Unknown request or notification ids are silent no-ops.
type Store interface {
	// ─────────────────────────────────────────────────────────────────────────
	// Friends
	// ─────────────────────────────────────────────────────────────────────────

	// AddFriend adds friendID to the friend list. Returns false if present.
	AddFriend(friendID string) bool

	// Friends returns friend ids in the order they were added.
	Friends() []string

	// IsFriend reports whether friendID is on the friend list.
	IsFriend(friendID string) bool

	// ─────────────────────────────────────────────────────────────────────────
	// Friend requests
	// ─────────────────────────────────────────────────────────────────────────

	// AddFriendRequest appends req to the pending set. Returns false when the
	// request was dropped as a duplicate.
	AddFriendRequest(req FriendRequest) bool

	// AcceptFriendRequest removes the pending request and befriends its
	// requester. Returns the resolved request and whether it was pending.
	AcceptFriendRequest(requestID string) (FriendRequest, bool)

	// RejectFriendRequest removes the pending request without other effect.
	RejectFriendRequest(requestID string) (FriendRequest, bool)

	// PendingRequests returns pending requests in arrival order.
	PendingRequests() []FriendRequest

	// ─────────────────────────────────────────────────────────────────────────
	// Notifications
	// ─────────────────────────────────────────────────────────────────────────

	// AddNotification appends n to the feed.
	AddNotification(n Notification)

	// ClearNotification removes the notification. Returns false if absent.
	ClearNotification(notificationID string) bool

	// MarkNotificationRead flips the read flag. Returns false if absent or
	// already read.
	MarkNotificationRead(notificationID string) bool

	// Notifications returns the feed in arrival order.
	Notifications() []Notification

	// UnreadNotificationCount returns the number of unread notifications.
	UnreadNotificationCount() int

	// ─────────────────────────────────────────────────────────────────────────
	// Session
	// ─────────────────────────────────────────────────────────────────────────

	// Import loads existing state without emitting events. Resolved
	// requests are skipped. Used for bootstrap data.
	Import(friends []string, requests []FriendRequest, notifications []Notification)

	// Reset empties friends, requests and notifications.
	Reset()
}
