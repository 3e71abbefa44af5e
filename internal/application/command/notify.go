// Package command contains write operations (CQRS - Commands).
package command

import (
	"fmt"
	"log/slog"

	"github.com/tyler-paryz/oompa-social/config"
	"github.com/tyler-paryz/oompa-social/internal/application/session"
	"github.com/tyler-paryz/oompa-social/internal/domain/shared"
	"github.com/tyler-paryz/oompa-social/internal/domain/social"
	"github.com/tyler-paryz/oompa-social/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER OPTIONS
// ══════════════════════════════════════════════════════════════════════════════

// NotifyPolicy says which actions produce a notification for the session user.
type NotifyPolicy struct {
	OnLike          bool
	OnComment       bool
	OnFriendRequest bool
}

// DefaultNotifyPolicy enables every notification.
func DefaultNotifyPolicy() NotifyPolicy {
	return NotifyPolicy{OnLike: true, OnComment: true, OnFriendRequest: true}
}

// NotifyPolicyFrom reads the policy from feature flags.
func NotifyPolicyFrom(flags config.FeatureFlags) NotifyPolicy {
	return NotifyPolicy{
		OnLike:          flags.NotifyOnLike,
		OnComment:       flags.NotifyOnComment,
		OnFriendRequest: flags.NotifyOnFriendRequest,
	}
}

// Options configures command handlers.
type Options struct {
	Notify NotifyPolicy

	// Clock stamps new records (default: shared.SystemClock).
	Clock shared.Clock

	// IDs generates record ids (default: prefixed UUIDs per record type).
	IDs shared.IDGenerator

	// Logger for structured logging
	Logger *slog.Logger
}

// DefaultOptions returns options with every notification enabled.
func DefaultOptions() Options {
	return Options{Notify: DefaultNotifyPolicy()}
}

func (o Options) withDefaults() Options {
	if o.Clock == nil {
		o.Clock = shared.SystemClock
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

func (o Options) idsOr(prefix string) shared.IDGenerator {
	if o.IDs != nil {
		return o.IDs
	}
	return shared.PrefixedIDGenerator{Prefix: prefix}
}

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFIER
// ══════════════════════════════════════════════════════════════════════════════

// notifier drops a notification into the social store when the action
// concerns the session user and was done by somebody else.
type notifier struct {
	sess   *session.Context
	clock  shared.Clock
	ids    shared.IDGenerator
	logger *slog.Logger
}

func newNotifier(sess *session.Context, opts Options) notifier {
	return notifier{
		sess:   sess,
		clock:  opts.Clock,
		ids:    opts.idsOr("notif_"),
		logger: opts.Logger,
	}
}

func (n notifier) notify(recipientID, actorID string, kind social.NotificationKind, relatedID, content string) bool {
	if recipientID == "" || recipientID == actorID || recipientID != n.sess.CurrentUserID() {
		return false
	}

	notif, err := social.NewNotification(n.ids, n.clock, social.NewNotificationParams{
		UserID:    recipientID,
		Kind:      kind,
		Content:   content,
		RelatedID: relatedID,
	})
	if err != nil {
		n.logger.Warn("notification skipped", "kind", kind, "error", err)
		return false
	}
	n.sess.Social.AddNotification(notif)
	return true
}

func (n notifier) name(id string) string {
	return user.DisplayName(n.sess.Users, id)
}

func likeText(actor string) string { return fmt.Sprintf("%s liked your post", actor) }
func commentText(actor string) string { return fmt.Sprintf("%s commented on your post", actor) }
func friendRequestText(actor string) string { return fmt.Sprintf("You have a new friend request from %s", actor) }
