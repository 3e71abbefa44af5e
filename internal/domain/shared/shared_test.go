package shared

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainError_MatchesKind(t *testing.T) {
	wrapped := fmt.Errorf("get_profile: %w", ErrUserNotFound)

	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsUnauthenticated(wrapped))
	assert.True(t, IsUnauthenticated(ErrNotLoggedIn))
	assert.ErrorIs(t, ErrInvalidUserID, ErrInvalidID)
	assert.ErrorIs(t, ErrFriendRequestResolved, ErrStateTransition)
	assert.Equal(t, "user.Find: user not found", ErrUserNotFound.Error())

	var de *DomainError
	require.True(t, errors.As(wrapped, &de))
	assert.Equal(t, "user", de.Domain)
}

func TestTrackedEvent_PayloadIsACopy(t *testing.T) {
	ev := NewTrackedEvent(EventPostLiked, "post1", map[string]interface{}{"user_id": "user1"})

	p := ev.Payload()
	p["user_id"] = "someone else"

	assert.Equal(t, "user1", ev.Payload()["user_id"])
	assert.Equal(t, EventPostLiked, ev.EventType())
	assert.Equal(t, "post1", ev.AggregateID())
	assert.Equal(t, time.UTC, ev.OccurredAt().Location())

	assert.NotNil(t, NewTrackedEvent(EventSessionLogout, "", nil).Payload())
}

func TestPublishSafe_SwallowsFailures(t *testing.T) {
	ev := NewTrackedEvent(EventMessageSent, "user1_user2", nil)

	assert.NotPanics(t, func() {
		PublishSafe(PublisherFunc(func(Event) error { panic("sink down") }), ev, nil)
		PublishSafe(PublisherFunc(func(Event) error { return errors.New("refused") }), ev, nil)
		PublishSafe(nil, ev, nil)
		PublishSafe(NopPublisher{}, nil, nil)
	})

	var got []EventType
	PublishSafe(PublisherFunc(func(e Event) error {
		got = append(got, e.EventType())
		return nil
	}), ev, nil)
	assert.Equal(t, []EventType{EventMessageSent}, got)
}

func TestIDGenerators(t *testing.T) {
	id := PrefixedIDGenerator{Prefix: "share_"}.NewID()
	assert.True(t, strings.HasPrefix(id, "share_"))
	assert.NotEqual(t, UUIDGenerator{}.NewID(), UUIDGenerator{}.NewID())
}

func TestSetHelpers(t *testing.T) {
	ids, added := AppendUnique([]string{"user1"}, "user2")
	assert.True(t, added)
	ids, added = AppendUnique(ids, "user1")
	assert.False(t, added)
	assert.Equal(t, []string{"user1", "user2"}, ids)
	assert.True(t, ContainsString(ids, "user2"))

	lo, hi := SortedPair("user9", "user1")
	assert.Equal(t, "user1", lo)
	assert.Equal(t, "user9", hi)

	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, fixed, FixedClock(fixed).Now())
	var nilClock Clock
	assert.False(t, nilClock.Now().IsZero())
}
