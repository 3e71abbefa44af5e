package query

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tyler-paryz/oompa-social/internal/application/session"
	"github.com/tyler-paryz/oompa-social/internal/domain/conversation"
	"github.com/tyler-paryz/oompa-social/internal/domain/post"
	"github.com/tyler-paryz/oompa-social/internal/domain/shared"
	"github.com/tyler-paryz/oompa-social/internal/domain/social"
	"github.com/tyler-paryz/oompa-social/internal/domain/user"
	"github.com/tyler-paryz/oompa-social/internal/infrastructure/persistence/memory"
)

var t0 = time.Date(2023, 9, 15, 10, 0, 0, 0, time.UTC)

func newSession(t *testing.T) *session.Context {
	t.Helper()
	opts := memory.Options{Clock: shared.FixedClock(t0)}
	sess, err := session.New(session.Config{
		Posts:         memory.NewPostStore(opts),
		Conversations: memory.NewConversationStore(opts),
		Social:        memory.NewSocialStore(memory.SocialStoreOptions{Options: opts}),
		Users: memory.NewUserDirectory(
			user.User{ID: "user1", Name: "Tooty Fruity"},
			user.User{ID: "user2", Name: "Choco Delight", Avatar: "choco.png"},
			user.User{ID: "user5", Name: "Caramel Swirl"},
		),
	})
	require.NoError(t, err)
	u, err := sess.Users.GetByID("user1")
	require.NoError(t, err)
	require.NoError(t, sess.Login(u))
	return sess
}

func TestGetFeed(t *testing.T) {
	sess := newSession(t)
	sess.Posts.AddPost(post.Post{
		ID: "post1", AuthorID: "user2", Kind: post.KindText, Content: "Chocolate rivers",
		Likes: []string{"user1"}, CreatedAt: t0,
		Comments: []post.Comment{{ID: "c1", AuthorID: "user5", Content: "Yum", Timestamp: t0}},
	})
	sess.Posts.SharePost("post1", "user1")

	res, err := NewGetFeedHandler(sess).Handle(context.Background(), GetFeedQuery{})
	require.NoError(t, err)
	require.Len(t, res.Entries, 2)
	assert.Equal(t, 2, res.Total)

	share := res.Entries[0]
	assert.Equal(t, post.KindShare, share.Kind)
	assert.Equal(t, "Tooty Fruity", share.AuthorName)
	require.NotNil(t, share.Original)

	want := FeedEntryDTO{
		PostID:       "post1",
		AuthorID:     "user2",
		AuthorName:   "Choco Delight",
		Kind:         post.KindText,
		Content:      "Chocolate rivers",
		CreatedAt:    t0,
		LikeCount:    1,
		CommentCount: 1,
		LikedByMe:    true,
		Comments: []CommentDTO{
			{ID: "c1", AuthorID: "user5", AuthorName: "Caramel Swirl", Content: "Yum", Timestamp: t0},
		},
	}
	if diff := cmp.Diff(want, res.Entries[1]); diff != "" {
		t.Errorf("feed entry mismatch (-want +got):\n%s", diff)
	}

	limited, err := NewGetFeedHandler(sess).Handle(context.Background(), GetFeedQuery{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited.Entries, 1)
	assert.Equal(t, 2, limited.Total)

	_, err = NewGetFeedHandler(sess).Handle(context.Background(), GetFeedQuery{Limit: -1})
	assert.Error(t, err)
}

func TestGetFeed_RequiresLogin(t *testing.T) {
	sess := newSession(t)
	sess.Logout()
	_, err := NewGetFeedHandler(sess).Handle(context.Background(), GetFeedQuery{})
	assert.True(t, shared.IsUnauthenticated(err))
}

func TestGetProfile(t *testing.T) {
	sess := newSession(t)
	sess.Posts.AddPost(post.Post{ID: "post1", AuthorID: "user1", Kind: post.KindText, Likes: []string{}, Comments: []post.Comment{}})
	sess.Posts.AddPost(post.Post{ID: "post2", AuthorID: "user2", Kind: post.KindText, Likes: []string{}, Comments: []post.Comment{}})
	sess.Social.AddFriend("user2")

	h := NewGetProfileHandler(sess)
	self, err := h.Handle(context.Background(), GetProfileQuery{})
	require.NoError(t, err)
	assert.True(t, self.IsSelf)
	assert.Equal(t, 1, self.FriendCount)
	require.Len(t, self.Posts, 1)
	assert.Equal(t, "post1", self.Posts[0].PostID)

	other, err := h.Handle(context.Background(), GetProfileQuery{UserID: "user2"})
	require.NoError(t, err)
	assert.False(t, other.IsSelf)
	assert.True(t, other.IsFriend)

	_, err = h.Handle(context.Background(), GetProfileQuery{UserID: "ghost"})
	assert.True(t, shared.IsNotFound(err))
}

func TestListConversations(t *testing.T) {
	sess := newSession(t)
	sess.Conversations.Import(
		conversation.Message{ID: "m1", SenderID: "user2", RecipientID: "user1", Content: "Is the chocolate river open today?", Timestamp: t0},
		conversation.Message{ID: "m2", SenderID: "user5", RecipientID: "user1", Content: "Caramel is ready and it is extremely sticky this time", Timestamp: t0.Add(time.Hour)},
		conversation.Message{ID: "m3", SenderID: "user1", RecipientID: "user2", Content: "Yes", Timestamp: t0.Add(2 * time.Hour), Read: true},
	)

	res, err := NewListConversationsHandler(sess).Handle(context.Background(), ListConversationsQuery{})
	require.NoError(t, err)
	require.Len(t, res.Conversations, 2)

	first := res.Conversations[0]
	assert.Equal(t, "user2", first.OtherUserID)
	assert.Equal(t, "Choco Delight", first.OtherUserName)
	assert.True(t, first.LastFromMe)
	assert.Equal(t, 1, first.UnreadCount)

	second := res.Conversations[1]
	assert.Equal(t, "Caramel Swirl", second.OtherUserName)
	assert.Equal(t, previewLength, len([]rune(second.Preview)))
	assert.Equal(t, 2, res.TotalUnread)
}

func TestGetFriends(t *testing.T) {
	sess := newSession(t)
	sess.Social.AddFriend("user2")
	sess.Social.AddFriend("ghost")
	sess.Social.AddFriendRequest(social.FriendRequest{ID: "req1", RequesterID: "user5", TargetID: "user1", Timestamp: t0})
	sess.Social.AddNotification(social.Notification{ID: "n1", UserID: "user1", Kind: social.NotificationLike})

	res, err := NewGetFriendsHandler(sess).Handle(context.Background(), GetFriendsQuery{})
	require.NoError(t, err)

	assert.Equal(t, []FriendDTO{
		{ID: "user2", Name: "Choco Delight", Avatar: "choco.png", Known: true},
		{ID: "ghost", Name: "ghost"},
	}, res.Friends)
	require.Len(t, res.Pending, 1)
	assert.Equal(t, "Caramel Swirl", res.Pending[0].RequesterName)
	assert.Equal(t, 1, res.UnreadNotifications)
	assert.Len(t, res.Notifications, 1)
}
