package command

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tyler-paryz/oompa-social/config"
	"github.com/tyler-paryz/oompa-social/internal/application/session"
	"github.com/tyler-paryz/oompa-social/internal/domain/post"
	"github.com/tyler-paryz/oompa-social/internal/domain/shared"
	"github.com/tyler-paryz/oompa-social/internal/domain/social"
	"github.com/tyler-paryz/oompa-social/internal/domain/user"
	"github.com/tyler-paryz/oompa-social/internal/infrastructure/persistence/memory"
)

var testNow = time.Date(2023, 9, 15, 17, 0, 0, 0, time.UTC)

func testOptions() Options {
	opts := DefaultOptions()
	opts.Clock = shared.FixedClock(testNow)
	return opts
}

func newSession(t *testing.T, dedupe bool) *session.Context {
	t.Helper()
	storeOpts := memory.Options{Clock: shared.FixedClock(testNow)}
	sess, err := session.New(session.Config{
		Posts:         memory.NewPostStore(storeOpts),
		Conversations: memory.NewConversationStore(storeOpts),
		Social:        memory.NewSocialStore(memory.SocialStoreOptions{Options: storeOpts, DedupeRequests: dedupe}),
		Users: memory.NewUserDirectory(
			user.User{ID: "user1", Name: "Tooty Fruity", Email: "tooty@oompa.social"},
			user.User{ID: "user2", Name: "Choco Delight", Email: "choco@oompa.social"},
			user.User{ID: "user4", Name: "Ginger Snap", Email: "ginger@oompa.social"},
			user.User{ID: "user5", Name: "Caramel Swirl", Email: "caramel@oompa.social"},
		),
	})
	require.NoError(t, err)
	return sess
}

func loggedIn(t *testing.T, id string) *session.Context {
	t.Helper()
	sess := newSession(t, false)
	u, err := sess.Users.GetByID(id)
	require.NoError(t, err)
	require.NoError(t, sess.Login(u))
	return sess
}

func seedPost(sess *session.Context, id, author string) {
	sess.Posts.AddPost(post.Post{ID: id, AuthorID: author, Kind: post.KindText, Content: "hi", Likes: []string{}, Comments: []post.Comment{}})
}

func TestCommands_RequireLogin(t *testing.T) {
	sess := newSession(t, false)
	ctx := context.Background()
	opts := testOptions()

	_, err := NewCreatePostHandler(sess, opts).Handle(ctx, CreatePostCommand{Content: "x"})
	assert.True(t, shared.IsUnauthenticated(err))

	_, err = NewLikePostHandler(sess, opts).Handle(ctx, LikePostCommand{PostID: "p"})
	assert.True(t, shared.IsUnauthenticated(err))

	_, err = NewSendMessageHandler(sess).Handle(ctx, SendMessageCommand{RecipientID: "user2", Content: "x"})
	assert.True(t, shared.IsUnauthenticated(err))

	_, err = NewRespondFriendRequestHandler(sess).Handle(ctx, RespondFriendRequestCommand{RequestID: "r"})
	assert.True(t, shared.IsUnauthenticated(err))
}

func TestCreatePost(t *testing.T) {
	sess := loggedIn(t, "user1")
	h := NewCreatePostHandler(sess, testOptions())

	res, err := h.Handle(context.Background(), CreatePostCommand{Content: "Morning!"})
	require.NoError(t, err)
	assert.Equal(t, post.KindText, res.Post.Kind)
	assert.Equal(t, "user1", res.Post.AuthorID)
	assert.Equal(t, testNow, res.Post.CreatedAt)

	img, err := h.Handle(context.Background(), CreatePostCommand{Media: "cake.png"})
	require.NoError(t, err)
	assert.Equal(t, post.KindImage, img.Post.Kind)

	feed := sess.Posts.GetFeedPosts()
	require.Len(t, feed, 2)
	assert.Equal(t, img.Post.ID, feed[0].ID)

	_, err = h.Handle(context.Background(), CreatePostCommand{Content: "   "})
	assert.Error(t, err)
}

func TestLikePost_NotifiesSessionAuthor(t *testing.T) {
	sess := loggedIn(t, "user1")
	seedPost(sess, "post1", "user1")
	h := NewLikePostHandler(sess, testOptions())

	res, err := h.Handle(context.Background(), LikePostCommand{PostID: "post1", UserID: "user4"})
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.True(t, res.Notified)
	assert.Equal(t, []string{"user4"}, res.Post.Likes)

	notifs := sess.Social.Notifications()
	require.Len(t, notifs, 1)
	assert.Equal(t, social.NotificationLike, notifs[0].Kind)
	assert.Equal(t, "Ginger Snap liked your post", notifs[0].Content)
	assert.Equal(t, "post1", notifs[0].RelatedID)
	assert.False(t, notifs[0].Read)

	again, err := h.Handle(context.Background(), LikePostCommand{PostID: "post1", UserID: "user4"})
	require.NoError(t, err)
	assert.True(t, again.AlreadyLiked)
	assert.False(t, again.Notified)
	assert.Len(t, sess.Social.Notifications(), 1)
}

func TestLikePost_ConcurrentRepeatsNotifyOnce(t *testing.T) {
	sess := loggedIn(t, "user1")
	seedPost(sess, "post1", "user1")
	h := NewLikePostHandler(sess, testOptions())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.Handle(context.Background(), LikePostCommand{PostID: "post1", UserID: "user4"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, sess.Social.Notifications(), 1)
	got, ok := sess.Posts.GetPost("post1")
	require.True(t, ok)
	assert.Equal(t, []string{"user4"}, got.Likes)
}

func TestLikePost_SelfLikeAndOtherAuthorsAreQuiet(t *testing.T) {
	sess := loggedIn(t, "user1")
	seedPost(sess, "post1", "user1")
	seedPost(sess, "post2", "user2")
	h := NewLikePostHandler(sess, testOptions())

	res, err := h.Handle(context.Background(), LikePostCommand{PostID: "post1"})
	require.NoError(t, err)
	assert.False(t, res.Notified)

	res, err = h.Handle(context.Background(), LikePostCommand{PostID: "post2", UserID: "user4"})
	require.NoError(t, err)
	assert.False(t, res.Notified)
	assert.Empty(t, sess.Social.Notifications())
}

func TestLikePost_UnknownPost(t *testing.T) {
	sess := loggedIn(t, "user1")
	res, err := NewLikePostHandler(sess, testOptions()).Handle(context.Background(), LikePostCommand{PostID: "nope"})
	require.NoError(t, err)
	assert.False(t, res.Found)
}

func TestLikePost_FlagOff(t *testing.T) {
	sess := loggedIn(t, "user1")
	seedPost(sess, "post1", "user1")

	flags := config.Default().Features
	require.NoError(t, flags.Set(config.FeatureNotifyOnLike, false))
	opts := testOptions()
	opts.Notify = NotifyPolicyFrom(flags)

	res, err := NewLikePostHandler(sess, opts).Handle(context.Background(), LikePostCommand{PostID: "post1", UserID: "user4"})
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.False(t, res.Notified)
}

func TestCommentOnPost(t *testing.T) {
	sess := loggedIn(t, "user1")
	seedPost(sess, "post1", "user1")
	h := NewCommentOnPostHandler(sess, testOptions())

	res, err := h.Handle(context.Background(), CommentOnPostCommand{PostID: "post1", UserID: "user2", Content: "Yum"})
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.True(t, res.Notified)
	require.Len(t, res.Post.Comments, 1)
	assert.Equal(t, res.Comment.ID, res.Post.Comments[0].ID)
	assert.Equal(t, "Choco Delight commented on your post", sess.Social.Notifications()[0].Content)

	_, err = h.Handle(context.Background(), CommentOnPostCommand{PostID: "post1"})
	assert.Error(t, err)

	miss, err := h.Handle(context.Background(), CommentOnPostCommand{PostID: "nope", Content: "?"})
	require.NoError(t, err)
	assert.False(t, miss.Found)
}

func TestSharePost(t *testing.T) {
	sess := loggedIn(t, "user2")
	seedPost(sess, "post1", "user1")

	res, err := NewSharePostHandler(sess).Handle(context.Background(), SharePostCommand{PostID: "post1"})
	require.NoError(t, err)
	require.True(t, res.Found)
	assert.Equal(t, post.KindShare, res.Share.Kind)
	assert.Equal(t, "user2", res.Share.AuthorID)
	require.NotNil(t, res.Share.Original)
	assert.Equal(t, "post1", res.Share.Original.ID)

	miss, err := NewSharePostHandler(sess).Handle(context.Background(), SharePostCommand{PostID: "nope"})
	require.NoError(t, err)
	assert.False(t, miss.Found)
}

func TestMessaging(t *testing.T) {
	sess := loggedIn(t, "user1")
	ctx := context.Background()

	sent, err := NewSendMessageHandler(sess).Handle(ctx, SendMessageCommand{RecipientID: "user2", Content: "hey"})
	require.NoError(t, err)
	assert.Equal(t, "user1_user2", sent.Key.String())
	sess.Conversations.SendMessage("user2", "user1", "hello back")

	open := NewOpenConversationHandler(sess)
	res, err := open.Handle(ctx, OpenConversationCommand{OtherUserID: "user2"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.MarkedRead)
	require.Len(t, res.Messages, 2)
	assert.True(t, res.Messages[1].Read)
	assert.False(t, res.Messages[0].Read)

	res, err = open.Handle(ctx, OpenConversationCommand{OtherUserID: "user2"})
	require.NoError(t, err)
	assert.Zero(t, res.MarkedRead)

	_, err = NewSendMessageHandler(sess).Handle(ctx, SendMessageCommand{RecipientID: "user2"})
	assert.Error(t, err)
}

func TestFriendRequests(t *testing.T) {
	sess := loggedIn(t, "user1")
	ctx := context.Background()
	send := NewSendFriendRequestHandler(sess, testOptions())

	res, err := send.Handle(ctx, SendFriendRequestCommand{RequesterID: "user5", TargetID: "user1"})
	require.NoError(t, err)
	assert.True(t, res.Stored)
	assert.True(t, res.Notified)
	assert.Equal(t, "You have a new friend request from Caramel Swirl", sess.Social.Notifications()[0].Content)

	outgoing, err := send.Handle(ctx, SendFriendRequestCommand{TargetID: "user2"})
	require.NoError(t, err)
	assert.Equal(t, "user1", outgoing.Request.RequesterID)
	assert.False(t, outgoing.Notified)

	_, err = send.Handle(ctx, SendFriendRequestCommand{TargetID: "user1"})
	assert.Error(t, err)

	respond := NewRespondFriendRequestHandler(sess)
	accepted, err := respond.Handle(ctx, RespondFriendRequestCommand{RequestID: res.Request.ID, Accept: true})
	require.NoError(t, err)
	assert.True(t, accepted.Found)
	assert.Equal(t, social.RequestStatusAccepted, accepted.Request.Status)
	assert.True(t, sess.Social.IsFriend("user5"))

	again, err := respond.Handle(ctx, RespondFriendRequestCommand{RequestID: res.Request.ID, Accept: true})
	require.NoError(t, err)
	assert.False(t, again.Found)

	rejected, err := respond.Handle(ctx, RespondFriendRequestCommand{RequestID: outgoing.Request.ID})
	require.NoError(t, err)
	assert.Equal(t, social.RequestStatusRejected, rejected.Request.Status)
	assert.Empty(t, sess.Social.PendingRequests())
}

func TestSendFriendRequest_Dedupe(t *testing.T) {
	sess := newSession(t, true)
	u, err := sess.Users.GetByID("user1")
	require.NoError(t, err)
	require.NoError(t, sess.Login(u))

	send := NewSendFriendRequestHandler(sess, testOptions())
	first, err := send.Handle(context.Background(), SendFriendRequestCommand{RequesterID: "user5", TargetID: "user1"})
	require.NoError(t, err)
	second, err := send.Handle(context.Background(), SendFriendRequestCommand{RequesterID: "user5", TargetID: "user1"})
	require.NoError(t, err)

	assert.True(t, first.Stored)
	assert.False(t, second.Stored)
	assert.False(t, second.Notified)
	assert.Len(t, sess.Social.PendingRequests(), 1)
	assert.Len(t, sess.Social.Notifications(), 1)
}
