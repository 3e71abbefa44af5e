package memory

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tyler-paryz/oompa-social/internal/domain/post"
	"github.com/tyler-paryz/oompa-social/internal/domain/shared"
	"github.com/tyler-paryz/oompa-social/internal/infrastructure/messaging"
)

// recordingPublisher collects events synchronously.
type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (r *recordingPublisher) Publish(e shared.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordingPublisher) types() []shared.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]shared.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.EventType())
	}
	return out
}

var baseTime = time.Date(2023, 9, 15, 14, 20, 0, 0, time.UTC)

func samplePost(id, author string, likes ...string) post.Post {
	if likes == nil {
		likes = []string{}
	}
	return post.Post{
		ID:        id,
		AuthorID:  author,
		Kind:      post.KindText,
		Content:   "content of " + id,
		Likes:     likes,
		Comments:  []post.Comment{},
		CreatedAt: baseTime,
	}
}

func postIDs(posts []post.Post) []string {
	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestPostStore_AddPostIndexesFeedAndAuthor(t *testing.T) {
	store := NewPostStore(Options{})

	store.AddPost(samplePost("p1", "alice"))
	store.AddPost(samplePost("p2", "bob"))
	store.AddPost(samplePost("p3", "alice"))

	assert.Equal(t, []string{"p3", "p2", "p1"}, postIDs(store.GetFeedPosts()))
	assert.Equal(t, []string{"p3", "p1"}, postIDs(store.GetPostsByUser("alice")))
	assert.Equal(t, []string{"p2"}, postIDs(store.GetPostsByUser("bob")))
	assert.Empty(t, store.GetPostsByUser("nobody"))
	assert.NotNil(t, store.GetPostsByUser("nobody"))
}

func TestPostStore_LikeVisibleThroughBothIndexes(t *testing.T) {
	store := NewPostStore(Options{})
	store.AddPost(samplePost("p1", "alice", "bob"))

	updated, ok, added := store.LikePost("p1", "carol")
	require.True(t, ok)
	assert.True(t, added)
	assert.Equal(t, []string{"bob", "carol"}, updated.Likes)

	feed := store.GetFeedPosts()
	byUser := store.GetPostsByUser("alice")
	require.Len(t, feed, 1)
	require.Len(t, byUser, 1)
	assert.Equal(t, []string{"bob", "carol"}, feed[0].Likes)
	if diff := cmp.Diff(feed[0], byUser[0]); diff != "" {
		t.Errorf("feed and author index disagree (-feed +byUser):\n%s", diff)
	}
}

func TestPostStore_LikeIsASet(t *testing.T) {
	pub := &recordingPublisher{}
	store := NewPostStore(Options{Publisher: pub})
	store.AddPost(samplePost("p1", "alice"))

	_, _, first := store.LikePost("p1", "bob")
	_, _, second := store.LikePost("p1", "bob")
	assert.True(t, first)
	assert.False(t, second)

	got, ok := store.GetPost("p1")
	require.True(t, ok)
	assert.Equal(t, []string{"bob"}, got.Likes)
	assert.Equal(t, []shared.EventType{shared.EventPostCreated, shared.EventPostLiked}, pub.types())
}

func TestPostStore_UnknownPostIsNoop(t *testing.T) {
	pub := &recordingPublisher{}
	store := NewPostStore(Options{Publisher: pub})
	store.AddPost(samplePost("p1", "alice"))
	before := store.GetFeedPosts()

	_, liked, _ := store.LikePost("missing", "bob")
	_, commented := store.CommentOnPost("missing", post.Comment{ID: "c1"})
	_, didShare := store.SharePost("missing", "bob")

	assert.False(t, liked)
	assert.False(t, commented)
	assert.False(t, didShare)
	assert.Equal(t, before, store.GetFeedPosts())
	assert.Len(t, pub.types(), 1)
}

func TestPostStore_CommentsKeepInsertionOrder(t *testing.T) {
	store := NewPostStore(Options{})
	store.AddPost(samplePost("p1", "alice"))

	store.CommentOnPost("p1", post.Comment{ID: "c1", AuthorID: "bob", Content: "first"})
	store.CommentOnPost("p1", post.Comment{ID: "c2", AuthorID: "carol", Content: "second"})

	got := store.GetPostsByUser("alice")[0]
	require.Len(t, got.Comments, 2)
	assert.Equal(t, "c1", got.Comments[0].ID)
	assert.Equal(t, "c2", got.Comments[1].ID)
}

func TestPostStore_ShareSnapshotsOriginal(t *testing.T) {
	clock := shared.FixedClock(baseTime.Add(time.Hour))
	store := NewPostStore(Options{Clock: clock, IDs: shared.PrefixedIDGenerator{Prefix: "share_"}})
	store.AddPost(samplePost("p1", "alice", "bob"))

	share, ok := store.SharePost("p1", "carol")
	require.True(t, ok)
	assert.Equal(t, post.KindShare, share.Kind)
	assert.Equal(t, "carol", share.AuthorID)
	assert.Contains(t, share.ID, "share_")
	assert.Equal(t, baseTime.Add(time.Hour), share.CreatedAt)
	require.NotNil(t, share.Original)
	assert.Equal(t, "p1", share.Original.ID)

	// Later activity on the original does not leak into the snapshot,
	// and the share does not count as a like or comment on the source.
	store.LikePost("p1", "dave")
	original, _ := store.GetPost("p1")
	assert.Equal(t, []string{"bob", "dave"}, original.Likes)
	assert.Empty(t, original.Comments)

	stored, ok := store.GetPost(share.ID)
	require.True(t, ok)
	assert.Equal(t, []string{"bob"}, stored.Original.Likes)

	assert.Equal(t, []string{share.ID, "p1"}, postIDs(store.GetFeedPosts()))
	assert.Equal(t, []string{share.ID}, postIDs(store.GetPostsByUser("carol")))
}

func TestPostStore_ReadsAreCopies(t *testing.T) {
	store := NewPostStore(Options{})
	store.AddPost(samplePost("p1", "alice"))

	feed := store.GetFeedPosts()
	feed[0].Likes = append(feed[0].Likes, "intruder")
	feed[0].Content = "edited"

	got, _ := store.GetPost("p1")
	assert.Empty(t, got.Likes)
	assert.Equal(t, "content of p1", got.Content)
}

func TestPostStore_FailingPublisherDoesNotRollBack(t *testing.T) {
	pub := shared.PublisherFunc(func(shared.Event) error { panic("analytics down") })
	store := NewPostStore(Options{Publisher: pub})

	assert.NotPanics(t, func() {
		store.AddPost(samplePost("p1", "alice"))
		store.LikePost("p1", "bob")
	})

	got, ok := store.GetPost("p1")
	require.True(t, ok)
	assert.Equal(t, []string{"bob"}, got.Likes)
}

func TestPostStore_ConcurrentLikes(t *testing.T) {
	store := NewPostStore(Options{})
	store.AddPost(samplePost("p1", "alice"))

	var wg sync.WaitGroup
	var added atomic.Int64
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, ok := store.LikePost("p1", "bob"); ok {
				added.Add(1)
			}
		}()
	}
	wg.Wait()

	got, _ := store.GetPost("p1")
	assert.Equal(t, []string{"bob"}, got.Likes)
	assert.EqualValues(t, 1, added.Load(), "exactly one call adds the like")
}

func TestPostStore_AddPostIgnoresDuplicateID(t *testing.T) {
	pub := &recordingPublisher{}
	store := NewPostStore(Options{Publisher: pub})
	store.AddPost(samplePost("p1", "alice"))
	store.AddPost(samplePost("p1", "mallory"))

	assert.Equal(t, []string{"p1"}, postIDs(store.GetFeedPosts()))
	assert.Empty(t, store.GetPostsByUser("mallory"))

	liked, ok, _ := store.LikePost("p1", "bob")
	require.True(t, ok)
	assert.Equal(t, "alice", liked.AuthorID)
	assert.Equal(t, []string{"bob"}, store.GetFeedPosts()[0].Likes)
	assert.Equal(t, []shared.EventType{shared.EventPostCreated, shared.EventPostLiked}, pub.types())
}

func TestPostStore_SlowAnalyticsDoesNotDelayWrites(t *testing.T) {
	defer goleak.VerifyNone(t)

	inner := messaging.NewInMemoryEventBus(messaging.InMemoryEventBusConfig{})
	var delivered atomic.Int64
	require.NoError(t, inner.SubscribeAll(func(shared.Event) error {
		time.Sleep(100 * time.Millisecond)
		delivered.Add(1)
		return nil
	}))
	bus := messaging.NewBufferedEventBus(messaging.BufferedEventBusConfig{
		Inner:         inner,
		BufferSize:    4,
		FlushInterval: time.Hour,
	})
	store := NewPostStore(Options{Publisher: bus})

	for _, id := range []string{"p1", "p2", "p3", "p4"} {
		start := time.Now()
		store.AddPost(samplePost(id, "alice"))
		assert.Less(t, time.Since(start), 50*time.Millisecond, "AddPost %s waited on analytics", id)
	}

	require.NoError(t, bus.Close())
	require.NoError(t, inner.Close())
	assert.EqualValues(t, 4, delivered.Load())
}

func TestPostStore_ImportIsQuietAndSkipsDuplicates(t *testing.T) {
	pub := &recordingPublisher{}
	store := NewPostStore(Options{Publisher: pub})

	store.Import(samplePost("post2", "user3"), samplePost("post1", "user2"))
	store.Import(post.Post{ID: "post1", AuthorID: "user9"})

	assert.Equal(t, []string{"post1", "post2"}, postIDs(store.GetFeedPosts()))
	assert.Empty(t, pub.types())

	p, ok := store.GetPost("post1")
	require.True(t, ok)
	assert.Equal(t, "user2", p.AuthorID)
}
