// Package fixtures loads the demo community into the stores.
package fixtures

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/tyler-paryz/oompa-social/internal/application/session"
	"github.com/tyler-paryz/oompa-social/internal/domain/conversation"
	"github.com/tyler-paryz/oompa-social/internal/domain/post"
	"github.com/tyler-paryz/oompa-social/internal/domain/social"
	"github.com/tyler-paryz/oompa-social/internal/domain/user"
	"github.com/tyler-paryz/oompa-social/internal/infrastructure/persistence/memory"
)

//go:embed mock_data.yaml
var mockData []byte

// ErrInvalidFixture is wrapped by every validation failure from Load.
var ErrInvalidFixture = errors.New("invalid fixture")

// Set is a full bootstrap document.
type Set struct {
	Users          []user.User                       `yaml:"users"`
	Posts          []post.Post                       `yaml:"posts"`
	Friendships    map[string][]string               `yaml:"friendships"`
	FriendRequests []social.FriendRequest            `yaml:"friendRequests"`
	Conversations  map[string][]conversation.Message `yaml:"conversations"`
	Notifications  []social.Notification             `yaml:"notifications"`
}

// Default returns the embedded demo community.
func Default() (*Set, error) {
	return Load(bytes.NewReader(mockData))
}

// Load decodes and validates a fixture document. Unknown fields are rejected.
func Load(r io.Reader) (*Set, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var set Set
	if err := dec.Decode(&set); err != nil {
		return nil, fmt.Errorf("fixtures: decode: %w", err)
	}
	if err := set.validate(); err != nil {
		return nil, err
	}
	return &set, nil
}

func (s *Set) validate() error {
	seen := make(map[string]bool, len(s.Users))
	for i, u := range s.Users {
		if u.ID == "" {
			return fmt.Errorf("fixtures: users[%d]: %w: id is required", i, ErrInvalidFixture)
		}
		if seen[u.ID] {
			return fmt.Errorf("fixtures: users[%d]: %w: duplicate id %q", i, ErrInvalidFixture, u.ID)
		}
		seen[u.ID] = true
	}

	for i := range s.Posts {
		p := &s.Posts[i]
		if p.ID == "" {
			return fmt.Errorf("fixtures: posts[%d]: %w: id is required", i, ErrInvalidFixture)
		}
		if !p.Kind.IsValid() {
			return fmt.Errorf("fixtures: post %s: %w: unknown type %q", p.ID, ErrInvalidFixture, p.Kind)
		}
		if p.Likes == nil {
			p.Likes = []string{}
		}
		if p.Comments == nil {
			p.Comments = []post.Comment{}
		}
	}

	for raw, msgs := range s.Conversations {
		key, ok := conversation.ParseKey(raw)
		if !ok {
			return fmt.Errorf("fixtures: conversation %q: %w: malformed key", raw, ErrInvalidFixture)
		}
		for _, m := range msgs {
			if m.Key() != key {
				return fmt.Errorf("fixtures: message %s: %w: belongs to %s, listed under %s",
					m.ID, ErrInvalidFixture, m.Key(), key)
			}
		}
	}

	for _, n := range s.Notifications {
		if !n.Kind.IsValid() {
			return fmt.Errorf("fixtures: notification %s: %w: unknown type %q", n.ID, ErrInvalidFixture, n.Kind)
		}
	}
	return nil
}

// Directory returns a user directory holding the set's users.
func (s *Set) Directory() *memory.UserDirectory {
	return memory.NewUserDirectory(s.Users...)
}

// Messages returns every message, conversations in key order.
func (s *Set) Messages() []conversation.Message {
	keys := make([]string, 0, len(s.Conversations))
	for k := range s.Conversations {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []conversation.Message
	for _, k := range keys {
		out = append(out, s.Conversations[k]...)
	}
	return out
}

// Seed imports posts and conversations into the session's stores. The
// document lists posts newest first, so they are imported in reverse to
// keep that order in the feed.
func Seed(sess *session.Context, set *Set) {
	posts := make([]post.Post, 0, len(set.Posts))
	for i := len(set.Posts) - 1; i >= 0; i-- {
		posts = append(posts, set.Posts[i])
	}
	sess.Posts.Import(posts...)
	sess.Conversations.Import(set.Messages()...)
}

// SeedSession loads userID's friends, the pending requests addressed to
// them and their notifications into the social store.
func SeedSession(sess *session.Context, set *Set, userID string) {
	var requests []social.FriendRequest
	for _, r := range set.FriendRequests {
		if r.TargetID == userID {
			requests = append(requests, r)
		}
	}
	var notifications []social.Notification
	for _, n := range set.Notifications {
		if n.UserID == userID {
			notifications = append(notifications, n)
		}
	}
	sess.Social.Import(set.Friendships[userID], requests, notifications)
}
