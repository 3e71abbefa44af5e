package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tyler-paryz/oompa-social/internal/application/command"
	"github.com/tyler-paryz/oompa-social/internal/application/query"
	"github.com/tyler-paryz/oompa-social/internal/domain/post"
	"github.com/tyler-paryz/oompa-social/internal/domain/user"
	"github.com/tyler-paryz/oompa-social/internal/interface/navigation"
	"github.com/tyler-paryz/oompa-social/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// TERMINAL VIEWS
// ══════════════════════════════════════════════════════════════════════════════

// terminal renders pages as plain text.
type terminal struct {
	app *app
	out io.Writer
	now func() time.Time
}

func newTerminal(a *app, out io.Writer) *terminal {
	return &terminal{app: a, out: out, now: time.Now}
}

// register installs a view for every route in the router.
func (t *terminal) register() {
	r := t.app.router
	r.RegisterView(navigation.RouteLogin, t.login)
	r.RegisterView(navigation.RouteHome, t.home)
	r.RegisterView(navigation.RouteProfile, t.profile)
	r.RegisterView(navigation.RouteMessages, t.messages)
	r.RegisterView(navigation.RouteFriends, t.friends)
	r.RegisterView(navigation.RouteCreatePost, t.createPost)
	r.RegisterView(navigation.RouteEcosystem, t.ecosystem)
	r.RegisterView(navigation.RouteLogout, t.logout)
}

func (t *terminal) header(title string) {
	fmt.Fprintf(t.out, "\n── %s %s\n", title, strings.Repeat("─", max(0, 60-len(title))))
}

func (t *terminal) login(_ context.Context, m navigation.Match) error {
	t.header("Sign in")
	if to := m.RedirectTarget(); to != "/" {
		fmt.Fprintf(t.out, "Sign in to continue to %s\n", to)
	} else {
		fmt.Fprintln(t.out, "Sign in to Oompa Social")
	}
	return nil
}

func (t *terminal) home(ctx context.Context, _ navigation.Match) error {
	res, err := t.app.queries.Feed.Handle(ctx, query.GetFeedQuery{})
	if err != nil {
		return err
	}
	t.header(fmt.Sprintf("Feed (%d posts)", res.Total))
	for _, e := range res.Entries {
		t.printEntry(e, "")
	}
	return nil
}

func (t *terminal) printEntry(e query.FeedEntryDTO, indent string) {
	heart := "♡"
	if e.LikedByMe {
		heart = "♥"
	}
	fmt.Fprintf(t.out, "%s[%s] %s · %s\n", indent, e.PostID, e.AuthorName, timeutil.FormatRelative(e.CreatedAt, t.now()))
	if e.Content != "" {
		fmt.Fprintf(t.out, "%s  %s\n", indent, e.Content)
	}
	if e.Kind == post.KindImage && e.Media != "" {
		fmt.Fprintf(t.out, "%s  (image: %s)\n", indent, e.Media)
	}
	if e.Original != nil {
		t.printEntry(*e.Original, indent+"    ")
		return
	}
	fmt.Fprintf(t.out, "%s  %s %d  💬 %d\n", indent, heart, e.LikeCount, e.CommentCount)
	for _, c := range e.Comments {
		fmt.Fprintf(t.out, "%s    %s: %s\n", indent, c.AuthorName, c.Content)
	}
}

func (t *terminal) profile(ctx context.Context, m navigation.Match) error {
	p, err := t.app.queries.Profile.Handle(ctx, query.GetProfileQuery{UserID: m.Param("id")})
	if err != nil {
		return err
	}
	t.header(p.User.Name)
	fmt.Fprintf(t.out, "%s · %s\n", p.User.Role, p.User.Email)
	if p.User.Bio != "" {
		fmt.Fprintln(t.out, p.User.Bio)
	}
	switch {
	case p.IsSelf:
		fmt.Fprintf(t.out, "%d friends\n", p.FriendCount)
	case p.IsFriend:
		fmt.Fprintln(t.out, "Friends")
	}
	for _, e := range p.Posts {
		t.printEntry(e, "")
	}
	return nil
}

func (t *terminal) messages(ctx context.Context, _ navigation.Match) error {
	res, err := t.app.queries.Conversations.Handle(ctx, query.ListConversationsQuery{})
	if err != nil {
		return err
	}
	t.header(fmt.Sprintf("Messages (%d unread)", res.TotalUnread))
	now := t.now()
	for _, c := range res.Conversations {
		from := ""
		if c.LastFromMe {
			from = "You: "
		}
		unread := ""
		if c.UnreadCount > 0 {
			unread = fmt.Sprintf(" [%d]", c.UnreadCount)
		}
		fmt.Fprintf(t.out, "%-16s %s%s  %s%s\n", c.OtherUserName, from, c.Preview, timeutil.FormatMessageTime(c.LastActivity, now), unread)
	}
	return nil
}

func (t *terminal) friends(ctx context.Context, _ navigation.Match) error {
	res, err := t.app.queries.Friends.Handle(ctx, query.GetFriendsQuery{})
	if err != nil {
		return err
	}
	t.header(fmt.Sprintf("Friends (%d)", len(res.Friends)))
	for _, f := range res.Friends {
		fmt.Fprintf(t.out, "  %s\n", f.Name)
	}
	if len(res.Pending) > 0 {
		fmt.Fprintln(t.out, "Requests:")
		for _, r := range res.Pending {
			fmt.Fprintf(t.out, "  [%s] %s · %s\n", r.RequestID, r.RequesterName, timeutil.FormatRelative(r.Timestamp, t.now()))
		}
	}
	fmt.Fprintf(t.out, "Notifications (%d unread):\n", res.UnreadNotifications)
	for _, n := range res.Notifications {
		mark := " "
		if !n.Read {
			mark = "•"
		}
		fmt.Fprintf(t.out, "  %s %s\n", mark, n.Content)
	}
	return nil
}

func (t *terminal) createPost(context.Context, navigation.Match) error {
	t.header("New post")
	fmt.Fprintln(t.out, "What's happening in the factory?")
	return nil
}

func (t *terminal) ecosystem(context.Context, navigation.Match) error {
	t.header("Ecosystem")
	for _, u := range t.app.sess.Users.List() {
		fmt.Fprintf(t.out, "  %-16s %s\n", u.Name, u.Role)
	}
	return nil
}

func (t *terminal) logout(context.Context, navigation.Match) error {
	if u, ok := t.app.sess.CurrentUser(); ok {
		t.app.sess.Logout()
		fmt.Fprintf(t.out, "\nGoodbye, %s\n", u.Name)
	}
	return nil
}

// conversation prints an open conversation, oldest message first.
func (t *terminal) conversation(res *command.OpenConversationResult) {
	t.header(fmt.Sprintf("Conversation %s", res.Key))
	now := t.now()
	for _, m := range res.Messages {
		fmt.Fprintf(t.out, "%s %-16s %s\n", timeutil.FormatMessageTime(m.Timestamp, now), user.DisplayName(t.app.sess.Users, m.SenderID), m.Content)
	}
}
