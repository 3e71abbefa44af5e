package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tyler-paryz/oompa-social/internal/application/command"
	"github.com/tyler-paryz/oompa-social/internal/domain/post"
)

// demoEmail is the demo community user the walkthrough signs in as.
const demoEmail = "tooty@oompa.social"

func newDemoCmd(opts *rootOptions) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Walk through a signed-in session",
		Long: `Runs a scripted session against the demo community: the login redirect,
the feed, a like and a comment, a direct message, accepting a friend request
and logging out.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				return runDemo(ctx, a, cmd.OutOrStdout(), email)
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", demoEmail, "email to sign in with")
	return cmd
}

func runDemo(ctx context.Context, a *app, out io.Writer, email string) error {
	term := newTerminal(a, out)
	term.register()

	// ─────────────────────────────────────────────────────────────────────────
	// 1. GUEST HITS HOME, GETS SENT TO LOGIN
	// ─────────────────────────────────────────────────────────────────────────
	nav, err := a.router.Navigate(ctx, "/")
	if err != nil {
		return err
	}

	res, err := a.signIn(ctx, email)
	if err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("login %s: %s", email, res.Message)
	}
	me := res.User
	fmt.Fprintf(out, "Signed in as %s (%s)\n", me.Name, me.Role)

	if _, err := a.router.Navigate(ctx, nav.RedirectTarget()); err != nil {
		return err
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LIKE & COMMENT
	// ─────────────────────────────────────────────────────────────────────────
	feed := a.sess.Posts.GetFeedPosts()
	theirs, mine := pickPosts(feed, me.ID)

	if theirs != nil {
		if _, err := a.commands.LikePost.Handle(ctx, command.LikePostCommand{PostID: theirs.ID}); err != nil {
			return err
		}
		if _, err := a.commands.CommentOnPost.Handle(ctx, command.CommentOnPostCommand{
			PostID:  theirs.ID,
			Content: "Sweet! 🍫",
		}); err != nil {
			return err
		}
		fmt.Fprintf(out, "\nLiked and commented on %s\n", theirs.ID)
	}

	// A friend reacting to one of our posts produces notifications.
	if mine != nil {
		friends := a.sess.Social.Friends()
		if len(friends) > 0 {
			liked, err := a.commands.LikePost.Handle(ctx, command.LikePostCommand{PostID: mine.ID, UserID: friends[0]})
			if err != nil {
				return err
			}
			commented, err := a.commands.CommentOnPost.Handle(ctx, command.CommentOnPostCommand{
				PostID:  mine.ID,
				UserID:  friends[0],
				Content: "Love this!",
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s reacted to %s (notified: like=%t comment=%t)\n",
				friends[0], mine.ID, liked.Notified, commented.Notified)
		}
	}

	if _, err := a.router.Navigate(ctx, "/profile/"+me.ID); err != nil {
		return err
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. MESSAGES
	// ─────────────────────────────────────────────────────────────────────────
	if _, err := a.router.Navigate(ctx, "/messages"); err != nil {
		return err
	}
	inbox := a.sess.Conversations.ListConversations(me.ID)
	if len(inbox) > 0 {
		other := inbox[0].OtherUserID
		if _, err := a.commands.SendMessage.Handle(ctx, command.SendMessageCommand{
			RecipientID: other,
			Content:     "See you at the chocolate river!",
		}); err != nil {
			return err
		}
		opened, err := a.commands.OpenConversation.Handle(ctx, command.OpenConversationCommand{OtherUserID: other})
		if err != nil {
			return err
		}
		term.conversation(opened)
		fmt.Fprintf(out, "Marked %d messages read\n", opened.MarkedRead)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. FRIEND REQUESTS
	// ─────────────────────────────────────────────────────────────────────────
	if _, err := a.router.Navigate(ctx, "/friends"); err != nil {
		return err
	}
	for _, req := range a.sess.Social.PendingRequests() {
		accepted, err := a.commands.RespondFriend.Handle(ctx, command.RespondFriendRequestCommand{RequestID: req.ID, Accept: true})
		if err != nil {
			return err
		}
		if accepted.Found {
			fmt.Fprintf(out, "\nAccepted %s from %s\n", req.ID, req.RequesterID)
		}
	}
	if _, err := a.router.Navigate(ctx, "/friends"); err != nil {
		return err
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. LOGOUT, THEN GUARDS KICK IN AGAIN
	// ─────────────────────────────────────────────────────────────────────────
	if _, err := a.router.Navigate(ctx, "/logout"); err != nil {
		return err
	}
	after, err := a.router.Navigate(ctx, "/friends")
	if err != nil {
		return err
	}
	if !after.Redirected() {
		return errors.New("demo: /friends stayed reachable after logout")
	}
	return nil
}

// pickPosts returns the newest original post by somebody else and the
// newest original post by userID.
func pickPosts(feed []post.Post, userID string) (theirs, mine *post.Post) {
	for i := range feed {
		p := &feed[i]
		if p.Kind == post.KindShare {
			continue
		}
		if p.AuthorID == userID {
			if mine == nil {
				mine = p
			}
		} else if theirs == nil {
			theirs = p
		}
	}
	return theirs, mine
}
