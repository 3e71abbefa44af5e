package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tyler-paryz/oompa-social/internal/interface/navigation"
)

// errLoginFailed is returned when the email is not in the demo community.
var errLoginFailed = errors.New("login failed")

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with an email from the demo community",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				res, err := a.signIn(ctx, email)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if !res.Success {
					fmt.Fprintln(out, res.Message)
					return fmt.Errorf("%w: %s", errLoginFailed, email)
				}
				fmt.Fprintf(out, "Welcome back, %s! (%s)\n", res.User.Name, res.User.Role)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email to sign in with")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newFeedCmd(opts *rootOptions) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Print the feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				return showAs(ctx, a, cmd, email, "/")
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", demoEmail, "email of the viewer")
	return cmd
}

func newInboxCmd(opts *rootOptions) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "inbox",
		Short: "Print a user's conversations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				u, err := a.sess.Users.GetByID(userID)
				if err != nil {
					return fmt.Errorf("inbox: %w", err)
				}
				return showAs(ctx, a, cmd, u.Email, "/messages")
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "user1", "id of the inbox owner")
	return cmd
}

// showAs signs email in and renders one page.
func showAs(ctx context.Context, a *app, cmd *cobra.Command, email, path string) error {
	res, err := a.signIn(ctx, email)
	if err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("%w: %s", errLoginFailed, email)
	}
	newTerminal(a, cmd.OutOrStdout()).register()

	nav, err := a.router.Navigate(ctx, path)
	if err != nil {
		return err
	}
	if nav.Route.Name == navigation.RouteLogin {
		return fmt.Errorf("%s is not reachable", path)
	}
	return nil
}

// withApp wires the application, runs fn and flushes analytics afterwards.
func withApp(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, a *app) error) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	a, err := newApp(ctx, opts.cfg, opts.log)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
