package navigation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tyler-paryz/oompa-social/internal/domain/shared"
)

type fakeAuth struct{ authed bool }

func (f *fakeAuth) IsAuthenticated() bool { return f.authed }

type pageRecorder struct{ pages []string }

func (p *pageRecorder) Publish(e shared.Event) error {
	if e.EventType() == shared.EventPageViewed {
		p.pages = append(p.pages, e.Payload()["page"].(string))
	}
	return nil
}

func newRouter(t *testing.T, authed bool) (*Router, *fakeAuth, *pageRecorder) {
	t.Helper()
	auth := &fakeAuth{authed: authed}
	rec := &pageRecorder{}
	r, err := NewRouter(RouterConfig{Auth: auth, Events: rec, TrackPageViews: true})
	require.NoError(t, err)
	return r, auth, rec
}

func TestNavigate_GuestIsSentToLogin(t *testing.T) {
	r, _, rec := newRouter(t, false)

	res, err := r.Navigate(context.Background(), "/messages")
	require.NoError(t, err)
	assert.Equal(t, RouteLogin, res.Route.Name)
	assert.Equal(t, "/messages", res.Query.Get("redirect"))
	assert.Equal(t, "/messages", res.RedirectTarget())
	assert.Equal(t, []string{"/messages"}, res.Redirects)
	assert.Equal(t, []string{"Login"}, rec.pages)
}

func TestNavigate_SignedInSkipsLogin(t *testing.T) {
	r, _, _ := newRouter(t, true)

	res, err := r.Navigate(context.Background(), "/login")
	require.NoError(t, err)
	assert.Equal(t, RouteHome, res.Route.Name)
	assert.True(t, res.Redirected())
}

func TestNavigate_ParamsAndQuery(t *testing.T) {
	r, _, _ := newRouter(t, true)

	res, err := r.Navigate(context.Background(), "/profile/user3?tab=posts")
	require.NoError(t, err)
	assert.Equal(t, RouteProfile, res.Route.Name)
	assert.Equal(t, "user3", res.Param("id"))
	assert.Equal(t, "posts", res.Query.Get("tab"))
	assert.False(t, res.Redirected())

	cur, ok := r.Current()
	require.True(t, ok)
	assert.Equal(t, "/profile/user3?tab=posts", cur.FullPath)
}

func TestNavigate_CatchAllGoesHome(t *testing.T) {
	r, auth, rec := newRouter(t, true)

	res, err := r.Navigate(context.Background(), "/no/such/page")
	require.NoError(t, err)
	assert.Equal(t, RouteHome, res.Route.Name)

	// Guests bounce twice: catch-all, then the login guard.
	auth.authed = false
	res, err = r.Navigate(context.Background(), "/nowhere")
	require.NoError(t, err)
	assert.Equal(t, RouteLogin, res.Route.Name)
	assert.Equal(t, []string{"/nowhere", "/"}, res.Redirects)
	assert.Equal(t, "/", res.RedirectTarget())
	assert.Equal(t, []string{"Home", "Login"}, rec.pages)
}

func TestNavigate_LogoutIsPublic(t *testing.T) {
	for _, authed := range []bool{true, false} {
		r, _, _ := newRouter(t, authed)
		res, err := r.Navigate(context.Background(), "/logout")
		require.NoError(t, err)
		assert.Equal(t, RouteLogout, res.Route.Name)
	}
}

func TestNavigate_RunsViews(t *testing.T) {
	r, _, _ := newRouter(t, true)
	var opened string
	r.RegisterView(RouteFriends, func(_ context.Context, m Match) error {
		opened = m.Path
		return nil
	})
	boom := errors.New("boom")
	r.RegisterView(RouteEcosystem, func(context.Context, Match) error { return boom })

	_, err := r.Navigate(context.Background(), "/friends")
	require.NoError(t, err)
	assert.Equal(t, "/friends", opened)

	res, err := r.Navigate(context.Background(), "/ecosystem")
	assert.ErrorIs(t, err, boom)
	require.NotNil(t, res)
	assert.Equal(t, RouteEcosystem, res.Route.Name)
}

func TestNavigate_TrackingOff(t *testing.T) {
	rec := &pageRecorder{}
	r, err := NewRouter(RouterConfig{Auth: &fakeAuth{authed: true}, Events: rec})
	require.NoError(t, err)

	_, err = r.Navigate(context.Background(), "/")
	require.NoError(t, err)
	assert.Empty(t, rec.pages)
}

func TestNavigate_RedirectLoop(t *testing.T) {
	r, err := NewRouter(RouterConfig{
		Auth:   &fakeAuth{authed: false},
		Routes: []Route{{Name: RouteHome, Pattern: "/", Access: RequiresAuth}},
	})
	require.NoError(t, err)

	_, err = r.Navigate(context.Background(), "/")
	assert.ErrorIs(t, err, ErrTooManyRedirects)
}
