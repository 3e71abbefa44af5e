package navigation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/tyler-paryz/oompa-social/internal/domain/shared"
)

// maxRedirects bounds guard and catch-all redirects for one navigation.
const maxRedirects = 5

var (
	// ErrTooManyRedirects means the guards kept bouncing the navigation.
	ErrTooManyRedirects = errors.New("navigation: too many redirects")

	// ErrInvalidPath means the path could not be parsed.
	ErrInvalidPath = errors.New("navigation: invalid path")
)

// ══════════════════════════════════════════════════════════════════════════════
// ROUTER CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Authenticator reports whether a visitor is signed in.
type Authenticator interface {
	IsAuthenticated() bool
}

// RouterConfig contains configuration for the router.
type RouterConfig struct {
	// Routes is the route table (default: DefaultRoutes).
	Routes []Route

	Auth Authenticator

	// Events receives navigation.page_viewed (default: shared.NopPublisher).
	Events shared.EventPublisher

	// TrackPageViews publishes a page view after every navigation.
	TrackPageViews bool

	// Logger for structured logging.
	Logger *slog.Logger

	// Debug enables debug logging for routing decisions.
	Debug bool
}

// Match is a resolved navigation.
type Match struct {
	Route    Route
	Path     string
	FullPath string
	Params   map[string]string
	Query    url.Values
}

// Param returns a bound path parameter.
func (m Match) Param(name string) string {
	return m.Params[name]
}

// RedirectTarget returns the path a login page should continue to.
func (m Match) RedirectTarget() string {
	if to := m.Query.Get("redirect"); to != "" {
		return to
	}
	return "/"
}

// Result is the outcome of Navigate.
type Result struct {
	Match

	// Redirects lists the paths that were redirected away from, in order.
	Redirects []string
}

// Redirected reports whether the requested path was not the one opened.
func (r *Result) Redirected() bool {
	return len(r.Redirects) > 0
}

// View renders a page.
type View func(ctx context.Context, m Match) error

// ══════════════════════════════════════════════════════════════════════════════
// ROUTER
// ══════════════════════════════════════════════════════════════════════════════

// Router resolves paths, applies guards and runs the registered views.
type Router struct {
	config RouterConfig
	logger *slog.Logger

	views   map[RouteName]View
	viewsMu sync.RWMutex

	current   *Match
	currentMu sync.RWMutex
}

// NewRouter creates a new router.
func NewRouter(config RouterConfig) (*Router, error) {
	if config.Auth == nil {
		return nil, errors.New("navigation: authenticator is required")
	}
	if len(config.Routes) == 0 {
		config.Routes = DefaultRoutes()
	}
	if config.Events == nil {
		config.Events = shared.NopPublisher{}
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Router{
		config: config,
		logger: config.Logger.With("component", "router"),
		views:  make(map[RouteName]View),
	}, nil
}

// RegisterView registers the view for a route.
func (r *Router) RegisterView(name RouteName, view View) {
	r.viewsMu.Lock()
	defer r.viewsMu.Unlock()

	r.views[name] = view

	if r.config.Debug {
		r.logger.Debug("registered view", "route", name)
	}
}

// Current returns the last successful navigation.
func (r *Router) Current() (Match, bool) {
	r.currentMu.RLock()
	defer r.currentMu.RUnlock()
	if r.current == nil {
		return Match{}, false
	}
	return *r.current, true
}

// Navigate opens path. Unknown paths go home; guests asking for a protected
// page go to the login page with redirect=<path>; signed-in users asking for
// a guest-only page go home.
func (r *Router) Navigate(ctx context.Context, path string) (*Result, error) {
	result := &Result{}
	target := path

	for hops := 0; ; hops++ {
		if hops > maxRedirects {
			return nil, fmt.Errorf("%w: %v", ErrTooManyRedirects, append(result.Redirects, target))
		}

		m, err := r.resolve(target)
		if err != nil {
			return nil, err
		}
		if m == nil {
			result.Redirects = append(result.Redirects, target)
			target = "/"
			continue
		}

		next := r.guard(m)
		if next == "" {
			result.Match = *m
			break
		}
		if r.config.Debug {
			r.logger.Debug("navigation redirected", "from", m.FullPath, "to", next)
		}
		result.Redirects = append(result.Redirects, m.FullPath)
		target = next
	}

	r.currentMu.Lock()
	current := result.Match
	r.current = &current
	r.currentMu.Unlock()

	if r.config.TrackPageViews {
		shared.PublishSafe(r.config.Events, shared.NewTrackedEvent(shared.EventPageViewed, string(result.Route.Name), map[string]interface{}{
			"page": string(result.Route.Name),
			"path": result.FullPath,
		}), r.logger)
	}

	r.viewsMu.RLock()
	view := r.views[result.Route.Name]
	r.viewsMu.RUnlock()
	if view != nil {
		if err := view(ctx, result.Match); err != nil {
			return result, fmt.Errorf("navigation: view %s: %w", result.Route.Name, err)
		}
	}
	return result, nil
}

// resolve returns nil, nil when no route matches.
func (r *Router) resolve(raw string) (*Match, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPath, raw, err)
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	full := path
	if u.RawQuery != "" {
		full += "?" + u.RawQuery
	}

	for _, route := range r.config.Routes {
		if params, ok := route.match(path); ok {
			return &Match{
				Route:    route,
				Path:     path,
				FullPath: full,
				Params:   params,
				Query:    u.Query(),
			}, nil
		}
	}
	return nil, nil
}

// guard returns the redirect target, or "" to proceed.
func (r *Router) guard(m *Match) string {
	authed := r.config.Auth.IsAuthenticated()
	switch {
	case m.Route.Access == RequiresAuth && !authed:
		return r.pathOf(RouteLogin) + "?" + url.Values{"redirect": {m.FullPath}}.Encode()
	case m.Route.Access == GuestOnly && authed:
		return r.pathOf(RouteHome)
	default:
		return ""
	}
}

func (r *Router) pathOf(name RouteName) string {
	for _, route := range r.config.Routes {
		if route.Name == name {
			return route.Pattern
		}
	}
	return "/"
}
