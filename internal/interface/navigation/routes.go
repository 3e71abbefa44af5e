// Package navigation resolves app paths to pages and applies the login guards.
package navigation

import "strings"

// ══════════════════════════════════════════════════════════════════════════════
// ROUTE TABLE
// ══════════════════════════════════════════════════════════════════════════════

// RouteName is the page name reported to analytics.
type RouteName string

const (
	RouteLogin      RouteName = "Login"
	RouteHome       RouteName = "Home"
	RouteProfile    RouteName = "Profile"
	RouteMessages   RouteName = "Messages"
	RouteFriends    RouteName = "Friends"
	RouteCreatePost RouteName = "CreatePost"
	RouteEcosystem  RouteName = "Ecosystem"
	RouteLogout     RouteName = "Logout"
)

// Access says who may open a route.
type Access int

const (
	// Public routes are open to everybody.
	Public Access = iota

	// RequiresAuth routes send guests to the login page.
	RequiresAuth

	// GuestOnly routes send signed-in users home.
	GuestOnly
)

// Route is one entry of the table. Pattern segments starting with ':' bind
// a parameter.
type Route struct {
	Name    RouteName
	Pattern string
	Access  Access
}

// DefaultRoutes returns the app's route table.
func DefaultRoutes() []Route {
	return []Route{
		{Name: RouteLogin, Pattern: "/login", Access: GuestOnly},
		{Name: RouteHome, Pattern: "/", Access: RequiresAuth},
		{Name: RouteProfile, Pattern: "/profile/:id", Access: RequiresAuth},
		{Name: RouteMessages, Pattern: "/messages", Access: RequiresAuth},
		{Name: RouteFriends, Pattern: "/friends", Access: RequiresAuth},
		{Name: RouteCreatePost, Pattern: "/create-post", Access: RequiresAuth},
		{Name: RouteEcosystem, Pattern: "/ecosystem", Access: RequiresAuth},
		{Name: RouteLogout, Pattern: "/logout", Access: Public},
	}
}

// match reports whether path fits the route and returns bound parameters.
func (r Route) match(path string) (map[string]string, bool) {
	want := splitPath(r.Pattern)
	got := splitPath(path)
	if len(want) != len(got) {
		return nil, false
	}

	params := map[string]string{}
	for i, seg := range want {
		if strings.HasPrefix(seg, ":") {
			if got[i] == "" {
				return nil, false
			}
			params[seg[1:]] = got[i]
			continue
		}
		if seg != got[i] {
			return nil, false
		}
	}
	return params, true
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
