package config

import (
	"sort"
	"strings"
)

// Feature flag names, as accepted by IsEnabled and Set.
const (
	FeatureDedupeFriendRequests  = "social.dedupe_friend_requests"
	FeatureNotifyOnLike          = "notify.like"
	FeatureNotifyOnComment       = "notify.comment"
	FeatureNotifyOnFriendRequest = "notify.friend_request"
	FeatureTrackNavigation       = "analytics.track_navigation"
)

// FeatureFlags toggles optional behavior. Each flag is also read from
// OOMPA_FEATURE_<NAME>.
type FeatureFlags struct {
	// DedupeFriendRequests drops a pending request when one for the same
	// requester and target is already pending.
	DedupeFriendRequests bool `env:"DEDUPE_FRIEND_REQUESTS" envDefault:"false"`

	NotifyOnLike          bool `env:"NOTIFY_LIKE" envDefault:"true"`
	NotifyOnComment       bool `env:"NOTIFY_COMMENT" envDefault:"true"`
	NotifyOnFriendRequest bool `env:"NOTIFY_FRIEND_REQUEST" envDefault:"true"`

	// TrackNavigation publishes navigation.page_viewed for every resolved route.
	TrackNavigation bool `env:"TRACK_NAVIGATION" envDefault:"true"`
}

func (f *FeatureFlags) field(name string) *bool {
	switch name {
	case FeatureDedupeFriendRequests:
		return &f.DedupeFriendRequests
	case FeatureNotifyOnLike:
		return &f.NotifyOnLike
	case FeatureNotifyOnComment:
		return &f.NotifyOnComment
	case FeatureNotifyOnFriendRequest:
		return &f.NotifyOnFriendRequest
	case FeatureTrackNavigation:
		return &f.TrackNavigation
	default:
		return nil
	}
}

// IsEnabled reports whether the named feature is on. Unknown names are off.
func (f FeatureFlags) IsEnabled(name string) bool {
	if p := f.field(name); p != nil {
		return *p
	}
	return false
}

// Set turns a named feature on or off.
func (f *FeatureFlags) Set(name string, enabled bool) error {
	p := f.field(name)
	if p == nil {
		return &FeatureFlagError{Feature: name, Message: "feature not found"}
	}
	*p = enabled
	return nil
}

// Apply parses "name=true,other=false" style overrides, as given on the
// command line.
func (f *FeatureFlags) Apply(overrides []string) error {
	for _, o := range overrides {
		name, val, ok := strings.Cut(strings.TrimSpace(o), "=")
		if !ok {
			val = "true"
		}
		var enabled bool
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "true", "on", "yes":
			enabled = true
		case "0", "false", "off", "no":
			enabled = false
		default:
			return &FeatureFlagError{Feature: name, Message: "invalid value " + val}
		}
		if err := f.Set(strings.TrimSpace(name), enabled); err != nil {
			return err
		}
	}
	return nil
}

// Names returns every known feature name, sorted.
func (f FeatureFlags) Names() []string {
	names := []string{
		FeatureDedupeFriendRequests,
		FeatureNotifyOnLike,
		FeatureNotifyOnComment,
		FeatureNotifyOnFriendRequest,
		FeatureTrackNavigation,
	}
	sort.Strings(names)
	return names
}

// All returns the state of every feature.
func (f FeatureFlags) All() map[string]bool {
	out := make(map[string]bool)
	for _, n := range f.Names() {
		out[n] = f.IsEnabled(n)
	}
	return out
}

// FeatureFlagError represents a feature flag error.
type FeatureFlagError struct {
	Feature string
	Message string
}

func (e *FeatureFlagError) Error() string {
	return "feature flag " + e.Feature + ": " + e.Message
}
