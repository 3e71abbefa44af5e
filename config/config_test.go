package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, "oompa-social", cfg.App.Name)
	assert.True(t, cfg.IsDevelopment())
	assert.True(t, cfg.Analytics.Enabled)
	assert.True(t, cfg.Analytics.AsyncMode)
	assert.Equal(t, 4, cfg.Analytics.WorkerPoolSize)
	assert.Equal(t, time.Second, cfg.Analytics.FlushInterval)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "oompa:analytics", cfg.Redis.Channel)
	assert.False(t, cfg.Database.Enabled)
	assert.Equal(t, "info", cfg.LogLevel())
	assert.False(t, cfg.Features.DedupeFriendRequests)
	assert.True(t, cfg.Features.NotifyOnLike)
	assert.True(t, cfg.Features.TrackNavigation)
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"OOMPA_APP_ENV":                        "production",
		"OOMPA_APP_DEBUG":                      "true",
		"OOMPA_ANALYTICS_ASYNC":                "false",
		"OOMPA_ANALYTICS_WORKERS":              "8",
		"OOMPA_REDIS_ENABLED":                  "true",
		"OOMPA_REDIS_URL":                      "redis://cache:6379/1",
		"OOMPA_DATABASE_ENABLED":               "true",
		"OOMPA_DATABASE_URL":                   "postgres://localhost/oompa",
		"OOMPA_LOG_FORMAT":                     "json",
		"OOMPA_FEATURE_DEDUPE_FRIEND_REQUESTS": "true",
		"OOMPA_FEATURE_NOTIFY_LIKE":            "false",
		"ANALYTICS_WORKERS":                    "99",
	})
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "debug", cfg.LogLevel())
	assert.False(t, cfg.Analytics.AsyncMode)
	assert.Equal(t, 8, cfg.Analytics.WorkerPoolSize)
	assert.Equal(t, "redis://cache:6379/1", cfg.Redis.URL)
	assert.Equal(t, "postgres://localhost/oompa", cfg.Database.URL)
	assert.Equal(t, "json", cfg.Observability.Format)
	assert.True(t, cfg.Features.DedupeFriendRequests)
	assert.False(t, cfg.Features.NotifyOnLike)
}

func TestLoadFrom_ValidationErrors(t *testing.T) {
	cases := map[string]map[string]string{
		"bad env":         {"OOMPA_APP_ENV": "moon"},
		"zero workers":    {"OOMPA_ANALYTICS_WORKERS": "0"},
		"db without url":  {"OOMPA_DATABASE_ENABLED": "true"},
		"bad log format":  {"OOMPA_LOG_FORMAT": "xml"},
		"bad bool parses": {"OOMPA_APP_DEBUG": "maybe"},
	}
	for name, environ := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFrom(environ)
			assert.Error(t, err)
		})
	}
}

func TestFeatureFlags(t *testing.T) {
	flags := Default().Features

	assert.True(t, flags.IsEnabled(FeatureNotifyOnComment))
	assert.False(t, flags.IsEnabled("does.not.exist"))

	require.NoError(t, flags.Apply([]string{"social.dedupe_friend_requests", "notify.comment=off"}))
	assert.True(t, flags.DedupeFriendRequests)
	assert.False(t, flags.NotifyOnComment)

	var ffErr *FeatureFlagError
	assert.ErrorAs(t, flags.Set("nope", true), &ffErr)
	assert.Error(t, flags.Apply([]string{"notify.like=sometimes"}))

	all := flags.All()
	assert.Len(t, all, len(flags.Names()))
	assert.True(t, all[FeatureDedupeFriendRequests])
}
