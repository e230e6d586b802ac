package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadRateLimitConfigDefaults(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "")
	t.Setenv("RATE_LIMIT_REQUESTS", "")
	t.Setenv("RATE_LIMIT_WINDOW", "")
	t.Setenv("RATE_LIMIT_PREFIX", "")

	cfg := LoadRateLimitConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 120, cfg.Limit)
	assert.Equal(t, time.Minute, cfg.Window)
	assert.Equal(t, "rl", cfg.Prefix)
}

func TestLoadRateLimitConfigClampsWindow(t *testing.T) {
	cases := map[string]string{
		"sub-second": "500ms",
		"zero":       "0s",
		"negative":   "-1m",
	}
	for name, v := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("RATE_LIMIT_WINDOW", v)
			cfg := LoadRateLimitConfig()
			assert.GreaterOrEqual(t, cfg.Window, time.Second)
		})
	}
}

func TestLoadRateLimitConfigClampsLimit(t *testing.T) {
	t.Setenv("RATE_LIMIT_REQUESTS", "0")
	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Limit)
}
