package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.Scraper.MaxItems)
	assert.Equal(t, 3, cfg.Scraper.Workers)
	assert.Equal(t, "pt-BR", cfg.Browser.Locale)
	assert.Equal(t, "Comprebel (Oficial)", cfg.Official.StoreMarker)
	assert.Equal(t, "Comprebel", cfg.Official.Label)
	assert.Equal(t, "https://api.groq.com/openai/v1", cfg.Oracle.BaseURL)
	assert.Equal(t, 24*time.Hour, cfg.Oracle.CacheTTL)
	assert.NoError(t, cfg.Validate())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SCRAPER_MAX_ITEMS", "40")
	t.Setenv("SCRAPER_WORKERS", "5")
	t.Setenv("BROWSER_HEADLESS", "false")
	t.Setenv("ORACLE_RATE_LIMIT_MIN", "250ms")
	t.Setenv("OFFICIAL_STORE_MARKER", "Outra Loja (Oficial)")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 40, cfg.Scraper.MaxItems)
	assert.Equal(t, 5, cfg.Scraper.Workers)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, 250*time.Millisecond, cfg.Oracle.RateLimitMin)
	assert.Equal(t, "Outra Loja (Oficial)", cfg.Official.StoreMarker)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "Defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "Zero workers rejected",
			mutate:  func(c *Config) { c.Scraper.Workers = 0 },
			wantErr: true,
		},
		{
			name:    "Inverted rate limits rejected",
			mutate: func(c *Config) {
				c.Scraper.RateLimitMin = 10 * time.Second
				c.Scraper.RateLimitMax = time.Second
			},
			wantErr: true,
		},
		{
			name:    "Empty official marker rejected",
			mutate:  func(c *Config) { c.Official.StoreMarker = "" },
			wantErr: true,
		},
		{
			name: "API key without model rejected",
			mutate: func(c *Config) {
				c.Oracle.APIKey = "gsk_test"
				c.Oracle.Model = ""
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			require.NoError(t, err)

			tt.mutate(cfg)

			if tt.wantErr {
				assert.Error(t, cfg.Validate())
			} else {
				assert.NoError(t, cfg.Validate())
			}
		})
	}
}
