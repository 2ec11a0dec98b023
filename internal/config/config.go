// Package config provides application configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

// Config holds all application configuration.
type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	FrontendURL string `env:"FRONTEND_URL"`
	DBPath      string `env:"DB_PATH" envDefault:"./data/concierge.db"`

	// Single base URL for every concierge backend call.
	BackendBaseURL string `env:"CONCIERGE_BASE_URL,required"`

	// Events shown per result page.
	PageSize int `env:"PAGE_SIZE" envDefault:"9"`

	// Idle conversations are evicted after this duration.
	ConversationTTL time.Duration `env:"CONVERSATION_TTL" envDefault:"1h"`

	OAuth   OAuthConfig
	Session SessionConfig
}

// OAuthConfig holds identity-provider credentials.
type OAuthConfig struct {
	ClientID     string `env:"GOOGLE_CLIENT_ID"`
	ClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	RedirectURL  string `env:"OAUTH_REDIRECT_URL"`
}

// SessionConfig controls browser session lifetime and the account
// deletion confirmation window.
type SessionConfig struct {
	TTL                 time.Duration `env:"SESSION_TTL" envDefault:"720h"`
	DeleteConfirmWindow time.Duration `env:"DELETE_CONFIRM_WINDOW" envDefault:"2m"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.BackendBaseURL == "" {
		return fmt.Errorf("CONCIERGE_BASE_URL cannot be empty")
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("PAGE_SIZE must be > 0")
	}
	if c.ConversationTTL <= 0 {
		return fmt.Errorf("CONVERSATION_TTL must be > 0")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be > 0")
	}
	if c.Session.DeleteConfirmWindow <= 0 {
		return fmt.Errorf("DELETE_CONFIRM_WINDOW must be > 0")
	}
	return nil
}

// AuthEnabled reports whether identity-provider credentials were supplied.
// Without them the app still serves events and conversations, but sign-in
// endpoints return errors.
func (c *Config) AuthEnabled() bool {
	return c.OAuth.ClientID != "" && c.OAuth.ClientSecret != "" && c.OAuth.RedirectURL != ""
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}
