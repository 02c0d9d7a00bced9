package siteserver

import (
	"log"
	"os"
	"time"
)

// SiteConfig holds all configuration for the site server. Values come from
// the environment; see cmd/siteserver.
type SiteConfig struct {
	URL  string // Canonical public site URL (default "http://localhost:3000")
	Addr string // Listen address (default ":3000")

	GitHubOwner  string // Required: owner of the content repository
	GitHubRepo   string // Required: content repository name
	GitHubToken  string // Required: token with contents read/write
	GitHubBranch string // Branch commits land on (default "main")

	AdminPassword string // Required: admin login password
	SessionSecret string // Required: session cookie encryption secret
	CookieSecure  bool   // Set true when serving over HTTPS

	SMTPHost  string // Contact relay host; relay disabled when empty
	SMTPPort  int    // Contact relay port (default 587)
	SMTPUser  string // Relay username, also the From address
	SMTPPass  string // Relay password
	ContactTo string // Destination for contact messages

	StaticDir      string // Public assets and uploads (default "public")
	MessagesDBPath string // Contact submission SQLite path (default "data/messages.db")

	ContentCacheTTL time.Duration // Content cache TTL (default 30s)
	Production      bool          // Hides error details in 500 responses
}

func (c *SiteConfig) setDefaults() {
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.GitHubBranch == "" {
		c.GitHubBranch = "main"
	}
	if c.SMTPPort == 0 {
		c.SMTPPort = 587
	}
	if c.StaticDir == "" {
		c.StaticDir = "public"
	}
	if c.MessagesDBPath == "" {
		c.MessagesDBPath = "data/messages.db"
	}
	if c.ContentCacheTTL == 0 {
		c.ContentCacheTTL = 30 * time.Second
	}
}

// validate reports every absent required value at once, named by the
// environment variable it comes from. Missing configuration is fatal; it is
// never retried at request time.
func (c *SiteConfig) validate() error {
	var missing []string
	if c.GitHubOwner == "" {
		missing = append(missing, "GITHUB_OWNER")
	}
	if c.GitHubRepo == "" {
		missing = append(missing, "GITHUB_REPO")
	}
	if c.GitHubToken == "" {
		missing = append(missing, "GITHUB_TOKEN")
	}
	if c.AdminPassword == "" {
		missing = append(missing, "ADMIN_PASSWORD")
	}
	if c.SessionSecret == "" {
		missing = append(missing, "SESSION_SECRET")
	}
	if len(missing) > 0 {
		return &ConfigError{Missing: missing}
	}
	return nil
}

// contactEnabled reports whether enough relay settings are present to send
// contact mail. Submissions are still persisted when it is off.
func (c *SiteConfig) contactEnabled() bool {
	return c.SMTPHost != "" && c.SMTPUser != "" && c.ContactTo != ""
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or fatally exits if empty.
func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("siteserver: required environment variable %s is not set", key)
	}
	return v
}
