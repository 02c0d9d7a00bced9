// Command siteserver runs the Merritt & Gray site backend. All configuration
// comes from the environment; a .env file is loaded when present.
package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/merrittgray/siteserver"
)

func main() {
	_ = godotenv.Load()

	cfg := siteserver.SiteConfig{
		URL:  siteserver.EnvOr("SITE_URL", "http://localhost:3000"),
		Addr: siteserver.EnvOr("ADDR", ":3000"),

		GitHubOwner:  siteserver.MustEnv("GITHUB_OWNER"),
		GitHubRepo:   siteserver.MustEnv("GITHUB_REPO"),
		GitHubToken:  siteserver.MustEnv("GITHUB_TOKEN"),
		GitHubBranch: siteserver.EnvOr("GITHUB_BRANCH", "main"),

		AdminPassword: siteserver.MustEnv("ADMIN_PASSWORD"),
		SessionSecret: siteserver.MustEnv("SESSION_SECRET"),
		CookieSecure:  os.Getenv("COOKIE_SECURE") == "true",

		SMTPHost:  os.Getenv("SMTP_HOST"),
		SMTPPort:  envInt("SMTP_PORT", 587),
		SMTPUser:  os.Getenv("SMTP_USER"),
		SMTPPass:  os.Getenv("SMTP_PASS"),
		ContactTo: os.Getenv("CONTACT_TO"),

		StaticDir:      siteserver.EnvOr("STATIC_DIR", "public"),
		MessagesDBPath: siteserver.EnvOr("MESSAGES_DB_PATH", "data/messages.db"),

		ContentCacheTTL: envDuration("CONTENT_CACHE_TTL", 30*time.Second),
		Production:      os.Getenv("APP_ENV") == "production",
	}

	app, err := siteserver.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer app.Close()

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return d
}
