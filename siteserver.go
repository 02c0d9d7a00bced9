// Package siteserver is the backend for the Merritt & Gray marketing site.
// It serves the section content API backed by a commit-based remote file
// store, with an in-process TTL cache, bounded retry with backoff, and
// default-copy fallback, plus the admin session, contact relay, image upload,
// and sitemap endpoints the site needs around it.
package siteserver

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// App wires together the store client, cache, stores, and handlers.
type App struct {
	Config SiteConfig
	Echo   *echo.Echo

	store    *contentStore
	cache    *contentCache
	messages *MessageStore
	mailer   *mailer

	loginLimiter *loginLimiter

	// sleep is the retry backoff delay; replaced in tests.
	sleep func(time.Duration)
}

// New creates an App with the given configuration. Configuration is
// validated here so a misconfigured server refuses to start instead of
// failing on its first store call.
func New(cfg SiteConfig) (*App, error) {
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	a := &App{
		Config:       cfg,
		Echo:         echo.New(),
		store:        newContentStore(cfg),
		cache:        newContentCache(cfg.ContentCacheTTL),
		loginLimiter: newLoginLimiter(5, time.Minute),
		sleep:        time.Sleep,
	}
	a.Echo.HideBanner = true
	return a, nil
}

// Start opens the message store, installs middleware and routes, and runs the
// server until it shuts down.
func (a *App) Start() error {
	messages, err := newMessageStore(a.Config.MessagesDBPath)
	if err != nil {
		return err
	}
	a.messages = messages

	if a.Config.contactEnabled() {
		a.mailer = newMailer(a.Config)
	} else {
		a.Echo.Logger.Warn("contact relay disabled: SMTP settings incomplete")
	}

	a.setupMiddleware()
	a.setupRoutes()

	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.Static("/public", a.Config.StaticDir)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)

	// Content API
	e.GET("/api/content/:section", a.handleGetContent)
	e.PUT("/api/content/:section", a.handlePutContent, requireAdmin)

	// Contact form
	e.POST("/api/contact", a.handleContact)
	e.GET("/api/messages", a.handleListMessages, requireAdmin)

	// Admin session
	e.POST("/admin/login", a.handleAdminLogin)
	e.POST("/admin/logout", handleAdminLogout)
	e.GET("/admin/session", handleAdminSession)

	// Image uploads referenced by Document.image
	e.POST("/api/images", a.handleImageUpload, requireAdmin)
}

func (a *App) handleRobots(c echo.Context) error {
	return c.File(a.Config.StaticDir + "/robots.txt")
}

// Close cleans up resources. Call when the app is shutting down.
func (a *App) Close() error {
	if a.messages != nil {
		return a.messages.Close()
	}
	return nil
}
