package siteserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// X-Cache values naming which path served a read. Tests and operators lean on
// these; keep them stable.
const (
	cacheTagHit           = "HIT"
	cacheTagMiss          = "MISS"
	cacheTagStale         = "STALE"
	cacheTagErrorFallback = "ERROR_FALLBACK"
)

// setNoCacheHeaders disables caching at every layer between the server and
// the browser. Freshness is the application's job here, not HTTP's: the
// in-process cache already bounds staleness, and a CDN caching on top of it
// would break the save-then-reload flow in the admin panel.
func setNoCacheHeaders(c echo.Context) {
	h := c.Response().Header()
	h.Set("Cache-Control", "no-store, no-cache, must-revalidate")
	h.Set("Pragma", "no-cache")
	h.Set("Expires", "0")
	h.Set("Surrogate-Control", "no-store")
}

func errorJSON(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"error": msg})
}

// handleGetContent serves GET /api/content/:section. Valid sections never
// 500: after the retry budget a stale cache entry is served, and failing
// that, the built-in default copy.
func (a *App) handleGetContent(c echo.Context) error {
	section, ok := normalizeSection(c.Param("section"))
	if !ok {
		return errorJSON(c, http.StatusBadRequest,
			"Invalid section. Must be one of: "+strings.Join(sectionNames, ", "))
	}

	setNoCacheHeaders(c)
	skipCache := c.QueryParam("fresh") == "true"

	if !skipCache {
		if doc, ok := a.cache.get(section); ok {
			c.Response().Header().Set("X-Cache", cacheTagHit)
			return c.JSON(http.StatusOK, doc)
		}
	}

	ctx := c.Request().Context()
	var doc Document
	err := withRetry(ctx, errReadExhausted, a.sleep, func() error {
		var ferr error
		doc, _, ferr = a.store.fetchSection(ctx, section)
		return ferr
	})
	if err != nil {
		if stale, ok := a.cache.getStale(section); ok {
			c.Logger().Warnf("content %s: serving stale cache: %v", section, err)
			c.Response().Header().Set("X-Cache", cacheTagStale)
			return c.JSON(http.StatusOK, stale)
		}
		c.Logger().Errorf("content %s: serving defaults: %v", section, err)
		c.Response().Header().Set("X-Cache", cacheTagErrorFallback)
		return c.JSON(http.StatusOK, defaultDocument(section))
	}

	if !skipCache {
		a.cache.put(section, doc)
	}
	c.Response().Header().Set("X-Cache", cacheTagMiss)
	return c.JSON(http.StatusOK, doc)
}

// handlePutContent serves PUT /api/content/:section. The document is fully
// replaced, never merged. A conflict means another writer committed between
// our sha fetch and the commit; it is surfaced, not papered over.
func (a *App) handlePutContent(c echo.Context) error {
	section, ok := normalizeSection(c.Param("section"))
	if !ok {
		return errorJSON(c, http.StatusBadRequest,
			"Invalid section. Must be one of: "+strings.Join(sectionNames, ", "))
	}

	var doc Document
	if err := json.NewDecoder(c.Request().Body).Decode(&doc); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid JSON in request body")
	}
	if missing := missingFields(doc); len(missing) > 0 {
		vErr := &ValidationError{Missing: missing}
		return errorJSON(c, http.StatusBadRequest, vErr.Error())
	}

	ctx := c.Request().Context()

	// Current revision token; empty when the file does not exist yet.
	var sha string
	err := withRetry(ctx, errReadExhausted, a.sleep, func() error {
		var ferr error
		_, sha, ferr = a.store.fetchSection(ctx, section)
		return ferr
	})
	if err != nil {
		return a.storeFailure(c, section, err)
	}

	err = withRetry(ctx, errWriteExhausted, a.sleep, func() error {
		return a.store.commitSection(ctx, section, doc, sha)
	})
	if err != nil {
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			return errorJSON(c, http.StatusConflict, conflict.Error())
		}
		return a.storeFailure(c, section, err)
	}

	a.cache.clearAll()
	c.Logger().Infof("content %s: saved, cache cleared", section)

	return c.JSON(http.StatusOK, map[string]any{
		"success":   true,
		"message":   "Content updated successfully",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"section":   section,
	})
}

// storeFailure renders a write-path store error. Losing an admin's edit must
// be visible, so this is always a 500, with details outside production.
func (a *App) storeFailure(c echo.Context, section string, err error) error {
	c.Logger().Errorf("content %s: store failure: %v", section, err)
	body := map[string]any{
		"error":     "Failed to save content",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if !a.Config.Production {
		body["details"] = err.Error()
	}
	return c.JSON(http.StatusInternalServerError, body)
}
