package siteserver

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

const sessionName = "admin_session"

type loginRequest struct {
	Password string `json:"password"`
}

// handleAdminLogin serves POST /admin/login. Accepts either a JSON body or a
// form field, to keep the endpoint usable from the admin SPA and from curl.
func (a *App) handleAdminLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return errorJSON(c, http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}

	pass := c.FormValue("password")
	if pass == "" {
		var body loginRequest
		if err := json.NewDecoder(c.Request().Body).Decode(&body); err == nil {
			pass = body.Password
		}
	}

	if subtle.ConstantTimeCompare([]byte(pass), []byte(a.Config.AdminPassword)) != 1 {
		a.loginLimiter.Record(ip)
		return errorJSON(c, http.StatusUnauthorized, "Invalid password")
	}
	if err := setAdminSession(c); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"authenticated": true})
}

func handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"authenticated": false})
}

// handleAdminSession lets the admin SPA probe its auth state and pick up the
// CSRF token it must echo on unsafe requests.
func handleAdminSession(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"authenticated": isAdmin(c),
		"csrfToken":     csrfToken(c),
	})
}

// requireAdmin guards content writes and other admin-only endpoints. The API
// returns 401 JSON rather than redirecting; the SPA owns the login screen.
func requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !isAdmin(c) {
			return errorJSON(c, http.StatusUnauthorized, "Authentication required")
		}
		return next(c)
	}
}

// isAdmin checks if the current session is authenticated.
func isAdmin(c echo.Context) bool {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return false
	}
	auth, ok := sess.Values["authenticated"].(bool)
	return ok && auth
}

func setAdminSession(c echo.Context) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	sess.Values["authenticated"] = true
	return sess.Save(c.Request(), c.Response())
}

func clearAdminSession(c echo.Context) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	sess.Options.MaxAge = -1
	return sess.Save(c.Request(), c.Response())
}
