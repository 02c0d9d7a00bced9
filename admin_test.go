package siteserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestRequireAdminRejectsAnonymous(t *testing.T) {
	fake := newFakeGitHub()
	app, _ := newTestApp(t, fake)

	req := httptest.NewRequest(http.MethodPut, "/api/content/blogs", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	c := app.Echo.NewContext(req, rec)

	handler := requireAdmin(func(echo.Context) error {
		t.Fatal("handler ran without a session")
		return nil
	})
	if err := handler(c); err != nil {
		t.Fatalf("requireAdmin returned error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestAdminLoginWrongPassword(t *testing.T) {
	fake := newFakeGitHub()
	app, _ := newTestApp(t, fake)

	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(`{"password":"wrong"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := app.Echo.NewContext(req, rec)

	if err := app.handleAdminLogin(c); err != nil {
		t.Fatalf("handleAdminLogin returned error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestAdminLoginRateLimited(t *testing.T) {
	fake := newFakeGitHub()
	app, _ := newTestApp(t, fake)

	var last int
	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(`{"password":"wrong"}`))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "203.0.113.99:1234"
		rec := httptest.NewRecorder()
		c := app.Echo.NewContext(req, rec)
		if err := app.handleAdminLogin(c); err != nil {
			t.Fatalf("handleAdminLogin returned error: %v", err)
		}
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("status after repeated failures = %d, want 429", last)
	}
}
