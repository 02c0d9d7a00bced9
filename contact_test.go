package siteserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
)

func newContactApp(t *testing.T) *App {
	t.Helper()
	app, _ := newTestApp(t, newFakeGitHub())
	store, err := newMessageStore(filepath.Join(t.TempDir(), "messages.db"))
	if err != nil {
		t.Fatalf("message store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	app.messages = store
	return app
}

func doContact(t *testing.T, app *App, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := app.Echo.NewContext(req, rec)
	if err := app.handleContact(c); err != nil {
		t.Fatalf("handleContact returned error: %v", err)
	}
	return rec
}

func TestContactMissingFields(t *testing.T) {
	app := newContactApp(t)

	rec := doContact(t, app, `{"name":"A","email":"a@example.com"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	messages, err := app.messages.List(10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(messages) != 0 {
		t.Error("invalid submissions must not be stored")
	}
}

func TestContactStoresSubmission(t *testing.T) {
	app := newContactApp(t)

	// mailer is nil: relay disabled, submission still accepted and stored.
	rec := doContact(t, app, `{"name":"R. Iyer","email":"r@example.com","service":"FEMA","message":"Hello"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	messages, err := app.messages.List(10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(messages) != 1 || messages[0].Name != "R. Iyer" || messages[0].Body != "Hello" {
		t.Errorf("stored = %+v", messages)
	}
}

func TestListMessagesEmptyIsArray(t *testing.T) {
	app := newContactApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/messages", nil)
	rec := httptest.NewRecorder()
	c := app.Echo.NewContext(req, rec)
	if err := app.handleListMessages(c); err != nil {
		t.Fatalf("handleListMessages returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var out []Message
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("response must be a JSON array, got %s", rec.Body.String())
	}
	if out == nil {
		t.Error("empty list should decode as an empty array, not null")
	}
}
