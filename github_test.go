package siteserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeGitHub emulates the contents API endpoints the store client uses:
// one JSON file per section under content/, addressed by sha.
type fakeGitHub struct {
	mu    sync.Mutex
	files map[string]fakeFile // keyed by section
	gets  int
	puts  int

	failGets     bool // GETs answer 500
	failPuts     bool // PUTs answer 502
	conflictPuts bool // PUTs answer 409 regardless of sha
}

type fakeFile struct {
	content []byte
	sha     string
}

func newFakeGitHub() *fakeGitHub {
	return &fakeGitHub{files: make(map[string]fakeFile)}
}

func (f *fakeGitHub) seed(t *testing.T, section string, doc Document) {
	t.Helper()
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		t.Fatalf("seed %s: %v", section, err)
	}
	f.mu.Lock()
	f.files[section] = fakeFile{content: raw, sha: fmt.Sprintf("sha-%s-%d", section, len(raw))}
	f.mu.Unlock()
}

// counts returns the GET and PUT totals under the lock.
func (f *fakeGitHub) counts() (gets, puts int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gets, f.puts
}

func (f *fakeGitHub) shaOf(section string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.files[section].sha
}

func (f *fakeGitHub) server(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		section := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/repos/acme/site/contents/content/"), ".json")

		f.mu.Lock()
		defer f.mu.Unlock()

		switch r.Method {
		case http.MethodGet:
			f.gets++
			if f.failGets {
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(map[string]string{"message": "boom"})
				return
			}
			file, ok := f.files[section]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				json.NewEncoder(w).Encode(map[string]string{"message": "Not Found"})
				return
			}
			json.NewEncoder(w).Encode(map[string]string{
				"content": wrapBase64(base64.StdEncoding.EncodeToString(file.content)),
				"sha":     file.sha,
			})

		case http.MethodPut:
			f.puts++
			if f.failPuts {
				w.WriteHeader(http.StatusBadGateway)
				json.NewEncoder(w).Encode(map[string]string{"message": "upstream unavailable"})
				return
			}
			var req commitRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			existing, exists := f.files[section]
			if f.conflictPuts || (exists && req.SHA != existing.sha) {
				w.WriteHeader(http.StatusConflict)
				json.NewEncoder(w).Encode(map[string]string{"message": "sha does not match"})
				return
			}
			raw, err := base64.StdEncoding.DecodeString(req.Content)
			if err != nil {
				w.WriteHeader(http.StatusUnprocessableEntity)
				return
			}
			f.files[section] = fakeFile{content: raw, sha: fmt.Sprintf("sha-%s-%d-%d", section, len(raw), f.puts)}
			json.NewEncoder(w).Encode(map[string]any{
				"content": map[string]string{"sha": f.files[section].sha},
			})

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

// wrapBase64 inserts newlines the way the contents API wraps file bodies.
func wrapBase64(s string) string {
	var b strings.Builder
	for len(s) > 60 {
		b.WriteString(s[:60])
		b.WriteString("\n")
		s = s[60:]
	}
	b.WriteString(s)
	return b.String()
}

func newTestStore(url string) *contentStore {
	return &contentStore{
		owner:   "acme",
		repo:    "site",
		branch:  "main",
		token:   "test-token",
		baseURL: url,
		client:  &http.Client{},
	}
}

func strPtr(s string) *string { return &s }

func TestFetchSectionDecodesDocument(t *testing.T) {
	fake := newFakeGitHub()
	fake.seed(t, "blogs", Document{
		Title:   "Insights",
		Content: "Para one.\n\nPara two.",
		Image:   strPtr("https://img.example.com/hero.jpg"),
	})
	store := newTestStore(fake.server(t).URL)

	doc, sha, err := store.fetchSection(context.Background(), "blogs")
	if err != nil {
		t.Fatalf("fetchSection failed: %v", err)
	}
	if doc.Title != "Insights" {
		t.Errorf("Title = %q, want %q", doc.Title, "Insights")
	}
	if doc.Content != "Para one.\n\nPara two." {
		t.Errorf("Content = %q", doc.Content)
	}
	if doc.Image == nil || *doc.Image != "https://img.example.com/hero.jpg" {
		t.Errorf("Image = %v", doc.Image)
	}
	if sha != fake.shaOf("blogs") {
		t.Errorf("sha = %q, want %q", sha, fake.shaOf("blogs"))
	}
}

func TestFetchSectionNotFoundReturnsDefault(t *testing.T) {
	fake := newFakeGitHub()
	store := newTestStore(fake.server(t).URL)

	doc, sha, err := store.fetchSection(context.Background(), "events")
	if err != nil {
		t.Fatalf("fetchSection failed: %v", err)
	}
	if sha != "" {
		t.Errorf("sha = %q, want empty for missing file", sha)
	}
	if doc.Title != defaultDocument("events").Title {
		t.Errorf("Title = %q, want default", doc.Title)
	}
}

func TestFetchSectionCorruptPayloadReturnsDefault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"content": "%%% not base64 %%%",
			"sha":     "sha-corrupt",
		})
	}))
	defer srv.Close()
	store := newTestStore(srv.URL)

	doc, sha, err := store.fetchSection(context.Background(), "blogs")
	if err != nil {
		t.Fatalf("fetchSection failed: %v", err)
	}
	if doc.Title != defaultDocument("blogs").Title {
		t.Errorf("Title = %q, want default for corrupt payload", doc.Title)
	}
	if sha != "sha-corrupt" {
		t.Errorf("sha = %q, want preserved so a save can replace the broken file", sha)
	}
}

func TestFetchSectionNonJSONContentReturnsDefault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"content": base64.StdEncoding.EncodeToString([]byte("this is not json")),
			"sha":     "sha-busted",
		})
	}))
	defer srv.Close()
	store := newTestStore(srv.URL)

	doc, sha, err := store.fetchSection(context.Background(), "teams")
	if err != nil {
		t.Fatalf("fetchSection failed: %v", err)
	}
	if doc.Title != defaultDocument("teams").Title {
		t.Errorf("Title = %q, want default", doc.Title)
	}
	if sha != "sha-busted" {
		t.Errorf("sha = %q, want %q", sha, "sha-busted")
	}
}

func TestFetchSectionServerErrorIsTransient(t *testing.T) {
	fake := newFakeGitHub()
	fake.failGets = true
	store := newTestStore(fake.server(t).URL)

	_, _, err := store.fetchSection(context.Background(), "blogs")
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	if !isTransient(err) {
		t.Errorf("expected 500 to be transient, got %v", err)
	}
}

func TestFetchSectionAuthErrorIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "Bad credentials"})
	}))
	defer srv.Close()
	store := newTestStore(srv.URL)

	_, _, err := store.fetchSection(context.Background(), "blogs")
	if err == nil {
		t.Fatal("expected error for 401 response")
	}
	if isTransient(err) {
		t.Error("401 must not be retried")
	}
	var storeErr *StoreError
	if !errors.As(err, &storeErr) || storeErr.Status != http.StatusUnauthorized {
		t.Errorf("expected StoreError with status 401, got %v", err)
	}
}

func TestCommitSectionCreateOmitsSHA(t *testing.T) {
	var captured commitRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]json.RawMessage
		json.NewDecoder(r.Body).Decode(&raw)
		if _, ok := raw["sha"]; ok {
			t.Error("sha must be omitted when creating a new file")
		}
		json.Unmarshal(raw["message"], &captured.Message)
		json.Unmarshal(raw["branch"], &captured.Branch)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("{}"))
	}))
	defer srv.Close()
	store := newTestStore(srv.URL)

	err := store.commitSection(context.Background(), "blogs", Document{Title: "T", Content: "C"}, "")
	if err != nil {
		t.Fatalf("commitSection failed: %v", err)
	}
	if captured.Branch != "main" {
		t.Errorf("branch = %q, want main", captured.Branch)
	}
	if !strings.Contains(captured.Message, "blogs") {
		t.Errorf("commit message %q should name the section", captured.Message)
	}
}

func TestCommitSectionUpdateSendsSHA(t *testing.T) {
	fake := newFakeGitHub()
	fake.seed(t, "blogs", Document{Title: "Old", Content: "Old body"})
	store := newTestStore(fake.server(t).URL)

	sha := fake.shaOf("blogs")
	if err := store.commitSection(context.Background(), "blogs", Document{Title: "New", Content: "New body"}, sha); err != nil {
		t.Fatalf("commitSection failed: %v", err)
	}
	if fake.shaOf("blogs") == sha {
		t.Error("expected sha to advance after commit")
	}
}

func TestCommitSectionStaleSHAIsConflict(t *testing.T) {
	fake := newFakeGitHub()
	fake.seed(t, "blogs", Document{Title: "Old", Content: "Old body"})
	store := newTestStore(fake.server(t).URL)

	err := store.commitSection(context.Background(), "blogs", Document{Title: "New", Content: "New body"}, "sha-stale")
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if conflict.Section != "blogs" {
		t.Errorf("conflict section = %q", conflict.Section)
	}
	if isTransient(err) {
		t.Error("conflicts must not be retried")
	}
}

func TestCommitSectionRateLimitedIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]string{"message": "rate limited"})
	}))
	defer srv.Close()
	store := newTestStore(srv.URL)

	err := store.commitSection(context.Background(), "blogs", Document{Title: "T", Content: "C"}, "sha")
	if err == nil {
		t.Fatal("expected error for 429 response")
	}
	if !isTransient(err) {
		t.Errorf("expected 429 to be transient, got %v", err)
	}
}

func TestCommitSectionStoredContentIsIndentedJSON(t *testing.T) {
	fake := newFakeGitHub()
	store := newTestStore(fake.server(t).URL)

	if err := store.commitSection(context.Background(), "blogs", Document{Title: "T", Content: "C"}, ""); err != nil {
		t.Fatalf("commitSection failed: %v", err)
	}
	fake.mu.Lock()
	raw := fake.files["blogs"].content
	fake.mu.Unlock()
	if !strings.Contains(string(raw), "\n  \"title\": \"T\"") {
		t.Errorf("stored file should be indented JSON, got:\n%s", raw)
	}
}

func TestFetchSectionTimesOut(t *testing.T) {
	if testing.Short() {
		t.Skip("timeout test")
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()
	store := newTestStore(srv.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, _, err := store.fetchSection(ctx, "blogs")
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !isTransient(err) {
		t.Errorf("timeouts must be retryable, got %v", err)
	}
}
