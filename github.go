package siteserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	githubAPIBase = "https://api.github.com"
	userAgent     = "merrittgray-siteserver"

	// Reads are cheap and retried; writes carry a commit and get longer.
	readTimeout  = 10 * time.Second
	writeTimeout = 15 * time.Second
)

// storeTransport is shared by all remote store calls. Keep-alives matter
// here: every cache miss and every save hits the same host.
var storeTransport = &http.Transport{
	Proxy:               http.ProxyFromEnvironment,
	MaxIdleConns:        20,
	MaxIdleConnsPerHost: 20,
	IdleConnTimeout:     90 * time.Second,
	TLSHandshakeTimeout: 10 * time.Second,
	ForceAttemptHTTP2:   true,
	DialContext: (&net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
}

// contentStore reads and writes section documents through the GitHub contents
// API. Each section lives at content/<section>.json on the configured branch;
// the file sha is the optimistic-concurrency token on every update. It holds
// no local state beyond the HTTP client.
type contentStore struct {
	owner   string
	repo    string
	branch  string
	token   string
	baseURL string
	client  *http.Client
}

func newContentStore(cfg SiteConfig) *contentStore {
	return &contentStore{
		owner:   cfg.GitHubOwner,
		repo:    cfg.GitHubRepo,
		branch:  cfg.GitHubBranch,
		token:   cfg.GitHubToken,
		baseURL: githubAPIBase,
		client:  &http.Client{Transport: storeTransport},
	}
}

func (s *contentStore) contentURL(section string) string {
	return fmt.Sprintf("%s/repos/%s/%s/contents/content/%s.json", s.baseURL, s.owner, s.repo, section)
}

func (s *contentStore) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
}

// fetchSection returns the stored document and its current revision sha.
// A missing file yields the section default with an empty sha, which tells
// the write path to create rather than update. A payload that does not decode
// as a document is treated the same as a missing file, not as a fatal error;
// the sha is kept so a following save still replaces the broken file.
func (s *contentStore) fetchSection(ctx context.Context, section string) (Document, string, error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.contentURL(section), nil)
	if err != nil {
		return Document{}, "", err
	}
	s.setHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return Document{}, "", transient(fmt.Errorf("fetch %s: %w", section, err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return defaultDocument(section), "", nil
	case resp.StatusCode == http.StatusOK:
	default:
		return Document{}, "", classifyStatus(resp)
	}

	var envelope struct {
		Content string `json:"content"`
		SHA     string `json:"sha"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return Document{}, "", transient(fmt.Errorf("decode envelope for %s: %w", section, err))
	}

	// The contents API wraps base64 at 60 columns.
	raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(envelope.Content, "\n", ""))
	if err != nil {
		return defaultDocument(section), envelope.SHA, nil
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return defaultDocument(section), envelope.SHA, nil
	}
	return doc, envelope.SHA, nil
}

type commitRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch"`
	SHA     string `json:"sha,omitempty"`
}

// commitSection encodes doc and submits an update-or-create commit. sha must
// be the revision returned by fetchSection, or empty when the file does not
// exist yet. A sha that no longer matches the stored file reports
// ConflictError; the caller decides what to tell the admin.
func (s *contentStore) commitSection(ctx context.Context, section string, doc Document, sha string) error {
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", section, err)
	}

	body, err := json.Marshal(commitRequest{
		Message: fmt.Sprintf("Update %s content via admin panel - %s", section, time.Now().UTC().Format(time.RFC3339)),
		Content: base64.StdEncoding.EncodeToString(payload),
		Branch:  s.branch,
		SHA:     sha,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.contentURL(section), bytes.NewReader(body))
	if err != nil {
		return err
	}
	s.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return transient(fmt.Errorf("commit %s: %w", section, err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		return nil
	case resp.StatusCode == http.StatusConflict || resp.StatusCode == http.StatusUnprocessableEntity:
		// Stale or missing sha: someone else committed since our fetch.
		return &ConflictError{Section: section}
	default:
		return classifyStatus(resp)
	}
}

// classifyStatus sorts unexpected responses into transient failures the retry
// policy may absorb and permanent ones it must not.
func classifyStatus(resp *http.Response) error {
	msg := apiMessage(resp)
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return transient(&StoreError{Status: resp.StatusCode, Message: msg})
	}
	return &StoreError{Status: resp.StatusCode, Message: msg}
}

// apiMessage pulls the human-readable message out of a GitHub error body.
func apiMessage(resp *http.Response) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return ""
	}
	return body.Message
}
