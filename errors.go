package siteserver

import (
	"errors"
	"fmt"
	"strings"
)

// errInvalidSection rejects section names outside the allow-list.
var errInvalidSection = errors.New("invalid section")

// Sentinels the content handler switches on after the retry budget is spent.
// Reads degrade to stale cache or defaults; writes surface the failure.
var (
	errReadExhausted  = errors.New("remote read retries exhausted")
	errWriteExhausted = errors.New("remote write retries exhausted")
)

// ValidationError reports required document fields that were missing or empty.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "Missing required fields: " + strings.Join(e.Missing, ", ")
}

// ConflictError means the revision token sent with a commit no longer matches
// the stored file: another writer committed first. Never retried
// automatically; the admin must reload and save again.
type ConflictError struct {
	Section string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("content for %q changed since it was loaded; reload and try again", e.Section)
}

// StoreError is a non-retryable remote store failure: auth rejection, a
// malformed request, or an unexpected status.
type StoreError struct {
	Status  int
	Message string
}

func (e *StoreError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("store error: status %d", e.Status)
	}
	return fmt.Sprintf("store error: status %d: %s", e.Status, e.Message)
}

// ConfigError reports required configuration values that were absent. It is
// fatal: the server refuses to start rather than fail on the first request.
type ConfigError struct {
	Missing []string
}

func (e *ConfigError) Error() string {
	return "missing required environment variables: " + strings.Join(e.Missing, ", ")
}

// transientError marks a failure the retry policy may absorb: network errors,
// rate limiting, 5xx responses, timeouts.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

func isTransient(err error) bool {
	var t *transientError
	return errors.As(err, &t)
}
