package storage

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	catalogapp "github.com/slotbook/backend/internal/application/catalog"
)

// StubObjectStorage is used when no bucket is configured (local development).
// It hands out fake upload URLs and remembers deleted keys.
type StubObjectStorage struct {
	// BaseURL prefixes generated URLs. Defaults to "https://storage.example.com".
	BaseURL string
	Expiry  time.Duration

	mu      sync.Mutex
	deleted []string
}

// NewStubObjectStorage creates a new StubObjectStorage
func NewStubObjectStorage() *StubObjectStorage {
	return &StubObjectStorage{
		BaseURL: "https://storage.example.com",
		Expiry:  15 * time.Minute,
	}
}

var _ catalogapp.ObjectStorage = (*StubObjectStorage)(nil)

// PresignUpload returns a fake upload URL for key
func (s *StubObjectStorage) PresignUpload(_ context.Context, key, contentType string) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, errors.New("object key is required")
	}
	expiresAt := time.Now().Add(s.Expiry)
	q := url.Values{}
	q.Set("content_type", contentType)
	q.Set("expires", expiresAt.UTC().Format(time.RFC3339))
	return s.BaseURL + "/upload/" + key + "?" + q.Encode(), expiresAt, nil
}

// DeleteObject records the deletion
func (s *StubObjectStorage) DeleteObject(_ context.Context, key string) error {
	if key == "" {
		return errors.New("object key is required")
	}
	s.mu.Lock()
	s.deleted = append(s.deleted, key)
	s.mu.Unlock()
	return nil
}

// PublicURL returns the fake public URL of key
func (s *StubObjectStorage) PublicURL(key string) string {
	return s.BaseURL + "/" + key
}

// Deleted returns the keys deleted so far
func (s *StubObjectStorage) Deleted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}
