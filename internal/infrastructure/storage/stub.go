// Package storage provides object storage for deliverable artifacts.
package storage

import (
	"context"
	"errors"
	"sync"
	"time"
)

// StubArtifactStore is an in-memory ArtifactStore used when no bucket is
// configured. Downloads fall back to proxying through the ERP instead.
type StubArtifactStore struct {
	// BaseURL is the base URL for generated download URLs
	BaseURL string

	mu      sync.RWMutex
	objects map[string][]byte
}

// NewStubArtifactStore creates a new StubArtifactStore
func NewStubArtifactStore() *StubArtifactStore {
	return &StubArtifactStore{
		BaseURL: "https://storage.example.com",
		objects: make(map[string][]byte),
	}
}

// Ensure StubArtifactStore implements ArtifactStore
var _ ArtifactStore = (*StubArtifactStore)(nil)

// GenerateDownloadURL generates a stub download URL
func (s *StubArtifactStore) GenerateDownloadURL(
	_ context.Context,
	storageKey string,
	expiresIn time.Duration,
) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}

	expiresAt := time.Now().Add(expiresIn)
	url := s.BaseURL + "/download/" + storageKey + "?expires=" + expiresAt.Format(time.RFC3339)
	return url, expiresAt, nil
}

// Upload keeps the artifact in memory
func (s *StubArtifactStore) Upload(_ context.Context, storageKey string, data []byte, _ string) error {
	if storageKey == "" {
		return errors.New("storage key is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[storageKey] = append([]byte(nil), data...)
	return nil
}

// ObjectExists reports whether the key has been uploaded this process
func (s *StubArtifactStore) ObjectExists(_ context.Context, storageKey string) (bool, error) {
	if storageKey == "" {
		return false, errors.New("storage key is required")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[storageKey]
	return ok, nil
}
