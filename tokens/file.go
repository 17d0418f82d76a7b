package tokens

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists entries as one JSON file per (host, username) under
// <basedir>/emby_tokens/. The read-modify-write sequence is serialized with a
// single process-wide lock since the cache directory is shared by every
// connector in the process.
type FileStore struct {
	basedir string
	mu      sync.Mutex
}

// NewFileStore creates a file-backed store rooted at basedir.
func NewFileStore(basedir string) *FileStore {
	return &FileStore{basedir: basedir}
}

func (s *FileStore) path(host, username string) string {
	return filepath.Join(s.basedir, "emby_tokens", fmt.Sprintf("%s_%s.json", host, username))
}

// Load reads the cached entry. Missing file, malformed content and I/O errors
// all read as a cache miss.
func (s *FileStore) Load(_ context.Context, host, username string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(host, username))
	if err != nil {
		return nil, nil
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, nil
	}
	if entry.Token == "" {
		return nil, nil
	}
	return &entry, nil
}

// Save writes the entry, creating the cache directory if needed.
func (s *FileStore) Save(_ context.Context, host, username string, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(host, username)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create token cache dir: %w", err)
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token entry: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token cache: %w", err)
	}
	return nil
}

// Delete removes the cached entry. A missing file is not an error.
func (s *FileStore) Delete(_ context.Context, host, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(host, username)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token cache: %w", err)
	}
	return nil
}
