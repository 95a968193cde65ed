package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

const filePermission = 0600

// FileStore persists the whole mapping as one JSON object per store file,
// rewritten on every Put. Reads are served from memory; an unreadable or
// corrupt backing file is treated as an empty cache (fail-open) so that one
// bad file never blocks resolution for the rest of the batch.
type FileStore struct {
	path    string
	logger  *zap.Logger
	mu      sync.Mutex
	entries map[string]string
}

func NewFileStore(path string, logger *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	s := &FileStore{
		path:    path,
		logger:  logger,
		entries: make(map[string]string),
	}
	s.load()
	return s, nil
}

func (s *FileStore) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("Cache file unreadable, starting empty",
				zap.String("path", s.path),
				zap.Error(err))
		}
		return
	}

	if err := json.Unmarshal(data, &s.entries); err != nil {
		s.logger.Warn("Cache file corrupt, starting empty",
			zap.String("path", s.path),
			zap.Error(err))
		s.entries = make(map[string]string)
	}
}

func (s *FileStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.entries[key]
	return value, ok
}

func (s *FileStore) Put(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(key, value)
}

func (s *FileStore) put(key, value string) error {
	s.entries[key] = value
	return s.persist()
}

func (s *FileStore) persist() error {
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cache: %w", err)
	}

	if err := os.WriteFile(s.path, data, filePermission); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	return nil
}

func (s *FileStore) GetOrResolve(key string, resolver func() (string, error)) (string, error) {
	if value, ok := s.Get(key); ok {
		return value, nil
	}

	// The lock is not held across the resolver; keys are 1:1 with songs, so
	// concurrent resolutions never race on the same key.
	value, err := resolver()
	if err != nil {
		return "", err
	}

	if err := s.Put(key, value); err != nil {
		// The resolved value stays valid for this run even when persistence
		// failed; the caller decides how loudly to complain.
		return value, err
	}

	return value, nil
}

func (s *FileStore) Close() error {
	return nil
}

// Size returns the number of keys for which resolution was attempted.
func (s *FileStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
