package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"DailyByte/internal/ports"
)

// FileStore keeps each state key as a JSON document inside a directory.
type FileStore struct {
	dir string
}

var _ ports.StateStore = (*FileStore)(nil)

// NewFileStore ensures the directory exists.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Path returns the file backing key.
func (s *FileStore) Path(key string) string {
	switch key {
	case "raw", "curated":
		return filepath.Join(s.dir, "digest_"+key+".json")
	default:
		return filepath.Join(s.dir, sanitizeKey(key)+".json")
	}
}

// Put writes the document atomically (temp file + rename).
func (s *FileStore) Put(_ context.Context, key string, value []byte) error {
	target := s.Path(key)
	tmp, err := os.CreateTemp(s.dir, ".state-*")
	if err != nil {
		return fmt.Errorf("create temp state: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write state %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close state %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("store state %s: %w", key, err)
	}
	return nil
}

// Get reads the document or returns ports.ErrStateNotFound.
func (s *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	raw, err := os.ReadFile(s.Path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("state %s: %w", key, ports.ErrStateNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read state %s: %w", key, err)
	}
	return raw, nil
}

func sanitizeKey(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, key)
}
