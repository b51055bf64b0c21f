// Package filestore persists subscriber requests as a JSON file on local disk.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/couchcryptid/heatwatch-service/internal/domain"
)

// Store implements domain.DurableStore. Saves write a temp file next to the
// target and rename it into place, so a failed save leaves the previous
// snapshot intact.
type Store struct {
	path string
}

// New returns a store backed by path. Parent directories are created on the
// first save.
func New(path string) *Store {
	return &Store{path: path}
}

// Load returns the saved requests, or an empty slice if nothing was saved yet.
func (s *Store) Load(_ context.Context) ([]domain.SubscriberRequest, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []domain.SubscriberRequest{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	var requests []domain.SubscriberRequest
	if err := json.Unmarshal(data, &requests); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	if requests == nil {
		requests = []domain.SubscriberRequest{}
	}
	return requests, nil
}

func (s *Store) Save(ctx context.Context, requests []domain.SubscriberRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if requests == nil {
		requests = []domain.SubscriberRequest{}
	}

	data, err := json.MarshalIndent(requests, "", "  ")
	if err != nil {
		return fmt.Errorf("encode requests: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}
