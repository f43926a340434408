package keystore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/JSayWhat/go-auth-api/internal/model"
)

var _ model.KeyRing = (*FileRing)(nil)

// FileRing persists the key ring as a JSON file. The file holds the entries
// newest first and is written with owner-only permissions.
type FileRing struct {
	path string
}

// NewFileRing creates a file-backed key ring at the given path.
func NewFileRing(path string) *FileRing {
	return &FileRing{path: path}
}

func (r *FileRing) Load(_ context.Context) ([]model.KeyEntry, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	var entries []model.KeyEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse key file: %w", err)
	}
	return entries, nil
}

func (r *FileRing) Save(_ context.Context, entries []model.KeyEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal key ring: %w", err)
	}

	if err := os.WriteFile(r.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write key file: %w", err)
	}
	return nil
}
