package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mordonez/healthdash/internal/health"
)

// FileStore persists the merged day-indexed dataset as a JSON file.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore writing to the given path. The parent
// directory is created on first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the dataset file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the stored dataset. A missing file is an empty dataset, not an
// error; old files with unknown fields load fine since decoding ignores them.
func (s *FileStore) Load() ([]health.DailyRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read dataset %s: %w", s.path, err)
	}

	var records []health.DailyRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode dataset %s: %w", s.path, err)
	}
	return records, nil
}

// Save writes the dataset atomically (write temp file, then rename).
func (s *FileStore) Save(records []health.DailyRecord) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace dataset: %w", err)
	}
	return nil
}
