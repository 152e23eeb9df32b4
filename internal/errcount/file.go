package errcount

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/angeloszaimis/linkpulse/pkg/atomicfile"
)

// FileStore keeps the counters in a pretty-printed JSON object.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string { return s.path }

// Load returns an empty map when the file does not exist yet.
func (s *FileStore) Load(_ context.Context) (map[string]int, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]int{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	counts := map[string]int{}
	if err := json.Unmarshal(data, &counts); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return counts, nil
}

// Save replaces the file atomically.
func (s *FileStore) Save(_ context.Context, counts map[string]int) error {
	data, err := json.MarshalIndent(counts, "", "  ")
	if err != nil {
		return fmt.Errorf("encode error counters: %w", err)
	}
	return atomicfile.WriteFile(s.path, append(data, '\n'), 0o644)
}
