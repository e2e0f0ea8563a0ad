package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"storyfetch/internal/fileutil"
)

// Store reads and writes the persisted session blob on disk.
type Store struct {
	path string
}

// NewStore returns a store bound to the configured session file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the session file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the persisted session. The second return value reports whether
// a session file existed; a missing file is not an error.
func (s *Store) Load() (Settings, bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Settings{}, false, nil
		}
		return Settings{}, false, fmt.Errorf("read session file: %w", err)
	}

	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return Settings{}, true, fmt.Errorf("parse session file: %w", err)
	}
	return settings, true, nil
}

// Save persists the session blob, creating parent directories as needed.
// The write is atomic so a crashed run never leaves a truncated blob.
func (s *Store) Save(settings Settings) error {
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := fileutil.WriteFileAtomic(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

// EnsureParentDir creates the directory that will hold the session file.
// Called eagerly on first runs, before any login attempt.
func (s *Store) EnsureParentDir() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create session directory %q: %w", dir, err)
	}
	return nil
}
