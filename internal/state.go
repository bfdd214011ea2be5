package internal

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// YAMLPointerStore keeps the active-session record in a small YAML file.
// Writes go to a temp file that is renamed over the target, so readers see
// either the old pair or the new pair.
type YAMLPointerStore struct {
	path string
}

type stateFile struct {
	ActiveSession *ActiveSession `yaml:"active_session,omitempty"`
}

// NewYAMLPointerStore creates a store backed by path
func NewYAMLPointerStore(path string) *YAMLPointerStore {
	return &YAMLPointerStore{path: path}
}

// Path returns the state file path
func (s *YAMLPointerStore) Path() string {
	return s.path
}

// Load reads the state file
func (s *YAMLPointerStore) Load() (ActiveSession, bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return ActiveSession{}, false, nil
		}
		return ActiveSession{}, false, &StorageError{Path: s.path, Op: "read", Err: err}
	}

	var state stateFile
	if err := yaml.Unmarshal(data, &state); err != nil {
		return ActiveSession{}, false, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	if state.ActiveSession == nil {
		return ActiveSession{}, false, nil
	}
	return *state.ActiveSession, true, nil
}

// Save replaces the state file atomically
func (s *YAMLPointerStore) Save(active ActiveSession) error {
	data, err := yaml.Marshal(stateFile{ActiveSession: &active})
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &StorageError{Path: dir, Op: "mkdir", Err: err}
	}

	tmp, err := os.CreateTemp(dir, ".state-*")
	if err != nil {
		return &StorageError{Path: s.path, Op: "write", Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &StorageError{Path: s.path, Op: "write", Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &StorageError{Path: s.path, Op: "write", Err: err}
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return &StorageError{Path: s.path, Op: "write", Err: err}
	}
	return nil
}

// Close is a no-op for the file store
func (s *YAMLPointerStore) Close() error {
	return nil
}
