package internal

import (
	"fmt"
	"os"
	"path/filepath"
)

// DataDirName is the default data directory under the user's home
const DataDirName = ".duckchat"

// DataPaths holds the locations inside the data directory
type DataPaths struct {
	Root     string // data directory
	Sessions string // session logs
	Config   string // config.yaml
}

// DefaultDataDir returns ~/.duckchat
func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, DataDirName), nil
}

// ResolveDataPaths builds the layout for root, or for the default data
// directory when root is empty
func ResolveDataPaths(root string) (DataPaths, error) {
	if root == "" {
		dir, err := DefaultDataDir()
		if err != nil {
			return DataPaths{}, err
		}
		root = dir
	}
	return DataPaths{
		Root:     root,
		Sessions: filepath.Join(root, "sessions"),
		Config:   ConfigPath(root),
	}, nil
}

// Ensure creates the data and sessions directories
func (p DataPaths) Ensure() error {
	for _, dir := range []string{p.Root, p.Sessions} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return &StorageError{Path: dir, Op: "mkdir", Err: err}
		}
	}
	return nil
}

// Exists reports whether the data directory exists
func (p DataPaths) Exists() bool {
	info, err := os.Stat(p.Root)
	return err == nil && info.IsDir()
}
