// Copyright (c) 2025 BVK Chaitanya

package cmdutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// DataDir returns the absolute path of the data directory, which is created
// when it doesn't exist. Empty dir selects $HOME/.funapi directory.
func DataDir(dir string) (string, error) {
	if len(dir) == 0 {
		dir = filepath.Join(os.Getenv("HOME"), ".funapi")
	}
	if _, err := os.Stat(dir); err != nil {
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("could not stat data directory %q: %w", dir, err)
		}
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return "", fmt.Errorf("could not create data directory %q: %w", dir, err)
		}
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("could not determine data-dir %q absolute path: %w", dir, err)
	}
	return abs, nil
}

// SecretsFile returns the default secrets file path in the data directory.
func SecretsFile(dataDir string) string {
	return filepath.Join(dataDir, "secrets.json")
}

// DatabaseDir returns the badger database directory in the data directory.
func DatabaseDir(dataDir string) string {
	return filepath.Join(dataDir, "db")
}
