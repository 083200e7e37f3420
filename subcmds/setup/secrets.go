// Copyright (c) 2025 BVK Chaitanya

package setup

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/funttastic/fun-api-sub000/server"
	"github.com/funttastic/fun-api-sub000/subcmds/cmdutil"
)

// loadSecrets returns the secrets file path and its current contents, which
// is empty when the file doesn't exist yet.
func loadSecrets(dataDir string) (string, *server.Secrets, error) {
	dir, err := cmdutil.DataDir(dataDir)
	if err != nil {
		return "", nil, err
	}
	secretsPath := cmdutil.SecretsFile(dir)
	secrets, err := server.SecretsFromFile(secretsPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return "", nil, err
		}
		secrets = new(server.Secrets)
	}
	return secretsPath, secrets, nil
}

func saveSecrets(secretsPath string, secrets *server.Secrets) error {
	if err := secrets.Check(); err != nil {
		return err
	}
	js, err := json.MarshalIndent(secrets, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(secretsPath, js, os.FileMode(0600))
}
