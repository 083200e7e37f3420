// Copyright (c) 2023 BVK Chaitanya

package server

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/funttastic/fun-api-sub000/pushover"
	"github.com/funttastic/fun-api-sub000/telegram"
)

// GatewaySecrets holds the gateway address and the mutual-TLS credentials.
type GatewaySecrets struct {
	BaseURL string `json:"base_url"`

	CertFile string `json:"cert_file"`
	KeyFile  string `json:"key_file"`
	CAFile   string `json:"ca_file"`
}

func (v *GatewaySecrets) Check() error {
	if len(v.BaseURL) == 0 {
		return fmt.Errorf("gateway base url cannot be empty")
	}
	if (len(v.CertFile) == 0) != (len(v.KeyFile) == 0) {
		return fmt.Errorf("gateway certificate and key files must be given together")
	}
	return nil
}

type Secrets struct {
	Gateway  *GatewaySecrets   `json:"gateway"`
	Pushover *pushover.Keys    `json:"pushover"`
	Telegram *telegram.Secrets `json:"telegram"`
}

func SecretsFromFile(fpath string) (*Secrets, error) {
	data, err := os.ReadFile(fpath)
	if err != nil {
		return nil, err
	}
	s := new(Secrets)
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("could not parse secrets file %q: %w", fpath, err)
	}
	return s, nil
}

func (v *Secrets) Check() error {
	if v.Gateway != nil {
		if err := v.Gateway.Check(); err != nil {
			return err
		}
	}
	if v.Pushover != nil {
		if err := v.Pushover.Check(); err != nil {
			return err
		}
	}
	if v.Telegram != nil {
		if err := v.Telegram.Check(); err != nil {
			return err
		}
	}
	return nil
}
