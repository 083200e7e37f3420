// Copyright (c) 2025 BVK Chaitanya

package config

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// file is the on-disk layout. Worker entries are merged over the common
// section before decoding.
type file struct {
	Strategy string `yaml:"strategy"`
	Version  string `yaml:"version"`

	Supervisor Supervisor `yaml:"supervisor"`

	Common yaml.Node `yaml:"common"`

	Workers map[string]yaml.Node `yaml:"workers"`
}

// Source produces strategy configurations. Every Load returns a new value.
type Source interface {
	Load(ctx context.Context) (*Strategy, error)
}

// FileSource loads the configuration from a yaml file.
type FileSource string

func (v FileSource) Load(ctx context.Context) (*Strategy, error) {
	data, err := os.ReadFile(string(v))
	if err != nil {
		return nil, fmt.Errorf("could not read strategy configuration: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("could not parse %q: %w", string(v), err)
	}
	return s, nil
}

// Parse decodes the yaml configuration. Unknown fields are rejected.
func Parse(data []byte) (*Strategy, error) {
	var f file
	if err := decodeStrict(data, &f); err != nil {
		return nil, err
	}

	f.Supervisor.setDefaults()
	if err := f.Supervisor.Check(); err != nil {
		return nil, err
	}
	if len(f.Workers) == 0 {
		return nil, fmt.Errorf("at least one worker must be configured: %w", os.ErrInvalid)
	}

	s := &Strategy{
		Strategy:   f.Strategy,
		Version:    f.Version,
		Supervisor: f.Supervisor,
		workers:    make(map[string]*Worker),
	}
	for id, override := range f.Workers {
		merged := mergeNodes(&f.Common, &override)
		w := new(Worker)
		if merged != nil {
			data, err := yaml.Marshal(merged)
			if err != nil {
				return nil, fmt.Errorf("could not encode worker %q configuration: %w", id, err)
			}
			if err := decodeStrict(data, w); err != nil {
				return nil, fmt.Errorf("worker %q: %w", id, err)
			}
		}
		w.setDefaults()
		if err := w.Check(); err != nil {
			return nil, fmt.Errorf("worker %q: %w", id, err)
		}
		s.workers[id] = w
	}
	return s, nil
}

func decodeStrict(data []byte, v any) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("could not decode yaml: %w", err)
	}
	return nil
}

func isEmpty(n *yaml.Node) bool {
	if n == nil || n.Kind == 0 {
		return true
	}
	return n.Kind == yaml.ScalarNode && n.Tag == "!!null"
}

// mergeNodes overlays the override node on the base node. Mappings are merged
// key by key; any other override value replaces the base value.
func mergeNodes(base, override *yaml.Node) *yaml.Node {
	if base != nil && base.Kind == yaml.DocumentNode && len(base.Content) > 0 {
		base = base.Content[0]
	}
	if override != nil && override.Kind == yaml.DocumentNode && len(override.Content) > 0 {
		override = override.Content[0]
	}
	if isEmpty(override) {
		if isEmpty(base) {
			return nil
		}
		return base
	}
	if isEmpty(base) || base.Kind != yaml.MappingNode || override.Kind != yaml.MappingNode {
		return override
	}

	merged := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	merged.Content = append(merged.Content, base.Content...)
	for i := 0; i+1 < len(override.Content); i += 2 {
		key, value := override.Content[i], override.Content[i+1]

		found := false
		for j := 0; j+1 < len(merged.Content); j += 2 {
			if merged.Content[j].Value == key.Value {
				merged.Content[j+1] = mergeNodes(merged.Content[j+1], value)
				found = true
				break
			}
		}
		if !found {
			merged.Content = append(merged.Content, key, value)
		}
	}
	return merged
}
