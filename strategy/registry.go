// Copyright (c) 2025 BVK Chaitanya

package strategy

import (
	"fmt"
	"os"
	"sort"
	"sync"
)

type registryKey struct {
	strategy, version string
}

// Registry maps a strategy name and version to its factory.
type Registry struct {
	mu sync.Mutex

	factories map[registryKey]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[registryKey]Factory)}
}

func (r *Registry) Register(strategy, version string, f Factory) error {
	if len(strategy) == 0 || len(version) == 0 || f == nil {
		return os.ErrInvalid
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	k := registryKey{strategy, version}
	if _, ok := r.factories[k]; ok {
		return fmt.Errorf("strategy %s version %s is already registered: %w", strategy, version, os.ErrExist)
	}
	r.factories[k] = f
	return nil
}

func (r *Registry) Lookup(strategy, version string) (Factory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.factories[registryKey{strategy, version}]
	if !ok {
		return nil, fmt.Errorf("strategy %s version %s is not supported: %w", strategy, version, os.ErrNotExist)
	}
	return f, nil
}

// List returns the registered strategies in strategy:version form.
func (r *Registry) List() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var vs []string
	for k := range r.factories {
		vs = append(vs, k.strategy+":"+k.version)
	}
	sort.Strings(vs)
	return vs
}
