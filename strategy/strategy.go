// Copyright (c) 2025 BVK Chaitanya

// Package strategy defines strategy instance identities and the registry of
// strategy implementations.
package strategy

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/funttastic/fun-api-sub000/api"
)

// Key identifies a strategy instance.
type Key struct {
	Strategy string
	Version  string
	Instance string
}

func (k Key) Check() error {
	for _, v := range []string{k.Strategy, k.Version, k.Instance} {
		if len(v) == 0 || strings.ContainsAny(v, ":/") {
			return fmt.Errorf("invalid strategy instance key %q: %w", k.String(), os.ErrInvalid)
		}
	}
	return nil
}

// String returns the key in strategy:version:instance form.
func (k Key) String() string {
	return k.Strategy + ":" + k.Version + ":" + k.Instance
}

// WorkerKey returns the identity of a worker of this instance.
func (k Key) WorkerKey(workerID string) string {
	return k.String() + ":worker:" + workerID
}

// ParseKey parses a strategy:version:instance string.
func ParseKey(s string) (Key, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return Key{}, fmt.Errorf("invalid strategy instance key %q: %w", s, os.ErrInvalid)
	}
	k := Key{Strategy: parts[0], Version: parts[1], Instance: parts[2]}
	if err := k.Check(); err != nil {
		return Key{}, err
	}
	return k, nil
}

// RunState is the lifecycle state of strategy instances and their workers.
type RunState string

const (
	CREATED      RunState = "CREATED"
	INITIALIZING RunState = "INITIALIZING"
	RUNNING      RunState = "RUNNING"
	STOPPING     RunState = "STOPPING"
	STOPPED      RunState = "STOPPED"
)

// Instance is a running strategy instance and its workers.
type Instance interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Status() *api.StrategyStatus

	StartWorker(ctx context.Context, workerID string) error
	StopWorker(ctx context.Context, workerID string) error
	WorkerStatus(workerID string) (*api.WorkerStatus, error)
}

// Factory creates an instance for a key. Instances are not started.
type Factory func(ctx context.Context, key Key) (Instance, error)
