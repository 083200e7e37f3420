// Copyright (c) 2025 BVK Chaitanya

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"sort"
	"time"

	"github.com/bvkgo/kv"
	"github.com/funttastic/fun-api-sub000/api"
	"github.com/funttastic/fun-api-sub000/kvutil"
	"github.com/funttastic/fun-api-sub000/strategy"
)

// InstancesKeyspace holds a record for every instance started through the
// controller and not stopped through the controller.
const InstancesKeyspace = "/server/instances"

// InstanceRecord is saved for every instance that is started through the
// controller.
type InstanceRecord struct {
	Key string

	StartedAt time.Time
}

func InstanceRecordKey(key strategy.Key) string {
	return path.Join(InstancesKeyspace, key.String())
}

func (s *Server) saveRecord(ctx context.Context, key strategy.Key) error {
	if s.db == nil {
		return nil
	}
	rec := &InstanceRecord{Key: key.String(), StartedAt: time.Now()}
	return kvutil.SetDB(ctx, s.db, InstanceRecordKey(key), rec)
}

func (s *Server) deleteRecord(ctx context.Context, key strategy.Key) error {
	if s.db == nil {
		return nil
	}
	if err := kvutil.DeleteDB(ctx, s.db, InstanceRecordKey(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *Server) loadRecords(ctx context.Context) ([]strategy.Key, error) {
	var keys []strategy.Key
	collect := func(ctx context.Context, _ kv.Reader, dbkey string, rec *InstanceRecord) error {
		key, err := strategy.ParseKey(rec.Key)
		if err != nil {
			slog.Warn("skipping invalid instance record", "dbkey", dbkey, "err", err)
			return nil
		}
		keys = append(keys, key)
		return nil
	}
	begin, end := kvutil.PathRange(InstancesKeyspace)
	if err := kvutil.AscendDB(ctx, s.db, begin, end, collect); err != nil {
		return nil, err
	}
	return keys, nil
}

// Resume starts the instances that have a record in the database. Instances
// that fail to start are logged and skipped.
func (s *Server) Resume(ctx context.Context) error {
	if s.opts.NoResume || s.db == nil {
		return nil
	}
	keys, err := s.loadRecords(ctx)
	if err != nil {
		return fmt.Errorf("could not load instance records: %w", err)
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	for _, key := range keys {
		if _, err := s.startInstance(ctx, key); err != nil {
			slog.Error("could not resume strategy instance (skipped)", "instance", key, "err", err)
			continue
		}
		slog.Info("resumed strategy instance", "instance", key)
	}
	return nil
}

func isRunning(inst strategy.Instance) bool {
	return inst.Status().RunState == string(strategy.RUNNING)
}

func (s *Server) getInstance(key strategy.Key) (strategy.Instance, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inst, ok := s.instanceMap[key]
	return inst, ok
}

// runningInstance returns the instance for a key if it is running.
func (s *Server) runningInstance(key strategy.Key) (strategy.Instance, error) {
	inst, ok := s.getInstance(key)
	if !ok || !isRunning(inst) {
		return nil, fmt.Errorf("strategy instance %s is not running: %w", key, os.ErrNotExist)
	}
	return inst, nil
}

// startInstance creates and starts an instance. Returns os.ErrExist if the
// instance is already running. Caller must hold opMu.
func (s *Server) startInstance(ctx context.Context, key strategy.Key) (strategy.Instance, error) {
	if inst, ok := s.getInstance(key); ok && isRunning(inst) {
		return nil, fmt.Errorf("strategy instance %s is already running: %w", key, os.ErrExist)
	}

	factory, err := s.registry.Lookup(key.Strategy, key.Version)
	if err != nil {
		return nil, err
	}
	inst, err := factory(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("could not create strategy instance %s: %w", key, err)
	}
	if err := inst.Start(ctx); err != nil {
		return nil, fmt.Errorf("could not start strategy instance %s: %w", key, err)
	}

	s.mu.Lock()
	s.instanceMap[key] = inst
	s.mu.Unlock()
	return inst, nil
}

func strategyKey(req *api.StrategyRequest) (strategy.Key, error) {
	key := strategy.Key{Strategy: req.Strategy, Version: req.Version, Instance: req.Instance}
	if err := key.Check(); err != nil {
		return strategy.Key{}, err
	}
	return key, nil
}

func workerKey(req *api.WorkerRequest) (strategy.Key, error) {
	if len(req.Worker) == 0 {
		return strategy.Key{}, fmt.Errorf("worker id cannot be empty: %w", os.ErrInvalid)
	}
	return strategyKey(&api.StrategyRequest{Strategy: req.Strategy, Version: req.Version, Instance: req.Instance})
}

// StrategyStart creates and starts a strategy instance unless it is already
// running. Start failures are returned as errors.
func (s *Server) StrategyStart(ctx context.Context, req *api.StrategyRequest) (*api.MessageResponse, error) {
	key, err := strategyKey(req)
	if err != nil {
		return nil, err
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	if _, err := s.startInstance(ctx, key); err != nil {
		if errors.Is(err, os.ErrExist) {
			return &api.MessageResponse{Message: "already running"}, nil
		}
		slog.Error("could not start strategy instance", "instance", key, "err", err)
		return nil, err
	}
	if err := s.saveRecord(ctx, key); err != nil {
		slog.Warn("could not save instance record (ignored)", "instance", key, "err", err)
	}
	slog.Info("started strategy instance", "instance", key)
	s.sendf(ctx, "Started strategy instance %s", key)
	return &api.MessageResponse{Message: "started"}, nil
}

// StrategyStop stops and discards a strategy instance.
func (s *Server) StrategyStop(ctx context.Context, req *api.StrategyRequest) (*api.MessageResponse, error) {
	key, err := strategyKey(req)
	if err != nil {
		return nil, err
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	inst, ok := s.getInstance(key)
	if ok {
		s.mu.Lock()
		delete(s.instanceMap, key)
		s.mu.Unlock()
	}
	if err := s.deleteRecord(ctx, key); err != nil {
		slog.Warn("could not delete instance record (ignored)", "instance", key, "err", err)
	}

	if !ok || !isRunning(inst) {
		return &api.MessageResponse{Message: "not running"}, nil
	}
	if err := inst.Stop(ctx); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &api.MessageResponse{Message: "not running"}, nil
		}
		slog.Error("could not stop strategy instance", "instance", key, "err", err)
		return nil, err
	}
	slog.Info("stopped strategy instance", "instance", key)
	s.sendf(ctx, "Stopped strategy instance %s", key)
	return &api.MessageResponse{Message: "stopped"}, nil
}

func (s *Server) StrategyStatus(ctx context.Context, req *api.StrategyRequest) (*api.StrategyStatus, error) {
	key, err := strategyKey(req)
	if err != nil {
		return nil, err
	}
	inst, ok := s.getInstance(key)
	if !ok {
		return nil, fmt.Errorf("strategy instance %s is not running: %w", key, os.ErrNotExist)
	}
	return inst.Status(), nil
}

func (s *Server) WorkerStart(ctx context.Context, req *api.WorkerRequest) (*api.MessageResponse, error) {
	key, err := workerKey(req)
	if err != nil {
		return nil, err
	}
	inst, err := s.runningInstance(key)
	if err != nil {
		return nil, err
	}
	if err := inst.StartWorker(ctx, req.Worker); err != nil {
		if errors.Is(err, os.ErrExist) {
			return &api.MessageResponse{Message: "already running"}, nil
		}
		return nil, err
	}
	return &api.MessageResponse{Message: "started"}, nil
}

func (s *Server) WorkerStop(ctx context.Context, req *api.WorkerRequest) (*api.MessageResponse, error) {
	key, err := workerKey(req)
	if err != nil {
		return nil, err
	}
	inst, err := s.runningInstance(key)
	if err != nil {
		return nil, err
	}
	if err := inst.StopWorker(ctx, req.Worker); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &api.MessageResponse{Message: "not running"}, nil
		}
		return nil, err
	}
	return &api.MessageResponse{Message: "stopped"}, nil
}

func (s *Server) WorkerStatus(ctx context.Context, req *api.WorkerRequest) (*api.WorkerStatus, error) {
	key, err := workerKey(req)
	if err != nil {
		return nil, err
	}
	inst, err := s.runningInstance(key)
	if err != nil {
		return nil, err
	}
	return inst.WorkerStatus(req.Worker)
}

// Instances returns the keys of the running instances in sorted order.
func (s *Server) Instances() []string {
	s.mu.Lock()
	insts := make(map[strategy.Key]strategy.Instance, len(s.instanceMap))
	for k, v := range s.instanceMap {
		insts[k] = v
	}
	s.mu.Unlock()

	var keys []string
	for k, inst := range insts {
		if isRunning(inst) {
			keys = append(keys, k.String())
		}
	}
	sort.Strings(keys)
	return keys
}
