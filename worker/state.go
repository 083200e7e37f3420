// Copyright (c) 2025 BVK Chaitanya

package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"sort"

	"github.com/funttastic/fun-api-sub000/idgen"
	"github.com/funttastic/fun-api-sub000/kvutil"
	"github.com/shopspring/decimal"
)

const Keyspace = "/workers"

// State is the persistent bookkeeping of a worker.
type State struct {
	// TrackedIDs holds venue ids of all orders ever placed by the worker.
	TrackedIDs []string

	// CurrentIDs holds venue ids of the orders placed in the last tick.
	CurrentIDs []string

	// ClientIDOffset is the number of client ids generated so far.
	ClientIDOffset uint64

	HasInitialValue bool
	InitialValue    decimal.Decimal
}

func StateKey(workerKey string) string {
	return path.Join(Keyspace, workerKey, "state")
}

func toSet(ids []string) map[string]struct{} {
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}

func fromSet(m map[string]struct{}) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// loadState restores the bookkeeping from the database. A missing state is
// not an error.
func (w *Worker) loadState(ctx context.Context) error {
	state := new(State)
	if w.rt.Database != nil {
		v, err := kvutil.GetDB[State](ctx, w.rt.Database, StateKey(w.key))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("could not load worker state: %w", err)
		}
		if v != nil {
			state = v
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.tracked = toSet(state.TrackedIDs)
	w.current = toSet(state.CurrentIDs)
	w.ids = idgen.New(w.key, state.ClientIDOffset)
	w.hasInitialValue = state.HasInitialValue
	w.initialValue = state.InitialValue
	return nil
}

func (w *Worker) saveState(ctx context.Context) {
	if w.rt.Database == nil {
		return
	}

	w.mu.Lock()
	state := &State{
		TrackedIDs:      fromSet(w.tracked),
		CurrentIDs:      fromSet(w.current),
		ClientIDOffset:  w.ids.Offset(),
		HasInitialValue: w.hasInitialValue,
		InitialValue:    w.initialValue,
	}
	w.mu.Unlock()

	if err := kvutil.SetDB(ctx, w.rt.Database, StateKey(w.key), state); err != nil {
		slog.Warn("could not save worker state (ignored)", "worker", w.key, "err", err)
	}
}
