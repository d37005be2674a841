// Package model guards exclusive access to lazily loaded inference models.
//
// A Handle loads its model on the first Acquire and lets at most one caller
// hold it at a time. Generation adapters own one handle per model.
package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/domain"
	"go.uber.org/atomic"
	"golang.org/x/sync/semaphore"
)

// ReleaseFunc returns the model to the handle. Safe to call more than once.
type ReleaseFunc func()

// LoadFunc produces the model value.
type LoadFunc[T any] func(ctx context.Context) (T, error)

// Handle serializes use of a single model.
type Handle[T any] struct {
	name string
	load LoadFunc[T]
	sem  *semaphore.Weighted

	loaded *atomic.Bool
	value  T // guarded by sem
}

// NewHandle creates a handle that loads the model with load on first use.
func NewHandle[T any](name string, load LoadFunc[T]) *Handle[T] {
	return &Handle[T]{
		name:   name,
		load:   load,
		sem:    semaphore.NewWeighted(1),
		loaded: atomic.NewBool(false),
	}
}

// Acquire waits for exclusive use of the model, loading it if needed.
// Waiting honours ctx. A failed load is reported as unavailable and retried
// by the next Acquire.
func (h *Handle[T]) Acquire(ctx context.Context) (T, ReleaseFunc, error) {
	var zero T
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return zero, nil, domain.CallFailed("acquire "+h.name, err)
	}

	if !h.loaded.Load() {
		v, err := h.load(ctx)
		if err != nil {
			h.sem.Release(1)
			return zero, nil, domain.Unavailable("load "+h.name, fmt.Errorf("model load failed: %w", err))
		}
		h.value = v
		h.loaded.Store(true)
	}

	var once sync.Once
	release := func() {
		once.Do(func() { h.sem.Release(1) })
	}
	return h.value, release, nil
}

// Loaded reports whether the model has been loaded.
func (h *Handle[T]) Loaded() bool {
	return h.loaded.Load()
}

// Name identifies the model in errors and logs.
func (h *Handle[T]) Name() string {
	return h.name
}

// With runs fn while holding the model.
func (h *Handle[T]) With(ctx context.Context, fn func(T) error) error {
	v, release, err := h.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return fn(v)
}
