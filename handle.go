// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package respool

import (
	"sync/atomic"
)

type handleState int8

const (
	stateIdle handleState = iota
	stateCheckedOut
	stateReleasing
	stateDestroyed
)

func (s handleState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateCheckedOut:
		return "checked out"
	case stateReleasing:
		return "being released"
	case stateDestroyed:
		return "destroyed"
	default:
		return "invalid"
	}
}

// A Handle is the unit of ownership for one pooled resource instance. It is
// created when the instance is constructed and keeps the same identity and
// pool back-reference until the instance is destroyed.
type Handle[T any] struct {
	id        string
	pool      *Pool[T]
	value     T
	lifecycle Lifecycle[T]
	active    atomic.Bool

	// Guarded by pool.mu.
	state      handleState
	generation uint64
}

// ID returns a string that uniquely identifies the instance.
func (h *Handle[T]) ID() string {
	return h.id
}

// Value returns the pooled resource.
func (h *Handle[T]) Value() T {
	return h.value
}

// Pool returns the pool that owns the instance.
func (h *Handle[T]) Pool() *Pool[T] {
	return h.pool
}

// Active reports whether the instance is currently checked out and
// activated.
func (h *Handle[T]) Active() bool {
	return h.active.Load()
}

// CheckedOut reports whether the instance is currently owned by a caller.
func (h *Handle[T]) CheckedOut() bool {
	h.pool.mu.Lock()
	defer h.pool.mu.Unlock()
	return h.state == stateCheckedOut
}

// Generation returns a number that changes every time the instance is taken
// from the pool. Pass it to [Handle.ReleaseGeneration] to release only the
// checkout that was current when it was read.
func (h *Handle[T]) Generation() uint64 {
	h.pool.mu.Lock()
	defer h.pool.mu.Unlock()
	return h.generation
}

// Release returns the instance to its pool. See [Pool.Release].
func (h *Handle[T]) Release() error {
	return h.pool.Release(h)
}

// ReleaseGeneration releases the instance only if it is still checked out
// under the given generation, and returns [ErrStaleRelease] otherwise.
func (h *Handle[T]) ReleaseGeneration(generation uint64) error {
	return h.pool.release(h, generation, true)
}

// Configured tells a [Lifecycle] resource that the caller has finished
// configuring it for the current checkout. It does nothing for resources that
// do not implement Lifecycle.
func (h *Handle[T]) Configured() {
	if h.lifecycle != nil {
		h.lifecycle.OnConfigured()
	}
}
