// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package respool

// Lifecycle is implemented by resources that cooperate with their pool.
//
// The pool calls Bind exactly once, right after the instance is constructed
// and before it is handed to any caller. The caller calls OnConfigured (for
// instance through [Handle.Configured] or [Pool.TakeConfigured]) after it has
// finished configuring the instance for a checkout; this is where automatic
// reclamation is armed. The pool calls Reset at the start of every release,
// before the instance is deactivated, and Reset must leave the instance
// indistinguishable from a freshly constructed, unconfigured one.
type Lifecycle[T any] interface {
	Bind(h *Handle[T])
	OnConfigured()
	Reset()
}

// Activator is implemented by resources that have a visible or enabled state.
// Unless replaced with [WithOnTake] or [WithOnRelease], the pool activates an
// instance when it is taken and deactivates it when it is released.
type Activator interface {
	SetActive(active bool)
}

// Destroyer is implemented by resources that hold something that must be torn
// down explicitly. Unless replaced with [WithDestroy], the pool calls Destroy
// when it discards an instance.
type Destroyer interface {
	Destroy()
}

// Validator is implemented by resources that can detect that they were built
// incompletely. A non-nil result from Validate fails the take with a
// [ConstructionError].
type Validator interface {
	Validate() error
}

func activate[T any](v T) {
	if a, ok := any(v).(Activator); ok {
		a.SetActive(true)
	}
}

func deactivate[T any](v T) {
	if a, ok := any(v).(Activator); ok {
		a.SetActive(false)
	}
}

func destroy[T any](v T) {
	if d, ok := any(v).(Destroyer); ok {
		d.Destroy()
	}
}
