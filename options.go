// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package respool

import (
	"fmt"

	"go.uber.org/zap"
)

// DefaultCapacity is the number of idle instances a pool retains unless
// [WithCapacity] says otherwise.
const DefaultCapacity = 100

// An Option configures a [Pool] at construction.
type Option[T any] func(*Pool[T])

// WithName sets the name used in errors, logs, and observer events.
func WithName[T any](name string) Option[T] {
	return func(p *Pool[T]) {
		p.name = name
	}
}

// WithCapacity sets the maximum number of idle instances retained. Zero means
// every released instance is destroyed.
func WithCapacity[T any](capacity int) Option[T] {
	if capacity < 0 {
		panic(fmt.Sprintf("invalid capacity %d: must be >= 0", capacity))
	}
	return func(p *Pool[T]) {
		p.capacity = capacity
	}
}

// WithOrdering selects which idle instance is reused first. The default is
// [Stack].
func WithOrdering[T any](ordering Ordering) Option[T] {
	if ordering != Stack && ordering != Ring {
		panic(fmt.Sprintf("invalid ordering %v", ordering))
	}
	return func(p *Pool[T]) {
		p.idle.ordering = ordering
	}
}

// WithDoubleReleaseDetection controls whether releasing a handle that is not
// checked out returns a [DoubleReleaseError] (the default) or is silently
// ignored. Pool state is left unchanged either way.
func WithDoubleReleaseDetection[T any](enabled bool) Option[T] {
	return func(p *Pool[T]) {
		p.detectDoubleRelease = enabled
	}
}

// WithOnTake replaces the hook run once per checkout. The default activates
// resources that implement [Activator].
func WithOnTake[T any](fn func(T)) Option[T] {
	if fn == nil {
		panic("take hook must be non-nil")
	}
	return func(p *Pool[T]) {
		p.onTake = fn
	}
}

// WithOnRelease replaces the hook run once per return, after the resource's
// own [Lifecycle.Reset]. The default deactivates resources that implement
// [Activator].
func WithOnRelease[T any](fn func(T)) Option[T] {
	if fn == nil {
		panic("release hook must be non-nil")
	}
	return func(p *Pool[T]) {
		p.onRelease = fn
	}
}

// WithDestroy replaces the hook run when an instance is discarded. The default
// calls Destroy on resources that implement [Destroyer].
func WithDestroy[T any](fn func(T)) Option[T] {
	if fn == nil {
		panic("destroy hook must be non-nil")
	}
	return func(p *Pool[T]) {
		p.destroy = fn
	}
}

// WithLogger sets the logger used for diagnostics. The default is [zap.L] as
// of the call to [New].
func WithLogger[T any](logger *zap.Logger) Option[T] {
	if logger == nil {
		panic("logger must be non-nil")
	}
	return func(p *Pool[T]) {
		p.logger = logger
	}
}

// WithObserver sets an observer for pool events. See [Observers] to combine
// more than one.
func WithObserver[T any](o Observer) Option[T] {
	if o == nil {
		panic("observer must be non-nil")
	}
	return func(p *Pool[T]) {
		p.observer = o
	}
}
