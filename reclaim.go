// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package respool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/petenewcomb/respool-go/timer"
	"go.uber.org/zap"
)

// A DelayedReleaser returns a checked-out instance to its pool once a known
// duration has elapsed. It is typically created in [Lifecycle.Bind] and armed
// in [Lifecycle.OnConfigured].
//
// Each arm is tied to the checkout that was current when it was armed: if the
// instance has been released, or released and taken again, by the time the
// duration elapses, the arm does nothing.
type DelayedReleaser[T any] struct {
	handle *Handle[T]
	clock  timer.Clock
	logger *zap.Logger

	mu      sync.Mutex
	current *delayedArm
}

type delayedArm struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func (a *delayedArm) finish() {
	a.once.Do(func() {
		close(a.done)
	})
}

var closedDone = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

type releaserConfig struct {
	clock  timer.Clock
	logger *zap.Logger
}

// A ReleaserOption configures a [DelayedReleaser].
type ReleaserOption func(*releaserConfig)

// WithClock sets the clock the releaser sleeps on. The default is
// [timer.RealClock].
func WithClock(c timer.Clock) ReleaserOption {
	if c == nil {
		panic("clock must be non-nil")
	}
	return func(cfg *releaserConfig) {
		cfg.clock = c
	}
}

// WithReleaserLogger sets the logger used to report reclamation failures. The
// default is the owning pool's logger.
func WithReleaserLogger(logger *zap.Logger) ReleaserOption {
	if logger == nil {
		panic("logger must be non-nil")
	}
	return func(cfg *releaserConfig) {
		cfg.logger = logger
	}
}

// NewDelayedReleaser creates an unarmed releaser for h.
func NewDelayedReleaser[T any](h *Handle[T], opts ...ReleaserOption) *DelayedReleaser[T] {
	if h == nil {
		panic("handle must be non-nil")
	}
	cfg := releaserConfig{
		clock:  timer.RealClock{},
		logger: h.pool.logger,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &DelayedReleaser[T]{
		handle: h,
		clock:  cfg.clock,
		logger: cfg.logger.With(zap.String("component", "delayed_releaser"), zap.String("handle", h.id)),
	}
}

// Arm cancels any previous arm and schedules a release of the current
// checkout after d, unless ctx is done or [DelayedReleaser.Cancel] is called
// first. A non-positive d releases before Arm returns.
func (r *DelayedReleaser[T]) Arm(ctx context.Context, d time.Duration) {
	generation := r.handle.Generation()

	r.mu.Lock()
	if r.current != nil {
		r.current.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	a := &delayedArm{cancel: cancel, done: make(chan struct{})}
	r.current = a
	r.mu.Unlock()

	if d <= 0 {
		defer a.finish()
		defer cancel()
		if ctx.Err() == nil {
			r.release(generation)
		}
		return
	}
	go r.run(ctx, a, generation, d)
}

// Cancel stops the current arm, if any. It is safe to call at any time and
// any number of times, including from the pool's release path.
func (r *DelayedReleaser[T]) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current != nil {
		r.current.cancel()
	}
}

// Done returns a channel that is closed once the most recent arm has ended,
// whether by releasing, by being canceled, or by failing. It is closed
// already if the releaser has never been armed.
func (r *DelayedReleaser[T]) Done() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return closedDone
	}
	return r.current.done
}

func (r *DelayedReleaser[T]) run(ctx context.Context, a *delayedArm, generation uint64, d time.Duration) {
	defer a.finish()
	defer a.cancel()

	if err := r.clock.Sleep(ctx, d); err != nil {
		r.logger.Debug("delayed release canceled", zap.Error(err))
		return
	}

	// An Arm for the same checkout may land between this check and the
	// release; the released generation's delay has already elapsed by then.
	r.mu.Lock()
	current := r.current == a && ctx.Err() == nil
	r.mu.Unlock()
	if !current {
		return
	}
	r.release(generation)
}

func (r *DelayedReleaser[T]) release(generation uint64) {
	defer func() {
		if p := recover(); p != nil {
			r.reportFailure(fmt.Errorf("release panicked: %v", p))
		}
	}()
	err := r.handle.ReleaseGeneration(generation)
	switch {
	case err == nil:
	case errors.Is(err, ErrStaleRelease):
		r.logger.Debug("delayed release skipped; checkout already ended")
	default:
		r.reportFailure(err)
	}
}

func (r *DelayedReleaser[T]) reportFailure(err error) {
	r.logger.Warn("delayed release failed; leaving resource checked out", zap.Error(err))
	p := r.handle.pool
	p.observer.Observe(Event{Kind: EventReclaimFailed, Pool: p.name, Handle: r.handle.id, Err: err})
}

// An EventReleaser returns a checked-out instance to its pool when an external
// "finished" signal arrives. No timing is involved.
type EventReleaser[T any] struct {
	handle *Handle[T]

	mu         sync.Mutex
	armed      bool
	generation uint64
}

// NewEventReleaser creates an unarmed releaser for h.
func NewEventReleaser[T any](h *Handle[T]) *EventReleaser[T] {
	if h == nil {
		panic("handle must be non-nil")
	}
	return &EventReleaser[T]{handle: h}
}

// Arm ties the next [EventReleaser.Finished] call to the current checkout.
func (r *EventReleaser[T]) Arm() {
	generation := r.handle.Generation()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.armed = true
	r.generation = generation
}

// Disarm forgets the armed checkout.
func (r *EventReleaser[T]) Disarm() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.armed = false
}

// Finished forwards the "finished" signal to the pool. If the releaser was
// armed, only the armed checkout is released and [ErrStaleRelease] is
// returned if it has already ended. Otherwise the current checkout is
// released as by [Pool.Release].
func (r *EventReleaser[T]) Finished() error {
	r.mu.Lock()
	armed, generation := r.armed, r.generation
	r.armed = false
	r.mu.Unlock()

	if armed {
		return r.handle.ReleaseGeneration(generation)
	}
	return r.handle.Release()
}
