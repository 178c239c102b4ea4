// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package respool

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ConstructFunc builds a new resource instance for a pool. See [FromTemplate]
// for building one out of a [Strategy] and a [Template].
type ConstructFunc[T any] func() (T, error)

// A Pool is a bounded cache of reusable resource instances of type T.
//
// A Pool must be created with [New] and is safe for concurrent use.
type Pool[T any] struct {
	name                string
	capacity            int
	detectDoubleRelease bool
	construct           ConstructFunc[T]
	onTake              func(T)
	onRelease           func(T)
	destroy             func(T)
	logger              *zap.Logger
	observer            Observer
	warnedMissing       atomic.Bool

	mu          sync.Mutex
	idle        idleSet[*Handle[T]]
	outstanding int
	closed      bool
}

// New creates a pool that builds instances with construct.
func New[T any](construct ConstructFunc[T], opts ...Option[T]) *Pool[T] {
	if construct == nil {
		panic("construct function must be non-nil")
	}
	p := &Pool[T]{
		name:                fmt.Sprintf("%v", reflect.TypeFor[T]()),
		capacity:            DefaultCapacity,
		detectDoubleRelease: true,
		construct:           construct,
		onTake:              activate[T],
		onRelease:           deactivate[T],
		destroy:             destroy[T],
		logger:              zap.L(),
		observer:            nopObserver{},
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With(zap.String("pool", p.name))
	return p
}

// Name returns the pool's name.
func (p *Pool[T]) Name() string {
	return p.name
}

// Capacity returns the maximum number of idle instances retained.
func (p *Pool[T]) Capacity() int {
	return p.capacity
}

// Take checks out an instance, reusing an idle one if available and
// constructing a new one otherwise. The instance has been activated by the
// pool's take hook before Take returns.
//
// Take fails with a [*ConstructionError] if a new instance was needed and
// could not be built, and with [ErrClosed] after [Pool.Close].
func (p *Pool[T]) Take() (*Handle[T], error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrClosed
	}
	h, reused := p.idle.pop()
	if reused {
		h.state = stateCheckedOut
		h.generation++
		p.outstanding++
	}
	p.mu.Unlock()

	if !reused {
		var err error
		h, err = p.build()
		if err != nil {
			return nil, err
		}
	}

	p.onTake(h.value)
	h.active.Store(true)
	p.logger.Debug("took resource", zap.String("handle", h.id), zap.Bool("reused", reused))
	p.observer.Observe(Event{Kind: EventTaken, Pool: p.name, Handle: h.id, Reused: reused})
	return h, nil
}

// TakeConfigured takes an instance, passes it to configure, and then calls
// [Handle.Configured], so that no other caller can observe the instance
// between checkout and the end of its configuration. If configure returns an
// error the instance is released again and the error is returned.
func (p *Pool[T]) TakeConfigured(configure func(T) error) (*Handle[T], error) {
	if configure == nil {
		panic("configure function must be non-nil")
	}
	h, err := p.Take()
	if err != nil {
		return nil, err
	}
	if err := configure(h.value); err != nil {
		if releaseErr := p.Release(h); releaseErr != nil {
			p.logger.Warn("failed to release misconfigured resource",
				zap.String("handle", h.id), zap.Error(releaseErr))
		}
		return nil, err
	}
	h.Configured()
	return h, nil
}

func (p *Pool[T]) build() (*Handle[T], error) {
	v, err := p.construct()
	if err == nil {
		if validator, ok := any(v).(Validator); ok {
			err = validator.Validate()
		}
	}
	if err != nil {
		if !isZero(v) {
			p.destroy(v)
		}
		cerr := &ConstructionError{Pool: p.name, Err: err}
		p.logger.Error("failed to construct resource; destroyed partial instance", zap.Error(err))
		p.observer.Observe(Event{Kind: EventConstructionFailed, Pool: p.name, Err: cerr})
		return nil, cerr
	}

	h := &Handle[T]{
		id:         uuid.NewString(),
		pool:       p,
		value:      v,
		state:      stateCheckedOut,
		generation: 1,
	}
	if lc, ok := any(v).(Lifecycle[T]); ok {
		h.lifecycle = lc
		lc.Bind(h)
	} else if p.warnedMissing.CompareAndSwap(false, true) {
		p.logger.Warn("pooled resource does not implement respool.Lifecycle; it will need manual releasing",
			zap.String("type", fmt.Sprintf("%T", v)))
		p.observer.Observe(Event{Kind: EventMissingCapability, Pool: p.name, Handle: h.id, Err: ErrMissingCapability})
	}

	p.mu.Lock()
	p.outstanding++
	p.mu.Unlock()

	p.observer.Observe(Event{Kind: EventConstructed, Pool: p.name, Handle: h.id})
	return h, nil
}

// Release returns a checked-out instance to the pool. The resource's
// [Lifecycle.Reset] runs first, then the pool's release hook deactivates it,
// and finally it is either added to the idle collection or, if that already
// holds Capacity instances, destroyed.
//
// Releasing a handle that is not checked out is a double release: with
// detection enabled it returns a [*DoubleReleaseError], otherwise it is
// ignored. Either way the pool's state is unchanged. Releasing a handle from
// another pool returns [ErrForeignHandle].
//
// If a hook panics, the instance stays checked out and the panic propagates.
func (p *Pool[T]) Release(h *Handle[T]) error {
	return p.release(h, 0, false)
}

func (p *Pool[T]) release(h *Handle[T], generation uint64, checkGeneration bool) error {
	if h == nil {
		panic("handle must be non-nil")
	}
	if h.pool != p {
		return ErrForeignHandle
	}

	p.mu.Lock()
	if h.state != stateCheckedOut || (checkGeneration && h.generation != generation) {
		state := h.state
		p.mu.Unlock()
		if checkGeneration {
			return ErrStaleRelease
		}
		if !p.detectDoubleRelease {
			return nil
		}
		err := &DoubleReleaseError{Pool: p.name, Handle: h.id, State: state.String()}
		p.logger.Warn("double release", zap.String("handle", h.id), zap.Stringer("state", state))
		p.observer.Observe(Event{Kind: EventDoubleRelease, Pool: p.name, Handle: h.id, Err: err})
		return err
	}
	h.state = stateReleasing
	p.mu.Unlock()

	completed := false
	defer func() {
		if !completed {
			p.mu.Lock()
			h.state = stateCheckedOut
			p.mu.Unlock()
		}
	}()
	if h.lifecycle != nil {
		h.lifecycle.Reset()
	}
	p.onRelease(h.value)
	h.active.Store(false)
	completed = true

	p.mu.Lock()
	p.outstanding--
	retain := !p.closed && p.idle.len() < p.capacity
	if retain {
		h.state = stateIdle
		p.idle.push(h)
	} else {
		h.state = stateDestroyed
	}
	p.mu.Unlock()

	p.logger.Debug("released resource", zap.String("handle", h.id), zap.Bool("retained", retain))
	p.observer.Observe(Event{Kind: EventReleased, Pool: p.name, Handle: h.id, Retained: retain})
	if !retain {
		p.discard(h)
	}
	return nil
}

// Drain destroys every idle instance. Checked-out instances are unaffected
// and will be retained or destroyed as usual when released.
func (p *Pool[T]) Drain() {
	p.mu.Lock()
	drained := make([]*Handle[T], 0, p.idle.len())
	for {
		h, ok := p.idle.pop()
		if !ok {
			break
		}
		h.state = stateDestroyed
		drained = append(drained, h)
	}
	p.mu.Unlock()

	for _, h := range drained {
		p.discard(h)
	}
}

// Close drains the pool and prevents further reuse: later calls to Take fail
// with [ErrClosed] and instances released afterwards are destroyed rather
// than retained. Calling Close more than once has no additional effect.
func (p *Pool[T]) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.Drain()
}

// IdleCount returns the number of instances available for reuse.
func (p *Pool[T]) IdleCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.idle.len()
}

// Outstanding returns the number of instances currently checked out,
// including any in the middle of being released.
func (p *Pool[T]) Outstanding() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.outstanding
}

func (p *Pool[T]) discard(h *Handle[T]) {
	p.destroy(h.value)
	p.observer.Observe(Event{Kind: EventDestroyed, Pool: p.name, Handle: h.id})
}

func isZero[T any](v T) bool {
	return reflect.ValueOf(&v).Elem().IsZero()
}
