// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package timer

import (
	"context"
	"sync"
	"time"
)

// A Timer tracks a single wait interval at a time. It is safe for concurrent
// use, and its notifications are always delivered after the state change that
// caused them and outside of the timer's internal lock, so listeners may call
// back into the timer.
//
// A Timer must be created with [New].
type Timer struct {
	interval time.Duration
	clock    Clock

	mu       sync.Mutex
	state    State
	elapsed  time.Duration
	target   time.Duration
	epoch    uint64
	abort    context.CancelFunc
	ready    listeners
	notReady listeners
}

// Option configures a [Timer].
type Option func(*Timer)

// StartReady selects the initial state: [Ready] if ready is true (the
// default), otherwise [Off].
func StartReady(ready bool) Option {
	return func(t *Timer) {
		if ready {
			t.state = Ready
		} else {
			t.state = Off
		}
	}
}

// WithClock sets the clock used by suspending waits. The default is
// [RealClock].
func WithClock(c Clock) Option {
	if c == nil {
		panic("clock must be non-nil")
	}
	return func(t *Timer) {
		t.clock = c
	}
}

// New creates a timer whose default wait is interval.
func New(interval time.Duration, opts ...Option) *Timer {
	t := &Timer{
		interval: interval,
		clock:    RealClock{},
		state:    Ready,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Interval returns the default wait duration.
func (t *Timer) Interval() time.Duration {
	return t.interval
}

// State returns the current state.
func (t *Timer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Elapsed returns the time accumulated by ticks during the current or most
// recent manual wait.
func (t *Timer) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.elapsed
}

// Wait is WaitFor with the timer's default interval.
func (t *Timer) Wait(ctx context.Context) (bool, error) {
	return t.WaitFor(ctx, t.interval)
}

// WaitFor suspends the calling goroutine for d on the timer's clock.
//
// The timer moves to [Waiting] and fires "became not ready" before
// suspending. If the wait elapses naturally the timer moves to [Ready], fires
// "became ready", and WaitFor returns (true, nil). If ctx is done first the
// timer moves to [Off] and WaitFor returns (false, ctx.Err()). If
// [Timer.Reset] interrupts the wait, the state chosen by Reset stands and
// WaitFor returns (false, [context.Canceled]).
//
// Calling WaitFor while a wait of either kind is already in progress does
// nothing and returns (false, nil).
func (t *Timer) WaitFor(ctx context.Context, d time.Duration) (bool, error) {
	t.mu.Lock()
	if t.state.waiting() {
		t.mu.Unlock()
		return false, nil
	}
	t.state = Waiting
	t.elapsed = 0
	t.target = d
	t.epoch++
	epoch := t.epoch
	waitCtx, abort := context.WithCancel(ctx)
	t.abort = abort
	notify := t.notReady.snapshot()
	t.mu.Unlock()

	notify.fire()
	err := t.clock.Sleep(waitCtx, d)
	abort()

	t.mu.Lock()
	if t.epoch != epoch {
		t.mu.Unlock()
		return false, context.Canceled
	}
	t.abort = nil
	if err != nil {
		t.state = Off
		t.mu.Unlock()
		return false, err
	}
	t.state = Ready
	notify = t.ready.snapshot()
	t.mu.Unlock()

	notify.fire()
	return true, nil
}

// StartManualWait is StartManualWaitFor with the timer's default interval.
func (t *Timer) StartManualWait() bool {
	return t.StartManualWaitFor(t.interval)
}

// StartManualWaitFor begins a tick-driven wait for d: the timer moves to
// [ManualWaiting], clears its accumulated time, and fires "became not ready".
// Returns false without effect if a wait is already in progress.
func (t *Timer) StartManualWaitFor(d time.Duration) bool {
	t.mu.Lock()
	if t.state.waiting() {
		t.mu.Unlock()
		return false
	}
	t.state = ManualWaiting
	t.elapsed = 0
	t.target = d
	t.epoch++
	notify := t.notReady.snapshot()
	t.mu.Unlock()

	notify.fire()
	return true
}

// Tick adds dt to the time accumulated by a manual wait. Once the accumulated
// time reaches the wait's target the timer moves to [Ready] and fires "became
// ready". Tick has no effect unless the timer is in [ManualWaiting].
func (t *Timer) Tick(dt time.Duration) {
	t.mu.Lock()
	if t.state != ManualWaiting {
		t.mu.Unlock()
		return
	}
	t.elapsed += dt
	if t.elapsed < t.target {
		t.mu.Unlock()
		return
	}
	t.state = Ready
	notify := t.ready.snapshot()
	t.mu.Unlock()

	notify.fire()
}

// IsFinished reports whether the timer is [Ready]. If consume is set and the
// timer was ready, it moves to [Off] within the same critical section, so
// among any number of concurrent consuming callers exactly one observes each
// completion.
func (t *Timer) IsFinished(consume bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != Ready {
		return false
	}
	if consume {
		t.state = Off
	}
	return true
}

// Reset forces the timer to [Ready] or [Off] and clears accumulated time,
// interrupting any suspending wait in progress. Reset fires no notifications.
func (t *Timer) Reset(ready bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.epoch++
	if t.abort != nil {
		t.abort()
		t.abort = nil
	}
	t.elapsed = 0
	t.target = 0
	if ready {
		t.state = Ready
	} else {
		t.state = Off
	}
}

// OnReady registers fn to be called each time the timer becomes ready. The
// returned function unregisters it.
func (t *Timer) OnReady(fn func()) (unsubscribe func()) {
	return t.subscribe(&t.ready, fn)
}

// OnNotReady registers fn to be called each time a wait begins. The returned
// function unregisters it.
func (t *Timer) OnNotReady(fn func()) (unsubscribe func()) {
	return t.subscribe(&t.notReady, fn)
}

func (t *Timer) subscribe(ls *listeners, fn func()) func() {
	if fn == nil {
		panic("listener must be non-nil")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	id := ls.add(fn)
	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			ls.remove(id)
		})
	}
}

type listener struct {
	id uint64
	fn func()
}

// listeners is kept in registration order. Guarded by Timer.mu.
type listeners struct {
	nextID uint64
	items  []listener
}

func (ls *listeners) add(fn func()) uint64 {
	ls.nextID++
	ls.items = append(ls.items, listener{id: ls.nextID, fn: fn})
	return ls.nextID
}

func (ls *listeners) remove(id uint64) {
	for i, l := range ls.items {
		if l.id == id {
			ls.items = append(ls.items[:i:i], ls.items[i+1:]...)
			return
		}
	}
}

type notification []func()

func (ls *listeners) snapshot() notification {
	if len(ls.items) == 0 {
		return nil
	}
	n := make(notification, len(ls.items))
	for i, l := range ls.items {
		n[i] = l.fn
	}
	return n
}

func (n notification) fire() {
	for _, fn := range n {
		fn()
	}
}
