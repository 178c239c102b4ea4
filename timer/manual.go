// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package timer

import (
	"cmp"
	"context"
	"sync"
	"time"

	"github.com/addrummond/heap"
)

// ManualClock is a [Clock] whose time only moves when [ManualClock.Advance] is
// called. Sleepers are woken in deadline order, ties broken by the order in
// which they started sleeping.
//
// A host frame loop typically owns a ManualClock and advances it by each
// frame's delta time, which makes every suspending wait in the process
// progress in lockstep with the frames.
type ManualClock struct {
	mu       sync.Mutex
	now      time.Time
	seq      uint64
	queue    heap.Heap[sleeper, heap.Min]
	live     map[uint64]chan struct{}
	changeCh chan struct{}
}

var _ Clock = (*ManualClock)(nil)

type sleeper struct {
	deadline time.Time
	seq      uint64
}

func (a *sleeper) Cmp(b *sleeper) int {
	if c := a.deadline.Compare(b.deadline); c != 0 {
		return c
	}
	return cmp.Compare(a.seq, b.seq)
}

// NewManualClock returns a clock whose current time is start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{
		now:      start,
		live:     make(map[uint64]chan struct{}),
		changeCh: make(chan struct{}),
	}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}

	c.mu.Lock()
	seq := c.seq
	c.seq++
	wakeCh := make(chan struct{})
	c.live[seq] = wakeCh
	heap.PushOrderable(&c.queue, sleeper{deadline: c.now.Add(d), seq: seq})
	c.notifyLocked()
	c.mu.Unlock()

	select {
	case <-wakeCh:
		return nil
	case <-ctx.Done():
		c.mu.Lock()
		defer c.mu.Unlock()
		if _, ok := c.live[seq]; !ok {
			// Advance got here first; report the wake-up rather than the
			// cancellation so that the sleeper observes a consistent outcome.
			return nil
		}
		// The heap entry is left behind and skipped when it surfaces.
		delete(c.live, seq)
		c.notifyLocked()
		return ctx.Err()
	}
}

// Advance moves the clock forward by d, waking every sleeper whose deadline
// falls within the new time. Advance does not wait for woken sleepers to run.
func (c *ManualClock) Advance(d time.Duration) {
	if d < 0 {
		panic("cannot advance a clock backwards")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	target := c.now.Add(d)
	woke := false
	for {
		next, ok := heap.Peek(&c.queue)
		if !ok || next.deadline.After(target) {
			break
		}
		_, _ = heap.PopOrderable(&c.queue)
		if next.deadline.After(c.now) {
			c.now = next.deadline
		}
		if wakeCh, ok := c.live[next.seq]; ok {
			delete(c.live, next.seq)
			close(wakeCh)
			woke = true
		}
	}
	c.now = target
	if woke {
		c.notifyLocked()
	}
}

// Sleepers returns the number of goroutines currently blocked in Sleep.
func (c *ManualClock) Sleepers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.live)
}

// BlockUntil waits until at least n goroutines are blocked in Sleep or ctx is
// done.
func (c *ManualClock) BlockUntil(ctx context.Context, n int) error {
	for {
		c.mu.Lock()
		count := len(c.live)
		changeCh := c.changeCh
		c.mu.Unlock()
		if count >= n {
			return nil
		}
		select {
		case <-changeCh:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *ManualClock) notifyLocked() {
	close(c.changeCh)
	c.changeCh = make(chan struct{})
}
