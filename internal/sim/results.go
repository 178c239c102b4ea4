// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package sim

import (
	"context"
	"sync"

	"github.com/petenewcomb/respool-go"
)

// Results summarizes a scenario run across all of its pools.
type Results struct {
	Frames int
	Plays  int
	Bursts int

	Constructed int64
	Taken       int64
	Reused      int64
	Released    int64
	Retained    int64
	Destroyed   int64
	Failures    int64

	// MaxOutstanding is the largest number of instances checked out at
	// once.
	MaxOutstanding int64

	// Idle and Outstanding are the counts left in each pool at the end of
	// the run, keyed by pool name.
	Idle        map[string]int
	Outstanding map[string]int
}

// tally is an observer that counts events and lets the frame loop wait for
// releases that happen on reclamation goroutines.
type tally struct {
	mu             sync.Mutex
	counts         map[respool.EventKind]int64
	reused         int64
	retained       int64
	outstanding    int64
	maxOutstanding int64
	changed        chan struct{}
}

func newTally() *tally {
	return &tally{
		counts:  make(map[respool.EventKind]int64),
		changed: make(chan struct{}),
	}
}

func (t *tally) Observe(e respool.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts[e.Kind]++
	switch e.Kind {
	case respool.EventTaken:
		if e.Reused {
			t.reused++
		}
		t.outstanding++
		t.maxOutstanding = max(t.maxOutstanding, t.outstanding)
	case respool.EventReleased:
		if e.Retained {
			t.retained++
		}
		t.outstanding--
	}
	close(t.changed)
	t.changed = make(chan struct{})
}

// waitReleased blocks until at least n releases have been observed.
func (t *tally) waitReleased(ctx context.Context, n int64) error {
	for {
		t.mu.Lock()
		count := t.counts[respool.EventReleased]
		changed := t.changed
		t.mu.Unlock()
		if count >= n {
			return nil
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (t *tally) fill(r *Results) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r.Constructed = t.counts[respool.EventConstructed]
	r.Taken = t.counts[respool.EventTaken]
	r.Released = t.counts[respool.EventReleased]
	r.Destroyed = t.counts[respool.EventDestroyed]
	r.Failures = t.counts[respool.EventConstructionFailed] +
		t.counts[respool.EventDoubleRelease] +
		t.counts[respool.EventReclaimFailed]
	r.Reused = t.reused
	r.Retained = t.retained
	r.MaxOutstanding = t.maxOutstanding
}
