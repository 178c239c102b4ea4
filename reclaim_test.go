// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package respool_test

import (
	"context"
	"testing"
	"time"

	"github.com/petenewcomb/respool-go"
	"github.com/petenewcomb/respool-go/timer"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// clip is a resource that reclaims itself after its configured duration.
type clip struct {
	clock    timer.Clock
	duration time.Duration
	releaser *respool.DelayedReleaser[*clip]
	resets   int
}

func (c *clip) Bind(h *respool.Handle[*clip]) {
	c.releaser = respool.NewDelayedReleaser(h, respool.WithClock(c.clock))
}

func (c *clip) OnConfigured() {
	c.releaser.Arm(context.Background(), c.duration)
}

func (c *clip) Reset() {
	c.releaser.Cancel()
	c.duration = 0
	c.resets++
}

func newClipPool(clock timer.Clock) (*respool.Pool[*clip], *[]respool.Event) {
	var events []respool.Event
	p := respool.New(
		func() (*clip, error) { return &clip{clock: clock}, nil },
		respool.WithLogger[*clip](zap.NewNop()),
		respool.WithObserver[*clip](respool.ObserverFunc(func(e respool.Event) {
			events = append(events, e)
		})),
	)
	return p, &events
}

func countKind(events []respool.Event, kind respool.EventKind) int {
	n := 0
	for _, e := range events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func TestDelayedReleaseAfterDuration(t *testing.T) {
	chk := require.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	clock := timer.NewManualClock(epoch)
	p, events := newClipPool(clock)

	h, err := p.TakeConfigured(func(c *clip) error {
		c.duration = 1500 * time.Millisecond
		return nil
	})
	chk.NoError(err)
	chk.NoError(clock.BlockUntil(ctx, 1))
	chk.Equal(0, p.IdleCount())

	clock.Advance(time.Second)
	chk.True(h.CheckedOut())

	clock.Advance(500 * time.Millisecond)
	select {
	case <-h.Value().releaser.Done():
	case <-ctx.Done():
		chk.FailNow("release did not happen")
	}
	chk.Equal(1, p.IdleCount())
	chk.False(h.CheckedOut())
	chk.Equal(1, countKind(*events, respool.EventReleased))
	chk.Equal(1, h.Value().resets)
}

func TestDelayedReleaseStaleArmNeverFires(t *testing.T) {
	chk := require.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	clock := timer.NewManualClock(epoch)
	p, events := newClipPool(clock)

	configure := func(d time.Duration) func(*clip) error {
		return func(c *clip) error {
			c.duration = d
			return nil
		}
	}

	h, err := p.TakeConfigured(configure(2 * time.Second))
	chk.NoError(err)
	chk.NoError(clock.BlockUntil(ctx, 1))
	first := h.Value().releaser.Done()

	// Released manually and taken again for a longer use before the first
	// arm's deadline.
	chk.NoError(h.Release())
	<-first
	h2, err := p.TakeConfigured(configure(5 * time.Second))
	chk.NoError(err)
	chk.Same(h, h2)
	chk.NoError(clock.BlockUntil(ctx, 1))

	clock.Advance(3 * time.Second)
	chk.True(h.CheckedOut())
	chk.Equal(1, countKind(*events, respool.EventReleased))

	clock.Advance(2 * time.Second)
	<-h.Value().releaser.Done()
	chk.False(h.CheckedOut())
	chk.Equal(2, countKind(*events, respool.EventReleased))
}

func TestDelayedReleaseRearmCancelsPrevious(t *testing.T) {
	chk := require.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	clock := timer.NewManualClock(epoch)
	p, events := newClipPool(clock)

	h, err := p.Take()
	chk.NoError(err)
	r := respool.NewDelayedReleaser(h, respool.WithClock(clock))
	r.Arm(ctx, time.Second)
	chk.NoError(clock.BlockUntil(ctx, 1))
	first := r.Done()

	r.Arm(ctx, 3*time.Second)
	<-first
	chk.NoError(clock.BlockUntil(ctx, 1))
	chk.Equal(1, clock.Sleepers())

	clock.Advance(2 * time.Second)
	chk.True(h.CheckedOut())

	clock.Advance(time.Second)
	<-r.Done()
	chk.False(h.CheckedOut())
	chk.Equal(1, countKind(*events, respool.EventReleased))
}

func TestDelayedReleaseNonPositiveDurationIsImmediate(t *testing.T) {
	chk := require.New(t)
	clock := timer.NewManualClock(epoch)
	p, _ := newClipPool(clock)

	for _, d := range []time.Duration{0, -time.Second} {
		h, err := p.Take()
		chk.NoError(err)
		r := respool.NewDelayedReleaser(h, respool.WithClock(clock))
		r.Arm(context.Background(), d)
		chk.False(h.CheckedOut())
		<-r.Done()
	}
	chk.Equal(0, clock.Sleepers())
}

func TestDelayedReleaseCancel(t *testing.T) {
	chk := require.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	clock := timer.NewManualClock(epoch)
	p, _ := newClipPool(clock)

	h, err := p.Take()
	chk.NoError(err)
	r := respool.NewDelayedReleaser(h, respool.WithClock(clock))
	<-r.Done()

	r.Arm(ctx, time.Second)
	chk.NoError(clock.BlockUntil(ctx, 1))
	r.Cancel()
	r.Cancel()
	<-r.Done()
	chk.Equal(0, clock.Sleepers())

	clock.Advance(2 * time.Second)
	chk.True(h.CheckedOut())
}

func TestDelayedReleaseScopeCancel(t *testing.T) {
	chk := require.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	clock := timer.NewManualClock(epoch)
	p, _ := newClipPool(clock)

	h, err := p.Take()
	chk.NoError(err)
	r := respool.NewDelayedReleaser(h, respool.WithClock(clock))

	scope, endScope := context.WithCancel(ctx)
	r.Arm(scope, time.Second)
	chk.NoError(clock.BlockUntil(ctx, 1))
	endScope()
	<-r.Done()

	clock.Advance(time.Second)
	chk.True(h.CheckedOut())
}

func TestDelayedReleaseWithRealClock(t *testing.T) {
	chk := require.New(t)
	p, _ := newClipPool(timer.RealClock{})

	h, err := p.TakeConfigured(func(c *clip) error {
		c.duration = 5 * time.Millisecond
		return nil
	})
	chk.NoError(err)
	chk.Eventually(func() bool { return !h.CheckedOut() }, time.Second, time.Millisecond)
	chk.Equal(1, p.IdleCount())
}

func TestEventReleaser(t *testing.T) {
	chk := require.New(t)
	f := &widgetFactory{}
	p := respool.New(f.construct)

	h, err := p.Take()
	chk.NoError(err)
	r := respool.NewEventReleaser(h)
	r.Arm()
	chk.NoError(r.Finished())
	chk.False(h.CheckedOut())

	// The checkout it was armed for has ended; a later one is untouched.
	r.Arm()
	_, err = p.Take()
	chk.NoError(err)
	chk.ErrorIs(r.Finished(), respool.ErrStaleRelease)
	chk.True(h.CheckedOut())

	// Unarmed releasers forward to a plain release.
	chk.NoError(r.Finished())
	chk.False(h.CheckedOut())
	var dre *respool.DoubleReleaseError
	chk.ErrorAs(r.Finished(), &dre)
}
