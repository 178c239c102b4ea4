// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/petenewcomb/respool-go"
	"github.com/petenewcomb/respool-go/emitter"
	"github.com/petenewcomb/respool-go/sound"
	"github.com/petenewcomb/respool-go/timer"
	"go.uber.org/zap"
)

// DefaultFrame is the frame length used when Config.Frame is zero.
const DefaultFrame = 16 * time.Millisecond

// Config controls how a scenario is run.
type Config struct {
	// Frame is the amount of virtual time each frame advances the clock by.
	Frame time.Duration
	// Tail is extra virtual time to run after the last scheduled event.
	Tail time.Duration
	// Capacity is the idle capacity of the voice pool and the default idle
	// capacity of burst pools.
	Capacity int
	Ordering respool.Ordering
	// Pace, if positive, makes each frame take at least that long in real
	// time.
	Pace     time.Duration
	Logger   *zap.Logger
	Observer respool.Observer
}

type burstStop struct {
	at    time.Duration
	burst *emitter.Burst
}

// Run plays sc and reports what the pools did.
func Run(ctx context.Context, sc *Scenario, cfg Config) (*Results, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	frame := cfg.Frame
	if frame <= 0 {
		frame = DefaultFrame
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.L()
	}
	logger = logger.With(zap.String("component", "sim"))

	t := newTally()
	observer := respool.Observers(t, cfg.Observer)
	clock := timer.NewManualClock(time.Time{})

	bank := make([]sound.Sound, 0, len(sc.Sounds))
	pooled := make(map[string]bool, len(sc.Sounds))
	for _, s := range sc.Sounds {
		entry := s.bankEntry()
		bank = append(bank, entry)
		pooled[s.ID] = entry.AllowOverlap
	}
	manager := sound.NewManager(bank,
		sound.WithClock(clock),
		sound.WithCapacity(cfg.Capacity),
		sound.WithOrdering(cfg.Ordering),
		sound.WithParent(emitter.Anchor("mixer")),
		sound.WithLogger(logger),
		sound.WithObserver(observer),
	)
	defer manager.Close()

	bursts := make(map[string]*respool.Pool[*emitter.Burst], len(sc.Bursts))
	for _, b := range sc.Bursts {
		capacity := cfg.Capacity
		if b.Capacity != nil {
			capacity = *b.Capacity
		}
		pool := respool.New(
			respool.FromTemplate(respool.DirectStrategy[*emitter.Burst](),
				emitter.NewBurstTemplate(b.Name, logger), emitter.Anchor("effects")),
			respool.WithName[*emitter.Burst](b.Name),
			respool.WithCapacity[*emitter.Burst](capacity),
			respool.WithOrdering[*emitter.Burst](cfg.Ordering),
			respool.WithLogger[*emitter.Burst](logger),
			respool.WithObserver[*emitter.Burst](observer),
		)
		defer pool.Close()
		bursts[b.Name] = pool
	}

	steps := sc.sortedSchedule()
	end := cfg.Tail
	if n := len(steps); n > 0 {
		end += steps[n-1].At
	}
	for _, st := range steps {
		end = max(end, st.At+st.For+cfg.Tail)
	}

	results := &Results{
		Idle:        make(map[string]int),
		Outstanding: make(map[string]int),
	}
	var (
		releaseDue []time.Duration
		stops      []burstStop
		expected   int64
		now        time.Duration
	)

	for {
		for len(steps) > 0 && steps[0].At <= now {
			st := steps[0]
			steps = steps[1:]
			switch {
			case st.Play != "":
				d, err := manager.Play(ctx, st.Play, st.position())
				if err != nil {
					return nil, fmt.Errorf("at %v: playing %q: %w", st.At, st.Play, err)
				}
				results.Plays++
				if pooled[st.Play] && d > 0 {
					releaseDue = append(releaseDue, now+d)
				}
			case st.Stop != "":
				if err := manager.Stop(st.Stop); err != nil {
					return nil, err
				}
			case st.Pause != "":
				if err := manager.Pause(st.Pause); err != nil {
					return nil, err
				}
			case st.Resume != "":
				if err := manager.Resume(st.Resume); err != nil {
					return nil, err
				}
			case st.Burst != "":
				rate := st.Rate
				h, err := bursts[st.Burst].TakeConfigured(func(b *emitter.Burst) error {
					b.Emit(rate)
					return nil
				})
				if err != nil {
					return nil, fmt.Errorf("at %v: bursting %q: %w", st.At, st.Burst, err)
				}
				results.Bursts++
				stops = append(stops, burstStop{at: now + st.For, burst: h.Value()})
			}
		}

		remaining := stops[:0]
		for _, s := range stops {
			if s.at > now {
				remaining = append(remaining, s)
				continue
			}
			if err := s.burst.Stop(); err != nil {
				return nil, err
			}
			expected++
		}
		stops = remaining

		if err := t.waitReleased(ctx, expected); err != nil {
			return nil, fmt.Errorf("at %v: waiting for releases: %w", now, err)
		}
		if now >= end && len(stops) == 0 && len(releaseDue) == 0 {
			break
		}

		// Every pending timed release must be sleeping on the clock before it
		// moves, or it would measure its delay from a later frame.
		if err := clock.BlockUntil(ctx, len(releaseDue)); err != nil {
			return nil, fmt.Errorf("at %v: waiting for releases to arm: %w", now, err)
		}
		if cfg.Pace > 0 {
			select {
			case <-time.After(cfg.Pace):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		now += frame
		clock.Advance(frame)
		results.Frames++

		due := releaseDue[:0]
		for _, at := range releaseDue {
			if at <= now {
				expected++
			} else {
				due = append(due, at)
			}
		}
		releaseDue = due
	}

	t.fill(results)
	results.Idle["voices"] = manager.Voices().IdleCount()
	results.Outstanding["voices"] = manager.Voices().Outstanding()
	for name, pool := range bursts {
		results.Idle[name] = pool.IdleCount()
		results.Outstanding[name] = pool.Outstanding()
	}
	logger.Info("scenario finished",
		zap.Int("frames", results.Frames),
		zap.Int64("taken", results.Taken),
		zap.Int64("released", results.Released),
		zap.Int64("constructed", results.Constructed))
	return results, nil
}
