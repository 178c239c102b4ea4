// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package emitter

import (
	"errors"
	"sync"

	"github.com/petenewcomb/respool-go"
	"go.uber.org/zap"
)

// A Burst is a particle emitter that runs until it is stopped. When pooled,
// stopping it is the signal that returns it to its pool.
type Burst struct {
	name      string
	placement respool.Placement
	logger    *zap.Logger
	releaser  *respool.EventReleaser[*Burst]

	mu        sync.Mutex
	active    bool
	emitting  bool
	rate      float64
	destroyed bool
}

var (
	_ respool.Lifecycle[*Burst] = (*Burst)(nil)
	_ respool.Activator         = (*Burst)(nil)
	_ respool.Destroyer         = (*Burst)(nil)
)

// Name returns the burst's name.
func (b *Burst) Name() string {
	return b.name
}

// Placement returns where the burst was instantiated.
func (b *Burst) Placement() respool.Placement {
	return b.placement
}

// Emit starts emitting at rate particles per second.
func (b *Burst) Emit(rate float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rate = rate
	b.emitting = true
}

// Emitting reports whether the burst is running.
func (b *Burst) Emitting() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.emitting
}

// Rate returns the configured emission rate.
func (b *Burst) Rate() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rate
}

// Stop ends emission. A pooled burst then returns to its pool; the error
// reports a failure to do so. Stopping a burst that is not emitting does
// nothing.
func (b *Burst) Stop() error {
	b.mu.Lock()
	was := b.emitting
	b.emitting = false
	b.mu.Unlock()

	if !was || b.releaser == nil {
		return nil
	}
	err := b.releaser.Finished()
	if errors.Is(err, respool.ErrStaleRelease) {
		return nil
	}
	if err != nil {
		b.logger.Warn("failed to return stopped burst", zap.Error(err))
	}
	return err
}

// Active reports whether the burst is enabled.
func (b *Burst) Active() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}

func (b *Burst) SetActive(active bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.active = active
	if !active {
		b.emitting = false
	}
}

// Bind attaches an event releaser for h.
func (b *Burst) Bind(h *respool.Handle[*Burst]) {
	b.releaser = respool.NewEventReleaser(h)
}

// OnConfigured ties the next Stop to the current checkout.
func (b *Burst) OnConfigured() {
	if b.releaser != nil {
		b.releaser.Arm()
	}
}

func (b *Burst) Reset() {
	if b.releaser != nil {
		b.releaser.Disarm()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.emitting = false
	b.rate = 0
}

// Destroy tears the burst down. It is safe to call on a nil burst.
func (b *Burst) Destroy() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.active = false
	b.emitting = false
	b.destroyed = true
}

// Destroyed reports whether [Burst.Destroy] has been called.
func (b *Burst) Destroyed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.destroyed
}

// BurstTemplate builds bursts for a pool.
type BurstTemplate struct {
	name   string
	logger *zap.Logger
}

var _ respool.Template[*Burst] = (*BurstTemplate)(nil)

// NewBurstTemplate returns a template for bursts with the given name. Logger
// may be nil.
func NewBurstTemplate(name string, logger *zap.Logger) *BurstTemplate {
	return &BurstTemplate{name: name, logger: logger}
}

func (t *BurstTemplate) Name() string {
	return t.name
}

func (t *BurstTemplate) Instantiate(placement respool.Placement) (*Burst, error) {
	logger := t.logger
	if logger == nil {
		logger = zap.L()
	}
	return &Burst{
		name:      t.name,
		placement: placement,
		logger:    logger.With(zap.String("burst", t.name)),
	}, nil
}
