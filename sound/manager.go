// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package sound

import (
	"context"
	"time"

	"github.com/petenewcomb/respool-go"
	"github.com/petenewcomb/respool-go/emitter"
	"github.com/petenewcomb/respool-go/timer"
	"go.uber.org/zap"
)

// DefaultCapacity is the number of idle pooled voices a [Manager] keeps
// unless told otherwise.
const DefaultCapacity = 50

type config struct {
	capacity int
	ordering respool.Ordering
	clock    timer.Clock
	parent   respool.Parent
	strategy respool.Strategy[*emitter.Voice]
	logger   *zap.Logger
	observer respool.Observer
}

// An Option configures a [Manager].
type Option func(*config)

// WithCapacity sets the idle capacity of the voice pool.
func WithCapacity(capacity int) Option {
	if capacity < 0 {
		panic("capacity must be >= 0")
	}
	return func(c *config) {
		c.capacity = capacity
	}
}

// WithOrdering sets the reuse order of the voice pool.
func WithOrdering(ordering respool.Ordering) Option {
	return func(c *config) {
		c.ordering = ordering
	}
}

// WithClock sets the clock voices play on. The default is
// [timer.RealClock].
func WithClock(clock timer.Clock) Option {
	if clock == nil {
		panic("clock must be non-nil")
	}
	return func(c *config) {
		c.clock = clock
	}
}

// WithParent sets where pooled voices are attached.
func WithParent(parent respool.Parent) Option {
	return func(c *config) {
		c.parent = parent
	}
}

// WithStrategy sets how pooled voices are built. The default is
// [respool.DirectStrategy].
func WithStrategy(strategy respool.Strategy[*emitter.Voice]) Option {
	if strategy == nil {
		panic("strategy must be non-nil")
	}
	return func(c *config) {
		c.strategy = strategy
	}
}

// WithLogger sets the logger. The default is zap.L().
func WithLogger(logger *zap.Logger) Option {
	if logger == nil {
		panic("logger must be non-nil")
	}
	return func(c *config) {
		c.logger = logger
	}
}

// WithObserver sets an observer for the voice pool.
func WithObserver(o respool.Observer) Option {
	if o == nil {
		panic("observer must be non-nil")
	}
	return func(c *config) {
		c.observer = o
	}
}

type entry struct {
	sound     Sound
	dedicated *emitter.Voice
}

// A Manager plays sounds from a bank. Overlapping sounds are played on voices
// taken from a pool that return themselves when done; other sounds each have
// a dedicated voice.
type Manager struct {
	clock  timer.Clock
	logger *zap.Logger
	voices *respool.Pool[*emitter.Voice]
	sounds map[string]*entry
}

// NewManager creates a manager for the given bank. Sounds without a clip or
// with a non-positive pitch are skipped with a warning; a later sound with
// the same ID replaces an earlier one.
func NewManager(sounds []Sound, opts ...Option) *Manager {
	cfg := config{
		capacity: DefaultCapacity,
		ordering: respool.Stack,
		clock:    timer.RealClock{},
		strategy: respool.DirectStrategy[*emitter.Voice](),
		logger:   zap.L(),
		observer: respool.Observers(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	logger := cfg.logger.With(zap.String("component", "sound"))

	tmpl := emitter.NewVoiceTemplate("voice", cfg.clock, logger)
	m := &Manager{
		clock:  cfg.clock,
		logger: logger,
		voices: respool.New(
			respool.FromTemplate(cfg.strategy, tmpl, cfg.parent),
			respool.WithName[*emitter.Voice]("voices"),
			respool.WithCapacity[*emitter.Voice](cfg.capacity),
			respool.WithOrdering[*emitter.Voice](cfg.ordering),
			respool.WithLogger[*emitter.Voice](logger),
			respool.WithObserver[*emitter.Voice](cfg.observer),
		),
		sounds: make(map[string]*entry, len(sounds)),
	}

	for _, s := range sounds {
		if s.Clip == nil {
			logger.Warn("sound has no clip; skipping", zap.String("sound", s.ID))
			continue
		}
		if s.Pitch <= 0 {
			logger.Warn("sound has non-positive pitch; skipping", zap.String("sound", s.ID), zap.Float64("pitch", s.Pitch))
			continue
		}
		e := &entry{sound: s}
		if !s.AllowOverlap {
			e.dedicated = emitter.NewVoice(s.ID, cfg.clock, logger)
			e.dedicated.SetActive(true)
			if err := e.dedicated.Configure(s.settings()); err != nil {
				logger.Warn("failed to configure dedicated voice; skipping", zap.String("sound", s.ID), zap.Error(err))
				continue
			}
		}
		m.sounds[s.ID] = e
	}
	logger.Info("sound manager initialized", zap.Int("sounds", len(m.sounds)))
	return m
}

// Voices returns the pool that overlapping sounds are played from.
func (m *Manager) Voices() *respool.Pool[*emitter.Voice] {
	return m.voices
}

// Play starts the sound with the given ID, positioned at pos if it is
// non-nil, and returns how long it will play for. Looping sounds return 0.
// Playing a looping dedicated sound that is already playing does nothing.
func (m *Manager) Play(ctx context.Context, id string, pos *respool.Vec3) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	e, err := m.lookup(id)
	if err != nil {
		return 0, err
	}
	settings := e.sound.settings()
	if pos != nil {
		p := *pos
		settings.Position = &p
	}

	var d time.Duration
	if v := e.dedicated; v != nil {
		if e.sound.Loop && v.IsPlaying() {
			return 0, nil
		}
		if err := v.Configure(settings); err != nil {
			return 0, err
		}
		v.Play()
		d = v.Duration()
	} else {
		// The pooled voice may be reclaimed as soon as it is configured, so
		// its duration is read while this checkout still owns it.
		_, err := m.voices.TakeConfigured(func(v *emitter.Voice) error {
			if err := v.Configure(settings); err != nil {
				return err
			}
			v.Play()
			d = v.Duration()
			return nil
		})
		if err != nil {
			m.logger.Error("failed to get voice from pool", zap.String("sound", id), zap.Error(err))
			return 0, err
		}
	}

	if e.sound.Loop {
		return 0, nil
	}
	return d, nil
}

// PlayAndWait plays the sound and waits until it has finished or ctx is
// done. It returns as soon as a looping sound has started.
func (m *Manager) PlayAndWait(ctx context.Context, id string, pos *respool.Vec3) error {
	d, err := m.Play(ctx, id, pos)
	if err != nil || d <= 0 {
		return err
	}
	t := timer.New(d, timer.StartReady(false), timer.WithClock(m.clock))
	_, err = t.Wait(ctx)
	return err
}

// Stop stops a sound's dedicated voice.
func (m *Manager) Stop(id string) error {
	v, err := m.dedicated(id, "Stop")
	if err != nil {
		return err
	}
	v.Stop()
	return nil
}

// Pause pauses a sound's dedicated voice.
func (m *Manager) Pause(id string) error {
	v, err := m.dedicated(id, "Pause")
	if err != nil {
		return err
	}
	v.Pause()
	return nil
}

// Resume resumes a sound's dedicated voice.
func (m *Manager) Resume(id string) error {
	v, err := m.dedicated(id, "Resume")
	if err != nil {
		return err
	}
	v.Resume()
	return nil
}

// IsPlaying reports whether a sound's dedicated voice is playing. It is
// always false for unknown and overlapping sounds.
func (m *Manager) IsPlaying(id string) bool {
	v, err := m.dedicated(id, "IsPlaying")
	if err != nil {
		return false
	}
	return v.IsPlaying()
}

// Close destroys every dedicated voice and closes the voice pool. Pooled
// voices still playing are destroyed when they finish.
func (m *Manager) Close() {
	for _, e := range m.sounds {
		if e.dedicated != nil {
			e.dedicated.Destroy()
		}
	}
	m.voices.Close()
}

func (m *Manager) lookup(id string) (*entry, error) {
	e, ok := m.sounds[id]
	if !ok {
		m.logger.Error("sound not found", zap.String("sound", id))
		return nil, ErrUnknownSound.With("%q", id)
	}
	return e, nil
}

func (m *Manager) dedicated(id, operation string) (*emitter.Voice, error) {
	e, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	if e.dedicated == nil {
		m.logger.Warn("control called on overlapping sound; only dedicated voices support it",
			zap.String("sound", id), zap.String("operation", operation))
		return nil, ErrOverlapping.With("%s(%q)", operation, id)
	}
	return e.dedicated, nil
}
