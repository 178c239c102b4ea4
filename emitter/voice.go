// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package emitter

import (
	"context"
	"sync"
	"time"

	"github.com/petenewcomb/respool-go"
	"github.com/petenewcomb/respool-go/timer"
	"go.uber.org/zap"
)

// Clip is a playable audio asset.
type Clip struct {
	Name   string
	Length time.Duration
}

// VoiceSettings is what a caller assigns to a voice before playing it.
type VoiceSettings struct {
	Clip   *Clip
	Volume float64
	Pitch  float64
	Loop   bool
	// Position places the voice in the world. Nil means non-spatial.
	Position *respool.Vec3
}

// A Voice is an audio emitter. Voices are usually built by a
// [VoiceTemplate] and handed out by a pool, in which case they release
// themselves once their clip has played through. A voice that is looping, or
// whose clip has no length, must be released by the caller.
type Voice struct {
	name      string
	placement respool.Placement
	clock     timer.Clock
	logger    *zap.Logger
	releaser  *respool.DelayedReleaser[*Voice]

	mu        sync.Mutex
	settings  VoiceSettings
	active    bool
	scope     context.Context
	endScope  context.CancelFunc
	playing   bool
	paused    bool
	startedAt time.Time
	played    time.Duration
	destroyed bool
}

var (
	_ respool.Lifecycle[*Voice] = (*Voice)(nil)
	_ respool.Activator         = (*Voice)(nil)
	_ respool.Destroyer         = (*Voice)(nil)
	_ respool.Validator         = (*Voice)(nil)
)

// NewVoice creates a standalone voice, for uses that do not go through a
// pool. Logger may be nil.
func NewVoice(name string, clock timer.Clock, logger *zap.Logger) *Voice {
	if clock == nil {
		panic("clock must be non-nil")
	}
	return newVoice(name, respool.Placement{}, clock, logger)
}

func newVoice(name string, placement respool.Placement, clock timer.Clock, logger *zap.Logger) *Voice {
	if logger == nil {
		logger = zap.L()
	}
	return &Voice{
		name:      name,
		placement: placement,
		clock:     clock,
		logger:    logger.With(zap.String("voice", name)),
		settings:  defaultSettings(),
	}
}

func defaultSettings() VoiceSettings {
	return VoiceSettings{Volume: 1, Pitch: 1}
}

// Name returns the voice's name.
func (v *Voice) Name() string {
	return v.name
}

// Placement returns where the voice was instantiated.
func (v *Voice) Placement() respool.Placement {
	return v.placement
}

// Validate reports whether the voice is complete enough to be used.
func (v *Voice) Validate() error {
	if v.clock == nil {
		return ErrNoClock
	}
	return nil
}

// Configure assigns the clip and playback parameters for the next Play.
func (v *Voice) Configure(s VoiceSettings) error {
	if s.Clip == nil {
		return ErrNoClip
	}
	if s.Pitch <= 0 {
		return ErrInvalidPitch
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.settings = s
	return nil
}

// Settings returns the current playback parameters.
func (v *Voice) Settings() VoiceSettings {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.settings
}

// Duration is how long the configured clip takes to play once at the
// configured pitch. It is zero if there is no clip or the pitch is not
// positive.
func (v *Voice) Duration() time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.durationLocked()
}

func (v *Voice) durationLocked() time.Duration {
	s := v.settings
	if s.Clip == nil || s.Pitch <= 0 {
		return 0
	}
	return time.Duration(float64(s.Clip.Length) / s.Pitch)
}

// Play starts the configured clip from the beginning.
func (v *Voice) Play() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.playing = true
	v.paused = false
	v.played = 0
	v.startedAt = v.clock.Now()
}

// Stop ends playback.
func (v *Voice) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.playing = false
	v.paused = false
	v.played = 0
}

// Pause suspends playback, keeping the position.
func (v *Voice) Pause() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.playing && !v.paused {
		v.played += v.clock.Now().Sub(v.startedAt)
		v.paused = true
	}
}

// Resume continues playback paused by [Voice.Pause].
func (v *Voice) Resume() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.playing && v.paused {
		v.startedAt = v.clock.Now()
		v.paused = false
	}
}

// IsPlaying reports whether the voice is audible right now: it has been
// started, is not paused, and has not reached the end of a non-looping clip.
func (v *Voice) IsPlaying() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.playing || v.paused {
		return false
	}
	if v.settings.Loop {
		return true
	}
	return v.played+v.clock.Now().Sub(v.startedAt) < v.durationLocked()
}

// Active reports whether the voice is enabled.
func (v *Voice) Active() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.active
}

// SetActive enables or disables the voice. Enabling opens a fresh
// cancellation scope for automatic reclamation, ending any previous one.
// Disabling ends the scope and stops playback.
func (v *Voice) SetActive(active bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.endScope != nil {
		v.endScope()
		v.scope, v.endScope = nil, nil
	}
	v.active = active
	if active {
		v.scope, v.endScope = context.WithCancel(context.Background())
	} else {
		v.playing = false
	}
}

// Bind attaches a delayed releaser for h.
func (v *Voice) Bind(h *respool.Handle[*Voice]) {
	v.releaser = respool.NewDelayedReleaser(h,
		respool.WithClock(v.clock),
		respool.WithReleaserLogger(v.logger),
	)
}

// OnConfigured arms the voice's release for when the clip will have
// finished. Looping voices and voices with nothing to play are left alone.
func (v *Voice) OnConfigured() {
	if v.releaser == nil {
		return
	}
	v.mu.Lock()
	scope := v.scope
	d := v.durationLocked()
	loop := v.settings.Loop
	v.mu.Unlock()

	if scope == nil {
		v.logger.Warn("configured while inactive; not arming release")
		return
	}
	if loop || d <= 0 {
		return
	}
	v.releaser.Arm(scope, d)
}

// Reset cancels any pending release and restores the default settings.
func (v *Voice) Reset() {
	if v.releaser != nil {
		v.releaser.Cancel()
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.settings = defaultSettings()
	v.playing = false
	v.paused = false
	v.played = 0
}

// Destroy tears the voice down. It is safe to call on a nil voice.
func (v *Voice) Destroy() {
	if v == nil {
		return
	}
	if v.releaser != nil {
		v.releaser.Cancel()
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.endScope != nil {
		v.endScope()
		v.scope, v.endScope = nil, nil
	}
	v.active = false
	v.playing = false
	v.destroyed = true
}

// Destroyed reports whether [Voice.Destroy] has been called.
func (v *Voice) Destroyed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.destroyed
}

// Done returns a channel that is closed when the voice's most recently armed
// automatic release has run its course. It is closed already if the voice is
// not pooled or has never been armed.
func (v *Voice) Done() <-chan struct{} {
	if v.releaser == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return v.releaser.Done()
}

// VoiceTemplate builds voices for a pool.
type VoiceTemplate struct {
	name   string
	clock  timer.Clock
	logger *zap.Logger
}

var _ respool.Template[*Voice] = (*VoiceTemplate)(nil)

// NewVoiceTemplate returns a template for voices with the given name. The
// clock drives playback positions and automatic release; a template without
// one builds voices that fail validation. Logger may be nil.
func NewVoiceTemplate(name string, clock timer.Clock, logger *zap.Logger) *VoiceTemplate {
	return &VoiceTemplate{name: name, clock: clock, logger: logger}
}

func (t *VoiceTemplate) Name() string {
	return t.name
}

func (t *VoiceTemplate) Instantiate(placement respool.Placement) (*Voice, error) {
	return newVoice(t.name, placement, t.clock, t.logger), nil
}
