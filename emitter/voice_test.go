// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package emitter_test

import (
	"context"
	"testing"
	"time"

	"github.com/petenewcomb/respool-go"
	"github.com/petenewcomb/respool-go/emitter"
	"github.com/petenewcomb/respool-go/timer"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

var blip = &emitter.Clip{Name: "blip", Length: 3 * time.Second}

func newVoicePool(clock timer.Clock) *respool.Pool[*emitter.Voice] {
	tmpl := emitter.NewVoiceTemplate("voice", clock, zap.NewNop())
	return respool.New(
		respool.FromTemplate(respool.DirectStrategy[*emitter.Voice](), tmpl, emitter.Anchor("mixer")),
		respool.WithLogger[*emitter.Voice](zap.NewNop()),
	)
}

func play(s emitter.VoiceSettings) func(*emitter.Voice) error {
	return func(v *emitter.Voice) error {
		if err := v.Configure(s); err != nil {
			return err
		}
		v.Play()
		return nil
	}
}

func TestVoiceDuration(t *testing.T) {
	chk := require.New(t)
	v := emitter.NewVoice("v", timer.NewManualClock(epoch), nil)
	chk.Zero(v.Duration())

	chk.NoError(v.Configure(emitter.VoiceSettings{Clip: blip, Pitch: 2}))
	chk.Equal(1500*time.Millisecond, v.Duration())

	chk.ErrorIs(v.Configure(emitter.VoiceSettings{Clip: blip}), emitter.ErrInvalidPitch)
	chk.ErrorIs(v.Configure(emitter.VoiceSettings{Pitch: 1}), emitter.ErrNoClip)
	chk.Equal(1500*time.Millisecond, v.Duration())
}

func TestVoicePlaybackPosition(t *testing.T) {
	chk := require.New(t)
	clock := timer.NewManualClock(epoch)
	v := emitter.NewVoice("v", clock, nil)
	chk.NoError(v.Configure(emitter.VoiceSettings{Clip: blip, Pitch: 1}))
	chk.False(v.IsPlaying())

	v.Play()
	clock.Advance(time.Second)
	chk.True(v.IsPlaying())

	v.Pause()
	clock.Advance(10 * time.Second)
	chk.False(v.IsPlaying())

	v.Resume()
	clock.Advance(1999 * time.Millisecond)
	chk.True(v.IsPlaying())
	clock.Advance(time.Millisecond)
	chk.False(v.IsPlaying())

	chk.NoError(v.Configure(emitter.VoiceSettings{Clip: blip, Pitch: 1, Loop: true}))
	v.Play()
	clock.Advance(time.Hour)
	chk.True(v.IsPlaying())
	v.Stop()
	chk.False(v.IsPlaying())
}

func TestVoiceReleasesItselfAfterClip(t *testing.T) {
	chk := require.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	clock := timer.NewManualClock(epoch)
	p := newVoicePool(clock)

	h, err := p.TakeConfigured(play(emitter.VoiceSettings{Clip: blip, Volume: 0.5, Pitch: 2}))
	chk.NoError(err)
	v := h.Value()
	chk.True(v.Active())
	chk.True(v.IsPlaying())
	chk.Equal(emitter.Anchor("mixer"), v.Placement().Parent)
	chk.NoError(clock.BlockUntil(ctx, 1))

	clock.Advance(time.Second)
	chk.True(h.CheckedOut())
	clock.Advance(500 * time.Millisecond)
	<-v.Done()

	chk.False(h.CheckedOut())
	chk.Equal(1, p.IdleCount())
	chk.False(v.Active())
	chk.False(v.IsPlaying())
	chk.Nil(v.Settings().Clip)
	chk.Equal(1.0, v.Settings().Volume)
}

func TestVoiceLoopingIsNotReclaimed(t *testing.T) {
	chk := require.New(t)
	clock := timer.NewManualClock(epoch)
	p := newVoicePool(clock)

	h, err := p.TakeConfigured(play(emitter.VoiceSettings{Clip: blip, Pitch: 1, Loop: true}))
	chk.NoError(err)
	chk.Equal(0, clock.Sleepers())
	clock.Advance(time.Minute)
	chk.True(h.CheckedOut())
	chk.True(h.Value().IsPlaying())

	chk.NoError(h.Release())
	chk.False(h.Value().IsPlaying())
}

func TestVoiceZeroLengthClipIsNotReclaimed(t *testing.T) {
	chk := require.New(t)
	clock := timer.NewManualClock(epoch)
	p := newVoicePool(clock)

	h, err := p.TakeConfigured(play(emitter.VoiceSettings{Clip: &emitter.Clip{Name: "silence"}, Pitch: 1}))
	chk.NoError(err)
	chk.Equal(0, clock.Sleepers())
	chk.True(h.CheckedOut())
}

func TestVoiceEarlyReleaseCancelsPendingRelease(t *testing.T) {
	chk := require.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	clock := timer.NewManualClock(epoch)
	p := newVoicePool(clock)

	h, err := p.TakeConfigured(play(emitter.VoiceSettings{Clip: blip, Pitch: 1}))
	chk.NoError(err)
	chk.NoError(clock.BlockUntil(ctx, 1))
	first := h.Value().Done()

	chk.NoError(h.Release())
	<-first
	chk.Equal(0, clock.Sleepers())

	// Reuse for a longer clip; the first clip's deadline passes harmlessly.
	long := &emitter.Clip{Name: "long", Length: 10 * time.Second}
	h2, err := p.TakeConfigured(play(emitter.VoiceSettings{Clip: long, Pitch: 1}))
	chk.NoError(err)
	chk.Same(h, h2)
	chk.NoError(clock.BlockUntil(ctx, 1))
	clock.Advance(5 * time.Second)
	chk.True(h.CheckedOut())
	clock.Advance(5 * time.Second)
	<-h.Value().Done()
	chk.False(h.CheckedOut())
}

func TestVoiceWithoutClockFailsConstruction(t *testing.T) {
	chk := require.New(t)
	p := newVoicePool(nil)
	_, err := p.Take()
	var ce *respool.ConstructionError
	chk.ErrorAs(err, &ce)
	chk.ErrorIs(err, emitter.ErrNoClock)
}

func TestVoiceDestroy(t *testing.T) {
	chk := require.New(t)
	var v *emitter.Voice
	chk.NotPanics(v.Destroy)

	v = emitter.NewVoice("v", timer.RealClock{}, nil)
	v.SetActive(true)
	v.Destroy()
	chk.True(v.Destroyed())
	chk.False(v.Active())
	<-v.Done()
}
