// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package sound plays named sounds on pooled or dedicated voices.
package sound

import (
	"fmt"

	"github.com/petenewcomb/respool-go/emitter"
	"github.com/petenewcomb/respool-go/internal/cerr"
)

// ErrUnknownSound is returned for identifiers that are not in the bank.
const ErrUnknownSound = cerr.Error("sound: unknown sound")

// ErrOverlapping is returned by controls that only apply to sounds with a
// dedicated voice.
const ErrOverlapping = cerr.Error("sound: not supported for overlapping sounds")

// Kind groups sounds for mixing.
type Kind int

const (
	Effect Kind = iota
	Music
)

func (k Kind) String() string {
	switch k {
	case Effect:
		return "effect"
	case Music:
		return "music"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind maps "effect" or "music" to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "effect", "":
		return Effect, nil
	case "music":
		return Music, nil
	default:
		return 0, fmt.Errorf("sound: unknown kind %q", s)
	}
}

// A Sound is an entry in a [Manager]'s bank.
type Sound struct {
	ID     string
	Clip   *emitter.Clip
	Volume float64
	Pitch  float64
	Loop   bool
	// AllowOverlap lets several instances play at once, each on a pooled
	// voice. Sounds that do not allow overlap get one dedicated voice, which
	// supports Stop, Pause, Resume and IsPlaying.
	AllowOverlap bool
	Kind         Kind
}

func (s *Sound) settings() emitter.VoiceSettings {
	return emitter.VoiceSettings{
		Clip:   s.Clip,
		Volume: min(max(s.Volume, 0), 1),
		Pitch:  s.Pitch,
		Loop:   s.Loop,
	}
}
