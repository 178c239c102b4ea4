// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package emitter

import "github.com/petenewcomb/respool-go/internal/cerr"

// ErrNoClock is returned by [Voice.Validate] for a voice built without a
// clock.
const ErrNoClock = cerr.Error("emitter: voice has no clock")

// ErrNoClip is returned when a voice is configured without a clip.
const ErrNoClip = cerr.Error("emitter: no clip")

// ErrInvalidPitch is returned when a voice is configured with a pitch that is
// not positive.
const ErrInvalidPitch = cerr.Error("emitter: pitch must be positive")
