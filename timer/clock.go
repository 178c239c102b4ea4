// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package timer

import (
	"context"
	"time"

	"github.com/petenewcomb/respool-go/internal/timerp"
)

// A Clock tells time and suspends callers until a duration has elapsed.
type Clock interface {
	// Now returns the clock's current time.
	Now() time.Time

	// Sleep blocks until d has elapsed on the clock or ctx is done, whichever
	// comes first. It returns ctx.Err() in the latter case. A non-positive d
	// returns immediately unless ctx is already done.
	Sleep(ctx context.Context, d time.Duration) error
}

// RealClock is a [Clock] backed by the time package. The zero value is ready
// to use.
type RealClock struct{}

var _ Clock = RealClock{}

func (RealClock) Now() time.Time {
	return time.Now()
}

func (RealClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	t := timerp.Get(d)
	defer timerp.Put(t)
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
