// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package timer provides a small wait-interval state machine, [Timer], that
// supports two ways of waiting: a suspending wait that parks the calling
// goroutine on a [Clock] until the interval elapses or its context is
// canceled, and a manual wait that is advanced explicitly by calls to
// [Timer.Tick] from a host's per-frame update loop.
//
// Observers can subscribe to "became ready" and "became not ready"
// notifications independently of polling [Timer.State] or
// [Timer.IsFinished].
//
// A [Clock] abstracts the passage of time for suspending waits. [RealClock]
// uses the wall clock, while [ManualClock] advances only when told to, which
// lets a frame loop (or a test) drive every pending sleep deterministically.
package timer
