// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package timer

import "fmt"

// State is the phase of a [Timer].
type State int32

const (
	// Off means neither ready nor waiting. It is reached by an explicit
	// [Timer.Reset], by consuming readiness with [Timer.IsFinished], or by
	// canceling a suspending wait.
	Off State = iota
	// Ready means the last wait completed (or the timer started ready).
	Ready
	// Waiting means a suspending wait is in progress.
	Waiting
	// ManualWaiting means a tick-driven wait is in progress.
	ManualWaiting
)

func (s State) String() string {
	switch s {
	case Off:
		return "Off"
	case Ready:
		return "Ready"
	case Waiting:
		return "Waiting"
	case ManualWaiting:
		return "ManualWaiting"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

func (s State) waiting() bool {
	return s == Waiting || s == ManualWaiting
}
