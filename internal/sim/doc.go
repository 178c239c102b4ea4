// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package sim runs scripted sound and particle scenarios against respool
// pools on a manually advanced clock. A scenario names a bank of sounds, a
// set of particle bursts and a schedule of steps; running it steps a frame
// loop, fires each step when its time comes, and waits at every frame for the
// automatic releases that became due, so the results are deterministic.
package sim
