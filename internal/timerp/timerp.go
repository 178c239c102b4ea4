// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package timerp recycles *time.Timer values between suspending sleeps.
package timerp

import (
	"sync"
	"time"
)

// This implementation relies on [Go 1.23+ behavior]: after Stop or Reset
// returns, no stale value will be received from the timer's channel, so a
// recycled timer never needs draining.
//
// [Go 1.23+ behavior]: https://pkg.go.dev/time#Timer.Reset

var pool = sync.Pool{
	New: func() any {
		t := time.NewTimer(time.Hour)
		t.Stop()
		return t
	},
}

// Get returns a timer that will fire once after d.
func Get(d time.Duration) *time.Timer {
	t := pool.Get().(*time.Timer)
	t.Reset(d)
	return t
}

// Put stops t and makes it available to later calls to Get. The caller must
// not use t afterwards.
func Put(t *time.Timer) {
	t.Stop()
	pool.Put(t)
}
