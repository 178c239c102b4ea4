// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package timerp_test

import (
	"testing"
	"time"

	"github.com/petenewcomb/respool-go/internal/timerp"
	"github.com/stretchr/testify/require"
)

func TestRecycledTimerDoesNotFireEarly(t *testing.T) {
	chk := require.New(t)

	first := timerp.Get(time.Millisecond)
	<-first.C
	timerp.Put(first)

	second := timerp.Get(time.Hour)
	defer timerp.Put(second)
	select {
	case <-second.C:
		chk.Fail("recycled timer delivered a stale tick")
	case <-time.After(5 * time.Millisecond):
	}
}
