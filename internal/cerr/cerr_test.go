// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package cerr_test

import (
	"errors"
	"testing"

	"github.com/petenewcomb/respool-go/internal/cerr"
	"github.com/stretchr/testify/require"
)

const errSample = cerr.Error("sample failure")

func TestErrorWith(t *testing.T) {
	chk := require.New(t)

	err := errSample.With("item %q at %d", "x", 3)
	chk.ErrorIs(err, errSample)
	chk.Equal(`sample failure: item "x" at 3`, err.Error())
	chk.False(errors.Is(err, cerr.Error("other")))
}
