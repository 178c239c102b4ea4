// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package emitter

import "github.com/petenewcomb/respool-go"

// Anchor is a named attachment point for emitters.
type Anchor string

var _ respool.Parent = Anchor("")

func (a Anchor) Name() string {
	return string(a)
}
