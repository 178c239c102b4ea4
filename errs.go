// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package respool

import (
	"fmt"

	"github.com/petenewcomb/respool-go/internal/cerr"
)

// ErrClosed is returned by [Pool.Take] after [Pool.Close].
const ErrClosed = cerr.Error("respool: pool closed")

// ErrForeignHandle is returned when a handle is released to a pool other than
// the one that created it.
const ErrForeignHandle = cerr.Error("respool: handle belongs to a different pool")

// ErrStaleRelease is returned by generation-checked releases when the handle
// has been released, or released and taken again, since the release was
// armed. The reclamation adapters treat it as a normal outcome.
const ErrStaleRelease = cerr.Error("respool: checkout already ended")

// ErrMissingCapability is reported to observers, once per pool, when a pooled
// resource type does not implement [Lifecycle]. The pool keeps working, but
// such resources must be released manually.
const ErrMissingCapability = cerr.Error("respool: resource does not implement respool.Lifecycle; release must be manual")

// A ConstructionError reports that a pool's construction strategy could not
// produce a valid instance. Any partially built instance has already been
// destroyed.
type ConstructionError struct {
	Pool string
	Err  error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("respool: pool %q: construction failed: %v", e.Pool, e.Err)
}

func (e *ConstructionError) Unwrap() error {
	return e.Err
}

// A DoubleReleaseError reports an attempt to release a handle that was not
// checked out. The pool's state is left unchanged.
type DoubleReleaseError struct {
	Pool   string
	Handle string
	State  string
}

func (e *DoubleReleaseError) Error() string {
	return fmt.Sprintf("respool: pool %q: handle %s released while %s", e.Pool, e.Handle, e.State)
}
