// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package respool

import (
	"fmt"
)

// Vec3 is a position in the host's coordinate space.
type Vec3 struct {
	X, Y, Z float64
}

// Quat is an orientation expressed as a unit quaternion.
type Quat struct {
	X, Y, Z, W float64
}

// IdentityRotation is the orientation that leaves things as they are.
var IdentityRotation = Quat{W: 1}

// Pose is an explicit position and orientation.
type Pose struct {
	Position Vec3
	Rotation Quat
}

// A Parent is an attachment point that new instances can be placed under.
type Parent interface {
	Name() string
}

// Placement describes where a template should be instantiated. Parent and
// Pose are both optional. WorldSpace only matters when there is a Parent
// and no Pose: it tells the template whether to keep its world transform
// (true) or its local transform (false) when attaching.
type Placement struct {
	Parent     Parent
	Pose       *Pose
	WorldSpace bool
}

// A Template knows how to build one kind of resource.
type Template[T any] interface {
	Name() string
	Instantiate(placement Placement) (T, error)
}

// A Resolver wires dependencies into newly instantiated resources.
type Resolver interface {
	Resolve(instance any) error
}

// ResolverFunc adapts a function to the [Resolver] interface.
type ResolverFunc func(instance any) error

func (f ResolverFunc) Resolve(instance any) error {
	return f(instance)
}

// StrategyKind tells the construction strategy variants apart.
type StrategyKind int

const (
	Direct StrategyKind = iota
	Resolved
)

func (k StrategyKind) String() string {
	switch k {
	case Direct:
		return "direct"
	case Resolved:
		return "resolved"
	default:
		return fmt.Sprintf("StrategyKind(%d)", int(k))
	}
}

// A Strategy instantiates templates for a pool. The only implementations are
// the ones returned by [DirectStrategy] and [ResolvedStrategy].
//
// Each method returns the instance even when it also returns an error, so
// that the caller can tear down whatever was partially built.
type Strategy[T any] interface {
	Kind() StrategyKind
	// Under attaches a new instance to parent, keeping its world transform
	// if worldSpace is set and its local transform otherwise.
	Under(tmpl Template[T], parent Parent, worldSpace bool) (T, error)
	// At creates a new unparented instance with the given pose.
	At(tmpl Template[T], pose Pose) (T, error)
	// AtUnder creates a new instance with the given pose under parent.
	AtUnder(tmpl Template[T], pose Pose, parent Parent) (T, error)

	sealed()
}

type strategy[T any] struct {
	kind     StrategyKind
	resolver Resolver
}

// DirectStrategy returns a strategy that instantiates templates as they are.
func DirectStrategy[T any]() Strategy[T] {
	return strategy[T]{kind: Direct}
}

// ResolvedStrategy returns a strategy that passes every new instance through
// resolver before handing it out. A resolution failure fails the
// construction.
func ResolvedStrategy[T any](resolver Resolver) Strategy[T] {
	if resolver == nil {
		panic("resolver must be non-nil")
	}
	return strategy[T]{kind: Resolved, resolver: resolver}
}

func (s strategy[T]) Kind() StrategyKind {
	return s.kind
}

func (s strategy[T]) Under(tmpl Template[T], parent Parent, worldSpace bool) (T, error) {
	return s.instantiate(tmpl, Placement{Parent: parent, WorldSpace: worldSpace})
}

func (s strategy[T]) At(tmpl Template[T], pose Pose) (T, error) {
	return s.instantiate(tmpl, Placement{Pose: &pose})
}

func (s strategy[T]) AtUnder(tmpl Template[T], pose Pose, parent Parent) (T, error) {
	return s.instantiate(tmpl, Placement{Parent: parent, Pose: &pose})
}

func (strategy[T]) sealed() {}

func (s strategy[T]) instantiate(tmpl Template[T], placement Placement) (T, error) {
	if tmpl == nil {
		panic("template must be non-nil")
	}
	v, err := tmpl.Instantiate(placement)
	if err != nil {
		return v, fmt.Errorf("instantiating %q: %w", tmpl.Name(), err)
	}
	if s.resolver != nil {
		if err := s.resolver.Resolve(v); err != nil {
			return v, fmt.Errorf("resolving dependencies of %q: %w", tmpl.Name(), err)
		}
	}
	return v, nil
}

// FromTemplate returns a [ConstructFunc] that uses strategy to instantiate
// tmpl under parent in local space. Parent may be nil.
func FromTemplate[T any](strategy Strategy[T], tmpl Template[T], parent Parent) ConstructFunc[T] {
	if strategy == nil {
		panic("strategy must be non-nil")
	}
	if tmpl == nil {
		panic("template must be non-nil")
	}
	return func() (T, error) {
		return strategy.Under(tmpl, parent, false)
	}
}
