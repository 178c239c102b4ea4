// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package respool provides a bounded cache of expensive-to-create resources
// that can be checked out, used, and returned either manually or
// automatically.
//
// A [Pool] hands out [Handle] values. A handle is created once per resource
// instance and stays with that instance for its whole life, carrying a
// back-reference to the owning pool and an "active" flag. Whoever holds a
// checked-out handle owns the resource until it is released; while idle, the
// pool owns it. Releasing a handle that is not checked out is reported as a
// [DoubleReleaseError] rather than silently corrupting the idle collection.
//
// Capacity bounds only the number of idle instances retained. Taking from an
// empty pool always constructs a new instance, so the pool never blocks or
// fails a take because of capacity; releasing into a full pool destroys the
// instance instead of retaining it.
//
// Instances are built by a pluggable [Strategy] from a [Template]. Two
// strategies exist: [DirectStrategy], which instantiates the template as is,
// and [ResolvedStrategy], which additionally hands each new instance to a
// [Resolver] so it can receive its own dependencies.
//
// Resources that implement [Lifecycle] cooperate with the pool: they receive
// their handle when first constructed, are told when the caller has finished
// configuring them for a checkout, and are reset when returned. This is where
// automatic reclamation is armed. A [DelayedReleaser] returns a handle after a
// duration known up front, and an [EventReleaser] returns it when an external
// "finished" signal arrives. Both release only the checkout they were armed
// for, so a late signal can never reclaim an instance that has since been
// taken again for another use.
//
// Every Pool is safe for concurrent use. Reclamation fires from the goroutine
// that observed the delay or signal, so the pool serializes access to its idle
// collection and to each handle's ownership state. Hooks run outside of the
// pool's lock.
package respool
