// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package respool

import (
	"fmt"

	"github.com/gammazero/deque"
)

// Ordering selects which idle instance a take reuses.
type Ordering int

const (
	// Stack reuses the most recently released instance first.
	Stack Ordering = iota
	// Ring reuses idle instances in release order.
	Ring
)

func (o Ordering) String() string {
	switch o {
	case Stack:
		return "stack"
	case Ring:
		return "ring"
	default:
		return fmt.Sprintf("Ordering(%d)", int(o))
	}
}

// ParseOrdering maps "stack" or "ring" to an Ordering.
func ParseOrdering(s string) (Ordering, error) {
	switch s {
	case "stack":
		return Stack, nil
	case "ring":
		return Ring, nil
	default:
		return 0, fmt.Errorf("respool: unknown ordering %q", s)
	}
}

// idleSet is the collection of instances available for reuse. Both orderings
// push at the back; they differ only in which end they pop from.
type idleSet[E any] struct {
	ordering Ordering
	items    deque.Deque[E]
}

func (s *idleSet[E]) push(e E) {
	s.items.PushBack(e)
}

func (s *idleSet[E]) pop() (E, bool) {
	if s.items.Len() == 0 {
		var zero E
		return zero, false
	}
	if s.ordering == Ring {
		return s.items.PopFront(), true
	}
	return s.items.PopBack(), true
}

func (s *idleSet[E]) len() int {
	return s.items.Len()
}
