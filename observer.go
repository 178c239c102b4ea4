// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package respool

import "fmt"

// EventKind identifies what happened in a pool.
type EventKind int

const (
	// EventConstructed: a new instance was built and bound.
	EventConstructed EventKind = iota
	// EventTaken: an instance was checked out. Event.Reused tells whether it
	// came from the idle collection.
	EventTaken
	// EventReleased: an instance was returned. Event.Retained tells whether it
	// was kept for reuse or is about to be destroyed.
	EventReleased
	// EventDestroyed: an instance was torn down.
	EventDestroyed
	// EventConstructionFailed: Event.Err holds the [ConstructionError].
	EventConstructionFailed
	// EventDoubleRelease: Event.Err holds the [DoubleReleaseError].
	EventDoubleRelease
	// EventMissingCapability: reported once per pool; Event.Err is
	// [ErrMissingCapability].
	EventMissingCapability
	// EventReclaimFailed: automatic reclamation failed for a reason other
	// than cancellation and left the instance checked out.
	EventReclaimFailed
)

var eventKindNames = [...]string{
	EventConstructed:        "constructed",
	EventTaken:              "taken",
	EventReleased:           "released",
	EventDestroyed:          "destroyed",
	EventConstructionFailed: "construction_failed",
	EventDoubleRelease:      "double_release",
	EventMissingCapability:  "missing_capability",
	EventReclaimFailed:      "reclaim_failed",
}

func (k EventKind) String() string {
	if k >= 0 && int(k) < len(eventKindNames) {
		return eventKindNames[k]
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event describes a single pool transition or diagnostic.
type Event struct {
	Kind     EventKind
	Pool     string
	Handle   string
	Reused   bool
	Retained bool
	Err      error
}

// An Observer is notified of pool events. Observe is called synchronously,
// outside of the pool's lock, from whichever goroutine caused the event, so
// implementations must be safe for concurrent use and should return quickly.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to the [Observer] interface.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) {
	f(e)
}

type nopObserver struct{}

func (nopObserver) Observe(Event) {}

// Observers returns an Observer that forwards every event to each of the
// given observers in order. Nil entries are skipped.
func Observers(observers ...Observer) Observer {
	var list multiObserver
	for _, o := range observers {
		if o != nil {
			list = append(list, o)
		}
	}
	switch len(list) {
	case 0:
		return nopObserver{}
	case 1:
		return list[0]
	default:
		return list
	}
}

type multiObserver []Observer

func (m multiObserver) Observe(e Event) {
	for _, o := range m {
		o.Observe(e)
	}
}
