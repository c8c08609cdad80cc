// Package gridstate holds the single shared grid document snapshot read by
// every UI consumer. The resolver and the install orchestrator are its only
// writers; everyone else subscribes for change notifications.
package gridstate

import (
	"sync"

	"github.com/deliquified/ministore/internal/grid"
)

// State is the lifecycle state of the resolved document.
type State string

const (
	// StateNotFetched means no wallet/account is known; nothing was looked
	// up. Distinct from an empty grid.
	StateNotFetched State = "not-fetched"

	// StateLoading means a resolution is in progress.
	StateLoading State = "loading"

	// StateEmpty means the profile has no grid pointer yet. A valid state,
	// not an error.
	StateEmpty State = "empty"

	// StateReady means Sections holds the current normalized document.
	StateReady State = "ready"

	// StateError means resolution failed; ErrorKind says how.
	StateError State = "error"
)

// ErrorKind distinguishes resolution failures for diagnostics.
type ErrorKind string

const (
	ErrorNone           ErrorKind = ""
	ErrorInvalidLocator ErrorKind = "invalid locator"
	ErrorFetchFailed    ErrorKind = "fetch failed"
	ErrorInvalidData    ErrorKind = "invalid grid data"
	ErrorInvalidFormat  ErrorKind = "invalid grid data format"
)

// Snapshot is an immutable view of the shared document.
type Snapshot struct {
	State    State          `json:"state"`
	Account  string         `json:"account,omitempty"`
	Sections []grid.Section `json:"sections"`
	Error    ErrorKind      `json:"error,omitempty"`
}

// Store broadcasts snapshots to subscribers. Publication never blocks: a
// subscriber that falls behind observes only the latest snapshot, which is
// the semantics the UI wants.
type Store struct {
	mu      sync.RWMutex
	current Snapshot
	subs    map[int]chan Snapshot
	nextSub int
}

// New creates a store in the not-fetched state.
func New() *Store {
	return &Store{
		current: Snapshot{State: StateNotFetched, Sections: []grid.Section{}},
		subs:    make(map[int]chan Snapshot),
	}
}

// Current returns the latest snapshot.
func (s *Store) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Set replaces the snapshot and notifies subscribers.
func (s *Store) Set(snap Snapshot) {
	if snap.Sections == nil {
		snap.Sections = []grid.Section{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = snap

	// Sends are non-blocking, so holding the lock here is fine and keeps
	// Subscribe's cancel from closing a channel mid-broadcast.
	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
			// Subscriber buffer full: replace the stale snapshot so the
			// latest value wins.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

// SetSections publishes a ready snapshot for account with the given
// sections. Used by the orchestrator's optimistic update.
func (s *Store) SetSections(account string, sections []grid.Section) {
	s.Set(Snapshot{State: StateReady, Account: account, Sections: sections})
}

// Subscribe registers a subscriber. The returned channel carries every
// snapshot change (latest-wins on backpressure); cancel releases it.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan Snapshot, 1)
	s.subs[id] = ch
	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
}
