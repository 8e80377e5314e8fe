package seats

import (
	"sync"

	"github.com/google/uuid"
)

// eventLocks hands out one mutex per event. Entries are dropped once no
// caller holds or waits on them.
type eventLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newEventLocks() *eventLocks {
	return &eventLocks{locks: make(map[uuid.UUID]*refMutex)}
}

// lock blocks until the caller owns eventID and returns the unlock func.
func (l *eventLocks) lock(eventID uuid.UUID) func() {
	l.mu.Lock()
	m, ok := l.locks[eventID]
	if !ok {
		m = &refMutex{}
		l.locks[eventID] = m
	}
	m.refs++
	l.mu.Unlock()

	m.Lock()

	return func() {
		m.Unlock()

		l.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(l.locks, eventID)
		}
		l.mu.Unlock()
	}
}

func (l *eventLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
