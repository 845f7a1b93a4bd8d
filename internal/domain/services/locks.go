package services

import "sync"

// conversationLocks serializes turns per conversation id so only one
// turn is in flight for a given conversation at a time. Unrelated
// conversations never block each other. Entries are reference counted
// and removed once the last holder releases, so the map does not grow
// with the number of conversations ever seen.
type conversationLocks struct {
	mu    sync.Mutex
	locks map[string]*conversationLock
}

type conversationLock struct {
	mu   sync.Mutex
	refs int
}

func newConversationLocks() *conversationLocks {
	return &conversationLocks{
		locks: make(map[string]*conversationLock),
	}
}

// Acquire blocks until the lock for id is held and returns the release
// function. The caller must release in all cases.
func (l *conversationLocks) Acquire(id string) func() {
	l.mu.Lock()
	entry, ok := l.locks[id]
	if !ok {
		entry = &conversationLock{}
		l.locks[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
