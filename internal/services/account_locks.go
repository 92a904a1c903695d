package services

import "sync"

// accountLocks hands out one mutex per account id. Entries are dropped once
// no goroutine holds or waits for them.
type accountLocks struct {
	mu    sync.Mutex
	locks map[int64]*accountLock
}

type accountLock struct {
	mu   sync.Mutex
	refs int
}

func newAccountLocks() *accountLocks {
	return &accountLocks{locks: make(map[int64]*accountLock)}
}

// Lock blocks until the caller owns id and returns the matching unlock func.
func (l *accountLocks) Lock(id int64) func() {
	l.mu.Lock()
	al, ok := l.locks[id]
	if !ok {
		al = &accountLock{}
		l.locks[id] = al
	}
	al.refs++
	l.mu.Unlock()

	al.mu.Lock()

	return func() {
		al.mu.Unlock()

		l.mu.Lock()
		al.refs--
		if al.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

func (l *accountLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
