package signing

import "sync"

// DocumentLocks hands out one mutex per document id. Entries are reference
// counted and dropped when the last holder unlocks.
type DocumentLocks struct {
	mu    sync.Mutex
	locks map[int64]*documentLock
}

type documentLock struct {
	sync.Mutex
	refs int
}

// NewDocumentLocks creates an empty lock table.
func NewDocumentLocks() *DocumentLocks {
	return &DocumentLocks{locks: make(map[int64]*documentLock)}
}

// Lock blocks until the caller holds documentID's lock and returns the
// function that releases it.
func (l *DocumentLocks) Lock(documentID int64) (unlock func()) {
	l.mu.Lock()
	lock, ok := l.locks[documentID]
	if !ok {
		lock = &documentLock{}
		l.locks[documentID] = lock
	}
	lock.refs++
	l.mu.Unlock()

	lock.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			lock.Unlock()

			l.mu.Lock()
			lock.refs--
			if lock.refs == 0 {
				delete(l.locks, documentID)
			}
			l.mu.Unlock()
		})
	}
}

// Len returns the number of documents currently locked or waited on.
func (l *DocumentLocks) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
