package ledger

import "sync"

// lockMap is an arena of per-document lock handles. A document's lock is
// held across the whole resolve-check-mutate sequence of a start or stop,
// making the two operations mutually exclusive for the same document within
// this process. Handles are created on first use and never removed.
type lockMap struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newLockMap() *lockMap {
	return &lockMap{locks: make(map[string]*sync.Mutex)}
}

func (l *lockMap) get(docID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.locks[docID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[docID] = m
	}
	return m
}
