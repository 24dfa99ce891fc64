package ledger

import "sync"

// accountLocks hands out one mutex per account so transactions on the same
// account serialize while different accounts proceed in parallel.
type accountLocks struct {
	mu    sync.Mutex
	locks map[int]*sync.Mutex
}

func newAccountLocks() *accountLocks {
	return &accountLocks{locks: make(map[int]*sync.Mutex)}
}

// acquire locks the mutex for accountID and returns it for unlocking
func (l *accountLocks) acquire(accountID int) *sync.Mutex {
	l.mu.Lock()
	m, ok := l.locks[accountID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[accountID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m
}
