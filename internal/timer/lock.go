package timer

import "sync"

// ownerLocks は所有者ごとの排他ロックです。使われていないロックは解放します。
type ownerLocks struct {
	mu    sync.Mutex
	locks map[int]*ownerLock
}

type ownerLock struct {
	mu   sync.Mutex
	refs int
}

func newOwnerLocks() *ownerLocks {
	return &ownerLocks{locks: make(map[int]*ownerLock)}
}

// lock は ownerID のロックを取得し、解放関数を返します。
func (l *ownerLocks) lock(ownerID int) (unlock func()) {
	l.mu.Lock()
	ol, ok := l.locks[ownerID]
	if !ok {
		ol = &ownerLock{}
		l.locks[ownerID] = ol
	}
	ol.refs++
	l.mu.Unlock()

	ol.mu.Lock()
	return func() {
		ol.mu.Unlock()

		l.mu.Lock()
		ol.refs--
		if ol.refs == 0 {
			delete(l.locks, ownerID)
		}
		l.mu.Unlock()
	}
}

// size は保持しているロックの数です。
func (l *ownerLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
