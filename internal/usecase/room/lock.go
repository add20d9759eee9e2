package usecase_room

import "sync"

// roomLocks hands out one mutex per room code. Entries are dropped once no
// goroutine holds or waits on them, so the map tracks only busy rooms.
type roomLocks struct {
	mu    sync.Mutex
	rooms map[string]*roomLock
}

type roomLock struct {
	mu   sync.Mutex
	refs int
}

func newRoomLocks() *roomLocks {
	return &roomLocks{rooms: make(map[string]*roomLock)}
}

func (l *roomLocks) lock(code string) (unlock func()) {
	l.mu.Lock()
	rl, ok := l.rooms[code]
	if !ok {
		rl = &roomLock{}
		l.rooms[code] = rl
	}
	rl.refs++
	l.mu.Unlock()

	rl.mu.Lock()

	return func() {
		rl.mu.Unlock()

		l.mu.Lock()
		rl.refs--
		if rl.refs == 0 {
			delete(l.rooms, code)
		}
		l.mu.Unlock()
	}
}

func (l *roomLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.rooms)
}
