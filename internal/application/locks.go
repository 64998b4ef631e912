package application

import "sync"

// gameLockRegistry hands out one mutex per game so that start, join, and
// leave on the same game serialize in-process while distinct games stay
// independent. Entries are released once their game reaches a terminal
// state.
type gameLockRegistry struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newGameLockRegistry() *gameLockRegistry {
	return &gameLockRegistry{locks: make(map[string]*sync.Mutex)}
}

// acquire locks the mutex for the given game, creating it on first use.
// The returned function releases the lock.
func (r *gameLockRegistry) acquire(gameID string) func() {
	r.mu.Lock()
	lock, ok := r.locks[gameID]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[gameID] = lock
	}
	r.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// forget drops the mutex for a game that will see no further mutation.
func (r *gameLockRegistry) forget(gameID string) {
	r.mu.Lock()
	delete(r.locks, gameID)
	r.mu.Unlock()
}

// size reports the number of tracked games.
func (r *gameLockRegistry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.locks)
}
