package application

import (
	"sync"
	"testing"
)

func TestGameLockRegistry(t *testing.T) {
	t.Parallel()

	t.Run("serializes work per game", func(t *testing.T) {
		t.Parallel()

		registry := newGameLockRegistry()
		counter := 0

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock := registry.acquire("game-1")
				defer unlock()
				counter++
			}()
		}
		wg.Wait()

		if counter != 50 {
			t.Fatalf("expected 50 increments, got %d", counter)
		}
	})

	t.Run("forget releases the per-game entry", func(t *testing.T) {
		t.Parallel()

		registry := newGameLockRegistry()
		unlock := registry.acquire("game-2")
		unlock()
		registry.acquire("game-3")()

		if got := registry.size(); got != 2 {
			t.Fatalf("expected 2 tracked games, got %d", got)
		}

		registry.forget("game-2")
		if got := registry.size(); got != 1 {
			t.Fatalf("expected 1 tracked game after forget, got %d", got)
		}
	})
}
