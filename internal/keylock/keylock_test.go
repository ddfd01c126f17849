package keylock_test

import (
	"sync"
	"testing"

	. "github.com/dogmatiq/structkit/internal/keylock"
)

func TestMap(t *testing.T) {
	t.Run("it serializes critical sections for the same key", func(t *testing.T) {
		var (
			m       Map
			wg      sync.WaitGroup
			counter int
		)

		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()

				unlock := m.Lock("<key>")
				defer unlock()

				n := counter
				n++
				counter = n
			}()
		}

		wg.Wait()

		if counter != 50 {
			t.Fatalf("unexpected counter: got %d, want 50", counter)
		}
	})

	t.Run("it does not block other keys", func(t *testing.T) {
		var m Map

		unlockA := m.Lock("a")
		defer unlockA()

		done := make(chan struct{})
		go func() {
			unlock := m.Lock("b")
			unlock()
			close(done)
		}()

		<-done
	})
}
