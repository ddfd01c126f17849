// Package keylock provides mutual exclusion keyed by collection name.
package keylock

import "sync"

// Map is a set of mutexes, one per key. The zero-value is ready to use.
//
// Mutexes are created on demand and discarded when no goroutine holds or is
// waiting for them.
type Map struct {
	m     sync.Mutex
	locks map[string]*entry
}

type entry struct {
	sync.Mutex
	refs int
}

// Lock acquires the mutex for k. It returns a function that releases it.
func (m *Map) Lock(k string) (unlock func()) {
	m.m.Lock()
	if m.locks == nil {
		m.locks = map[string]*entry{}
	}

	e, ok := m.locks[k]
	if !ok {
		e = &entry{}
		m.locks[k] = e
	}
	e.refs++
	m.m.Unlock()

	e.Lock()

	return func() {
		e.Unlock()

		m.m.Lock()
		e.refs--
		if e.refs == 0 {
			delete(m.locks, k)
		}
		m.m.Unlock()
	}
}
