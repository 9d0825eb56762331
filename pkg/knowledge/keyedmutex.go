package knowledge

import (
	"sort"
	"sync"
)

// keyedMutex provides per-key mutual exclusion for check-then-act sequences
// against entity and document ids. The backing stores expose no conditional
// writes spanning both the graph and the vector index, so serialization
// happens here.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyLock)}
}

// Lock acquires every key in sorted order, deduplicated, so that two
// operations locking overlapping key sets cannot deadlock. The returned
// function releases the keys in reverse order.
func (k *keyedMutex) Lock(keys ...string) func() {
	unique := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, key)
	}
	sort.Strings(unique)

	acquired := make([]*keyLock, 0, len(unique))
	for _, key := range unique {
		k.mu.Lock()
		lock, ok := k.locks[key]
		if !ok {
			lock = &keyLock{}
			k.locks[key] = lock
		}
		lock.refs++
		k.mu.Unlock()

		lock.mu.Lock()
		acquired = append(acquired, lock)
	}

	released := unique

	return func() {
		for i := len(acquired) - 1; i >= 0; i-- {
			acquired[i].mu.Unlock()

			k.mu.Lock()
			acquired[i].refs--
			if acquired[i].refs == 0 {
				delete(k.locks, released[i])
			}
			k.mu.Unlock()
		}
	}
}
