package keymutex

import "sync"

// KeyMutex serializes work per string key. It backs the per-document locks
// around index rebuilds and flashcard/quiz replacement, so a reprocess and a
// query against the same index directory never interleave.
//
// Mutexes are never evicted; the map is bounded by the number of distinct
// keys (documents) the process has touched.
type KeyMutex struct {
	locks sync.Map // key -> *sync.Mutex
}

func New() *KeyMutex {
	return &KeyMutex{}
}

func (m *KeyMutex) Lock(key string) {
	mu, _ := m.locks.LoadOrStore(key, &sync.Mutex{})
	mu.(*sync.Mutex).Lock()
}

func (m *KeyMutex) Unlock(key string) {
	mu, ok := m.locks.Load(key)
	if !ok {
		return
	}
	mu.(*sync.Mutex).Unlock()
}
