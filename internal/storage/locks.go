package storage

import "sync"

// Locks hands out one mutex per key. The zero value is ready to use.
type Locks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// For returns the mutex guarding key, creating it on first use.
func (l *Locks) For(key string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.locks == nil {
		l.locks = make(map[string]*sync.Mutex)
	}
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	return m
}

// With runs fn while holding the lock for key.
func (l *Locks) With(key string, fn func() error) error {
	m := l.For(key)
	m.Lock()
	defer m.Unlock()
	return fn()
}
