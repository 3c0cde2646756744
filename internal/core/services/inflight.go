package services

import "sync"

// inflight admits one holder per name at a time.
type inflight struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func newInflight() *inflight {
	return &inflight{active: make(map[string]struct{})}
}

// acquire returns a release func, or false when name is already held.
func (f *inflight) acquire(name string) (func(), bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, busy := f.active[name]; busy {
		return nil, false
	}
	f.active[name] = struct{}{}
	return func() {
		f.mu.Lock()
		delete(f.active, name)
		f.mu.Unlock()
	}, true
}
