// Package identity holds the sign-in providers the session follows.
//
// Providers call listeners synchronously: on subscribe with the current
// identity, and from inside SignIn/Register/SignOut before those return.
package identity

import (
	"sync"

	"github.com/tazminur12/volunter-sub001/internal/core/domain"
)

type broadcaster struct {
	mu      sync.Mutex
	current *domain.Identity
	nextID  int
	subs    map[int]func(*domain.Identity)
}

func (b *broadcaster) subscribe(fn func(*domain.Identity)) func() {
	b.mu.Lock()
	if b.subs == nil {
		b.subs = make(map[int]func(*domain.Identity))
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	cur := clone(b.current)
	b.mu.Unlock()

	fn(cur)
	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

func (b *broadcaster) publish(id *domain.Identity) {
	b.mu.Lock()
	b.current = clone(id)
	fns := make([]func(*domain.Identity), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(clone(id))
	}
}

// amend changes the current identity without notifying, the way a profile
// update does not count as a new sign-in.
func (b *broadcaster) amend(fn func(*domain.Identity)) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return false
	}
	fn(b.current)
	return true
}

func (b *broadcaster) get() *domain.Identity {
	b.mu.Lock()
	defer b.mu.Unlock()
	return clone(b.current)
}

func clone(id *domain.Identity) *domain.Identity {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}
