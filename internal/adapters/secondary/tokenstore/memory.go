package tokenstore

import (
	"context"
	"sync"
	"time"

	"github.com/tazminur12/volunter-sub001/internal/core/ports"
	"github.com/tazminur12/volunter-sub001/internal/util"
)

// MemoryStore lives as long as the process; used when no redis is configured.
type MemoryStore struct {
	mu      sync.Mutex
	token   string
	expires time.Time
	clock   util.Clock
}

func NewMemoryStore(clock util.Clock) *MemoryStore {
	return &MemoryStore{clock: clock}
}

func (s *MemoryStore) Token(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != "" && !s.clock.Now().Before(s.expires) {
		s.token = ""
	}
	return s.token, nil
}

func (s *MemoryStore) SaveToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	d := ttl(token, now)
	if d <= 0 {
		s.token = ""
		return nil
	}
	s.token = token
	s.expires = now.Add(d)
	return nil
}

func (s *MemoryStore) ClearToken(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}

var _ ports.TokenStore = (*MemoryStore)(nil)
