package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/tazminur12/volunter-sub001/internal/core/domain"
	"github.com/tazminur12/volunter-sub001/internal/core/ports"
)

const exchangeTimeout = 15 * time.Second

// Session tracks who is signed in. It follows the identity provider, trades
// each new identity for a backend token and is the only writer of that token.
type Session struct {
	provider  ports.IdentityProvider
	exchanger ports.SessionExchanger
	users     ports.UserDirectory
	tokens    ports.TokenStore

	mu        sync.RWMutex
	user      *domain.Identity
	loading   bool
	state     domain.SessionState
	seq       uint64
	listeners map[int]func(domain.SessionSnapshot)
	nextID    int

	tokenMu sync.Mutex // serialises token writes
	ctx     context.Context
	unsub   func()
}

func NewSession(provider ports.IdentityProvider, exchanger ports.SessionExchanger, users ports.UserDirectory, tokens ports.TokenStore) *Session {
	return &Session{
		provider:  provider,
		exchanger: exchanger,
		users:     users,
		tokens:    tokens,
		loading:   true,
		state:     domain.StateInitializing,
		listeners: make(map[int]func(domain.SessionSnapshot)),
		ctx:       context.Background(),
	}
}

// Start subscribes to the identity provider. Token exchanges run under ctx.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()
	s.unsub = s.provider.OnIdentityChanged(s.identityChanged)
}

func (s *Session) Close() {
	if s.unsub != nil {
		s.unsub()
	}
}

// --- STATE ---

func (s *Session) CurrentUser() *domain.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Session) Snapshot() domain.SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// OnChange calls fn after every state change until unsubscribed.
func (s *Session) OnChange(fn func(domain.SessionSnapshot)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// WaitReady blocks until the session is no longer loading.
func (s *Session) WaitReady(ctx context.Context) error {
	ready := make(chan struct{}, 1)
	unsub := s.OnChange(func(snap domain.SessionSnapshot) {
		if !snap.Loading {
			select {
			case ready <- struct{}{}:
			default:
			}
		}
	})
	defer unsub()

	if !s.Loading() {
		return nil
	}
	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// --- ACTIONS ---

func (s *Session) Register(ctx context.Context, cmd ports.RegisterCmd) (*domain.Identity, error) {
	cmd.Email = strings.TrimSpace(cmd.Email)
	if err := domain.ValidateCredentials(cmd.Email, cmd.Password); err != nil {
		return nil, err
	}

	// 1. Provider account
	id, err := s.provider.Register(ctx, cmd.Email, cmd.Password)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	// 2. Profile on the provider
	if cmd.Name != "" || cmd.PhotoURL != "" {
		if err := s.provider.UpdateProfile(ctx, cmd.Name, cmd.PhotoURL); err != nil {
			slog.Warn("⚠️ Profile update failed", "email", cmd.Email, "error", err)
		} else {
			s.setProfile(id.UID, cmd.Name, cmd.PhotoURL)
			id.DisplayName, id.PhotoURL = cmd.Name, cmd.PhotoURL
		}
	}

	// 3. Public record on the backend (best effort)
	profile := domain.Profile{Name: id.Name(), Email: id.Email, PhotoURL: id.PhotoURL}
	if err := s.users.SaveUser(ctx, profile); err != nil {
		slog.Warn("⚠️ Saving user profile failed", "email", id.Email, "error", err)
	}

	if err := s.WaitReady(ctx); err != nil {
		return id, err
	}
	return id, nil
}

func (s *Session) Login(ctx context.Context, email, password string) (*domain.Identity, error) {
	email = strings.TrimSpace(email)
	if err := domain.ValidateCredentials(email, password); err != nil {
		return nil, err
	}
	id, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if err := s.WaitReady(ctx); err != nil {
		return id, err
	}
	return id, nil
}

func (s *Session) GoogleLogin(ctx context.Context) (*domain.Identity, error) {
	id, err := s.provider.SignInWithGoogle(ctx)
	if err != nil {
		return nil, fmt.Errorf("google login: %w", err)
	}
	if err := s.WaitReady(ctx); err != nil {
		return id, err
	}
	return id, nil
}

// LogOut drops the backend token, then signs out of the provider. Exchanges
// still in flight are superseded first so none of them can save a token after
// the clear.
func (s *Session) LogOut(ctx context.Context) error {
	s.mu.Lock()
	s.seq++
	settled := s.loading && s.state == domain.StateAuthenticated
	if settled {
		s.loading = false
	}
	s.mu.Unlock()
	if settled {
		s.notify()
	}

	s.tokenMu.Lock()
	clearErr := s.tokens.ClearToken(ctx)
	s.tokenMu.Unlock()
	if clearErr != nil {
		clearErr = fmt.Errorf("clear token: %w", clearErr)
		slog.Error("❌ Clearing session token failed", "error", clearErr)
	}

	if err := s.provider.SignOut(ctx); err != nil {
		return errors.Join(clearErr, fmt.Errorf("sign out: %w", err))
	}
	return clearErr
}

// --- PROVIDER CALLBACK ---

func (s *Session) identityChanged(id *domain.Identity) {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	ctx := s.ctx
	if id == nil {
		s.user = nil
		s.state = domain.StateAnonymous
		s.loading = false
		s.mu.Unlock()
		slog.Debug("session anonymous")
		s.notify()
		return
	}
	u := *id
	s.user = &u
	s.state = domain.StateAuthenticated
	s.loading = true
	s.mu.Unlock()
	s.notify()

	go s.exchange(ctx, seq, u.Email)
}

func (s *Session) exchange(ctx context.Context, seq uint64, email string) {
	ctx, cancel := context.WithTimeout(ctx, exchangeTimeout)
	defer cancel()

	token, err := s.exchanger.ExchangeToken(ctx, email)
	if err != nil {
		slog.Error("❌ Token exchange failed", "email", email, "error", err)
	} else {
		s.tokenMu.Lock()
		if s.current(seq) {
			if err := s.tokens.SaveToken(ctx, token); err != nil {
				slog.Error("❌ Saving session token failed", "error", err)
			}
		}
		s.tokenMu.Unlock()
	}

	s.mu.Lock()
	if s.seq != seq {
		s.mu.Unlock()
		slog.Debug("dropping exchange for superseded identity", "email", email)
		return
	}
	s.loading = false
	s.mu.Unlock()
	slog.Info("🔐 Session ready", "email", email, "token", err == nil)
	s.notify()
}

func (s *Session) current(seq uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seq == seq
}

func (s *Session) setProfile(uid, name, photo string) {
	s.mu.Lock()
	if s.user == nil || s.user.UID != uid {
		s.mu.Unlock()
		return
	}
	u := *s.user
	u.DisplayName, u.PhotoURL = name, photo
	s.user = &u
	s.mu.Unlock()
	s.notify()
}

func (s *Session) snapshotLocked() domain.SessionSnapshot {
	snap := domain.SessionSnapshot{Loading: s.loading, State: s.state}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	return snap
}

func (s *Session) notify() {
	s.mu.RLock()
	snap := s.snapshotLocked()
	fns := make([]func(domain.SessionSnapshot), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()
	for _, fn := range fns {
		fn(snap)
	}
}

var _ ports.SessionService = (*Session)(nil)
