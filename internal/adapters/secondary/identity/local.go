package identity

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/tazminur12/volunter-sub001/internal/core/domain"
	"github.com/tazminur12/volunter-sub001/internal/core/ports"
)

const ProviderLocal = "local"

type localAccount struct {
	uid         string
	email       string
	hash        string
	displayName string
	photoURL    string
}

// Local keeps accounts in memory with argon2id password hashes. It stands in
// for a hosted provider during development.
type Local struct {
	params *Argon2Params

	mu       sync.Mutex
	accounts map[string]*localAccount // by lower-cased email

	b broadcaster
}

func NewLocal(params *Argon2Params) *Local {
	if params == nil {
		params = DefaultParams
	}
	return &Local{params: params, accounts: make(map[string]*localAccount)}
}

func (l *Local) Register(_ context.Context, email, password string) (*domain.Identity, error) {
	key := strings.ToLower(strings.TrimSpace(email))

	l.mu.Lock()
	if _, ok := l.accounts[key]; ok {
		l.mu.Unlock()
		return nil, domain.Invalid("an account for %s already exists", email)
	}
	l.mu.Unlock()

	hash, err := hashPassword(l.params, password)
	if err != nil {
		return nil, err
	}
	acc := &localAccount{uid: uuid.NewString(), email: strings.TrimSpace(email), hash: hash}

	l.mu.Lock()
	if _, ok := l.accounts[key]; ok {
		l.mu.Unlock()
		return nil, domain.Invalid("an account for %s already exists", email)
	}
	l.accounts[key] = acc
	l.mu.Unlock()

	slog.Info("👤 Local account created", "uid", acc.uid, "email", acc.email)
	id := acc.identity()
	l.b.publish(id)
	return id, nil
}

func (l *Local) SignIn(_ context.Context, email, password string) (*domain.Identity, error) {
	l.mu.Lock()
	acc, ok := l.accounts[strings.ToLower(strings.TrimSpace(email))]
	l.mu.Unlock()
	if !ok {
		return nil, domain.ErrInvalidCredentials
	}
	if err := comparePassword(acc.hash, password); err != nil {
		if !errors.Is(err, errPasswordMismatch) {
			slog.Error("❌ Stored hash unreadable", "uid", acc.uid, "error", err)
		}
		return nil, domain.ErrInvalidCredentials
	}

	l.mu.Lock()
	id := acc.identity()
	l.mu.Unlock()
	l.b.publish(id)
	return id, nil
}

func (l *Local) SignInWithGoogle(context.Context) (*domain.Identity, error) {
	return nil, domain.ErrProviderUnavailable
}

func (l *Local) SignOut(context.Context) error {
	l.b.publish(nil)
	return nil
}

func (l *Local) UpdateProfile(_ context.Context, displayName, photoURL string) error {
	cur := l.b.get()
	if cur == nil {
		return domain.ErrUnauthenticated
	}

	l.mu.Lock()
	if acc, ok := l.accounts[strings.ToLower(cur.Email)]; ok {
		acc.displayName, acc.photoURL = displayName, photoURL
	}
	l.mu.Unlock()

	l.b.amend(func(id *domain.Identity) {
		id.DisplayName, id.PhotoURL = displayName, photoURL
	})
	return nil
}

func (l *Local) OnIdentityChanged(fn func(*domain.Identity)) func() {
	return l.b.subscribe(fn)
}

func (a *localAccount) identity() *domain.Identity {
	return &domain.Identity{
		UID:         a.uid,
		Email:       a.email,
		DisplayName: a.displayName,
		PhotoURL:    a.photoURL,
		Provider:    ProviderLocal,
	}
}

var _ ports.IdentityProvider = (*Local)(nil)
