package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/tazminur12/volunter-sub001/internal/adapters/secondary/rest"
	"github.com/tazminur12/volunter-sub001/internal/core/domain"
	"github.com/tazminur12/volunter-sub001/internal/core/ports"
)

const (
	DefaultFirebaseEndpoint = "https://identitytoolkit.googleapis.com/v1"

	ProviderPassword = "password"
	ProviderGoogle   = "google.com"
)

// GoogleTokenSource supplies a Google ID token for signInWithIdp. A terminal
// has no popup, so the token comes from outside (an env var, a helper).
type GoogleTokenSource interface {
	GoogleIDToken(ctx context.Context) (string, error)
}

// StaticGoogleToken is a fixed token; empty means Google sign-in is unavailable.
type StaticGoogleToken string

func (t StaticGoogleToken) GoogleIDToken(context.Context) (string, error) {
	if t == "" {
		return "", domain.ErrProviderUnavailable
	}
	return string(t), nil
}

// Firebase talks to the Identity Toolkit REST API.
type Firebase struct {
	client *rest.Client
	apiKey string
	google GoogleTokenSource

	mu      sync.Mutex
	idToken string

	b broadcaster
}

// NewFirebase expects a rest.Client rooted at the Identity Toolkit endpoint
// and built without a token source.
func NewFirebase(client *rest.Client, apiKey string, google GoogleTokenSource) *Firebase {
	return &Firebase{client: client, apiKey: apiKey, google: google}
}

type firebaseAuthResponse struct {
	LocalID     string `json:"localId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoUrl"`
	IDToken     string `json:"idToken"`
}

func (f *Firebase) Register(ctx context.Context, email, password string) (*domain.Identity, error) {
	body := map[string]any{"email": email, "password": password, "returnSecureToken": true}
	return f.authenticate(ctx, "accounts:signUp", body, ProviderPassword)
}

func (f *Firebase) SignIn(ctx context.Context, email, password string) (*domain.Identity, error) {
	body := map[string]any{"email": email, "password": password, "returnSecureToken": true}
	return f.authenticate(ctx, "accounts:signInWithPassword", body, ProviderPassword)
}

func (f *Firebase) SignInWithGoogle(ctx context.Context) (*domain.Identity, error) {
	if f.google == nil {
		return nil, domain.ErrProviderUnavailable
	}
	token, err := f.google.GoogleIDToken(ctx)
	if err != nil {
		return nil, err
	}
	body := map[string]any{
		"postBody":            url.Values{"id_token": {token}, "providerId": {ProviderGoogle}}.Encode(),
		"requestUri":          "http://localhost",
		"returnSecureToken":   true,
		"returnIdpCredential": true,
	}
	return f.authenticate(ctx, "accounts:signInWithIdp", body, ProviderGoogle)
}

func (f *Firebase) SignOut(context.Context) error {
	f.mu.Lock()
	f.idToken = ""
	f.mu.Unlock()
	f.b.publish(nil)
	return nil
}

func (f *Firebase) UpdateProfile(ctx context.Context, displayName, photoURL string) error {
	f.mu.Lock()
	idToken := f.idToken
	f.mu.Unlock()
	if idToken == "" {
		return domain.ErrUnauthenticated
	}

	body := map[string]any{"idToken": idToken, "displayName": displayName, "photoUrl": photoURL}
	if err := f.call(ctx, "accounts:update", body, nil); err != nil {
		return err
	}
	f.b.amend(func(id *domain.Identity) {
		id.DisplayName, id.PhotoURL = displayName, photoURL
	})
	return nil
}

func (f *Firebase) OnIdentityChanged(fn func(*domain.Identity)) func() {
	return f.b.subscribe(fn)
}

func (f *Firebase) authenticate(ctx context.Context, method string, body any, provider string) (*domain.Identity, error) {
	var resp firebaseAuthResponse
	if err := f.call(ctx, method, body, &resp); err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.idToken = resp.IDToken
	f.mu.Unlock()

	id := &domain.Identity{
		UID:         resp.LocalID,
		Email:       resp.Email,
		DisplayName: resp.DisplayName,
		PhotoURL:    resp.PhotoURL,
		Provider:    provider,
	}
	slog.Info("🔑 Firebase sign-in", "uid", id.UID, "provider", provider)
	f.b.publish(id)
	return id, nil
}

func (f *Firebase) call(ctx context.Context, method string, body, out any) error {
	q := url.Values{"key": {f.apiKey}}
	err := f.client.Do(ctx, http.MethodPost, method, q, body, out)
	if err == nil {
		return nil
	}
	var apiErr *rest.APIError
	if errors.As(err, &apiErr) {
		return firebaseError(apiErr)
	}
	return err
}

// firebaseError maps Identity Toolkit codes such as "EMAIL_EXISTS" or
// "WEAK_PASSWORD : Password should be at least 6 characters".
func firebaseError(e *rest.APIError) error {
	code, detail, _ := strings.Cut(e.Message, ":")
	code = strings.TrimSpace(code)
	switch code {
	case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS", "USER_DISABLED":
		return domain.ErrInvalidCredentials
	case "EMAIL_EXISTS":
		return domain.Invalid("an account for this email already exists")
	case "INVALID_EMAIL":
		return domain.Invalid("the email address is badly formatted")
	case "WEAK_PASSWORD":
		return domain.Invalid("weak password: %s", strings.TrimSpace(detail))
	case "INVALID_ID_TOKEN", "TOKEN_EXPIRED", "CREDENTIAL_TOO_OLD_LOGIN_AGAIN":
		return fmt.Errorf("%w: %s", domain.ErrUnauthenticated, code)
	}
	return e
}

var _ ports.IdentityProvider = (*Firebase)(nil)
