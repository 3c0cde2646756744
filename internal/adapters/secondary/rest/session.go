package rest

import (
	"context"
	"errors"
	"net/http"

	"github.com/tazminur12/volunter-sub001/internal/core/domain"
	"github.com/tazminur12/volunter-sub001/internal/core/ports"
)

// SessionAPI covers /jwt (token exchange) and /users (profile records).
type SessionAPI struct {
	client *Client
}

func NewSessionAPI(client *Client) *SessionAPI {
	return &SessionAPI{client: client}
}

func (a *SessionAPI) ExchangeToken(ctx context.Context, email string) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	body := map[string]string{"email": email}
	if err := a.client.Do(ctx, http.MethodPost, "/jwt", nil, body, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", errors.New("token exchange returned no token")
	}
	return resp.Token, nil
}

func (a *SessionAPI) SaveUser(ctx context.Context, p domain.Profile) error {
	body := authorDTO{Name: p.Name, Email: p.Email, PhotoURL: p.PhotoURL}
	return a.client.Do(ctx, http.MethodPost, "/users", nil, body, nil)
}

var (
	_ ports.SessionExchanger = (*SessionAPI)(nil)
	_ ports.UserDirectory    = (*SessionAPI)(nil)
)
