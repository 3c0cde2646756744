package genai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/require"

	"github.com/tazminur12/volunter-sub001/internal/adapters/secondary/genai"
	"github.com/tazminur12/volunter-sub001/internal/adapters/secondary/rest"
	"github.com/tazminur12/volunter-sub001/internal/core/domain"
)

func getTestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

type captured struct {
	path   string
	apiKey string
	body   map[string]any
}

func newGemini(t *testing.T, apiKey string, status int, answer any) (*genai.Gemini, *captured) {
	t.Helper()
	got := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.path = r.URL.Path
		got.apiKey = r.Header.Get("x-goog-api-key")
		_ = json.NewDecoder(r.Body).Decode(&got.body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(answer)
	}))
	t.Cleanup(srv.Close)
	client, err := rest.NewClient(srv.URL, nil, rest.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return genai.NewGemini(client, srv.URL, "gemini-test", apiKey), got
}

func answer(text string) map[string]any {
	return map[string]any{"candidates": []any{map[string]any{
		"content":      map[string]any{"role": "model", "parts": []any{map[string]any{"text": text}}},
		"finishReason": "STOP",
	}}}
}

func TestGenerateSendsConversation(t *testing.T) {
	ctx, cancel := getTestContext()
	defer cancel()
	g, got := newGemini(t, "gem-key", http.StatusOK, answer(" Try the beach cleanup on Saturday. "))

	history := []domain.ChatMessage{
		{Role: domain.RoleUser, Text: gofakeit.Question()},
		{Role: domain.RoleModel, Text: gofakeit.Sentence(6)},
	}
	text, err := g.Generate(ctx, "be brief", history, "What can I join this weekend?")
	require.NoError(t, err)
	require.Equal(t, "Try the beach cleanup on Saturday.", text)

	require.Equal(t, "/v1beta/models/gemini-test:generateContent", got.path)
	require.Equal(t, "gem-key", got.apiKey)

	contents := got.body["contents"].([]any)
	require.Len(t, contents, 3)
	roles := make([]string, 0, len(contents))
	for _, c := range contents {
		roles = append(roles, c.(map[string]any)["role"].(string))
	}
	require.Equal(t, []string{"user", "model", "user"}, roles)

	sys := got.body["systemInstruction"].(map[string]any)["parts"].([]any)[0].(map[string]any)
	require.Equal(t, "be brief", sys["text"])
}

func TestGenerateErrors(t *testing.T) {
	ctx, cancel := getTestContext()
	defer cancel()

	g, _ := newGemini(t, "gem-key", http.StatusOK, map[string]any{"promptFeedback": map[string]any{"blockReason": "SAFETY"}})
	_, err := g.Generate(ctx, "", nil, "hi")
	require.ErrorIs(t, err, genai.ErrEmptyAnswer)

	g, _ = newGemini(t, "gem-key", http.StatusBadRequest, map[string]any{
		"error": map[string]any{"code": 400, "message": "API key not valid", "status": "INVALID_ARGUMENT"},
	})
	_, err = g.Generate(ctx, "", nil, "hi")
	var apiErr *rest.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "API key not valid", apiErr.Message)

	g, got := newGemini(t, "", http.StatusOK, answer("unused"))
	_, err = g.Generate(ctx, "", nil, "hi")
	require.Error(t, err)
	require.Empty(t, got.path)
}
