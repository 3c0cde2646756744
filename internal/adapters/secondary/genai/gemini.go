// Package genai answers chat prompts with the Gemini generateContent API.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tazminur12/volunter-sub001/internal/adapters/secondary/rest"
	"github.com/tazminur12/volunter-sub001/internal/core/domain"
	"github.com/tazminur12/volunter-sub001/internal/core/ports"
)

const (
	DefaultEndpoint = "https://generativelanguage.googleapis.com"
	DefaultModel    = "gemini-2.0-flash"
)

var ErrEmptyAnswer = errors.New("model returned no text")

type Gemini struct {
	client   *rest.Client
	endpoint string
	model    string
	apiKey   string
}

func NewGemini(client *rest.Client, endpoint, model, apiKey string) *Gemini {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if model == "" {
		model = DefaultModel
	}
	return &Gemini{client: client, endpoint: strings.TrimRight(endpoint, "/"), model: model, apiKey: apiKey}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	SystemInstruction *content  `json:"systemInstruction,omitempty"`
	Contents          []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// Generate sends the history followed by prompt and returns the first candidate's text.
func (g *Gemini) Generate(ctx context.Context, instruction string, history []domain.ChatMessage, prompt string) (string, error) {
	if g.apiKey == "" {
		return "", errors.New("chat assistant is not configured (GEMINI_API_KEY)")
	}

	// 1. Conversation: prior turns, then the new prompt
	req := generateRequest{Contents: make([]content, 0, len(history)+1)}
	if instruction != "" {
		req.SystemInstruction = &content{Parts: []part{{Text: instruction}}}
	}
	for _, m := range history {
		req.Contents = append(req.Contents, content{Role: string(m.Role), Parts: []part{{Text: m.Text}}})
	}
	req.Contents = append(req.Contents, content{Role: string(domain.RoleUser), Parts: []part{{Text: prompt}}})

	raw, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	// 2. Call
	u := g.endpoint + "/v1beta/models/" + url.PathEscape(g.model) + ":generateContent"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)

	var resp generateResponse
	if err := g.client.Send(httpReq, &resp); err != nil {
		return "", fmt.Errorf("gemini %s: %w", g.model, err)
	}

	// 3. First candidate text
	if resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: prompt blocked (%s)", ErrEmptyAnswer, resp.PromptFeedback.BlockReason)
	}
	for _, c := range resp.Candidates {
		var sb strings.Builder
		for _, p := range c.Content.Parts {
			sb.WriteString(p.Text)
		}
		if text := strings.TrimSpace(sb.String()); text != "" {
			return text, nil
		}
	}
	return "", ErrEmptyAnswer
}

var _ ports.TextGenerator = (*Gemini)(nil)
