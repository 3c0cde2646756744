package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/tazminur12/volunter-sub001/internal/core/domain"
	"github.com/tazminur12/volunter-sub001/internal/core/ports"
	"github.com/tazminur12/volunter-sub001/internal/util"
)

const DefaultChatWindow = 10

// ChatService keeps one conversation with the assistant. Each turn resends the
// last window messages so the model has context.
type ChatService struct {
	gen         ports.TextGenerator
	clock       util.Clock
	instruction string
	window      int

	mu      sync.Mutex
	history []domain.ChatMessage
}

func NewChatService(gen ports.TextGenerator, clock util.Clock, window int) *ChatService {
	if window <= 0 {
		window = DefaultChatWindow
	}
	return &ChatService{
		gen:         gen,
		clock:       clock,
		instruction: domain.DefaultChatInstruction,
		window:      window,
	}
}

func (s *ChatService) Send(ctx context.Context, text string) (domain.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.ChatMessage{}, domain.Invalid("message cannot be empty")
	}

	s.mu.Lock()
	history := s.recent()
	s.mu.Unlock()

	asked := domain.ChatMessage{Role: domain.RoleUser, Text: text, At: s.clock.Now()}
	answer, err := s.gen.Generate(ctx, s.instruction, history, text)
	if err != nil {
		return domain.ChatMessage{}, fmt.Errorf("chat: %w", err)
	}
	reply := domain.ChatMessage{Role: domain.RoleModel, Text: answer, At: s.clock.Now()}

	s.mu.Lock()
	s.history = append(s.history, asked, reply)
	s.mu.Unlock()
	return reply, nil
}

func (s *ChatService) History() []domain.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ChatMessage, len(s.history))
	copy(out, s.history)
	return out
}

func (s *ChatService) Reset() {
	s.mu.Lock()
	s.history = nil
	s.mu.Unlock()
}

// recent returns a copy of the last window messages. Callers hold mu.
func (s *ChatService) recent() []domain.ChatMessage {
	start := len(s.history) - s.window
	if start < 0 {
		start = 0
	}
	out := make([]domain.ChatMessage, len(s.history)-start)
	copy(out, s.history[start:])
	return out
}

var _ ports.ChatService = (*ChatService)(nil)
