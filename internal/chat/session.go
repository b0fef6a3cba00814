package chat

import (
	"context"
	"fmt"
	"strings"

	"mindbloom/internal/models"
)

// MessageStore is the slice of the local store a Session needs.
type MessageStore interface {
	ListChatMessages() []models.ChatMessage
	AppendChatMessage(role models.Role, content string) (models.ChatMessage, error)
	ClearChatHistory() error
}

// Session ties the chat history in the local store to a Resolver.
type Session struct {
	store    MessageStore
	resolver *Resolver
}

func NewSession(store MessageStore, resolver *Resolver) *Session {
	return &Session{store: store, resolver: resolver}
}

// Open returns the conversation so far, writing the welcome message first
// when the history is empty.
func (s *Session) Open() ([]models.ChatMessage, error) {
	msgs := s.store.ListChatMessages()
	if len(msgs) > 0 {
		return msgs, nil
	}
	welcome, err := s.store.AppendChatMessage(models.RoleAssistant, WelcomeMessage)
	if err != nil {
		return nil, fmt.Errorf("seed welcome message: %w", err)
	}
	return []models.ChatMessage{welcome}, nil
}

// Send records the user's message, resolves a reply against the prior
// history and records the reply.
func (s *Session) Send(ctx context.Context, text string) (user, reply models.ChatMessage, err error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.ChatMessage{}, models.ChatMessage{}, ErrEmptyMessage
	}
	history := TurnsFrom(s.store.ListChatMessages())

	user, err = s.store.AppendChatMessage(models.RoleUser, text)
	if err != nil {
		return models.ChatMessage{}, models.ChatMessage{}, fmt.Errorf("save message: %w", err)
	}
	answer := s.resolver.Resolve(ctx, text, history)
	reply, err = s.store.AppendChatMessage(models.RoleAssistant, answer)
	if err != nil {
		return user, models.ChatMessage{}, fmt.Errorf("save reply: %w", err)
	}
	return user, reply, nil
}

func (s *Session) Clear() error {
	return s.store.ClearChatHistory()
}
