// Package chat produces supportive replies: a remote model when one is
// configured, otherwise a local keyword responder.
package chat

import (
	"context"
	"errors"
	"fmt"

	"mindbloom/internal/models"
)

// HistoryWindow is how many prior turns are sent to a remote model.
const HistoryWindow = 10

var (
	ErrNoCredential  = errors.New("no chat credential configured")
	ErrEmptyResponse = errors.New("chat service returned no content")
	ErrEmptyMessage  = errors.New("message is empty")
)

type Turn struct {
	Role    models.Role `json:"role"`
	Content string      `json:"content"`
}

type Request struct {
	Message string
	History []Turn
	Persona string
}

// Completer asks a remote model for a reply.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// StatusError is a non-2xx answer from a chat endpoint.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("chat service status %d", e.StatusCode)
	}
	return fmt.Sprintf("chat service status %d: %s", e.StatusCode, e.Body)
}

// Window returns at most the last n turns of history.
func Window(history []Turn, n int) []Turn {
	if n <= 0 || len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

// TurnsFrom converts stored messages into completion turns.
func TurnsFrom(msgs []models.ChatMessage) []Turn {
	out := make([]Turn, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, Turn{Role: m.Role, Content: m.Content})
	}
	return out
}
