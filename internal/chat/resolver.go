package chat

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Resolver answers a user message. It tries the remote completer first and
// falls back to the local responder on any failure, so Resolve never errors.
type Resolver struct {
	remote    Completer
	responder *Responder
	persona   string
	logger    *zap.Logger
}

// NewResolver builds a resolver. A nil remote always uses the local responder.
func NewResolver(remote Completer, responder *Responder, logger *zap.Logger) *Resolver {
	if responder == nil {
		responder = NewResponder(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{remote: remote, responder: responder, persona: Persona, logger: logger}
}

func (r *Resolver) Resolve(ctx context.Context, text string, history []Turn) string {
	if r.remote != nil {
		reply, err := r.remote.Complete(ctx, Request{
			Message: text,
			History: Window(history, HistoryWindow),
			Persona: r.persona,
		})
		if err == nil {
			return reply
		}
		if errors.Is(err, ErrNoCredential) {
			r.logger.Debug("chat remote not configured, using local responder")
		} else {
			r.logger.Warn("chat remote failed, using local responder", zap.Error(err))
		}
	}
	return r.responder.Reply(text)
}
