package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"mindbloom/internal/chat"
	"mindbloom/internal/models"
)

// FallbackModel is reported when the reply came from the local responder.
const FallbackModel = "local"

// RelayHandler is the server side of the chat relay function.
type RelayHandler struct {
	upstream  chat.Completer
	model     string
	responder *chat.Responder
	logger    *zap.Logger
}

// NewRelayHandler answers through upstream, reporting model as the model
// name. A nil upstream always answers locally.
func NewRelayHandler(upstream chat.Completer, model string, responder *chat.Responder, logger *zap.Logger) *RelayHandler {
	if responder == nil {
		responder = chat.NewResponder(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RelayHandler{upstream: upstream, model: model, responder: responder, logger: logger}
}

// Chat godoc
// @Summary Ask the wellness companion for a reply
// @Tags chat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} chat.RelayResponse
// @Failure 400 {object} errorResponse
// @Router /functions/v1/ai-chat [post]
func (h *RelayHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chat.RelayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, struct {
			Error    string `json:"error"`
			Response string `json:"response"`
		}{"invalid body", h.responder.Reply("")})
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		writeError(w, http.StatusBadRequest, chat.ErrEmptyMessage.Error())
		return
	}

	history := make([]chat.Turn, 0, len(req.ConversationHistory))
	for _, t := range req.ConversationHistory {
		if !t.Role.Valid() {
			t.Role = models.RoleUser
		}
		history = append(history, t)
	}

	if h.upstream != nil {
		reply, err := h.upstream.Complete(r.Context(), chat.Request{
			Message: message,
			History: history,
			Persona: chat.RelayPersona,
		})
		if err == nil {
			writeJSON(w, http.StatusOK, chat.RelayResponse{Response: reply, Model: h.model})
			return
		}
		if !errors.Is(err, chat.ErrNoCredential) {
			h.logger.Warn("relay upstream failed, answering locally", zap.Error(err))
		}
	}
	writeJSON(w, http.StatusOK, chat.RelayResponse{Response: h.responder.Reply(message), Model: FallbackModel})
}
