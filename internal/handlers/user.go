package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"mindbloom/internal/middleware"
)

// User returns the signed-in account.
func (h *AuthHandler) User(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	u, err := h.users.UserByID(r.Context(), userID)
	if err != nil {
		h.logger.Error("lookup user", zap.Int("user_id", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	if u == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if err := h.reveal(u); err != nil {
		writeError(w, http.StatusInternalServerError, "could not decrypt user data")
		return
	}
	writeJSON(w, http.StatusOK, ToUserDTO(*u))
}
