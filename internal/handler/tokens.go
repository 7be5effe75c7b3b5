package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/adoptmatch/chat-service/internal/middleware"
	"github.com/adoptmatch/chat-service/internal/model"
	"github.com/adoptmatch/chat-service/internal/store"
	"github.com/adoptmatch/chat-service/pkg/logger"
)

// TokenHandler handles device delivery token registration.
type TokenHandler struct {
	tokens *store.TokenStore
	logger *logger.Logger
}

// NewTokenHandler creates a new token handler.
func NewTokenHandler(tokens *store.TokenStore, log *logger.Logger) *TokenHandler {
	return &TokenHandler{
		tokens: tokens,
		logger: log,
	}
}

// Register handles PUT /api/v1/tokens. Registration is last-write-wins per
// actor: a new device replaces the previous token.
func (h *TokenHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	selfID := middleware.GetActorID(ctx)

	var req model.RegisterTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateDeliveryToken(req.Token); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.tokens.Set(ctx, selfID, req.Token, req.Platform); err != nil {
		h.logger.Error("failed to register delivery token",
			zap.String("actor_id", selfID), zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "backend unavailable, retry")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Unregister handles DELETE /api/v1/tokens, clearing the token on logout.
func (h *TokenHandler) Unregister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	selfID := middleware.GetActorID(ctx)

	if err := h.tokens.Delete(ctx, selfID); err != nil {
		h.logger.Error("failed to clear delivery token",
			zap.String("actor_id", selfID), zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "backend unavailable, retry")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
