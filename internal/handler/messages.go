package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/adoptmatch/chat-service/internal/middleware"
	"github.com/adoptmatch/chat-service/internal/model"
	"github.com/adoptmatch/chat-service/internal/service"
	"github.com/adoptmatch/chat-service/pkg/logger"
)

// MessageHandler handles message endpoints.
type MessageHandler struct {
	messageLog *service.MessageLog
	directory  *service.RoomDirectory
	logger     *logger.Logger
}

// NewMessageHandler creates a new message handler.
func NewMessageHandler(
	messageLog *service.MessageLog,
	directory *service.RoomDirectory,
	log *logger.Logger,
) *MessageHandler {
	return &MessageHandler{
		messageLog: messageLog,
		directory:  directory,
		logger:     log,
	}
}

// requireMembership loads the room and verifies the caller is a participant.
// Writes the response itself on failure and returns false.
func (h *MessageHandler) requireMembership(w http.ResponseWriter, r *http.Request, roomID string) bool {
	room, err := h.directory.Get(r.Context(), roomID)
	if err != nil {
		writeServiceError(w, err)
		return false
	}
	if !room.Has(middleware.GetActorID(r.Context())) {
		writeError(w, http.StatusNotFound, "room not found")
		return false
	}
	return true
}

// List handles GET /api/v1/rooms/:id/messages
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	roomID := chi.URLParam(r, "id")

	if err := middleware.ValidateRoomID(roomID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !h.requireMembership(w, r, roomID) {
		return
	}

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	var cursor *string
	if c := r.URL.Query().Get("before"); c != "" {
		cursor = lo.ToPtr(c)
	}

	resp, err := h.messageLog.History(ctx, roomID, limit, cursor)
	if err != nil {
		h.logger.Error("failed to list messages", zap.String("room_id", roomID), zap.Error(err))
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Send handles POST /api/v1/rooms/:id/messages. An empty body is a valid
// send; the append is acknowledged without waiting on notification delivery.
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	selfID := middleware.GetActorID(ctx)
	selfRole := middleware.GetActorRole(ctx)
	roomID := chi.URLParam(r, "id")

	if err := middleware.ValidateRoomID(roomID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !h.requireMembership(w, r, roomID) {
		return
	}

	var req model.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateMessageBody(req.Body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	msg, err := h.messageLog.Append(ctx, roomID, selfID, selfRole, req.Body)
	if err != nil {
		h.logger.Error("failed to append message", zap.String("room_id", roomID), zap.Error(err))
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}
