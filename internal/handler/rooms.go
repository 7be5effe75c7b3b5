// Package handler provides HTTP handlers for the API.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/adoptmatch/chat-service/internal/middleware"
	"github.com/adoptmatch/chat-service/internal/model"
	"github.com/adoptmatch/chat-service/internal/service"
	"github.com/adoptmatch/chat-service/pkg/logger"
)

// RoomHandler handles room endpoints.
type RoomHandler struct {
	directory  *service.RoomDirectory
	messageLog *service.MessageLog
	logger     *logger.Logger
}

// NewRoomHandler creates a new room handler.
func NewRoomHandler(directory *service.RoomDirectory, messageLog *service.MessageLog, log *logger.Logger) *RoomHandler {
	return &RoomHandler{
		directory:  directory,
		messageLog: messageLog,
		logger:     log,
	}
}

// Resolve handles POST /api/v1/rooms — idempotent resolve-or-create for the
// pair (caller, counterpart). Calling it again, or from the other side,
// returns the same room.
func (h *RoomHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	selfID := middleware.GetActorID(ctx)
	selfRole := middleware.GetActorRole(ctx)

	var req model.ResolveRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateActorID(req.CounterpartID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	room, err := h.directory.ResolveOrCreate(ctx,
		model.Participant{ID: selfID, Role: selfRole},
		model.Participant{ID: req.CounterpartID, Role: req.CounterpartRole},
	)
	if err != nil {
		h.logger.Error("failed to resolve room", zap.Error(err))
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, room)
}

// List handles GET /api/v1/rooms
func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	selfID := middleware.GetActorID(ctx)

	rooms, err := h.directory.ListForActor(ctx, selfID)
	if err != nil {
		h.logger.Error("failed to list rooms", zap.Error(err))
		writeServiceError(w, err)
		return
	}

	// Decorate with the newest message so the conversation list can show a
	// preview without a per-room round trip.
	for i := range rooms {
		latest, err := h.messageLog.Latest(ctx, rooms[i].ID)
		if err != nil {
			h.logger.Warn("failed to load latest message",
				zap.String("room_id", rooms[i].ID), zap.Error(err))
			continue
		}
		rooms[i].LastMessage = latest
	}

	writeJSON(w, http.StatusOK, &model.ListRoomsResponse{
		Rooms: rooms,
		Total: len(rooms),
	})
}

// Get handles GET /api/v1/rooms/:id
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	selfID := middleware.GetActorID(ctx)
	roomID := chi.URLParam(r, "id")

	if err := middleware.ValidateRoomID(roomID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	room, err := h.directory.Get(ctx, roomID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	// Room existence is not leaked to non-participants.
	if !room.Has(selfID) {
		writeError(w, http.StatusNotFound, "room not found")
		return
	}

	writeJSON(w, http.StatusOK, room)
}
