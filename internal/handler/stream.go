package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/adoptmatch/chat-service/internal/middleware"
	"github.com/adoptmatch/chat-service/internal/service"
	"github.com/adoptmatch/chat-service/pkg/logger"
)

// StreamHandler serves the live SSE message feed for a room.
type StreamHandler struct {
	messageLog *service.MessageLog
	directory  *service.RoomDirectory
	logger     *logger.Logger
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(
	messageLog *service.MessageLog,
	directory *service.RoomDirectory,
	log *logger.Logger,
) *StreamHandler {
	return &StreamHandler{
		messageLog: messageLog,
		directory:  directory,
		logger:     log,
	}
}

// HeartbeatEvent keeps the SSE connection alive.
type HeartbeatEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

// Stream handles GET /api/v1/rooms/:id/stream.
//
// The feed delivers the full history first, then live appends, ascending by
// CreatedAt. The seam between replay and live delivery may duplicate a
// message; clients render duplicate-safe by message id.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
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
	if !room.Has(selfID) {
		writeError(w, http.StatusNotFound, "room not found")
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	sub, err := h.messageLog.Subscribe(ctx, roomID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	defer sub.Unsubscribe()

	sendSSEEvent(w, flusher, "connected", map[string]string{
		"room_id": roomID,
	})

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("SSE client disconnected", zap.String("room_id", roomID))
			return

		case msg := <-sub.Feed():
			sendSSEEvent(w, flusher, "message", msg)

		case <-heartbeat.C:
			sendSSEEvent(w, flusher, "heartbeat", &HeartbeatEvent{
				Timestamp: time.Now(),
			})
		}
	}
}

// sendSSEEvent writes one SSE event and flushes it.
func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
	flusher.Flush()
}
