package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/adoptmatch/chat-service/internal/model"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// writeServiceError maps core error taxonomy onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidParticipants):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrRoomNotFound):
		writeError(w, http.StatusNotFound, "room not found")
	case errors.Is(err, model.ErrNotAParticipant):
		writeError(w, http.StatusForbidden, "not a participant of the room")
	case errors.Is(err, model.ErrNotificationNotFound):
		writeError(w, http.StatusNotFound, "notification not found")
	case errors.Is(err, model.ErrBackendUnavailable):
		writeError(w, http.StatusServiceUnavailable, "backend unavailable, retry")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
