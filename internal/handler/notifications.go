package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/adoptmatch/chat-service/internal/middleware"
	"github.com/adoptmatch/chat-service/internal/model"
	"github.com/adoptmatch/chat-service/internal/store"
	"github.com/adoptmatch/chat-service/pkg/logger"
)

// NotificationHandler serves the recipient's in-app notification list.
type NotificationHandler struct {
	records *store.NotificationStore
	logger  *logger.Logger
}

// NewNotificationHandler creates a new notification handler.
func NewNotificationHandler(records *store.NotificationStore, log *logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		records: records,
		logger:  log,
	}
}

// List handles GET /api/v1/notifications (?unread=true for unread only).
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	selfID := middleware.GetActorID(ctx)
	unreadOnly := r.URL.Query().Get("unread") == "true"

	records, err := h.records.List(ctx, selfID, unreadOnly)
	if err != nil {
		h.logger.Error("failed to list notifications",
			zap.String("actor_id", selfID), zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "backend unavailable, retry")
		return
	}

	unread := lo.CountBy(records, func(rec model.NotificationRecord) bool {
		return !rec.Read
	})

	writeJSON(w, http.StatusOK, &model.ListNotificationsResponse{
		Notifications: records,
		Unread:        unread,
	})
}

// MarkRead handles POST /api/v1/notifications/:id/read. The record's read
// flag transitions false to true exactly once; re-marking is a no-op.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	selfID := middleware.GetActorID(ctx)
	notificationID := chi.URLParam(r, "id")

	if err := middleware.ValidateNotificationID(notificationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.records.MarkRead(ctx, selfID, notificationID); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
