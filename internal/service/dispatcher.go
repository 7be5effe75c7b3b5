package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adoptmatch/chat-service/internal/model"
	"github.com/adoptmatch/chat-service/internal/push"
	"github.com/adoptmatch/chat-service/internal/store"
	"github.com/adoptmatch/chat-service/pkg/logger"
	"github.com/adoptmatch/chat-service/pkg/metrics"
)

const (
	// notificationPlaceholder replaces an empty or whitespace-only body.
	notificationPlaceholder = "you received a new message"

	// notificationBodyBudget is the push-payload budget for the body.
	notificationBodyBudget = 50

	// notificationBodyContent is how much of the original body survives
	// truncation before the ellipsis.
	notificationBodyContent = 47
)

// NotificationDispatcher reacts to appended messages: it resolves the
// recipient, attempts a best-effort push, and always writes an in-app
// notification record. Nothing here ever fails the sender's append; every
// failure mode is logged and absorbed.
type NotificationDispatcher struct {
	rooms   *store.RoomStore
	tokens  *store.TokenStore
	records *store.NotificationStore
	push    push.Client
	title   string
	logger  *logger.Logger
}

// NewNotificationDispatcher creates a dispatcher.
func NewNotificationDispatcher(
	rooms *store.RoomStore,
	tokens *store.TokenStore,
	records *store.NotificationStore,
	pushClient push.Client,
	title string,
	log *logger.Logger,
) *NotificationDispatcher {
	return &NotificationDispatcher{
		rooms:   rooms,
		tokens:  tokens,
		records: records,
		push:    pushClient,
		title:   title,
		logger:  log,
	}
}

// DisplayBody computes the notification body for a message body: the fixed
// placeholder for empty/whitespace input, otherwise the body truncated to
// the payload budget with a trailing ellipsis.
func DisplayBody(body string) string {
	if strings.TrimSpace(body) == "" {
		return notificationPlaceholder
	}
	runes := []rune(body)
	if len(runes) <= notificationBodyBudget {
		return body
	}
	return string(runes[:notificationBodyContent]) + "..."
}

// OnMessageAppended handles one appended message. Invoked by the durable
// stream consumer; dispatch for different messages may run concurrently and
// completes in no particular order. Push outcomes never propagate anywhere.
func (d *NotificationDispatcher) OnMessageAppended(ctx context.Context, msg model.Message) {
	room, err := d.rooms.Get(ctx, msg.RoomID)
	if err != nil {
		d.logger.Error("dispatch: failed to load room",
			zap.String("room_id", msg.RoomID),
			zap.String("message_id", msg.ID),
			zap.Error(err),
		)
		metrics.PushAttemptsTotal.WithLabelValues("drop").Inc()
		return
	}

	recipient, err := OtherParticipant(room, msg.AuthorID)
	if err != nil {
		// A message appended by a non-member of its room. This is a
		// data-integrity bug, never an expected state.
		d.logger.Error("dispatch: message author is not a room participant",
			zap.String("room_id", msg.RoomID),
			zap.String("message_id", msg.ID),
			zap.String("author_id", msg.AuthorID),
			zap.Error(err),
		)
		metrics.DispatchIntegrityErrors.Inc()
		return
	}

	body := DisplayBody(msg.Body)
	d.sendPush(ctx, recipient, body, msg.RoomID)

	// The in-app record is written no matter what happened to the push, so
	// the recipient's notification list stays consistent.
	rec := &model.NotificationRecord{
		ID:          uuid.Must(uuid.NewV7()).String(),
		RecipientID: recipient.ID,
		Title:       d.title,
		Body:        body,
		RoomID:      msg.RoomID,
		CreatedAt:   time.Now().UTC(),
		Read:        false,
	}
	if err := d.records.Create(ctx, rec); err != nil {
		d.logger.Error("dispatch: failed to write notification record",
			zap.String("recipient_id", recipient.ID),
			zap.String("room_id", msg.RoomID),
			zap.Error(err),
		)
		return
	}
	metrics.NotificationRecordsTotal.Inc()
}

func (d *NotificationDispatcher) sendPush(ctx context.Context, recipient model.Participant, body, roomID string) {
	token, found, err := d.tokens.Get(ctx, recipient.ID)
	if err != nil {
		d.logger.Warn("dispatch: token lookup failed",
			zap.String("recipient_id", recipient.ID), zap.Error(err))
		metrics.PushAttemptsTotal.WithLabelValues("drop").Inc()
		return
	}
	if !found {
		// Expected steady state for recipients without a registered device.
		d.logger.Debug("dispatch: recipient has no delivery token",
			zap.String("recipient_id", recipient.ID))
		metrics.PushAttemptsTotal.WithLabelValues("no_token").Inc()
		return
	}

	err = d.push.Send(ctx, &push.Notification{
		Token: token.Token,
		Title: d.title,
		Body:  body,
		Data:  map[string]string{"room_id": roomID},
	})
	if err != nil {
		if errors.Is(err, push.ErrUndeliverable) {
			d.logger.Info("dispatch: push rejected, token likely stale",
				zap.String("recipient_id", recipient.ID), zap.Error(err))
		} else {
			d.logger.Warn("dispatch: push provider failure",
				zap.String("recipient_id", recipient.ID), zap.Error(err))
		}
		metrics.PushAttemptsTotal.WithLabelValues("provider_error").Inc()
		return
	}

	metrics.PushAttemptsTotal.WithLabelValues("sent").Inc()
}
