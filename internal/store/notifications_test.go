package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/adoptmatch/chat-service/internal/model"
)

func testRecord(recipient string, at time.Time, body string) *model.NotificationRecord {
	return &model.NotificationRecord{
		ID:          uuid.Must(uuid.NewV7()).String(),
		RecipientID: recipient,
		Title:       "AdoptMatch",
		Body:        body,
		RoomID:      "r1",
		CreatedAt:   at,
	}
}

func Test_Notifications_Listed_Newest_First(t *testing.T) {
	req := require.New(t)
	records := NewNotificationStore(openTestDB(t))
	ctx := context.Background()

	at := time.Now().UTC()
	for i := 0; i < 3; i++ {
		req.NoError(records.Create(ctx, testRecord("o1", at.Add(time.Duration(i)*time.Second), fmt.Sprintf("msg %d", i))))
	}
	// Another recipient's record must not leak in.
	req.NoError(records.Create(ctx, testRecord("u1", at, "not yours")))

	listed, err := records.List(ctx, "o1", false)
	req.NoError(err)
	req.Len(listed, 3)
	req.Equal("msg 2", listed[0].Body)
	req.Equal("msg 1", listed[1].Body)
	req.Equal("msg 0", listed[2].Body)
}

func Test_Notifications_Colon_Recipient_Isolated(t *testing.T) {
	req := require.New(t)
	records := NewNotificationStore(openTestDB(t))
	ctx := context.Background()

	at := time.Now().UTC()
	req.NoError(records.Create(ctx, testRecord("a", at, "mine")))
	req.NoError(records.Create(ctx, testRecord("a:x", at, "not mine")))

	// A ":" in a recipient id must not make its records visible to the
	// shorter id's listing.
	listed, err := records.List(ctx, "a", false)
	req.NoError(err)
	req.Len(listed, 1)
	req.Equal("mine", listed[0].Body)

	count, err := records.CountUnread(ctx, "a:x")
	req.NoError(err)
	req.Equal(1, count)
}

func Test_MarkRead_Transitions_Once(t *testing.T) {
	req := require.New(t)
	records := NewNotificationStore(openTestDB(t))
	ctx := context.Background()

	rec := testRecord("o1", time.Now().UTC(), "hello")
	req.NoError(records.Create(ctx, rec))

	listed, err := records.List(ctx, "o1", false)
	req.NoError(err)
	req.False(listed[0].Read)

	req.NoError(records.MarkRead(ctx, "o1", rec.ID))

	listed, err = records.List(ctx, "o1", false)
	req.NoError(err)
	req.True(listed[0].Read)

	// Marking an already-read record is a no-op, never a reset.
	req.NoError(records.MarkRead(ctx, "o1", rec.ID))
	listed, err = records.List(ctx, "o1", false)
	req.NoError(err)
	req.True(listed[0].Read)
}

func Test_MarkRead_Unknown_Record(t *testing.T) {
	req := require.New(t)
	records := NewNotificationStore(openTestDB(t))
	ctx := context.Background()

	err := records.MarkRead(ctx, "o1", uuid.NewString())
	req.ErrorIs(err, model.ErrNotificationNotFound)

	// A record id belonging to someone else is not addressable either.
	rec := testRecord("u1", time.Now().UTC(), "hello")
	req.NoError(records.Create(ctx, rec))
	err = records.MarkRead(ctx, "o1", rec.ID)
	req.ErrorIs(err, model.ErrNotificationNotFound)
}

func Test_Unread_Filter_And_Count(t *testing.T) {
	req := require.New(t)
	records := NewNotificationStore(openTestDB(t))
	ctx := context.Background()

	at := time.Now().UTC()
	first := testRecord("o1", at, "first")
	second := testRecord("o1", at.Add(time.Second), "second")
	req.NoError(records.Create(ctx, first))
	req.NoError(records.Create(ctx, second))
	req.NoError(records.MarkRead(ctx, "o1", first.ID))

	unread, err := records.List(ctx, "o1", true)
	req.NoError(err)
	req.Len(unread, 1)
	req.Equal("second", unread[0].Body)

	count, err := records.CountUnread(ctx, "o1")
	req.NoError(err)
	req.Equal(1, count)
}
