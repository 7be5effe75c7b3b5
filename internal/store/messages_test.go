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

func testMessage(roomID, author string, at time.Time, body string) *model.Message {
	return &model.Message{
		ID:         uuid.Must(uuid.NewV7()).String(),
		RoomID:     roomID,
		AuthorID:   author,
		AuthorRole: model.RoleUser,
		Body:       body,
		CreatedAt:  at,
	}
}

func Test_Replay_Ascending_Order(t *testing.T) {
	req := require.New(t)
	messages := NewMessageStore(openTestDB(t))
	ctx := context.Background()

	at := time.Now().UTC()
	var appended []*model.Message
	// Append out of wall-clock order to prove ordering comes from the key,
	// not from insertion.
	for _, offset := range []time.Duration{2 * time.Minute, 0, time.Minute} {
		msg := testMessage("r1", "u1", at.Add(offset), fmt.Sprintf("offset %s", offset))
		req.NoError(messages.Append(ctx, msg))
		appended = append(appended, msg)
	}

	var replayed []model.Message
	req.NoError(messages.Replay(ctx, "r1", func(msg model.Message) error {
		replayed = append(replayed, msg)
		return nil
	}))

	req.Len(replayed, 3)
	for i := 1; i < len(replayed); i++ {
		req.False(replayed[i].CreatedAt.Before(replayed[i-1].CreatedAt),
			"replay out of order at index %d", i)
	}
	req.Equal(appended[1].ID, replayed[0].ID)
	req.Equal(appended[2].ID, replayed[1].ID)
	req.Equal(appended[0].ID, replayed[2].ID)
}

func Test_Replay_Is_Restartable(t *testing.T) {
	req := require.New(t)
	messages := NewMessageStore(openTestDB(t))
	ctx := context.Background()

	at := time.Now().UTC()
	for i := 0; i < 5; i++ {
		req.NoError(messages.Append(ctx, testMessage("r1", "u1", at.Add(time.Duration(i)*time.Second), "hi")))
	}

	collect := func() []string {
		var ids []string
		req.NoError(messages.Replay(ctx, "r1", func(msg model.Message) error {
			ids = append(ids, msg.ID)
			return nil
		}))
		return ids
	}

	first := collect()
	second := collect()
	req.Equal(first, second)
}

func Test_Replay_Scoped_To_Room(t *testing.T) {
	req := require.New(t)
	messages := NewMessageStore(openTestDB(t))
	ctx := context.Background()

	at := time.Now().UTC()
	req.NoError(messages.Append(ctx, testMessage("r1", "u1", at, "mine")))
	req.NoError(messages.Append(ctx, testMessage("r2", "u2", at, "other room")))

	var replayed []model.Message
	req.NoError(messages.Replay(ctx, "r1", func(msg model.Message) error {
		replayed = append(replayed, msg)
		return nil
	}))
	req.Len(replayed, 1)
	req.Equal("mine", replayed[0].Body)
}

func Test_Page_Newest_First_With_Cursor(t *testing.T) {
	req := require.New(t)
	messages := NewMessageStore(openTestDB(t))
	ctx := context.Background()

	at := time.Now().UTC()
	for i := 0; i < 5; i++ {
		req.NoError(messages.Append(ctx, testMessage("r1", "u1", at.Add(time.Duration(i)*time.Second), fmt.Sprintf("msg %d", i))))
	}

	page, cursor, err := messages.Page(ctx, "r1", 2, nil)
	req.NoError(err)
	req.Len(page, 2)
	req.Equal("msg 4", page[0].Body)
	req.Equal("msg 3", page[1].Body)
	req.NotNil(cursor)

	page, cursor, err = messages.Page(ctx, "r1", 2, cursor)
	req.NoError(err)
	req.Len(page, 2)
	req.Equal("msg 2", page[0].Body)
	req.Equal("msg 1", page[1].Body)
	req.NotNil(cursor)

	page, _, err = messages.Page(ctx, "r1", 2, cursor)
	req.NoError(err)
	req.Len(page, 1)
	req.Equal("msg 0", page[0].Body)
}

func Test_Latest(t *testing.T) {
	req := require.New(t)
	messages := NewMessageStore(openTestDB(t))
	ctx := context.Background()

	latest, err := messages.Latest(ctx, "r1")
	req.NoError(err)
	req.Nil(latest)

	at := time.Now().UTC()
	req.NoError(messages.Append(ctx, testMessage("r1", "u1", at, "old")))
	req.NoError(messages.Append(ctx, testMessage("r1", "o1", at.Add(time.Second), "new")))

	latest, err = messages.Latest(ctx, "r1")
	req.NoError(err)
	req.NotNil(latest)
	req.Equal("new", latest.Body)
}
