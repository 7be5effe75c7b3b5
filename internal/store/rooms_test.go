package store

import (
	"context"
	"sync"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"github.com/adoptmatch/chat-service/internal/model"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func Test_ResolveOrCreate_Idempotent_Both_Orders(t *testing.T) {
	req := require.New(t)
	rooms := NewRoomStore(openTestDB(t))
	ctx := context.Background()

	adopter := model.Participant{ID: "u1", Role: model.RoleUser}
	shelter := model.Participant{ID: "o1", Role: model.RoleOrganization}

	first, created, err := rooms.ResolveOrCreate(ctx, adopter, shelter)
	req.NoError(err)
	req.True(created)
	req.NotEmpty(first.ID)

	second, created, err := rooms.ResolveOrCreate(ctx, adopter, shelter)
	req.NoError(err)
	req.False(created)
	req.Equal(first.ID, second.ID)

	// The pair is unordered: the counterpart resolving from its side lands
	// on the same room.
	reversed, created, err := rooms.ResolveOrCreate(ctx, shelter, adopter)
	req.NoError(err)
	req.False(created)
	req.Equal(first.ID, reversed.ID)
}

func Test_ResolveOrCreate_Concurrent_Converges(t *testing.T) {
	req := require.New(t)
	rooms := NewRoomStore(openTestDB(t))
	ctx := context.Background()

	adopter := model.Participant{ID: "u1", Role: model.RoleUser}
	shelter := model.Participant{ID: "o1", Role: model.RoleOrganization}

	const callers = 16
	ids := make([]string, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, b := adopter, shelter
			if i%2 == 1 {
				a, b = shelter, adopter
			}
			room, _, err := rooms.ResolveOrCreate(ctx, a, b)
			if err != nil {
				errs[i] = err
				return
			}
			ids[i] = room.ID
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		req.NoError(errs[i])
		req.Equal(ids[0], ids[i], "caller %d resolved a different room", i)
	}
}

func Test_ResolveOrCreate_Delimiter_Ids_Stay_Distinct(t *testing.T) {
	req := require.New(t)
	rooms := NewRoomStore(openTestDB(t))
	ctx := context.Background()

	// Ids containing key delimiters must not fold two different pairs
	// together: ("a", "b/c") and ("a/b", "c") are different conversations.
	first, created, err := rooms.ResolveOrCreate(ctx,
		model.Participant{ID: "a", Role: model.RoleUser},
		model.Participant{ID: "b/c", Role: model.RoleOrganization},
	)
	req.NoError(err)
	req.True(created)

	second, created, err := rooms.ResolveOrCreate(ctx,
		model.Participant{ID: "a/b", Role: model.RoleUser},
		model.Participant{ID: "c", Role: model.RoleOrganization},
	)
	req.NoError(err)
	req.True(created)
	req.NotEqual(first.ID, second.ID)
	req.True(second.Has("a/b"))
	req.True(second.Has("c"))
}

func Test_ListForActor_Colon_Id_Does_Not_Bleed(t *testing.T) {
	req := require.New(t)
	rooms := NewRoomStore(openTestDB(t))
	ctx := context.Background()

	shelter := model.Participant{ID: "o1", Role: model.RoleOrganization}
	_, _, err := rooms.ResolveOrCreate(ctx,
		model.Participant{ID: "a", Role: model.RoleUser}, shelter)
	req.NoError(err)
	other, _, err := rooms.ResolveOrCreate(ctx,
		model.Participant{ID: "a:x", Role: model.RoleUser}, shelter)
	req.NoError(err)

	// "a" must see only its own room, not rooms of "a:x".
	mine, err := rooms.ListForActor(ctx, "a")
	req.NoError(err)
	req.Len(mine, 1)
	req.True(mine[0].Has("a"))

	theirs, err := rooms.ListForActor(ctx, "a:x")
	req.NoError(err)
	req.Len(theirs, 1)
	req.Equal(other.ID, theirs[0].ID)
}

func Test_Get_Unknown_Room(t *testing.T) {
	req := require.New(t)
	rooms := NewRoomStore(openTestDB(t))

	_, err := rooms.Get(context.Background(), "nope")
	req.ErrorIs(err, model.ErrRoomNotFound)

	exists, err := rooms.Exists(context.Background(), "nope")
	req.NoError(err)
	req.False(exists)
}

func Test_ListForActor(t *testing.T) {
	req := require.New(t)
	rooms := NewRoomStore(openTestDB(t))
	ctx := context.Background()

	adopter := model.Participant{ID: "u1", Role: model.RoleUser}
	shelterA := model.Participant{ID: "o1", Role: model.RoleOrganization}
	shelterB := model.Participant{ID: "o2", Role: model.RoleOrganization}

	first, _, err := rooms.ResolveOrCreate(ctx, adopter, shelterA)
	req.NoError(err)
	second, _, err := rooms.ResolveOrCreate(ctx, adopter, shelterB)
	req.NoError(err)

	mine, err := rooms.ListForActor(ctx, adopter.ID)
	req.NoError(err)
	req.Len(mine, 2)

	got := []string{mine[0].ID, mine[1].ID}
	req.ElementsMatch([]string{first.ID, second.ID}, got)

	theirs, err := rooms.ListForActor(ctx, shelterA.ID)
	req.NoError(err)
	req.Len(theirs, 1)
	req.Equal(first.ID, theirs[0].ID)

	nobody, err := rooms.ListForActor(ctx, "stranger")
	req.NoError(err)
	req.Empty(nobody)
}
