package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/adoptmatch/chat-service/internal/model"
)

func Test_ResolveOrCreate_Same_Room_Both_Orders(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	adopter := model.Participant{ID: "u1", Role: model.RoleUser}
	shelter := model.Participant{ID: "o1", Role: model.RoleOrganization}

	first, err := f.directory.ResolveOrCreate(ctx, adopter, shelter)
	req.NoError(err)

	second, err := f.directory.ResolveOrCreate(ctx, shelter, adopter)
	req.NoError(err)
	req.Equal(first.ID, second.ID)
}

func Test_ResolveOrCreate_Rejects_Invalid_Pairs(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	adopter := model.Participant{ID: "u1", Role: model.RoleUser}

	cases := map[string][2]model.Participant{
		"empty counterpart": {adopter, {ID: "", Role: model.RoleOrganization}},
		"empty self":        {{ID: "", Role: model.RoleUser}, {ID: "o1", Role: model.RoleOrganization}},
		"self conversation": {adopter, {ID: "u1", Role: model.RoleUser}},
		"unknown role":      {adopter, {ID: "o1", Role: "admin"}},
	}

	for name, pair := range cases {
		_, err := f.directory.ResolveOrCreate(ctx, pair[0], pair[1])
		req.ErrorIs(err, model.ErrInvalidParticipants, name)
	}
}

func Test_Directory_Get_And_List(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	room := f.mustRoom(t)

	got, err := f.directory.Get(ctx, room.ID)
	req.NoError(err)
	req.Equal(room.ID, got.ID)
	req.True(got.Has("u1"))
	req.True(got.Has("o1"))
	req.False(got.Has("u2"))

	_, err = f.directory.Get(ctx, "00000000-0000-0000-0000-000000000000")
	req.ErrorIs(err, model.ErrRoomNotFound)

	mine, err := f.directory.ListForActor(ctx, "u1")
	req.NoError(err)
	req.Len(mine, 1)
}
