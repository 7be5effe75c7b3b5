// Package service provides the chat core: room resolution, the message log,
// recipient resolution and notification dispatch.
package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/adoptmatch/chat-service/internal/model"
	"github.com/adoptmatch/chat-service/internal/store"
	"github.com/adoptmatch/chat-service/pkg/logger"
	"github.com/adoptmatch/chat-service/pkg/metrics"
)

// RoomDirectory resolves the single room for an unordered participant pair,
// creating it lazily on first contact. Resolution is idempotent and safe
// under concurrent first-contact from both sides: the store serializes
// creation on the pair index, so all callers converge on one room id.
type RoomDirectory struct {
	rooms  *store.RoomStore
	logger *logger.Logger
}

// NewRoomDirectory creates a room directory.
func NewRoomDirectory(rooms *store.RoomStore, log *logger.Logger) *RoomDirectory {
	return &RoomDirectory{rooms: rooms, logger: log}
}

// ResolveOrCreate returns the room for (a, b), in either order, creating it
// when absent. Returns ErrInvalidParticipants for an empty, equal or
// unknown-role pair and ErrBackendUnavailable for transient store failures.
func (d *RoomDirectory) ResolveOrCreate(ctx context.Context, a, b model.Participant) (*model.Room, error) {
	if err := validatePair(a, b); err != nil {
		return nil, err
	}

	room, created, err := d.rooms.ResolveOrCreate(ctx, a, b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrBackendUnavailable, err)
	}

	if created {
		metrics.RoomsResolvedTotal.WithLabelValues("created").Inc()
		d.logger.Info("room created",
			zap.String("room_id", room.ID),
			zap.String("participant_a", a.ID),
			zap.String("participant_b", b.ID),
		)
	} else {
		metrics.RoomsResolvedTotal.WithLabelValues("existing").Inc()
	}

	return room, nil
}

// Get returns the room by id.
func (d *RoomDirectory) Get(ctx context.Context, roomID string) (*model.Room, error) {
	room, err := d.rooms.Get(ctx, roomID)
	if err != nil {
		if errors.Is(err, model.ErrRoomNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", model.ErrBackendUnavailable, err)
	}
	return room, nil
}

// ListForActor returns every room the actor participates in.
func (d *RoomDirectory) ListForActor(ctx context.Context, actorID string) ([]model.Room, error) {
	rooms, err := d.rooms.ListForActor(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrBackendUnavailable, err)
	}
	return rooms, nil
}

func validatePair(a, b model.Participant) error {
	if a.ID == "" || b.ID == "" {
		return fmt.Errorf("%w: empty participant id", model.ErrInvalidParticipants)
	}
	if a.ID == b.ID {
		return fmt.Errorf("%w: participants must be distinct", model.ErrInvalidParticipants)
	}
	if !a.Role.Valid() || !b.Role.Valid() {
		return fmt.Errorf("%w: unknown role", model.ErrInvalidParticipants)
	}
	return nil
}
