package service

import (
	"context"
	"errors"

	"github.com/voxhire/interview-service/internal/apperr"
	"github.com/voxhire/interview-service/internal/audit"
	"github.com/voxhire/interview-service/internal/cache"
	"github.com/voxhire/interview-service/internal/domain"
	"github.com/voxhire/interview-service/internal/repository"
	"github.com/voxhire/interview-service/pkg/log"
	"github.com/voxhire/interview-service/pkg/pubsub"
)

// membershipServiceImpl implements MembershipService. The membership
// check happens inside the repository's atomic update, so concurrent
// joins or leaves for the same user cannot both succeed.
type membershipServiceImpl struct {
	identity  IdentityVerifier
	rooms     repository.RoomRepository
	cache     cache.RoomCache
	publisher pubsub.Publisher
}

// NewMembershipService creates a new membership service.
func NewMembershipService(
	identity IdentityVerifier,
	rooms repository.RoomRepository,
	roomCache cache.RoomCache,
	publisher pubsub.Publisher,
) MembershipService {
	return &membershipServiceImpl{
		identity:  identity,
		rooms:     rooms,
		cache:     roomCache,
		publisher: publisher,
	}
}

// Join adds the caller to the room's member set.
func (s *membershipServiceImpl) Join(ctx context.Context, token, roomID string) (*domain.RoomResponse, *domain.UserResponse, error) {
	user, err := s.identity.Verify(ctx, token)
	if err != nil {
		return nil, nil, err
	}

	room, err := s.rooms.AddMember(ctx, roomID, user.ID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRoomNotFound):
			return nil, nil, apperr.New(apperr.KindNotFound, "room not found")
		case errors.Is(err, repository.ErrDuplicateMember):
			return nil, nil, apperr.New(apperr.KindConflict, "user is already a member of the room")
		case errors.Is(err, repository.ErrConcurrentUpdate):
			return nil, nil, apperr.Wrap(apperr.KindConflict, err, "room membership changed concurrently")
		}
		return nil, nil, err
	}

	s.afterChange(ctx, room, user, pubsub.EventMemberJoined)
	audit.LogWithDetail(ctx, audit.ActionJoinRoom, user.ID.String(), roomID, "user joined room")

	roomResp := room.ToResponse()
	userResp := user.ToResponse()
	return &roomResp, &userResp, nil
}

// Leave removes the caller from the room's member set. Identifier
// comparison is canonical, so a token carrying a differently formatted
// id still removes exactly the caller's entry.
func (s *membershipServiceImpl) Leave(ctx context.Context, token, roomID string) (*domain.RoomResponse, *domain.UserResponse, error) {
	user, err := s.identity.Verify(ctx, token)
	if err != nil {
		return nil, nil, err
	}

	room, err := s.rooms.RemoveMember(ctx, roomID, user.ID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRoomNotFound):
			return nil, nil, apperr.New(apperr.KindNotFound, "room not found")
		case errors.Is(err, repository.ErrMemberNotInRoom):
			return nil, nil, apperr.New(apperr.KindInvalidState, "user is not a member of the room")
		case errors.Is(err, repository.ErrConcurrentUpdate):
			return nil, nil, apperr.Wrap(apperr.KindConflict, err, "room membership changed concurrently")
		}
		return nil, nil, err
	}

	s.afterChange(ctx, room, user, pubsub.EventMemberLeft)
	audit.LogWithDetail(ctx, audit.ActionLeaveRoom, user.ID.String(), roomID, "user left room")

	roomResp := room.ToResponse()
	userResp := user.ToResponse()
	return &roomResp, &userResp, nil
}

// afterChange invalidates the room cache and publishes a membership
// event. Both are best-effort; the membership change already committed.
func (s *membershipServiceImpl) afterChange(ctx context.Context, room *domain.Room, user *domain.User, eventType string) {
	l := log.Ctx(ctx)

	if err := s.cache.Delete(ctx, s.cache.BuildKeyByID(room.ID)); err != nil {
		l.Warn().Err(err).Str(log.FieldRoomID, room.ID).Msg("cache invalidation error")
	}

	event, err := pubsub.NewEvent(eventType, room.ID, pubsub.MembershipPayload{
		RoomID:      room.ID,
		UserID:      user.ID.String(),
		Username:    user.Username,
		MemberCount: len(room.MemberIDs),
	})
	if err != nil {
		return
	}
	if err := s.publisher.Publish(ctx, pubsub.RoomEventsChannel(room.ID), event); err != nil {
		l.Warn().Err(err).Str(log.FieldRoomID, room.ID).Msg("failed to publish membership event")
	}
}
