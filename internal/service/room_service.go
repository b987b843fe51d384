package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/voxhire/interview-service/internal/apperr"
	"github.com/voxhire/interview-service/internal/audit"
	"github.com/voxhire/interview-service/internal/cache"
	"github.com/voxhire/interview-service/internal/domain"
	"github.com/voxhire/interview-service/internal/repository"
	"github.com/voxhire/interview-service/pkg/log"
	"github.com/voxhire/interview-service/pkg/pubsub"
)

// roomServiceImpl implements RoomService with a read-through cache on
// get-by-id.
type roomServiceImpl struct {
	repo      repository.RoomRepository
	cache     cache.RoomCache
	cacheTTL  time.Duration
	publisher pubsub.Publisher
	sf        singleflight.Group
}

// NewRoomService creates a new room service.
func NewRoomService(
	repo repository.RoomRepository,
	roomCache cache.RoomCache,
	cacheTTL time.Duration,
	publisher pubsub.Publisher,
) RoomService {
	return &roomServiceImpl{
		repo:      repo,
		cache:     roomCache,
		cacheTTL:  cacheTTL,
		publisher: publisher,
	}
}

// CreateRoom creates a new room owned by ownerID.
func (s *roomServiceImpl) CreateRoom(ctx context.Context, ownerID domain.UserID, req *domain.CreateRoomRequest) (*domain.RoomResponse, error) {
	room := &domain.Room{
		OwnerID:     domain.UserID(ownerID.Canonical()),
		Name:        req.Name,
		ScheduledAt: req.ScheduledAt,
		DurationMin: req.DurationMin,
		MemberIDs:   []domain.UserID{},
	}

	if err := s.repo.Create(ctx, room); err != nil {
		return nil, err
	}

	audit.LogWithDetail(ctx, audit.ActionCreateRoom, ownerID.String(), room.ID, "room created")
	resp := room.ToResponse()
	return &resp, nil
}

// GetRoom retrieves a room by ID through the cache. Concurrent requests
// for the same uncached room collapse into a single fetch.
func (s *roomServiceImpl) GetRoom(ctx context.Context, roomID string) (*domain.RoomResponse, error) {
	cacheKey := s.cache.BuildKeyByID(roomID)

	result, err, _ := s.sf.Do(cacheKey, func() (interface{}, error) {
		return s.fetchWithCache(ctx, roomID, cacheKey)
	})
	if err != nil {
		return nil, err
	}

	cached, ok := result.(*cache.RoomCacheResult)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from singleflight")
	}

	resp := cached.Room.ToResponse()
	return &resp, nil
}

func (s *roomServiceImpl) fetchWithCache(ctx context.Context, roomID, cacheKey string) (*cache.RoomCacheResult, error) {
	cached, err := s.cache.Get(ctx, cacheKey)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Msg("cache get error")
	}

	room, err := s.repo.GetByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "room not found")
		}
		return nil, err
	}

	result := &cache.RoomCacheResult{Room: *room}

	// Store in cache (async to avoid blocking response)
	go func() {
		cacheCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.cache.Set(cacheCtx, cacheKey, result, s.cacheTTL); err != nil {
			l := log.L()
			l.Warn().Err(err).Msg("cache set error")
		}
	}()

	return result, nil
}

// ListRooms lists rooms with pagination, newest first.
func (s *roomServiceImpl) ListRooms(ctx context.Context, req *domain.ListRoomsRequest) (*domain.ListRoomsResponse, error) {
	page := req.Page
	pageSize := req.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	rooms, total, err := s.repo.List(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}

	roomResponses := make([]domain.RoomResponse, len(rooms))
	for i, room := range rooms {
		roomResponses[i] = room.ToResponse()
	}

	totalPages := (total + pageSize - 1) / pageSize

	return &domain.ListRoomsResponse{
		Rooms:      roomResponses,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// UpdateRoom updates a room's mutable fields. Only the owner may update.
func (s *roomServiceImpl) UpdateRoom(ctx context.Context, callerID domain.UserID, roomID string, req *domain.UpdateRoomRequest) (*domain.RoomResponse, error) {
	room, err := s.loadOwned(ctx, callerID, roomID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		room.Name = *req.Name
	}
	if req.ScheduledAt != nil {
		room.ScheduledAt = req.ScheduledAt
	}
	if req.DurationMin != nil {
		room.DurationMin = *req.DurationMin
	}

	if err := s.repo.Update(ctx, room); err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "room not found")
		}
		return nil, err
	}

	s.invalidate(ctx, roomID)
	audit.LogWithDetail(ctx, audit.ActionUpdateRoom, callerID.String(), roomID, "room updated")

	resp := room.ToResponse()
	return &resp, nil
}

// DeleteRoom soft-deletes a room. Only the owner may delete. Messages
// referencing the room are kept.
func (s *roomServiceImpl) DeleteRoom(ctx context.Context, callerID domain.UserID, roomID string) error {
	if _, err := s.loadOwned(ctx, callerID, roomID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, roomID); err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return apperr.New(apperr.KindNotFound, "room not found")
		}
		return err
	}

	s.invalidate(ctx, roomID)
	s.publishClosed(ctx, roomID)
	audit.LogWithDetail(ctx, audit.ActionDeleteRoom, callerID.String(), roomID, "room deleted")
	return nil
}

func (s *roomServiceImpl) loadOwned(ctx context.Context, callerID domain.UserID, roomID string) (*domain.Room, error) {
	room, err := s.repo.GetByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "room not found")
		}
		return nil, err
	}
	if !room.OwnerID.Equal(callerID) {
		return nil, apperr.New(apperr.KindForbidden, "only the room owner may do this")
	}
	return room, nil
}

func (s *roomServiceImpl) invalidate(ctx context.Context, roomID string) {
	if err := s.cache.Delete(ctx, s.cache.BuildKeyByID(roomID)); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str(log.FieldRoomID, roomID).Msg("cache invalidation error")
	}
}

func (s *roomServiceImpl) publishClosed(ctx context.Context, roomID string) {
	event, err := pubsub.NewEvent(pubsub.EventRoomClosed, roomID, pubsub.RoomClosedPayload{RoomID: roomID})
	if err != nil {
		return
	}
	if err := s.publisher.Publish(ctx, pubsub.RoomEventsChannel(roomID), event); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str(log.FieldRoomID, roomID).Msg("failed to publish room closed event")
	}
}
