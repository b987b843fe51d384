package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/voxhire/interview-service/internal/domain"
	"github.com/voxhire/interview-service/pkg/database"
	"github.com/voxhire/interview-service/pkg/log"
)

// memberUpdateRetries bounds the compare-and-swap loop in AddMember and
// RemoveMember.
const memberUpdateRetries = 3

// GormRoomRepository implements RoomRepository using GORM.
type GormRoomRepository struct {
	db *gorm.DB
}

// NewGormRoomRepository creates a new GORM-based room repository.
func NewGormRoomRepository(db *gorm.DB) *GormRoomRepository {
	return &GormRoomRepository{db: db}
}

// Create creates a new room.
func (r *GormRoomRepository) Create(ctx context.Context, room *domain.Room) error {
	l := log.Ctx(ctx)

	room.ID = uuid.New().String()
	if room.MemberIDs == nil {
		room.MemberIDs = []domain.UserID{}
	}

	model := domain.RoomToModel(room)
	result := r.db.WithContext(ctx).Create(model)
	if result.Error != nil {
		l.Error().Err(result.Error).Msg("failed to create room in db")
		return result.Error
	}

	room.CreatedAt = model.CreatedAt
	room.UpdatedAt = model.UpdatedAt
	l.Debug().Str(log.FieldRoomID, room.ID).Msg("room created in db")
	return nil
}

// GetByID retrieves a room by ID.
func (r *GormRoomRepository) GetByID(ctx context.Context, id string) (*domain.Room, error) {
	var model domain.RoomModel
	result := r.db.WithContext(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, result.Error
	}
	return model.ToDomain(), nil
}

// List retrieves rooms with pagination, newest first.
func (r *GormRoomRepository) List(ctx context.Context, page, pageSize int) ([]domain.Room, int, error) {
	l := log.Ctx(ctx)

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	query := r.db.WithContext(ctx).Model(&domain.RoomModel{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		l.Error().Err(err).Msg("failed to count rooms")
		return nil, 0, err
	}

	var models []domain.RoomModel
	if err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&models).Error; err != nil {
		l.Error().Err(err).Msg("failed to list rooms from db")
		return nil, 0, err
	}

	rooms := make([]domain.Room, len(models))
	for i, model := range models {
		rooms[i] = *model.ToDomain()
	}

	return rooms, int(total), nil
}

// Update updates a room's mutable fields (not the member set).
func (r *GormRoomRepository) Update(ctx context.Context, room *domain.Room) error {
	model := domain.RoomToModel(room)
	result := r.db.WithContext(ctx).Model(&domain.RoomModel{}).
		Where("id = ?", room.ID).
		Updates(map[string]interface{}{
			"name":         model.Name,
			"scheduled_at": model.ScheduledAt,
			"duration_min": model.DurationMin,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRoomNotFound
	}

	var updated domain.RoomModel
	r.db.WithContext(ctx).First(&updated, "id = ?", room.ID)
	room.UpdatedAt = updated.UpdatedAt
	return nil
}

// Delete soft-deletes a room. Messages and bot responses referencing the
// room are not touched (orphan-allow).
func (r *GormRoomRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&domain.RoomModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRoomNotFound
	}
	return nil
}

// AddMember appends userID to the room's member set atomically.
func (r *GormRoomRepository) AddMember(ctx context.Context, roomID string, userID domain.UserID) (*domain.Room, error) {
	return r.updateMembers(ctx, roomID, func(room *domain.Room) error {
		if !room.AddMember(userID) {
			return ErrDuplicateMember
		}
		return nil
	})
}

// RemoveMember removes userID from the room's member set atomically.
func (r *GormRoomRepository) RemoveMember(ctx context.Context, roomID string, userID domain.UserID) (*domain.Room, error) {
	return r.updateMembers(ctx, roomID, func(room *domain.Room) error {
		if !room.RemoveMember(userID) {
			return ErrMemberNotInRoom
		}
		return nil
	})
}

// updateMembers applies mutate to the member set with a compare-and-swap on
// the serialized member list. The guarded UPDATE works on every supported
// driver (FOR UPDATE does not), and keeps the membership check inside the
// atomic step so concurrent joins/leaves cannot lose updates.
func (r *GormRoomRepository) updateMembers(ctx context.Context, roomID string, mutate func(*domain.Room) error) (*domain.Room, error) {
	l := log.Ctx(ctx)

	for attempt := 0; attempt < memberUpdateRetries; attempt++ {
		var model domain.RoomModel
		result := r.db.WithContext(ctx).First(&model, "id = ?", roomID)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return nil, ErrRoomNotFound
			}
			return nil, result.Error
		}

		observed := model.MemberIDs
		if observed == nil {
			observed = database.StringArray{}
		}

		room := model.ToDomain()
		if err := mutate(room); err != nil {
			return nil, err
		}

		updated := domain.RoomToModel(room)
		swap := r.db.WithContext(ctx).Model(&domain.RoomModel{}).
			Where("id = ? AND member_ids = ?", roomID, observed).
			Update("member_ids", updated.MemberIDs)
		if swap.Error != nil {
			l.Error().Err(swap.Error).Str(log.FieldRoomID, roomID).Msg("failed to update member set")
			return nil, swap.Error
		}
		if swap.RowsAffected == 0 {
			// Lost the race, re-read and retry.
			continue
		}

		return r.GetByID(ctx, roomID)
	}

	return nil, ErrConcurrentUpdate
}
