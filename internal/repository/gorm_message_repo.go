package repository

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/voxhire/interview-service/internal/domain"
	"github.com/voxhire/interview-service/pkg/log"
)

// GormMessageRepository implements MessageRepository using GORM. Messages
// and bot responses are insert-only; no update or delete is exposed.
type GormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository creates a new GORM-based message repository.
func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

// CreateMessage appends a new message.
func (r *GormMessageRepository) CreateMessage(ctx context.Context, msg *domain.Message) error {
	l := log.Ctx(ctx)

	msg.ID = uuid.New().String()
	msg.CreatedAt = time.Now()

	model := domain.MessageToModel(msg)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		l.Error().Err(err).Msg("failed to create message in db")
		return err
	}

	l.Debug().Str(log.FieldMessageID, msg.ID).Msg("message created in db")
	return nil
}

// CreateBotResponse appends a new bot response.
func (r *GormMessageRepository) CreateBotResponse(ctx context.Context, reply *domain.BotResponse) error {
	l := log.Ctx(ctx)

	reply.ID = uuid.New().String()
	reply.CreatedAt = time.Now()

	model := domain.BotResponseToModel(reply)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		l.Error().Err(err).Msg("failed to create bot response in db")
		return err
	}

	return nil
}

// GetMessage retrieves a message by ID.
func (r *GormMessageRepository) GetMessage(ctx context.Context, id string) (*domain.Message, error) {
	var model domain.MessageModel
	result := r.db.WithContext(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, result.Error
	}
	return model.ToDomain(), nil
}

// ListByRoom returns a page of a room's messages. The cursor encodes
// the creation timestamp (unix nanoseconds) and ID of the last message
// of the previous page; the ID breaks timestamp ties so a page boundary
// never skips rows.
func (r *GormMessageRepository) ListByRoom(ctx context.Context, roomID string, cursor string, limit int, direction Direction) ([]domain.Message, string, bool, error) {
	if limit < 1 {
		limit = 50
	}
	queryLimit := limit + 1

	query := r.db.WithContext(ctx).Model(&domain.MessageModel{}).Where("room_id = ?", roomID)

	if cursor != "" {
		pivot, pivotID, err := parseMessageCursor(cursor)
		if err != nil {
			return nil, "", false, err
		}
		if direction == DirectionBackward {
			query = query.Where("created_at < ? OR (created_at = ? AND id < ?)", pivot, pivot, pivotID)
		} else {
			query = query.Where("created_at > ? OR (created_at = ? AND id > ?)", pivot, pivot, pivotID)
		}
	}

	if direction == DirectionBackward {
		query = query.Order("created_at DESC, id DESC")
	} else {
		query = query.Order("created_at ASC, id ASC")
	}

	var models []domain.MessageModel
	if err := query.Limit(queryLimit).Find(&models).Error; err != nil {
		return nil, "", false, err
	}

	hasMore := len(models) > limit
	if hasMore {
		models = models[:limit]
	}

	messages := make([]domain.Message, len(models))
	for i, model := range models {
		messages[i] = *model.ToDomain()
	}

	var nextCursor string
	if len(messages) > 0 {
		last := messages[len(messages)-1]
		nextCursor = formatMessageCursor(last.CreatedAt, last.ID)
	}

	return messages, nextCursor, hasMore, nil
}

func formatMessageCursor(ts time.Time, id string) string {
	return strconv.FormatInt(ts.UnixNano(), 10) + ":" + id
}

func parseMessageCursor(cursor string) (time.Time, string, error) {
	nanos, id, ok := strings.Cut(cursor, ":")
	if !ok || id == "" {
		return time.Time{}, "", ErrInvalidCursor
	}
	n, err := strconv.ParseInt(nanos, 10, 64)
	if err != nil {
		return time.Time{}, "", ErrInvalidCursor
	}
	return time.Unix(0, n), id, nil
}

// Close is a no-op; the gorm connection is owned by the caller.
func (r *GormMessageRepository) Close() error {
	return nil
}
