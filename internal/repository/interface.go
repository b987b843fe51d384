package repository

import (
	"context"
	"errors"

	"github.com/voxhire/interview-service/internal/domain"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrRoomNotFound    = errors.New("room not found")
	ErrMessageNotFound = errors.New("message not found")
	ErrEmailExists     = errors.New("email already registered")
	ErrUsernameExists  = errors.New("username already taken")

	// Membership mutation outcomes. The check happens inside the atomic
	// update so a concurrent duplicate join cannot slip between check
	// and write.
	ErrDuplicateMember  = errors.New("user already a member of the room")
	ErrMemberNotInRoom  = errors.New("user is not a member of the room")
	ErrConcurrentUpdate = errors.New("room modified concurrently, retries exhausted")

	// ErrInvalidCursor marks a history cursor the backend cannot parse.
	ErrInvalidCursor = errors.New("invalid cursor")
)

// Direction orders message history pages.
type Direction string

const (
	DirectionBackward Direction = "backward" // from newest to oldest
	DirectionForward  Direction = "forward"  // from oldest to newest
)

// ParseDirection parses a direction string, defaulting to backward.
func ParseDirection(s string) Direction {
	if s == "forward" {
		return DirectionForward
	}
	return DirectionBackward
}

// UserRepository stores user records.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id domain.UserID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// RoomRepository stores room records and their member sets.
type RoomRepository interface {
	Create(ctx context.Context, room *domain.Room) error
	GetByID(ctx context.Context, id string) (*domain.Room, error)
	List(ctx context.Context, page, pageSize int) ([]domain.Room, int, error)
	Update(ctx context.Context, room *domain.Room) error
	Delete(ctx context.Context, id string) error

	// AddMember and RemoveMember mutate the member set atomically and
	// return the updated room. AddMember fails with ErrDuplicateMember,
	// RemoveMember with ErrMemberNotInRoom.
	AddMember(ctx context.Context, roomID string, userID domain.UserID) (*domain.Room, error)
	RemoveMember(ctx context.Context, roomID string, userID domain.UserID) (*domain.Room, error)
}

// MessageRepository is an insert-only store of messages and bot responses.
type MessageRepository interface {
	CreateMessage(ctx context.Context, msg *domain.Message) error
	CreateBotResponse(ctx context.Context, reply *domain.BotResponse) error
	GetMessage(ctx context.Context, id string) (*domain.Message, error)

	// ListByRoom returns a cursor-paginated page of a room's messages.
	ListByRoom(ctx context.Context, roomID string, cursor string, limit int, direction Direction) (messages []domain.Message, nextCursor string, hasMore bool, err error)

	Close() error
}
