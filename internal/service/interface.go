package service

import (
	"context"
	"io"

	"github.com/voxhire/interview-service/internal/domain"
)

// IdentityVerifier resolves a bearer token to a stored user record.
// Verification has no side effects.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (*domain.User, error)
}

// UserService handles registration, login, token refresh and profile
// reads.
type UserService interface {
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.AuthResponse, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.AuthResponse, error)
	GetProfile(ctx context.Context, userID domain.UserID) (*domain.UserResponse, error)
}

// RoomService handles room CRUD.
type RoomService interface {
	CreateRoom(ctx context.Context, ownerID domain.UserID, req *domain.CreateRoomRequest) (*domain.RoomResponse, error)
	GetRoom(ctx context.Context, roomID string) (*domain.RoomResponse, error)
	ListRooms(ctx context.Context, req *domain.ListRoomsRequest) (*domain.ListRoomsResponse, error)
	UpdateRoom(ctx context.Context, callerID domain.UserID, roomID string, req *domain.UpdateRoomRequest) (*domain.RoomResponse, error)
	DeleteRoom(ctx context.Context, callerID domain.UserID, roomID string) error
}

// MembershipService handles joining and leaving rooms.
type MembershipService interface {
	Join(ctx context.Context, token, roomID string) (*domain.RoomResponse, *domain.UserResponse, error)
	Leave(ctx context.Context, token, roomID string) (*domain.RoomResponse, *domain.UserResponse, error)
}

// RelayService persists messages and bot responses, and relays content
// to the generation and transcription backends.
type RelayService interface {
	PostMessage(ctx context.Context, token, roomID, text string) (*domain.Message, error)
	PostBotResponse(ctx context.Context, token, roomID, reply string) (*domain.BotResponse, error)
	RelayAndGenerate(ctx context.Context, token, roomID, text string) (*domain.RelayResponse, error)
	TranscribeAndRelay(ctx context.Context, userID domain.UserID, roomID string, audio io.Reader, filename string) (*domain.RelayResponse, error)
	GetRoomMessages(ctx context.Context, roomID string, req *domain.ListMessagesRequest) (*domain.MessageHistoryResponse, error)
}
