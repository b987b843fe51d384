package service

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/voxhire/interview-service/internal/apperr"
	"github.com/voxhire/interview-service/internal/audit"
	"github.com/voxhire/interview-service/internal/client"
	"github.com/voxhire/interview-service/internal/domain"
	"github.com/voxhire/interview-service/internal/repository"
	"github.com/voxhire/interview-service/pkg/log"
	"github.com/voxhire/interview-service/pkg/pubsub"
	"github.com/voxhire/interview-service/pkg/storage"
)

// systemInstruction is the fixed instruction handed to the generation
// backend for every relay.
const systemInstruction = "You are an interview assistant. Reply to the candidate's latest message concisely and professionally, using the conversation so far as context."

// contextTurns bounds how many recent messages are handed to the
// generation backend as conversation context.
const contextTurns = 10

// relayServiceImpl implements RelayService. Message and bot response
// writes are independent appends; a failure between them leaves the
// earlier records persisted.
type relayServiceImpl struct {
	identity    IdentityVerifier
	users       repository.UserRepository
	rooms       repository.RoomRepository
	messages    repository.MessageRepository
	generator   client.GenerationClient
	transcriber client.TranscriptionClient
	store       storage.Storage
	publisher   pubsub.Publisher
}

// NewRelayService creates a new relay service.
func NewRelayService(
	identity IdentityVerifier,
	users repository.UserRepository,
	rooms repository.RoomRepository,
	messages repository.MessageRepository,
	generator client.GenerationClient,
	transcriber client.TranscriptionClient,
	store storage.Storage,
	publisher pubsub.Publisher,
) RelayService {
	return &relayServiceImpl{
		identity:    identity,
		users:       users,
		rooms:       rooms,
		messages:    messages,
		generator:   generator,
		transcriber: transcriber,
		store:       store,
		publisher:   publisher,
	}
}

// PostMessage persists a message from the caller into the room. No
// automatic reply is generated.
func (s *relayServiceImpl) PostMessage(ctx context.Context, token, roomID, text string) (*domain.Message, error) {
	user, _, err := s.resolveMember(ctx, token, roomID)
	if err != nil {
		return nil, err
	}

	msg, err := s.storeMessage(ctx, user, roomID, text)
	if err != nil {
		return nil, err
	}

	audit.LogWithDetail(ctx, audit.ActionPostMessage, user.ID.String(), roomID, "message posted")
	return msg, nil
}

// PostBotResponse persists a bot reply on behalf of the caller.
func (s *relayServiceImpl) PostBotResponse(ctx context.Context, token, roomID, reply string) (*domain.BotResponse, error) {
	user, _, err := s.resolveMember(ctx, token, roomID)
	if err != nil {
		return nil, err
	}

	resp, err := s.storeBotResponse(ctx, user.ID, roomID, reply)
	if err != nil {
		return nil, err
	}

	audit.LogWithDetail(ctx, audit.ActionPostBot, user.ID.String(), roomID, "bot response posted")
	return resp, nil
}

// RelayAndGenerate persists the caller's message, asks the generation
// backend for a reply, and persists that reply as a bot response. If
// generation fails the message stays persisted and the caller gets an
// upstream error.
func (s *relayServiceImpl) RelayAndGenerate(ctx context.Context, token, roomID, text string) (*domain.RelayResponse, error) {
	user, _, err := s.resolveMember(ctx, token, roomID)
	if err != nil {
		return nil, err
	}

	msg, err := s.storeMessage(ctx, user, roomID, text)
	if err != nil {
		return nil, err
	}

	resp, err := s.generateReply(ctx, user.ID, roomID)
	if err != nil {
		return nil, err
	}

	audit.LogWithDetail(ctx, audit.ActionRelayGenerate, user.ID.String(), roomID, "message relayed")
	return &domain.RelayResponse{Message: *msg, BotResponse: *resp}, nil
}

// TranscribeAndRelay stages the audio, transcribes it, persists the
// transcription as the user's message, and derives a bot reply. The
// staged object is deleted on every path once the request finishes.
func (s *relayServiceImpl) TranscribeAndRelay(ctx context.Context, userID domain.UserID, roomID string, audio io.Reader, filename string) (*domain.RelayResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "user not found")
		}
		return nil, err
	}

	if _, err := s.rooms.GetByID(ctx, roomID); err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "room not found")
		}
		return nil, err
	}

	key := "audio/" + uuid.New().String() + filepath.Ext(filename)
	if err := s.store.Write(ctx, key, audio, -1, audioContentType(filename)); err != nil {
		return nil, err
	}
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.store.Delete(cleanupCtx, key); err != nil {
			l := log.Ctx(ctx)
			l.Warn().Err(err).Str("storage_key", key).Msg("failed to delete staged audio")
		}
	}()

	staged, err := s.store.Read(ctx, key)
	if err != nil {
		return nil, err
	}
	defer staged.Close()

	text, err := s.transcriber.Transcribe(ctx, staged, filename)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstream, err, "transcription failed")
	}
	if strings.TrimSpace(text) == "" {
		return nil, apperr.New(apperr.KindUpstream, "transcription returned empty text")
	}

	msg, err := s.storeMessage(ctx, user, roomID, text)
	if err != nil {
		return nil, err
	}

	resp, err := s.generateReply(ctx, user.ID, roomID)
	if err != nil {
		return nil, err
	}

	audit.LogWithDetail(ctx, audit.ActionTranscribe, user.ID.String(), roomID, "audio transcribed and relayed")
	return &domain.RelayResponse{Message: *msg, BotResponse: *resp}, nil
}

// GetRoomMessages returns a cursor-paginated page of a room's messages.
func (s *relayServiceImpl) GetRoomMessages(ctx context.Context, roomID string, req *domain.ListMessagesRequest) (*domain.MessageHistoryResponse, error) {
	if _, err := s.rooms.GetByID(ctx, roomID); err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "room not found")
		}
		return nil, err
	}

	limit := req.Limit
	if limit < 1 || limit > 100 {
		limit = 50
	}
	dir := repository.ParseDirection(req.Direction)

	messages, nextCursor, hasMore, err := s.messages.ListByRoom(ctx, roomID, req.Cursor, limit, dir)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidCursor) {
			return nil, apperr.Wrap(apperr.KindInvalidState, err, "invalid cursor")
		}
		return nil, err
	}

	return &domain.MessageHistoryResponse{
		Messages:   messages,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

// resolveMember verifies the token and requires the caller to be a
// member of the room.
func (s *relayServiceImpl) resolveMember(ctx context.Context, token, roomID string) (*domain.User, *domain.Room, error) {
	user, err := s.identity.Verify(ctx, token)
	if err != nil {
		return nil, nil, err
	}

	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, nil, apperr.New(apperr.KindNotFound, "room not found")
		}
		return nil, nil, err
	}

	if !room.HasMember(user.ID) {
		return nil, nil, apperr.New(apperr.KindForbidden, "user is not a member of the room")
	}

	return user, room, nil
}

// storeMessage validates and persists a message, then publishes a
// message-created event.
func (s *relayServiceImpl) storeMessage(ctx context.Context, user *domain.User, roomID, text string) (*domain.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperr.New(apperr.KindInvalidState, "message text must not be empty")
	}

	rid := roomID
	msg := &domain.Message{
		UserID:   domain.UserID(user.ID.Canonical()),
		Username: user.Username,
		Text:     text,
		RoomID:   &rid,
	}
	if err := s.messages.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}

	s.publishMessage(ctx, roomID, pubsub.EventMessageCreated, pubsub.MessagePayload{
		MessageID: msg.ID,
		RoomID:    roomID,
		UserID:    msg.UserID.String(),
		Username:  msg.Username,
		Text:      msg.Text,
	})

	return msg, nil
}

// storeBotResponse validates and persists a bot reply, then publishes a
// bot-response-created event.
func (s *relayServiceImpl) storeBotResponse(ctx context.Context, userID domain.UserID, roomID, reply string) (*domain.BotResponse, error) {
	if strings.TrimSpace(reply) == "" {
		return nil, apperr.New(apperr.KindInvalidState, "bot reply must not be empty")
	}

	rid := roomID
	resp := &domain.BotResponse{
		UserID: domain.UserID(userID.Canonical()),
		Reply:  reply,
		RoomID: &rid,
	}
	if err := s.messages.CreateBotResponse(ctx, resp); err != nil {
		return nil, err
	}

	s.publishMessage(ctx, roomID, pubsub.EventBotResponseCreated, pubsub.MessagePayload{
		MessageID: resp.ID,
		RoomID:    roomID,
		UserID:    resp.UserID.String(),
		Text:      resp.Reply,
		Bot:       true,
	})

	return resp, nil
}

// generateReply asks the generation backend for a reply using the room's
// recent messages as context and persists it as a bot response.
func (s *relayServiceImpl) generateReply(ctx context.Context, userID domain.UserID, roomID string) (*domain.BotResponse, error) {
	turns, err := s.recentTurns(ctx, roomID)
	if err != nil {
		return nil, err
	}

	reply, err := s.generator.Complete(ctx, systemInstruction, turns)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstream, err, "generation failed")
	}
	if strings.TrimSpace(reply) == "" {
		return nil, apperr.New(apperr.KindUpstream, "generation returned empty content")
	}

	return s.storeBotResponse(ctx, userID, roomID, reply)
}

// recentTurns loads the newest messages of the room and returns them in
// chronological order as generation context. The just-persisted message
// is included.
func (s *relayServiceImpl) recentTurns(ctx context.Context, roomID string) ([]client.Turn, error) {
	messages, _, _, err := s.messages.ListByRoom(ctx, roomID, "", contextTurns, repository.DirectionBackward)
	if err != nil {
		return nil, err
	}

	turns := make([]client.Turn, 0, len(messages))
	for i := len(messages) - 1; i >= 0; i-- {
		turns = append(turns, client.Turn{Role: "user", Content: messages[i].Text})
	}
	return turns, nil
}

func (s *relayServiceImpl) publishMessage(ctx context.Context, roomID, eventType string, payload pubsub.MessagePayload) {
	event, err := pubsub.NewEvent(eventType, roomID, payload)
	if err != nil {
		return
	}
	if err := s.publisher.Publish(ctx, pubsub.RoomEventsChannel(roomID), event); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str(log.FieldRoomID, roomID).Msg("failed to publish message event")
	}
}

// audioContentType maps the upload's extension to a MIME type for the
// staging backend.
func audioContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".wav":
		return "audio/wav"
	case ".mp3":
		return "audio/mpeg"
	case ".ogg":
		return "audio/ogg"
	case ".webm":
		return "audio/webm"
	case ".m4a":
		return "audio/mp4"
	default:
		return "application/octet-stream"
	}
}
