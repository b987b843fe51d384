package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/voxhire/interview-service/internal/cache"
	"github.com/voxhire/interview-service/internal/client"
	"github.com/voxhire/interview-service/internal/domain"
	"github.com/voxhire/interview-service/internal/repository"
	"github.com/voxhire/interview-service/pkg/jwt"
	"github.com/voxhire/interview-service/pkg/pubsub"
)

const (
	testUserID  = "550e8400-e29b-41d4-a716-446655440000"
	testOtherID = "650e8400-e29b-41d4-a716-446655440000"
)

// fakeUserRepo is an in-memory UserRepository keyed by canonical id.
type fakeUserRepo struct {
	users map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = domain.UserID(uuid.New().String())
	}
	for _, u := range r.users {
		if u.Email == user.Email {
			return repository.ErrEmailExists
		}
		if u.Username == user.Username {
			return repository.ErrUsernameExists
		}
	}
	copied := *user
	r.users[user.ID.Canonical()] = &copied
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id domain.UserID) (*domain.User, error) {
	u, ok := r.users[id.Canonical()]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

// fakeRoomRepo is an in-memory RoomRepository with the same member-set
// semantics as the gorm implementation.
type fakeRoomRepo struct {
	rooms map[string]*domain.Room
}

func newFakeRoomRepo() *fakeRoomRepo {
	return &fakeRoomRepo{rooms: make(map[string]*domain.Room)}
}

func cloneRoom(r *domain.Room) *domain.Room {
	copied := *r
	copied.MemberIDs = append([]domain.UserID(nil), r.MemberIDs...)
	return &copied
}

func (r *fakeRoomRepo) Create(_ context.Context, room *domain.Room) error {
	if room.ID == "" {
		room.ID = uuid.New().String()
	}
	room.CreatedAt = time.Now()
	r.rooms[room.ID] = cloneRoom(room)
	return nil
}

func (r *fakeRoomRepo) GetByID(_ context.Context, id string) (*domain.Room, error) {
	room, ok := r.rooms[id]
	if !ok {
		return nil, repository.ErrRoomNotFound
	}
	return cloneRoom(room), nil
}

func (r *fakeRoomRepo) List(_ context.Context, page, pageSize int) ([]domain.Room, int, error) {
	rooms := make([]domain.Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, *cloneRoom(room))
	}
	return rooms, len(rooms), nil
}

func (r *fakeRoomRepo) Update(_ context.Context, room *domain.Room) error {
	if _, ok := r.rooms[room.ID]; !ok {
		return repository.ErrRoomNotFound
	}
	r.rooms[room.ID] = cloneRoom(room)
	return nil
}

func (r *fakeRoomRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.rooms[id]; !ok {
		return repository.ErrRoomNotFound
	}
	delete(r.rooms, id)
	return nil
}

func (r *fakeRoomRepo) AddMember(_ context.Context, roomID string, userID domain.UserID) (*domain.Room, error) {
	room, ok := r.rooms[roomID]
	if !ok {
		return nil, repository.ErrRoomNotFound
	}
	if !room.AddMember(userID) {
		return nil, repository.ErrDuplicateMember
	}
	return cloneRoom(room), nil
}

func (r *fakeRoomRepo) RemoveMember(_ context.Context, roomID string, userID domain.UserID) (*domain.Room, error) {
	room, ok := r.rooms[roomID]
	if !ok {
		return nil, repository.ErrRoomNotFound
	}
	if !room.RemoveMember(userID) {
		return nil, repository.ErrMemberNotInRoom
	}
	return cloneRoom(room), nil
}

// fakeMessageRepo is an in-memory MessageRepository.
type fakeMessageRepo struct {
	messages     []domain.Message
	botResponses []domain.BotResponse
	seq          int
}

func (r *fakeMessageRepo) CreateMessage(_ context.Context, msg *domain.Message) error {
	r.seq++
	msg.ID = fmt.Sprintf("msg-%d", r.seq)
	msg.CreatedAt = time.Now()
	r.messages = append(r.messages, *msg)
	return nil
}

func (r *fakeMessageRepo) CreateBotResponse(_ context.Context, resp *domain.BotResponse) error {
	r.seq++
	resp.ID = fmt.Sprintf("bot-%d", r.seq)
	resp.CreatedAt = time.Now()
	r.botResponses = append(r.botResponses, *resp)
	return nil
}

func (r *fakeMessageRepo) GetMessage(_ context.Context, id string) (*domain.Message, error) {
	for _, m := range r.messages {
		if m.ID == id {
			copied := m
			return &copied, nil
		}
	}
	return nil, repository.ErrMessageNotFound
}

func (r *fakeMessageRepo) ListByRoom(_ context.Context, roomID string, cursor string, limit int, direction repository.Direction) ([]domain.Message, string, bool, error) {
	if cursor != "" {
		return nil, "", false, repository.ErrInvalidCursor
	}
	var scoped []domain.Message
	for _, m := range r.messages {
		if m.RoomID != nil && *m.RoomID == roomID {
			scoped = append(scoped, m)
		}
	}
	if direction == repository.DirectionBackward {
		for i, j := 0, len(scoped)-1; i < j; i, j = i+1, j-1 {
			scoped[i], scoped[j] = scoped[j], scoped[i]
		}
	}
	hasMore := len(scoped) > limit
	if hasMore {
		scoped = scoped[:limit]
	}
	return scoped, "", hasMore, nil
}

func (r *fakeMessageRepo) Close() error { return nil }

// fakeRoomCache never hits and records invalidations.
type fakeRoomCache struct {
	deleted []string
}

func (c *fakeRoomCache) Get(_ context.Context, _ string) (*cache.RoomCacheResult, error) {
	return nil, cache.ErrCacheMiss
}

func (c *fakeRoomCache) Set(_ context.Context, _ string, _ *cache.RoomCacheResult, _ time.Duration) error {
	return nil
}

func (c *fakeRoomCache) Delete(_ context.Context, keys ...string) error {
	c.deleted = append(c.deleted, keys...)
	return nil
}

func (c *fakeRoomCache) BuildKeyByID(roomID string) string {
	return "room:id:" + roomID
}

func (c *fakeRoomCache) Close() error { return nil }

// fakePublisher records published events.
type fakePublisher struct {
	events []*pubsub.Event
}

func (p *fakePublisher) Publish(_ context.Context, _ string, event *pubsub.Event) error {
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) eventTypes() []string {
	types := make([]string, len(p.events))
	for i, e := range p.events {
		types[i] = e.Type
	}
	return types
}

// fakeGenerator returns a scripted reply and records its input.
type fakeGenerator struct {
	reply     string
	err       error
	gotSystem string
	gotTurns  []client.Turn
}

func (g *fakeGenerator) Complete(_ context.Context, system string, turns []client.Turn) (string, error) {
	g.gotSystem = system
	g.gotTurns = turns
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

// fakeTranscriber returns a scripted transcription.
type fakeTranscriber struct {
	text string
	err  error
}

func (tr *fakeTranscriber) Transcribe(_ context.Context, audio io.Reader, _ string) (string, error) {
	io.Copy(io.Discard, audio)
	if tr.err != nil {
		return "", tr.err
	}
	return tr.text, nil
}

// fakeStorage stages objects in memory and records deletions.
type fakeStorage struct {
	objects map[string][]byte
	deleted []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func (s *fakeStorage) Write(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.objects[key] = data
	return nil
}

func (s *fakeStorage) Read(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("object not found: %s", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *fakeStorage) Delete(_ context.Context, key string) error {
	delete(s.objects, key)
	s.deleted = append(s.deleted, key)
	return nil
}

// newTestJWT returns a manager with short-lived access tokens.
func newTestJWT() *jwt.Manager {
	return jwt.NewManager("test-secret", 15*time.Minute, time.Hour, "interview-service-test")
}

// seedUser stores a user and returns a valid access token for it.
func seedUser(t *testing.T, repo *fakeUserRepo, manager *jwt.Manager, id, email, username string) (*domain.User, string) {
	t.Helper()

	user := &domain.User{
		ID:       domain.UserID(id),
		Email:    email,
		Username: username,
		Roles:    []string{"user"},
	}
	require.NoError(t, repo.Create(context.Background(), user))

	token, _, _, _, err := manager.GenerateTokenPair(id, email, username, user.Roles)
	require.NoError(t, err)
	return user, token
}
