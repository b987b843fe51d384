package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/voxhire/interview-service/internal/cache"
	"github.com/voxhire/interview-service/internal/client"
	"github.com/voxhire/interview-service/internal/domain"
	"github.com/voxhire/interview-service/internal/repository"
	"github.com/voxhire/interview-service/internal/service"
	"github.com/voxhire/interview-service/pkg/jwt"
	"github.com/voxhire/interview-service/pkg/middleware"
	"github.com/voxhire/interview-service/pkg/pubsub"
	"github.com/voxhire/interview-service/pkg/response"
	"github.com/voxhire/interview-service/pkg/storage"
)

// noopCache always misses; handler tests go straight to the database.
type noopCache struct{}

func (noopCache) Get(context.Context, string) (*cache.RoomCacheResult, error) {
	return nil, cache.ErrCacheMiss
}
func (noopCache) Set(context.Context, string, *cache.RoomCacheResult, time.Duration) error {
	return nil
}
func (noopCache) Delete(context.Context, ...string) error { return nil }
func (noopCache) BuildKeyByID(roomID string) string       { return "room:id:" + roomID }
func (noopCache) Close() error                            { return nil }

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, string, *pubsub.Event) error { return nil }

type stubGenerator struct {
	reply string
	err   error
}

func (g *stubGenerator) Complete(context.Context, string, []client.Turn) (string, error) {
	return g.reply, g.err
}

type stubTranscriber struct {
	text string
	err  error
}

func (tr *stubTranscriber) Transcribe(_ context.Context, audio io.Reader, _ string) (string, error) {
	io.Copy(io.Discard, audio)
	return tr.text, tr.err
}

type testServer struct {
	router      *gin.Engine
	generator   *stubGenerator
	transcriber *stubTranscriber
}

func setupServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&domain.UserModel{},
		&domain.RoomModel{},
		&domain.MessageModel{},
		&domain.BotResponseModel{},
	))

	userRepo := repository.NewGormUserRepository(db)
	roomRepo := repository.NewGormRoomRepository(db)
	messageRepo := repository.NewGormMessageRepository(db)

	store, err := storage.NewLocalStorage(storage.LocalConfig{BasePath: t.TempDir()})
	require.NoError(t, err)

	generator := &stubGenerator{reply: "generated reply"}
	transcriber := &stubTranscriber{text: "transcribed text"}

	jwtManager := jwt.NewManager("test-secret", 15*time.Minute, time.Hour, "interview-service-test")
	identity := service.NewIdentityVerifier(jwtManager, userRepo)
	userService := service.NewUserService(userRepo, jwtManager)
	roomService := service.NewRoomService(roomRepo, noopCache{}, time.Minute, noopPublisher{})
	membershipService := service.NewMembershipService(identity, roomRepo, noopCache{}, noopPublisher{})
	relayService := service.NewRelayService(identity, userRepo, roomRepo, messageRepo, generator, transcriber, store, noopPublisher{})

	h := NewHandler(userService, roomService, membershipService, relayService, middleware.NewAuthMiddleware(jwtManager))

	r := gin.New()
	h.RegisterRoutes(r)

	return &testServer{router: r, generator: generator, transcriber: transcriber}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	var envelope response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return w, envelope
}

func (ts *testServer) register(t *testing.T, email, username string) string {
	t.Helper()

	w, envelope := ts.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email":    email,
		"username": username,
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var auth domain.AuthResponse
	decodeData(t, envelope, &auth)
	return auth.AccessToken
}

func (ts *testServer) createRoom(t *testing.T, token string) string {
	t.Helper()

	w, envelope := ts.do(t, http.MethodPost, "/api/v1/rooms", token, gin.H{"name": "Interview"})
	require.Equal(t, http.StatusCreated, w.Code)

	var room domain.RoomResponse
	decodeData(t, envelope, &room)
	return room.ID
}

func decodeData(t *testing.T, envelope response.Response, out interface{}) {
	t.Helper()
	data, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, out))
}

func TestHealth(t *testing.T) {
	ts := setupServer(t)
	w, envelope := ts.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, envelope.Success)
}

func TestAuthFlow(t *testing.T) {
	ts := setupServer(t)

	token := ts.register(t, "alice@example.com", "alice")

	w, envelope := ts.do(t, http.MethodGet, "/api/v1/users/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var profile domain.UserResponse
	decodeData(t, envelope, &profile)
	assert.Equal(t, "alice", profile.Username)

	// Missing and malformed tokens are rejected by the middleware.
	w = httptest.NewRecorder()
	ts.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = ts.do(t, http.MethodGet, "/api/v1/users/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTokenRefreshHTTP(t *testing.T) {
	ts := setupServer(t)

	w, envelope := ts.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email":    "alice@example.com",
		"username": "alice",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var auth domain.AuthResponse
	decodeData(t, envelope, &auth)

	w, envelope = ts.do(t, http.MethodPost, "/api/v1/auth/refresh", "", gin.H{"refresh_token": auth.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code)
	var refreshed domain.AuthResponse
	decodeData(t, envelope, &refreshed)

	// The refreshed access token works against protected routes.
	w, _ = ts.do(t, http.MethodGet, "/api/v1/users/me", refreshed.AccessToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// An access token is not accepted as a refresh token.
	w, envelope = ts.do(t, http.MethodPost, "/api/v1/auth/refresh", "", gin.H{"refresh_token": auth.AccessToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", envelope.Error.Code)
}

func TestLoginWrongPasswordHTTP(t *testing.T) {
	ts := setupServer(t)
	ts.register(t, "alice@example.com", "alice")

	w, envelope := ts.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    "alice@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "UNAUTHORIZED", envelope.Error.Code)
}

func TestRoomLifecycle(t *testing.T) {
	ts := setupServer(t)
	owner := ts.register(t, "alice@example.com", "alice")
	other := ts.register(t, "bob@example.com", "bob")

	roomID := ts.createRoom(t, owner)

	// Only the owner may update or delete.
	w, envelope := ts.do(t, http.MethodPatch, "/api/v1/rooms/"+roomID, other, gin.H{"name": "Hijacked"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", envelope.Error.Code)

	w, _ = ts.do(t, http.MethodPatch, "/api/v1/rooms/"+roomID, owner, gin.H{"name": "Renamed"})
	assert.Equal(t, http.StatusOK, w.Code)

	w, envelope = ts.do(t, http.MethodGet, "/api/v1/rooms/"+roomID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var room domain.RoomResponse
	decodeData(t, envelope, &room)
	assert.Equal(t, "Renamed", room.Name)

	w, _ = ts.do(t, http.MethodDelete, "/api/v1/rooms/"+roomID, owner, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, envelope = ts.do(t, http.MethodGet, "/api/v1/rooms/"+roomID, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", envelope.Error.Code)
}

func TestMembershipAndRelayScenario(t *testing.T) {
	ts := setupServer(t)
	token := ts.register(t, "alice@example.com", "alice")
	roomID := ts.createRoom(t, token)

	// Posting before joining is forbidden and persists nothing.
	w, envelope := ts.do(t, http.MethodPost, "/api/v1/rooms/"+roomID+"/messages", token, gin.H{"text": "early"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", envelope.Error.Code)

	w, _ = ts.do(t, http.MethodPost, "/api/v1/rooms/"+roomID+"/join", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Joining again is a conflict.
	w, envelope = ts.do(t, http.MethodPost, "/api/v1/rooms/"+roomID+"/join", token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CONFLICT", envelope.Error.Code)

	w, _ = ts.do(t, http.MethodPost, "/api/v1/rooms/"+roomID+"/messages", token, gin.H{"text": "hello"})
	require.Equal(t, http.StatusCreated, w.Code)

	w, envelope = ts.do(t, http.MethodGet, "/api/v1/rooms/"+roomID+"/messages", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history domain.MessageHistoryResponse
	decodeData(t, envelope, &history)
	require.Len(t, history.Messages, 1)
	assert.Equal(t, "hello", history.Messages[0].Text)

	// Relay persists the message and the generated reply.
	w, envelope = ts.do(t, http.MethodPost, "/api/v1/rooms/"+roomID+"/relay", token, gin.H{"text": "question"})
	require.Equal(t, http.StatusCreated, w.Code)
	var relayResult domain.RelayResponse
	decodeData(t, envelope, &relayResult)
	assert.Equal(t, "question", relayResult.Message.Text)
	assert.Equal(t, "generated reply", relayResult.BotResponse.Reply)

	w, _ = ts.do(t, http.MethodPost, "/api/v1/rooms/"+roomID+"/leave", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Leaving twice is an invalid state.
	w, envelope = ts.do(t, http.MethodPost, "/api/v1/rooms/"+roomID+"/leave", token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "INVALID_STATE", envelope.Error.Code)

	// After leaving, posting is forbidden again.
	w, _ = ts.do(t, http.MethodPost, "/api/v1/rooms/"+roomID+"/messages", token, gin.H{"text": "late"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRelayUpstreamFailure(t *testing.T) {
	ts := setupServer(t)
	token := ts.register(t, "alice@example.com", "alice")
	roomID := ts.createRoom(t, token)

	w, _ := ts.do(t, http.MethodPost, "/api/v1/rooms/"+roomID+"/join", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	ts.generator.err = fmt.Errorf("model overloaded")

	w, envelope := ts.do(t, http.MethodPost, "/api/v1/rooms/"+roomID+"/relay", token, gin.H{"text": "question"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "UPSTREAM_ERROR", envelope.Error.Code)

	// The user's message is kept even though generation failed.
	w, envelope = ts.do(t, http.MethodGet, "/api/v1/rooms/"+roomID+"/messages", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history domain.MessageHistoryResponse
	decodeData(t, envelope, &history)
	require.Len(t, history.Messages, 1)
	assert.Equal(t, "question", history.Messages[0].Text)
}

func TestRelayAudio(t *testing.T) {
	ts := setupServer(t)
	token := ts.register(t, "alice@example.com", "alice")
	roomID := ts.createRoom(t, token)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("audio", "answer.wav")
	require.NoError(t, err)
	_, err = part.Write([]byte("fake-audio-bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/rooms/"+roomID+"/audio", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var envelope response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	var result domain.RelayResponse
	decodeData(t, envelope, &result)
	assert.Equal(t, "transcribed text", result.Message.Text)
	assert.Equal(t, "generated reply", result.BotResponse.Reply)
}
