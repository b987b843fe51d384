package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxhire/interview-service/internal/apperr"
	"github.com/voxhire/interview-service/internal/domain"
)

func newUserFixture() (UserService, *fakeUserRepo) {
	users := newFakeUserRepo()
	return NewUserService(users, newTestJWT()), users
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newUserFixture()
	ctx := context.Background()

	auth, err := svc.Register(ctx, &domain.RegisterRequest{
		Email:    "alice@example.com",
		Username: "alice",
		Password: "correct horse",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, auth.AccessToken)
	assert.NotEmpty(t, auth.RefreshToken)
	assert.Equal(t, "alice", auth.User.Username)

	login, err := svc.Login(ctx, &domain.LoginRequest{Email: "alice@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, auth.User.ID, login.User.ID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newUserFixture()
	ctx := context.Background()

	_, err := svc.Register(ctx, &domain.RegisterRequest{Email: "alice@example.com", Username: "alice", Password: "password1"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, &domain.RegisterRequest{Email: "alice@example.com", Username: "alice2", Password: "password1"})
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newUserFixture()
	ctx := context.Background()

	_, err := svc.Register(ctx, &domain.RegisterRequest{Email: "alice@example.com", Username: "alice", Password: "password1"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, &domain.LoginRequest{Email: "alice@example.com", Password: "wrong"})
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized))
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _ := newUserFixture()

	// Unknown email and wrong password are indistinguishable to the caller.
	_, err := svc.Login(context.Background(), &domain.LoginRequest{Email: "nobody@example.com", Password: "whatever"})
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized))
}

func TestRefreshTokens(t *testing.T) {
	users := newFakeUserRepo()
	manager := newTestJWT()
	svc := NewUserService(users, manager)
	ctx := context.Background()

	auth, err := svc.Register(ctx, &domain.RegisterRequest{Email: "alice@example.com", Username: "alice", Password: "password1"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, auth.RefreshToken)
	require.NoError(t, err)

	// The new access token carries the full identity claims.
	claims, err := manager.ValidateToken(refreshed.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, auth.User.ID, claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "alice", claims.Username)
	assert.NotEmpty(t, refreshed.RefreshToken)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	svc, _ := newUserFixture()
	ctx := context.Background()

	auth, err := svc.Register(ctx, &domain.RegisterRequest{Email: "alice@example.com", Username: "alice", Password: "password1"})
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, auth.AccessToken)
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized))

	_, err = svc.Refresh(ctx, "garbage")
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized))
}

func TestRefreshUnknownUser(t *testing.T) {
	manager := newTestJWT()
	svc := NewUserService(newFakeUserRepo(), manager)

	// A refresh token for a user that no longer exists is rejected.
	_, refresh, _, _, err := manager.GenerateTokenPair(testOtherID, "ghost@example.com", "ghost", nil)
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), refresh)
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized))
}

func TestGetProfile(t *testing.T) {
	svc, _ := newUserFixture()
	ctx := context.Background()

	auth, err := svc.Register(ctx, &domain.RegisterRequest{Email: "alice@example.com", Username: "alice", Password: "password1"})
	require.NoError(t, err)

	profile, err := svc.GetProfile(ctx, domain.UserID(auth.User.ID))
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.Username)

	_, err = svc.GetProfile(ctx, domain.UserID(testOtherID))
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}
