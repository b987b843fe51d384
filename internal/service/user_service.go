package service

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/voxhire/interview-service/internal/apperr"
	"github.com/voxhire/interview-service/internal/audit"
	"github.com/voxhire/interview-service/internal/domain"
	"github.com/voxhire/interview-service/internal/repository"
	"github.com/voxhire/interview-service/pkg/jwt"
)

// userServiceImpl implements UserService.
type userServiceImpl struct {
	users      repository.UserRepository
	jwtManager *jwt.Manager
}

// NewUserService creates a new user service.
func NewUserService(users repository.UserRepository, jwtManager *jwt.Manager) UserService {
	return &userServiceImpl{
		users:      users,
		jwtManager: jwtManager,
	}
}

// Register creates a new user account and returns a token pair.
func (s *userServiceImpl) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.AuthResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        req.Email,
		Username:     req.Username,
		DisplayName:  req.DisplayName,
		PasswordHash: string(hash),
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) || errors.Is(err, repository.ErrUsernameExists) {
			return nil, apperr.Wrap(apperr.KindConflict, err, "registration conflict")
		}
		return nil, err
	}

	audit.Log(ctx, audit.ActionRegister, user.ID.String(), "user registered")
	return s.issueTokens(user)
}

// Login checks credentials and returns a token pair. Unknown email and
// wrong password return the same classification so login failures do not
// reveal which accounts exist.
func (s *userServiceImpl) Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			audit.LogWithDetail(ctx, audit.ActionLoginFailed, "", req.Email, "login failed")
			return nil, apperr.New(apperr.KindUnauthorized, "invalid credentials")
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		audit.Log(ctx, audit.ActionLoginFailed, user.ID.String(), "login failed")
		return nil, apperr.New(apperr.KindUnauthorized, "invalid credentials")
	}

	audit.Log(ctx, audit.ActionLogin, user.ID.String(), "user logged in")
	return s.issueTokens(user)
}

// Refresh redeems a refresh token for a new token pair. The user record
// is reloaded so the new access token carries current claims.
func (s *userServiceImpl) Refresh(ctx context.Context, refreshToken string) (*domain.AuthResponse, error) {
	claims, err := s.jwtManager.ValidateToken(refreshToken)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnauthorized, err, "invalid refresh token")
	}
	if claims.Type != jwt.TokenTypeRefresh {
		return nil, apperr.New(apperr.KindUnauthorized, "not a refresh token")
	}

	user, err := s.users.GetByID(ctx, domain.UserID(claims.UserID))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperr.New(apperr.KindUnauthorized, "invalid refresh token")
		}
		return nil, err
	}

	audit.Log(ctx, audit.ActionRefresh, user.ID.String(), "tokens refreshed")
	return s.issueTokens(user)
}

// GetProfile returns the user's profile.
func (s *userServiceImpl) GetProfile(ctx context.Context, userID domain.UserID) (*domain.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "user not found")
		}
		return nil, err
	}

	resp := user.ToResponse()
	return &resp, nil
}

func (s *userServiceImpl) issueTokens(user *domain.User) (*domain.AuthResponse, error) {
	access, refresh, accessExp, _, err := s.jwtManager.GenerateTokenPair(
		user.ID.String(), user.Email, user.Username, user.Roles)
	if err != nil {
		return nil, err
	}

	return &domain.AuthResponse{
		User:         user.ToResponse(),
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    accessExp,
	}, nil
}
