package service

import (
	"context"
	"errors"

	"github.com/voxhire/interview-service/internal/apperr"
	"github.com/voxhire/interview-service/internal/domain"
	"github.com/voxhire/interview-service/internal/repository"
	"github.com/voxhire/interview-service/pkg/jwt"
)

// identityVerifierImpl implements IdentityVerifier against the local JWT
// manager and user store.
type identityVerifierImpl struct {
	jwtManager *jwt.Manager
	users      repository.UserRepository
}

// NewIdentityVerifier creates a new identity verifier.
func NewIdentityVerifier(jwtManager *jwt.Manager, users repository.UserRepository) IdentityVerifier {
	return &identityVerifierImpl{
		jwtManager: jwtManager,
		users:      users,
	}
}

// Verify validates the token signature and claims, then loads the user
// the claims reference. A valid token naming a missing user is NOT_FOUND,
// not UNAUTHORIZED; the token itself was fine.
func (s *identityVerifierImpl) Verify(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.jwtManager.ValidateToken(token)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnauthorized, err, "invalid or expired token")
	}
	if claims.Type != jwt.TokenTypeAccess {
		return nil, apperr.New(apperr.KindUnauthorized, "token is not an access token")
	}

	user, err := s.users.GetByID(ctx, domain.UserID(claims.UserID))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "user not found")
		}
		return nil, err
	}

	return user, nil
}
