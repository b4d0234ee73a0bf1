package oauth

import (
	"context"
	"errors"
	"fmt"

	"github.com/mkorolev/oauthcore/internal/apperrors"
	"github.com/mkorolev/oauthcore/internal/models"
)

// Bcrypt hash of an arbitrary string, compared against when the username is
// unknown so that absent users cost the same as wrong passwords
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// AuthenticateUser checks a resource owner's username and password.
// Username lookup is exact and case sensitive. Unknown user and wrong
// password both return apperrors.ErrUserAuthFailed.
func (s *Service) AuthenticateUser(ctx context.Context, username string, password string) (models.User, error) {
	user, err := s.storage.User().GetUserByUsername(ctx, username)
	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrUserNotFound):
		_ = s.hasher.Compare(dummyHash, password)
		return models.User{}, apperrors.ErrUserAuthFailed
	default:
		return models.User{}, fmt.Errorf("user lookup failed. Err: %w", err)
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return models.User{}, apperrors.ErrUserAuthFailed
	}

	return user, nil
}
