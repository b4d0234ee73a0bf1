package oauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mkorolev/oauthcore/internal/apperrors"
	"github.com/mkorolev/oauthcore/internal/models"
)

// revokedExpiresAt is the fixed point in the past a revoked token's refresh
// expiry is stamped with. The literal value is kept stable because existing
// consumers compare against it.
// TODO drop the sentinel in favor of RevokedAt once no caller checks the date
var revokedExpiresAt = time.Date(2015, time.May, 28, 6, 59, 53, 0, time.UTC)

// IssueToken persists a new token linking client and user. The returned token
// carries the full Client and User so the caller can build a grant response
// without a second lookup.
//
// A uniqueness collision on the token strings is retried exactly once with
// freshly generated fields when a generator is configured; a second collision
// means the randomness source is broken and the error surfaces.
func (s *Service) IssueToken(ctx context.Context, fields models.TokenFields, client models.Client, user models.User) (models.Token, error) {
	token, err := s.saveToken(ctx, fields, client, user)

	if err != nil && errors.Is(err, apperrors.ErrTokenExists) && s.gen != nil {
		fields, err = s.gen.Generate(client, user)
		if err != nil {
			return models.Token{}, fmt.Errorf("token regeneration failed. Err: %w", err)
		}

		token, err = s.saveToken(ctx, fields, client, user)
	}
	if err != nil {
		return models.Token{}, err
	}

	return token, nil
}

func (s *Service) saveToken(ctx context.Context, fields models.TokenFields, client models.Client, user models.User) (models.Token, error) {
	token, err := s.storage.Token().Save(ctx, models.Token{
		ID:               uuid.New(),
		ClientID:         client.ID,
		UserID:           user.ID,
		AccessToken:      fields.AccessToken,
		AccessExpiresAt:  fields.AccessExpiresAt,
		RefreshToken:     fields.RefreshToken,
		RefreshExpiresAt: fields.RefreshExpiresAt,
	})
	if err != nil {
		return token, fmt.Errorf("token save failed. Err: %w", err)
	}

	token.Client = &client
	token.User = &user

	return token, nil
}

// ResolveAccessToken looks up a token by its access token string with the
// owning user populated. Expiry is not evaluated here: whether the token is
// still acceptable is the caller's policy call, this is only the lookup.
// A miss returns apperrors.ErrTokenNotFound.
func (s *Service) ResolveAccessToken(ctx context.Context, accessToken string) (models.Token, error) {
	token, err := s.storage.Token().GetByAccessToken(ctx, accessToken)
	if err != nil {
		return models.Token{}, fmt.Errorf("access token lookup failed. Err: %w", err)
	}

	return token, nil
}

// ResolveRefreshToken looks up a token by its refresh token string with the
// owning client populated. Same expiry contract as ResolveAccessToken.
func (s *Service) ResolveRefreshToken(ctx context.Context, refreshToken string) (models.Token, error) {
	token, err := s.storage.Token().GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		return models.Token{}, fmt.Errorf("refresh token lookup failed. Err: %w", err)
	}

	return token, nil
}

// RevokeToken closes the token's validity window by stamping the refresh
// expiry into the past. The record stays for auditing, only its validity
// ends. Revoking a token that does not exist is a no-op success: callers
// retry revocations under at-least-once delivery and must converge.
func (s *Service) RevokeToken(ctx context.Context, refreshToken string) (models.Token, error) {
	token, err := s.storage.Token().Revoke(ctx, refreshToken, revokedExpiresAt)

	switch {
	case err == nil:
		return token, nil
	case errors.Is(err, apperrors.ErrTokenNotFound):
		return models.Token{}, nil
	default:
		return models.Token{}, fmt.Errorf("token revoke failed. Err: %w", err)
	}
}
