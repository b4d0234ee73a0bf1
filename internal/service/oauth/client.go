package oauth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/mkorolev/oauthcore/internal/apperrors"
	"github.com/mkorolev/oauthcore/internal/models"
)

// AuthenticateClient checks a client id and secret pair against storage.
// The id is validated through the storage backend before any lookup, so a
// malformed id never reaches a query. Unknown client and wrong secret both
// return apperrors.ErrClientAuthFailed.
func (s *Service) AuthenticateClient(ctx context.Context, clientID string, clientSecret string) (models.Client, error) {
	id, err := s.storage.ParseID(clientID)
	if err != nil {
		return models.Client{}, err
	}

	client, err := s.storage.Client().GetClientByID(ctx, id)
	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrClientNotFound):
		return models.Client{}, apperrors.ErrClientAuthFailed
	default:
		return models.Client{}, fmt.Errorf("client lookup failed. Err: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(client.Secret), []byte(clientSecret)) != 1 {
		return models.Client{}, apperrors.ErrClientAuthFailed
	}

	return client, nil
}
