package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mkorolev/oauthcore/internal/models"
)

// Client repository interface
type ClientRepo interface {
	// Create client. The secret is stored as given and compared exactly later
	CreateClient(ctx context.Context, name string, secret string) (models.Client, error)

	// Get client by id
	// If client not found must return apperrors.ErrClientNotFound
	GetClientByID(ctx context.Context, id uuid.UUID) (models.Client, error)
}

// User repository interface
type UserRepo interface {
	// Create user
	// If user with username exists already has to return apperrors.ErrUserExists
	CreateUser(ctx context.Context, username string, hashedPassword string) (models.User, error)

	// Get user by id or username (exact match, case sensitive)
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, id uuid.UUID) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
}

// Token repository interface
type TokenRepo interface {
	// Persist a new token. Access and refresh token strings are unique across
	// all tokens; on collision must return apperrors.ErrTokenExists
	Save(ctx context.Context, token models.Token) (models.Token, error)

	// Lookup by access token string with the owning user attached
	// If no token matches must return apperrors.ErrTokenNotFound
	GetByAccessToken(ctx context.Context, accessToken string) (models.Token, error)

	// Lookup by refresh token string with the owning client attached
	// If no token matches must return apperrors.ErrTokenNotFound
	GetByRefreshToken(ctx context.Context, refreshToken string) (models.Token, error)

	// Close the token validity window: stamp the refresh expiry to expiresAt
	// and record the revocation time. The first revocation time wins, repeated
	// calls return the already stamped row unchanged.
	// If no token matches must return apperrors.ErrTokenNotFound
	Revoke(ctx context.Context, refreshToken string, expiresAt time.Time) (models.Token, error)
}

type Storage interface {
	Client() ClientRepo
	User() UserRepo
	Token() TokenRepo

	// ParseID validates that raw is a well formed identifier for this storage
	// backend and converts it. Malformed input must never reach a query as a
	// raw lookup key; returns an error wrapping apperrors.ErrInvalidID.
	ParseID(raw string) (uuid.UUID, error)

	// Run fn within single transaction (when the backend supports one)
	InTx(ctx context.Context, fn func(Storage) error) error
}
