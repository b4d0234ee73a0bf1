package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mkorolev/oauthcore/internal/apperrors"
	"github.com/mkorolev/oauthcore/internal/models"
)

type TokenRepo struct {
	DB DBTX
}

const saveToken = `-- name: SaveToken
INSERT INTO oauth_tokens (id, client_id, user_id, access_token, access_expires_at, refresh_token, refresh_expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, created_at, client_id, user_id, access_token, access_expires_at, refresh_token, refresh_expires_at, revoked_at
`

func (r *TokenRepo) Save(ctx context.Context, token models.Token) (models.Token, error) {
	rows, _ := r.DB.Query(ctx, saveToken,
		token.ID, token.ClientID, token.UserID,
		token.AccessToken, token.AccessExpiresAt,
		token.RefreshToken, token.RefreshExpiresAt,
	)
	saved, err := pgx.CollectOneRow(rows, rowToToken)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return saved, apperrors.ErrTokenExists
		}

		return saved, fmt.Errorf("db error: %w", err)
	}

	return saved, nil
}

const getByAccessToken = `-- name: getByAccessToken
SELECT t.id, t.created_at, t.client_id, t.user_id, t.access_token, t.access_expires_at, t.refresh_token, t.refresh_expires_at, t.revoked_at,
       u.id, u.created_at, u.username, u.password_hash
FROM oauth_tokens t
JOIN users u ON u.id = t.user_id
WHERE t.access_token = $1
`

// Resolution is the hottest path of the whole service, so the owning user is
// read in the same query. Expiry is not checked here, that is caller policy.
func (r *TokenRepo) GetByAccessToken(ctx context.Context, accessToken string) (models.Token, error) {
	rows, _ := r.DB.Query(ctx, getByAccessToken, accessToken)
	token, err := pgx.CollectOneRow(rows, func(row pgx.CollectableRow) (models.Token, error) {
		var t models.Token
		var u models.User
		err := row.Scan(
			&t.ID, &t.CreatedAt, &t.ClientID, &t.UserID,
			&t.AccessToken, &t.AccessExpiresAt, &t.RefreshToken, &t.RefreshExpiresAt, &t.RevokedAt,
			&u.ID, &u.CreatedAt, &u.Username, &u.HashedPassword,
		)
		t.User = &u
		return t, err
	})

	switch {
	case err == nil:
		return token, nil
	case errors.Is(err, pgx.ErrNoRows):
		return token, apperrors.ErrTokenNotFound
	default:
		return token, fmt.Errorf("db error: %w", err)
	}
}

const getByRefreshToken = `-- name: getByRefreshToken
SELECT t.id, t.created_at, t.client_id, t.user_id, t.access_token, t.access_expires_at, t.refresh_token, t.refresh_expires_at, t.revoked_at,
       c.id, c.created_at, c.name, c.secret
FROM oauth_tokens t
JOIN oauth_clients c ON c.id = t.client_id
WHERE t.refresh_token = $1
`

func (r *TokenRepo) GetByRefreshToken(ctx context.Context, refreshToken string) (models.Token, error) {
	rows, _ := r.DB.Query(ctx, getByRefreshToken, refreshToken)
	token, err := pgx.CollectOneRow(rows, func(row pgx.CollectableRow) (models.Token, error) {
		var t models.Token
		var c models.Client
		err := row.Scan(
			&t.ID, &t.CreatedAt, &t.ClientID, &t.UserID,
			&t.AccessToken, &t.AccessExpiresAt, &t.RefreshToken, &t.RefreshExpiresAt, &t.RevokedAt,
			&c.ID, &c.CreatedAt, &c.Name, &c.Secret,
		)
		t.Client = &c
		return t, err
	})

	switch {
	case err == nil:
		return token, nil
	case errors.Is(err, pgx.ErrNoRows):
		return token, apperrors.ErrTokenNotFound
	default:
		return token, fmt.Errorf("db error: %w", err)
	}
}

const revokeToken = `-- name: RevokeToken
UPDATE oauth_tokens
SET refresh_expires_at = $2,
    revoked_at = COALESCE(revoked_at, $3)
WHERE refresh_token = $1
RETURNING id, created_at, client_id, user_id, access_token, access_expires_at, refresh_token, refresh_expires_at, revoked_at
`

// Revoke stamps the validity window closed instead of deleting the row.
// Deleting would race concurrent resolution reads and lose the audit trail.
// Repeated calls keep the first revoked_at, so the operation is idempotent.
func (r *TokenRepo) Revoke(ctx context.Context, refreshToken string, expiresAt time.Time) (models.Token, error) {
	rows, _ := r.DB.Query(ctx, revokeToken, refreshToken, expiresAt, time.Now())
	token, err := pgx.CollectOneRow(rows, rowToToken)

	switch {
	case err == nil:
		return token, nil
	case errors.Is(err, pgx.ErrNoRows):
		return token, apperrors.ErrTokenNotFound
	default:
		return token, fmt.Errorf("db error: %w", err)
	}
}

func rowToToken(row pgx.CollectableRow) (models.Token, error) {
	var t models.Token
	err := row.Scan(
		&t.ID, &t.CreatedAt, &t.ClientID, &t.UserID,
		&t.AccessToken, &t.AccessExpiresAt, &t.RefreshToken, &t.RefreshExpiresAt, &t.RevokedAt,
	)
	return t, err
}
