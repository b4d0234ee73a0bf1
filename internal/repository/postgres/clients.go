package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mkorolev/oauthcore/internal/apperrors"
	"github.com/mkorolev/oauthcore/internal/models"
)

type ClientRepo struct {
	DB DBTX
}

const createClient = `-- name: CreateClient
INSERT INTO oauth_clients (id, name, secret)
VALUES ($1, $2, $3)
RETURNING id, created_at, name, secret
`

func (r *ClientRepo) CreateClient(ctx context.Context, name string, secret string) (models.Client, error) {
	rows, _ := r.DB.Query(ctx, createClient, uuid.New(), name, secret)
	client, err := pgx.CollectOneRow(rows, rowToClient)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return client, apperrors.ErrClientExists
		}

		return client, fmt.Errorf("db error: %w", err)
	}

	return client, nil
}

const getClientByID = `-- name: getClientByID
SELECT id, created_at, name, secret FROM oauth_clients
WHERE id = $1
`

func (r *ClientRepo) GetClientByID(ctx context.Context, id uuid.UUID) (models.Client, error) {
	rows, _ := r.DB.Query(ctx, getClientByID, id)
	client, err := pgx.CollectOneRow(rows, rowToClient)

	switch {
	case err == nil:
		return client, nil
	case errors.Is(err, pgx.ErrNoRows):
		return client, apperrors.ErrClientNotFound
	default:
		return client, fmt.Errorf("db error: %w", err)
	}
}

func rowToClient(row pgx.CollectableRow) (models.Client, error) {
	var c models.Client
	err := row.Scan(&c.ID, &c.CreatedAt, &c.Name, &c.Secret)
	return c, err
}
