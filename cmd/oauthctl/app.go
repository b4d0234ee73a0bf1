package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkorolev/oauthcore/internal/db"
	"github.com/mkorolev/oauthcore/internal/logger"
	"github.com/mkorolev/oauthcore/internal/repository"
	"github.com/mkorolev/oauthcore/internal/repository/postgres"
	"github.com/mkorolev/oauthcore/internal/service/oauth"
	"github.com/mkorolev/oauthcore/internal/service/registration"
	"github.com/mkorolev/oauthcore/internal/service/tokengen"
)

// App wires storage and services for the admin commands
type App struct {
	Storage      repository.Storage
	OAuth        *oauth.Service
	Registration *registration.Service

	pool *pgxpool.Pool
	log  logger.Logger
}

func NewApp(ctx context.Context, c *Config, log logger.Logger) (*App, error) {
	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	storage := postgres.NewStorage(pool)

	// Token generator is optional: revocation and registration work without
	// a signing key, only issuing needs one
	var gen *tokengen.Generator
	if c.SecretKey != "" {
		gen, err = tokengen.New(tokengen.Config{SecretKey: c.SecretKey})
		if err != nil {
			return nil, fmt.Errorf("error while creating token generator. Err: %w", err)
		}
	}

	oauthService, err := oauth.NewService(oauth.Config{Generator: gen}, storage)
	if err != nil {
		return nil, fmt.Errorf("error while creating oauth service. Err: %w", err)
	}

	return &App{
		Storage:      storage,
		OAuth:        oauthService,
		Registration: registration.NewService(nil, storage),
		pool:         pool,
		log:          log,
	}, nil
}

func (a *App) Close() {
	a.pool.Close()
}
