// Package memory provides an in-memory repository.Storage implementation.
// It keeps the same error contract as the postgres backend and is meant for
// tests and single-process development runs.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mkorolev/oauthcore/internal/apperrors"
	"github.com/mkorolev/oauthcore/internal/models"
	"github.com/mkorolev/oauthcore/internal/repository"
)

type Storage struct {
	mu sync.RWMutex

	clients map[uuid.UUID]models.Client

	users     map[uuid.UUID]models.User
	usernames map[string]uuid.UUID

	tokens    map[uuid.UUID]models.Token
	byAccess  map[string]uuid.UUID
	byRefresh map[string]uuid.UUID
}

var _ repository.Storage = (*Storage)(nil)

func NewStorage() *Storage {
	return &Storage{
		clients:   map[uuid.UUID]models.Client{},
		users:     map[uuid.UUID]models.User{},
		usernames: map[string]uuid.UUID{},
		tokens:    map[uuid.UUID]models.Token{},
		byAccess:  map[string]uuid.UUID{},
		byRefresh: map[string]uuid.UUID{},
	}
}

// One struct implements all three repository interfaces, the accessors exist
// to satisfy repository.Storage
func (s *Storage) Client() repository.ClientRepo { return s }
func (s *Storage) User() repository.UserRepo     { return s }
func (s *Storage) Token() repository.TokenRepo   { return s }

func (s *Storage) ParseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("id %q rejected: %w", raw, apperrors.ErrInvalidID)
	}
	return id, nil
}

// InTx runs fn against the same storage. The memory backend has no
// transactions; every single operation is atomic under the mutex already.
func (s *Storage) InTx(ctx context.Context, fn func(repository.Storage) error) error {
	return fn(s)
}

func (s *Storage) CreateClient(ctx context.Context, name string, secret string) (models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	client := models.Client{
		ID:        uuid.New(),
		CreatedAt: time.Now(),
		Name:      name,
		Secret:    secret,
	}
	s.clients[client.ID] = client

	return client, nil
}

func (s *Storage) GetClientByID(ctx context.Context, id uuid.UUID) (models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	client, ok := s.clients[id]
	if !ok {
		return models.Client{}, apperrors.ErrClientNotFound
	}

	return client, nil
}

func (s *Storage) CreateUser(ctx context.Context, username string, hashedPassword string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.usernames[username]; ok {
		return models.User{}, apperrors.ErrUserExists
	}

	user := models.User{
		ID:             uuid.New(),
		CreatedAt:      time.Now(),
		Username:       username,
		HashedPassword: hashedPassword,
	}
	s.users[user.ID] = user
	s.usernames[username] = user.ID

	return user, nil
}

func (s *Storage) GetUserByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return models.User{}, apperrors.ErrUserNotFound
	}

	return user, nil
}

func (s *Storage) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usernames[username]
	if !ok {
		return models.User{}, apperrors.ErrUserNotFound
	}

	return s.users[id], nil
}

func (s *Storage) Save(ctx context.Context, token models.Token) (models.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byAccess[token.AccessToken]; ok {
		return models.Token{}, apperrors.ErrTokenExists
	}
	if _, ok := s.byRefresh[token.RefreshToken]; ok {
		return models.Token{}, apperrors.ErrTokenExists
	}

	token.CreatedAt = time.Now()
	token.RevokedAt = nil
	token.Client = nil
	token.User = nil

	s.tokens[token.ID] = token
	s.byAccess[token.AccessToken] = token.ID
	s.byRefresh[token.RefreshToken] = token.ID

	return token, nil
}

func (s *Storage) GetByAccessToken(ctx context.Context, accessToken string) (models.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byAccess[accessToken]
	if !ok {
		return models.Token{}, apperrors.ErrTokenNotFound
	}

	token := s.tokens[id]
	if user, ok := s.users[token.UserID]; ok {
		token.User = &user
	}

	return token, nil
}

func (s *Storage) GetByRefreshToken(ctx context.Context, refreshToken string) (models.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byRefresh[refreshToken]
	if !ok {
		return models.Token{}, apperrors.ErrTokenNotFound
	}

	token := s.tokens[id]
	if client, ok := s.clients[token.ClientID]; ok {
		token.Client = &client
	}

	return token, nil
}

func (s *Storage) Revoke(ctx context.Context, refreshToken string, expiresAt time.Time) (models.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byRefresh[refreshToken]
	if !ok {
		return models.Token{}, apperrors.ErrTokenNotFound
	}

	token := s.tokens[id]
	token.RefreshExpiresAt = expiresAt
	if token.RevokedAt == nil {
		now := time.Now()
		token.RevokedAt = &now
	}
	s.tokens[id] = token

	return token, nil
}
