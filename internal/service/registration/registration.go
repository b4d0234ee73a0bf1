// Package registration creates clients and users. It sits outside the token
// lifecycle core: registration happens through admin tooling, not through
// the grant flow.
package registration

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/mkorolev/oauthcore/internal/models"
	"github.com/mkorolev/oauthcore/internal/repository"
	"github.com/mkorolev/oauthcore/internal/service/oauth"
)

const clientSecretBytesLen = 32

type clientInput struct {
	Name string `validate:"required,min=3,max=100"`
}

type userInput struct {
	Username string `validate:"required,min=3,max=150"`
	Password string `validate:"required,min=8"`
}

type Service struct {
	hasher   oauth.PasswordHasher
	validate *validator.Validate
	storage  repository.Storage
}

func NewService(hasher oauth.PasswordHasher, storage repository.Storage) *Service {
	if hasher == nil {
		hasher = oauth.DefaultHasher
	}

	return &Service{
		hasher:   hasher,
		validate: validator.New(),
		storage:  storage,
	}
}

// RegisterClient stores a new client application with a freshly generated
// secret. The secret is part of the returned client and is not recoverable
// in plaintext anywhere else, hand it to the client operator once.
func (s *Service) RegisterClient(ctx context.Context, name string) (models.Client, error) {
	if err := s.validate.Struct(clientInput{Name: name}); err != nil {
		return models.Client{}, fmt.Errorf("client name rejected. Err: %w", err)
	}

	b := make([]byte, clientSecretBytesLen)
	if _, err := rand.Read(b); err != nil {
		return models.Client{}, fmt.Errorf("error while generating client secret. Err: %w", err)
	}

	client, err := s.storage.Client().CreateClient(ctx, name, hex.EncodeToString(b))
	if err != nil {
		return models.Client{}, fmt.Errorf("can't create client. Err: %w", err)
	}

	return client, nil
}

// RegisterUser stores a new resource owner with the password hashed
func (s *Service) RegisterUser(ctx context.Context, username string, password string) (models.User, error) {
	if err := s.validate.Struct(userInput{Username: username, Password: password}); err != nil {
		return models.User{}, fmt.Errorf("registration input rejected. Err: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return models.User{}, fmt.Errorf("can't use this as password. Err: %w", err)
	}

	user, err := s.storage.User().CreateUser(ctx, username, hash)
	if err != nil {
		return models.User{}, fmt.Errorf("can't create user. Err: %w", err)
	}

	return user, nil
}
