// Package oauth implements the token lifecycle core of an OAuth2 server:
// client and resource owner authentication, token issue, resolution and
// revocation. Grant type orchestration and the HTTP surface live elsewhere
// and call into this package.
package oauth

import (
	"errors"

	"github.com/mkorolev/oauthcore/internal/repository"
	"github.com/mkorolev/oauthcore/internal/service/tokengen"
)

type Config struct {
	// Hasher used to verify resource owner passwords
	// Defaults to DefaultHasher when nil
	Hasher PasswordHasher

	// Optional generator used to re-mint token fields exactly once when the
	// store reports a token string collision. Without it collisions surface
	// to the caller as is.
	Generator *tokengen.Generator
}

type Service struct {
	hasher  PasswordHasher
	gen     *tokengen.Generator
	storage repository.Storage
}

func NewService(cfg Config, storage repository.Storage) (*Service, error) {
	if storage == nil {
		return nil, errors.New("storage must not be nil")
	}

	hasher := cfg.Hasher
	if hasher == nil {
		hasher = DefaultHasher
	}

	return &Service{
		hasher:  hasher,
		gen:     cfg.Generator,
		storage: storage,
	}, nil
}
