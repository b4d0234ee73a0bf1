// Package tokengen mints the raw material of a token grant: a signed access
// token, a random refresh token and both expiry timestamps. The oauth service
// treats these as opaque caller-supplied fields, so generation policy (TTLs,
// signing algorithm, randomness) lives here and nowhere else.
package tokengen

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mkorolev/oauthcore/internal/models"
)

const (
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultRefreshTokenTTL = 720 * time.Hour
	defaultSigningMethod   = "HS256"

	refreshTokenBytesLen = 32
)

type AccessTokenClaims struct {
	jwt.RegisteredClaims
	UserID   uuid.UUID `json:"uid"`
	ClientID uuid.UUID `json:"cid"`
}

// Generator config with sensible defaults
type Config struct {
	// Secret key to sign access tokens
	// Required to be set
	SecretKey string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set then default is used
	Alg string

	// Access and refresh token lifetimes
	// If not set then defaults are used
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type Generator struct {
	// Secret key to sign access tokens
	key string

	// JWT MAC algorithm
	alg jwt.SigningMethod

	// Access and refresh token lifetimes
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func New(cfg Config) (*Generator, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("secret key must not be empty")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, defaultAccessTokenTTL)
	setDefaultDuration(&cfg.RefreshTTL, defaultRefreshTokenTTL)

	return &Generator{
		key:        cfg.SecretKey,
		alg:        jwt.GetSigningMethod(cfg.Alg),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
	}, nil
}

// Generate mints fresh token fields for the client and user pair.
// Expiries are strictly after now by construction.
func (g *Generator) Generate(client models.Client, user models.User) (models.TokenFields, error) {
	var fields models.TokenFields
	now := time.Now().Truncate(time.Second)
	accessExpiresAt := now.Add(g.accessTTL)
	refreshExpiresAt := now.Add(g.refreshTTL)

	// Generate JWT access token encoded as string
	accessToken := jwt.NewWithClaims(
		g.alg,
		AccessTokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(accessExpiresAt),
			},
			UserID:   user.ID,
			ClientID: client.ID,
		},
	)
	access, err := accessToken.SignedString([]byte(g.key))
	if err != nil {
		return fields, fmt.Errorf("error while signing access token. Err: %w", err)
	}

	// Generate random refresh token
	b := make([]byte, refreshTokenBytesLen)
	_, err = rand.Read(b)
	if err != nil {
		return fields, fmt.Errorf("error while generating refresh token. Err: %w", err)
	}

	return models.TokenFields{
		AccessToken:      access,
		AccessExpiresAt:  accessExpiresAt,
		RefreshToken:     hex.EncodeToString(b),
		RefreshExpiresAt: refreshExpiresAt,
	}, nil
}

// ParseAccess validates the access token signature and standard claims and
// returns the ids embedded at generation time
func (g *Generator) ParseAccess(access string) (userID uuid.UUID, clientID uuid.UUID, err error) {
	claims := &AccessTokenClaims{}

	_, err = jwt.ParseWithClaims(
		access,
		claims,
		func(t *jwt.Token) (any, error) {
			return []byte(g.key), nil
		},
		jwt.WithValidMethods([]string{g.alg.Alg()}),
	)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("error while parsing or validating token. Err: %w", err)
	}

	return claims.UserID, claims.ClientID, nil
}
