package models

import (
	"time"

	"github.com/google/uuid"
)

// TokenFields are the caller-supplied parts of a token grant: both token
// strings and their expiry timestamps. Generating them is a collaborator
// concern (crypto RNG, clock, TTL policy), see service/tokengen.
type TokenFields struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// Token is one grant: access and refresh token minted together for a single
// client and user. Tokens are never mutated after issue except to close
// their validity window on revocation.
type Token struct {
	ID        uuid.UUID
	CreatedAt time.Time

	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time

	ClientID uuid.UUID
	UserID   uuid.UUID

	RevokedAt *time.Time // nil while the token has not been revoked

	// Populated relations. Issue attaches both, resolution fills the side
	// the caller needs: access lookups attach User, refresh lookups Client.
	Client *Client
	User   *User
}
