package models

import (
	"time"

	"github.com/google/uuid"
)

// Client is a registered application allowed to request tokens.
// Secret is stored as issued and compared exactly on authentication.
type Client struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Name      string
	Secret    string
}
