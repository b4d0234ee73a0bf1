package oauth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkorolev/oauthcore/internal/apperrors"
	"github.com/mkorolev/oauthcore/internal/models"
	"github.com/mkorolev/oauthcore/internal/repository/memory"
	"github.com/mkorolev/oauthcore/internal/service/tokengen"
)

// Revoked tokens carry this refresh expiry stamp
var wantRevokedStamp = time.Date(2015, time.May, 28, 6, 59, 53, 0, time.UTC)

func newFields(lifetime time.Duration) models.TokenFields {
	now := time.Now().Truncate(time.Second)
	return models.TokenFields{
		AccessToken:      uuid.NewString(),
		AccessExpiresAt:  now.Add(lifetime),
		RefreshToken:     uuid.NewString(),
		RefreshExpiresAt: now.Add(30 * 24 * time.Hour),
	}
}

func Test_Service(t *testing.T) {
	t.Parallel()

	// Service over the memory backend with client and user seeded
	newService := func(t *testing.T, cfg Config) (*Service, models.Client, models.User) {
		t.Helper()

		storage := memory.NewStorage()

		client, err := storage.Client().CreateClient(t.Context(), "mobile-app", "super-secret")
		require.NoError(t, err)

		hash, err := DefaultHasher.Hash("pwd-12345")
		require.NoError(t, err)
		user, err := storage.User().CreateUser(t.Context(), "resource-owner", hash)
		require.NoError(t, err)

		s, err := NewService(cfg, storage)
		require.NoError(t, err, "service should be created without errors")

		return s, client, user
	}

	t.Run("new service defaults", func(t *testing.T) {
		s, _, _ := newService(t, Config{})
		require.Equal(t, BcryptHasher{}, s.hasher, "default hasher should be set to BcryptHasher")

		_, err := NewService(Config{}, nil)
		require.Error(t, err, "nil storage must be rejected")
	})

	t.Run("AuthenticateClient", func(t *testing.T) {
		t.Run("valid pair ok", func(t *testing.T) {
			s, client, _ := newService(t, Config{})

			got, err := s.AuthenticateClient(t.Context(), client.ID.String(), "super-secret")

			require.NoError(t, err)
			require.Equal(t, client.ID, got.ID)
			require.Equal(t, client.Name, got.Name)
		})

		tests := []struct {
			name        string
			clientID    func(client models.Client) string
			secret      string
			expectedErr error
		}{
			{
				name:        "wrong secret",
				clientID:    func(c models.Client) string { return c.ID.String() },
				secret:      "wrong-secret",
				expectedErr: apperrors.ErrClientAuthFailed,
			},
			{
				name:        "unknown client",
				clientID:    func(models.Client) string { return uuid.NewString() },
				secret:      "super-secret",
				expectedErr: apperrors.ErrClientAuthFailed,
			},
			{
				name:        "malformed id rejected before lookup",
				clientID:    func(models.Client) string { return "not-an-id" },
				secret:      "super-secret",
				expectedErr: apperrors.ErrInvalidID,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				s, client, _ := newService(t, Config{})

				_, err := s.AuthenticateClient(t.Context(), tt.clientID(client), tt.secret)

				require.Error(t, err)
				require.ErrorIs(t, err, tt.expectedErr)
			})
		}
	})

	t.Run("AuthenticateUser", func(t *testing.T) {
		t.Run("valid credentials ok", func(t *testing.T) {
			s, _, user := newService(t, Config{})

			got, err := s.AuthenticateUser(t.Context(), "resource-owner", "pwd-12345")

			require.NoError(t, err)
			require.Equal(t, user.ID, got.ID)
		})

		tests := []struct {
			name     string
			username string
			password string
		}{
			{"wrong password", "resource-owner", "pwd-12346"},
			{"unknown user", "nobody", "pwd-12345"},
			{"case sensitive username", "Resource-Owner", "pwd-12345"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				s, _, _ := newService(t, Config{})

				_, err := s.AuthenticateUser(t.Context(), tt.username, tt.password)

				require.Error(t, err)
				require.ErrorIs(t, err, apperrors.ErrUserAuthFailed, "absent user and wrong password must be indistinguishable")
			})
		}
	})

	t.Run("IssueToken", func(t *testing.T) {
		t.Run("issue then resolve", func(t *testing.T) {
			s, client, user := newService(t, Config{})
			fields := newFields(time.Hour)

			issued, err := s.IssueToken(t.Context(), fields, client, user)

			require.NoError(t, err)
			require.Equal(t, fields.AccessToken, issued.AccessToken)
			require.NotNil(t, issued.Client, "issued token must carry the full client")
			require.NotNil(t, issued.User, "issued token must carry the full user")
			require.Equal(t, client.ID, issued.Client.ID)
			require.Equal(t, user.ID, issued.User.ID)

			got, err := s.ResolveAccessToken(t.Context(), fields.AccessToken)
			require.NoError(t, err)
			require.Equal(t, issued.ID, got.ID)
			require.Equal(t, user.ID, got.User.ID, "resolved access token must attach the owning user")
		})

		t.Run("collision without generator surfaces", func(t *testing.T) {
			s, client, user := newService(t, Config{})
			fields := newFields(time.Hour)
			_, err := s.IssueToken(t.Context(), fields, client, user)
			require.NoError(t, err)

			_, err = s.IssueToken(t.Context(), fields, client, user)

			require.Error(t, err)
			require.ErrorIs(t, err, apperrors.ErrTokenExists)
		})

		t.Run("collision retried once with generator", func(t *testing.T) {
			gen, err := tokengen.New(tokengen.Config{SecretKey: "test-secret-key"})
			require.NoError(t, err)
			s, client, user := newService(t, Config{Generator: gen})

			fields := newFields(time.Hour)
			_, err = s.IssueToken(t.Context(), fields, client, user)
			require.NoError(t, err)

			// Same fields again: the save collides and fresh fields are minted
			got, err := s.IssueToken(t.Context(), fields, client, user)

			require.NoError(t, err, "one collision must be absorbed by regeneration")
			require.NotEqual(t, fields.AccessToken, got.AccessToken)
			require.NotEqual(t, fields.RefreshToken, got.RefreshToken)
		})
	})

	t.Run("ResolveAccessToken", func(t *testing.T) {
		t.Run("unknown token", func(t *testing.T) {
			s, _, _ := newService(t, Config{})

			_, err := s.ResolveAccessToken(t.Context(), "no-such-token")

			require.Error(t, err)
			require.ErrorIs(t, err, apperrors.ErrTokenNotFound)
		})

		t.Run("expired token still resolves", func(t *testing.T) {
			// Expiry evaluation belongs to the caller, the lookup must succeed
			s, client, user := newService(t, Config{})
			fields := newFields(-time.Hour)
			_, err := s.IssueToken(t.Context(), fields, client, user)
			require.NoError(t, err)

			got, err := s.ResolveAccessToken(t.Context(), fields.AccessToken)

			require.NoError(t, err)
			require.True(t, got.AccessExpiresAt.Before(time.Now()))
		})
	})

	t.Run("ResolveRefreshToken populates client", func(t *testing.T) {
		s, client, user := newService(t, Config{})
		fields := newFields(time.Hour)
		_, err := s.IssueToken(t.Context(), fields, client, user)
		require.NoError(t, err)

		got, err := s.ResolveRefreshToken(t.Context(), fields.RefreshToken)

		require.NoError(t, err)
		require.NotNil(t, got.Client)
		require.Equal(t, client.ID, got.Client.ID)
	})

	t.Run("RevokeToken", func(t *testing.T) {
		t.Run("stamps fixed past expiry", func(t *testing.T) {
			s, client, user := newService(t, Config{})
			fields := newFields(time.Hour)
			_, err := s.IssueToken(t.Context(), fields, client, user)
			require.NoError(t, err)

			got, err := s.RevokeToken(t.Context(), fields.RefreshToken)

			require.NoError(t, err)
			require.True(t, got.RefreshExpiresAt.Equal(wantRevokedStamp), "revoked expiry must be the fixed past stamp")
			require.NotNil(t, got.RevokedAt)

			// The record survives, only its validity window closed
			found, err := s.ResolveRefreshToken(t.Context(), fields.RefreshToken)
			require.NoError(t, err, "revoked token must still resolve")
			require.True(t, found.RefreshExpiresAt.Before(time.Now()), "caller side expiry check must treat it as invalid")
		})

		t.Run("idempotent", func(t *testing.T) {
			s, client, user := newService(t, Config{})
			fields := newFields(time.Hour)
			_, err := s.IssueToken(t.Context(), fields, client, user)
			require.NoError(t, err)

			first, err := s.RevokeToken(t.Context(), fields.RefreshToken)
			require.NoError(t, err)

			second, err := s.RevokeToken(t.Context(), fields.RefreshToken)
			require.NoError(t, err)

			assert.True(t, first.RefreshExpiresAt.Equal(second.RefreshExpiresAt))
			assert.Equal(t, *first.RevokedAt, *second.RevokedAt, "first revocation time must be kept")
		})

		t.Run("unknown token is no-op success", func(t *testing.T) {
			s, _, _ := newService(t, Config{})

			got, err := s.RevokeToken(t.Context(), "no-such-token")

			require.NoError(t, err, "retried revocations must converge to success")
			require.Nil(t, got.RevokedAt)
			require.Equal(t, uuid.Nil, got.ID)
		})
	})
}
