// file: service/auth_service_test.go

package service

import (
	"context"
	"testing"
	"time"

	"go-bank-ledger/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAuthService_HashAndCheckPassword ensures that password hashing and verification methods work correctly.
func TestAuthService_HashAndCheckPassword(t *testing.T) {
	f := newFixture(t)
	password := "mySecretPassword123"

	hashedPassword, err := f.auth.HashPassword(password)
	require.NoError(t, err)
	assert.NotEqual(t, password, hashedPassword)

	assert.True(t, f.auth.CheckPasswordHash(password, hashedPassword))
	assert.False(t, f.auth.CheckPasswordHash("notMyPassword", hashedPassword))
}

func TestAuthService_LoginAndRefresh(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user, _, err := f.users.Register(ctx, model.RegisterRequest{Username: "carol", Email: "carol@example.com", Password: "password123"})
	require.NoError(t, err)

	t.Run("wrong password", func(t *testing.T) {
		_, err := f.auth.Login(ctx, "carol", "nope")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := f.auth.Login(ctx, "dave", "password123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	pair, err := f.auth.Login(ctx, "carol", "password123")
	require.NoError(t, err)

	claims, err := f.auth.ParseToken(pair.Access, model.TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "carol", claims.Username)

	t.Run("token types are not interchangeable", func(t *testing.T) {
		_, err := f.auth.ParseToken(pair.Refresh, model.TokenTypeAccess)
		assert.ErrorIs(t, err, ErrInvalidToken)

		_, err = f.auth.Refresh(ctx, pair.Access)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("refresh issues a new access token", func(t *testing.T) {
		access, err := f.auth.Refresh(ctx, pair.Refresh)
		require.NoError(t, err)

		claims, err := f.auth.ParseToken(access.Access, model.TokenTypeAccess)
		require.NoError(t, err)
		assert.Equal(t, user.ID, claims.UserID)
	})

	t.Run("expired token", func(t *testing.T) {
		f.auth.now = func() time.Time { return time.Now().Add(time.Hour) }
		defer func() { f.auth.now = time.Now }()

		_, err := f.auth.ParseToken(pair.Access, model.TokenTypeAccess)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("tampered token", func(t *testing.T) {
		_, err := f.auth.ParseToken(pair.Access+"x", model.TokenTypeAccess)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
