package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/markdave123-py/docchat/internal/core/auth"
)

func newUserService(t *testing.T) (*UserService, *auth.Tokens) {
	t.Helper()
	tokens := auth.NewTokens("test-secret")
	svc := NewUserService(newFakeDB(), tokens)
	svc.cost = bcrypt.MinCost
	return svc, tokens
}

func TestRegisterAndLogin(t *testing.T) {
	svc, tokens := newUserService(t)
	ctx := context.Background()

	tok, err := svc.Register(ctx, Credentials{Email: " Alice@Example.com ", Password: "secret1"})
	require.NoError(t, err)
	id, err := tokens.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id.UserID)

	tok, err = svc.Login(ctx, Credentials{Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)
	id, err = tokens.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id.UserID)
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, Credentials{Email: "alice@example.com", Password: "12345"})
	assert.ErrorIs(t, err, ErrWeakPassword)

	_, err = svc.Register(ctx, Credentials{Email: "not-an-email", Password: "123456"})
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = svc.Register(ctx, Credentials{Password: "123456"})
	assert.ErrorIs(t, err, ErrInvalidEmail)
}

func TestRegister_Duplicate(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, Credentials{Email: "alice@example.com", Password: "123456"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, Credentials{Email: "ALICE@example.com", Password: "654321"})
	assert.ErrorIs(t, err, ErrRegistrationFailed)
}

func TestLogin_Rejects(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, Credentials{Email: "alice@example.com", Password: "123456"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, Credentials{Email: "alice@example.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, Credentials{Email: "bob@example.com", Password: "123456"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
