package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/immxrtalbeast/collabdocs/internal/repository"
)

func newUserService() *UserService {
	return NewUserService(repository.NewInMemoryUserRepository(), nil, "test-secret", time.Hour)
}

func TestRegisterAndLogin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newUserService()

	user, token, err := svc.Register(ctx, "alice", "s3cret")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, "alice", user.Name)
	assert.NotEqual(t, "s3cret", user.PasswordHash)

	sameUser, _, err := svc.Login(ctx, "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, sameUser.ID)

	_, _, err = svc.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegister_ExistingNameLogsIn(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newUserService()

	first, _, err := svc.Register(ctx, "bob", "pw")
	require.NoError(t, err)

	// Registering the same name again behaves as a login for that account.
	second, token, err := svc.Register(ctx, "bob", "anything")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, first.ID, second.ID)
}

func TestParseToken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newUserService()

	user, token, err := svc.Register(ctx, "carol", "pw")
	require.NoError(t, err)

	userID, name, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
	assert.Equal(t, "carol", name)

	_, _, err = svc.ParseToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	other := NewUserService(repository.NewInMemoryUserRepository(), nil, "other-secret", time.Hour)
	_, _, err = other.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestParseToken_Expired(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := NewUserService(repository.NewInMemoryUserRepository(), nil, "test-secret", -time.Minute)

	// NewUserService clamps non-positive TTLs, so craft one directly.
	svc.tokenTTL = -time.Minute
	_, token, err := svc.Register(ctx, "dave", "pw")
	require.NoError(t, err)

	_, _, err = svc.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
