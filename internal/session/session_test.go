package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxbase-eu/identityswitcher/internal/directory"
)

const testSecret = "test-secret-key-at-least-32-chars-long"

func newTestService(repo Repository) *Service {
	return NewService(repo, testSecret, time.Hour)
}

func TestSignIn_CreatesSessionAndToken(t *testing.T) {
	ctx := context.Background()
	repo := NewMockRepository()
	svc := newTestService(repo)

	user := &directory.User{ID: 42, TenantID: 1, Username: "bob"}
	sess, token, err := svc.SignIn(ctx, 1, user, "203.0.113.7", false)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.NotEmpty(t, token)
	assert.Equal(t, 42, sess.UserID)
	assert.Equal(t, 1, sess.TenantID)
	assert.Equal(t, "203.0.113.7", sess.IPAddress)
	assert.Equal(t, 1, repo.Count())

	claims, err := svc.Verify(ctx, token)
	require.NoError(t, err)
	uid, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, 42, uid)
	assert.Equal(t, 1, claims.TenantID)
	assert.False(t, claims.Admin)
}

func TestSignOut_InvalidatesToken(t *testing.T) {
	ctx := context.Background()
	repo := NewMockRepository()
	svc := newTestService(repo)

	sess, token, err := svc.SignIn(ctx, 1, &directory.User{ID: 7, Username: "alice"}, "127.0.0.1", true)
	require.NoError(t, err)

	require.NoError(t, svc.SignOut(ctx, sess.ID))
	assert.Equal(t, 0, repo.Count())

	// Token still has a valid signature but the backing session is gone.
	_, err = svc.Verify(ctx, token)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSignOut_UnknownSessionIsNoop(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(NewMockRepository())

	assert.NoError(t, svc.SignOut(ctx, uuid.New()))
}

func TestVerify_RejectsBadTokens(t *testing.T) {
	ctx := context.Background()
	repo := NewMockRepository()
	svc := newTestService(repo)

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.Verify(ctx, "not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewService(repo, "another-secret-also-32-characters!!", time.Hour)
		_, token, err := other.SignIn(ctx, 1, &directory.User{ID: 1, Username: "x"}, "", false)
		require.NoError(t, err)

		_, err = svc.Verify(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired session row", func(t *testing.T) {
		short := NewService(repo, testSecret, -time.Minute)
		_, token, err := short.SignIn(ctx, 1, &directory.User{ID: 2, Username: "y"}, "", false)
		require.NoError(t, err)

		_, err = svc.Verify(ctx, token)
		assert.Error(t, err)
	})
}

func TestClaims_AdminFlagRoundTrips(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(NewMockRepository())

	_, token, err := svc.SignIn(ctx, 3, &directory.User{ID: 9, Username: "root", IsHost: true}, "10.0.0.1", true)
	require.NoError(t, err)

	claims, err := svc.Verify(ctx, token)
	require.NoError(t, err)
	assert.True(t, claims.Admin)
	assert.Equal(t, 3, claims.TenantID)
}
