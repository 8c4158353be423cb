package services

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dmitrijs2005/peeksync/internal/common"
	"github.com/dmitrijs2005/peeksync/internal/cryptox"
	"github.com/dmitrijs2005/peeksync/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	db, m, err := repomanager.Open(context.Background(), filepath.Join(t.TempDir(), "system.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s := NewAuthService(db, m, "server-secret")
	s.now = func() int64 { return 1_700_000_000_000 }
	return s
}

func TestAuthService_CreateUserAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	s := newAuthService(t)

	u, key, err := s.CreateUser(ctx, "  alice ")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Name)
	assert.True(t, strings.HasPrefix(key, cryptox.APIKeyPrefix))

	id, err := s.Authenticate(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)

	profiles, err := s.ListProfiles(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.True(t, profiles[0].IsDefault)
	assert.Equal(t, "default", profiles[0].Slug)

	_, _, err = s.CreateUser(ctx, "alice")
	require.ErrorIs(t, err, common.ErrorAlreadyExists)

	_, _, err = s.CreateUser(ctx, " ")
	require.ErrorIs(t, err, common.ErrorValidation)
}

func TestAuthService_Authenticate_Rejects(t *testing.T) {
	ctx := context.Background()
	s := newAuthService(t)
	_, key, err := s.CreateUser(ctx, "bob")
	require.NoError(t, err)

	_, err = s.Authenticate(ctx, "")
	require.ErrorIs(t, err, common.ErrorUnauthorized)

	_, err = s.Authenticate(ctx, key+"x")
	require.ErrorIs(t, err, common.ErrorUnauthorized)

	other := NewAuthService(s.db, s.repomanager, "different-secret")
	_, err = other.Authenticate(ctx, key)
	require.ErrorIs(t, err, common.ErrorUnauthorized, "hashes depend on the server secret")
}

func TestAuthService_IssueAPIKey(t *testing.T) {
	ctx := context.Background()
	s := newAuthService(t)
	u, first, err := s.CreateUser(ctx, "carol")
	require.NoError(t, err)

	second, err := s.IssueAPIKey(ctx, u.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	for _, k := range []string{first, second} {
		id, err := s.Authenticate(ctx, k)
		require.NoError(t, err)
		assert.Equal(t, u.ID, id)
	}

	_, err = s.IssueAPIKey(ctx, "ghost")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestAuthService_AddProfile(t *testing.T) {
	ctx := context.Background()
	s := newAuthService(t)
	u, _, err := s.CreateUser(ctx, "dave")
	require.NoError(t, err)

	p, err := s.AddProfile(ctx, u.ID, "Reading List")
	require.NoError(t, err)
	assert.Equal(t, "reading-list", p.Slug)
	assert.Equal(t, "Reading List", p.Name)
	assert.False(t, p.IsDefault)

	_, err = s.AddProfile(ctx, u.ID, "reading list")
	require.ErrorIs(t, err, common.ErrorAlreadyExists)

	_, err = s.AddProfile(ctx, u.ID, "!!!")
	require.ErrorIs(t, err, common.ErrorValidation)

	_, err = s.AddProfile(ctx, "ghost", "Work")
	require.ErrorIs(t, err, common.ErrorNotFound)

	list, err := s.ListProfiles(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "default", list[0].Slug)
}
