package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndGetUser(t *testing.T) {
	t.Parallel()

	s := newStore(t)

	created, err := s.CreateUser("ann@x.com", "Ann Lee", "hash", RoleUser)
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Ann Lee", created.FullName)

	got, err := s.GetUserByEmail("ann@x.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "hash", got.PasswordHash)
	assert.Equal(t, RoleUser, got.Role)
}

func TestGetUserByEmail_CaseInsensitive(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	_, err := s.CreateUser("ann@x.com", "Ann Lee", "hash", RoleUser)
	require.NoError(t, err)

	got, err := s.GetUserByEmail("ANN@X.com")
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestGetUserByEmail_NotFound(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	got, err := s.GetUserByEmail("missing@x.com")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	_, err := s.CreateUser("ann@x.com", "Ann Lee", "hash", RoleUser)
	require.NoError(t, err)

	// The unique constraint is the enforcement point, including for a
	// different-case duplicate that skipped any pre-check.
	_, err = s.CreateUser("Ann@X.com", "Ann Again", "hash2", RoleUser)
	require.ErrorIs(t, err, ErrEmailTaken)

	n, err := s.CountUsersByEmail("ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
