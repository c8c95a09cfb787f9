package auth

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/posthub/posthub/internal/model"
	"github.com/posthub/posthub/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocal(t *testing.T) (*Local, *session.Store) {
	t.Helper()
	store, err := session.Open(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, err)
	return NewLocal(store), store
}

func TestLocalSeedsOnFirstUse(t *testing.T) {
	l, store := newTestLocal(t)

	sess, err := l.Login(context.Background(), "admin", "admin123")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, sess.User.Role)

	users := store.Users()
	require.Len(t, users, 2)
	assert.Equal(t, "admin", users[0].Username)
	assert.Equal(t, "demo", users[1].Username)
}

func TestLocalRegisterAssignsNextID(t *testing.T) {
	l, store := newTestLocal(t)

	sess, err := l.Register(context.Background(), Registration{
		Username: "carol",
		Email:    "carol@example.com",
		Password: "pw",
		Name:     "Carol",
	})
	require.NoError(t, err)

	// Seed holds ids 1 and 2.
	assert.Equal(t, int64(3), sess.User.ID)
	assert.Equal(t, model.RoleUser, sess.User.Role)
	assert.NotEmpty(t, sess.Token)

	assert.Equal(t, sess.Token, store.Token())
	current := store.CurrentUser()
	require.NotNil(t, current)
	assert.Equal(t, "carol", current.Username)
}

func TestLocalRegisterDuplicateUsernameCaseInsensitive(t *testing.T) {
	l, store := newTestLocal(t)

	_, err := l.Register(context.Background(), Registration{Username: "ADMIN", Password: "x"})
	assert.ErrorIs(t, err, model.ErrDuplicateIdentity)

	// The user list and session must be untouched after a rejected
	// registration.
	assert.Len(t, store.Users(), 2)
	assert.Equal(t, "", store.Token())
	assert.Nil(t, store.CurrentUser())
}

func TestLocalRegisterDuplicateEmailCaseInsensitive(t *testing.T) {
	l, _ := newTestLocal(t)

	_, err := l.Register(context.Background(), Registration{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "pw",
	})
	require.NoError(t, err)

	_, err = l.Register(context.Background(), Registration{
		Username: "alice2",
		Email:    "ALICE@EXAMPLE.COM",
		Password: "pw",
	})
	assert.ErrorIs(t, err, model.ErrDuplicateIdentity)
}

func TestLocalLoginByEmail(t *testing.T) {
	l, _ := newTestLocal(t)

	_, err := l.Register(context.Background(), Registration{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "secret",
	})
	require.NoError(t, err)
	require.NoError(t, l.Logout(context.Background()))

	sess, err := l.Login(context.Background(), "Alice@Example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "alice", sess.User.Username)
}

func TestLocalLoginWrongPasswordLeavesStoreUntouched(t *testing.T) {
	l, store := newTestLocal(t)

	_, err := l.Login(context.Background(), "admin", "ADMIN123")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)
	assert.Equal(t, "", store.Token())
	assert.Nil(t, store.CurrentUser())
}

func TestLocalLoginUnknownUser(t *testing.T) {
	l, _ := newTestLocal(t)

	_, err := l.Login(context.Background(), "nobody", "pw")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)
}

func TestLocalLogoutKeepsUserList(t *testing.T) {
	l, store := newTestLocal(t)

	_, err := l.Register(context.Background(), Registration{Username: "bob", Password: "pw"})
	require.NoError(t, err)

	require.NoError(t, l.Logout(context.Background()))

	assert.Equal(t, "", store.Token())
	assert.Nil(t, l.CurrentUser())
	assert.Len(t, store.Users(), 3)

	// Re-login works against the persisted list.
	sess, err := l.Login(context.Background(), "bob", "pw")
	require.NoError(t, err)
	assert.Equal(t, "bob", sess.User.Username)
}

func TestLocalTokensAreUnique(t *testing.T) {
	l, _ := newTestLocal(t)

	first, err := l.Login(context.Background(), "demo", "demo123")
	require.NoError(t, err)
	second, err := l.Login(context.Background(), "demo", "demo123")
	require.NoError(t, err)

	assert.NotEqual(t, first.Token, second.Token)
}
