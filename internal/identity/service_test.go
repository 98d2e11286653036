package identity

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizflow/bizflow/internal/kvstore"
	"github.com/bizflow/bizflow/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t *testing.T) (*Service, *kvstore.MemoryStore) {
	store := kvstore.NewMemoryStore()
	svc, err := NewService(store, testLogger())
	require.NoError(t, err)
	return svc, store
}

func storedAccounts(t *testing.T, store kvstore.Store) []models.Account {
	raw, ok, err := store.Get(kvstore.AccountsKey)
	require.NoError(t, err)
	if !ok {
		return nil
	}
	var accounts []models.Account
	require.NoError(t, json.Unmarshal([]byte(raw), &accounts))
	return accounts
}

func TestSignupCreatesAccountAndSession(t *testing.T) {
	svc, store := newTestService(t)

	user, err := svc.Signup("Alice", "alice@example.com", "secret", "", "")
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.Equal(t, models.SubscriptionFree, user.Subscription)

	accounts := storedAccounts(t, store)
	require.Len(t, accounts, 1)
	assert.Equal(t, user.ID, accounts[0].ID)
	assert.NotEqual(t, "secret", accounts[0].PasswordHash)

	raw, ok, err := store.Get(kvstore.SessionKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotContains(t, raw, "password")
	assert.False(t, strings.Contains(raw, "secret"))

	current := svc.CurrentUser()
	require.NotNil(t, current)
	assert.Equal(t, user.ID, current.ID)
}

func TestSignupDuplicateEmail(t *testing.T) {
	svc, store := newTestService(t)

	_, err := svc.Signup("Alice", "alice@example.com", "secret", "", "")
	require.NoError(t, err)

	_, err = svc.Signup("Mallory", "alice@example.com", "other", "", "")
	require.ErrorIs(t, err, ErrEmailTaken)

	require.Len(t, storedAccounts(t, store), 1)
}

func TestLoginSuccess(t *testing.T) {
	svc, store := newTestService(t)

	created, err := svc.Signup("Alice", "alice@example.com", "secret", "", "")
	require.NoError(t, err)
	require.NoError(t, svc.Logout())

	user, err := svc.Login("alice@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
	assert.Equal(t, created.Name, user.Name)
	assert.Equal(t, created.Email, user.Email)
	assert.Equal(t, created.Role, user.Role)
	assert.Equal(t, created.Subscription, user.Subscription)
	assert.GreaterOrEqual(t, user.LastActive, created.LastActive)

	accounts := storedAccounts(t, store)
	require.Len(t, accounts, 1)
	assert.Equal(t, user.LastActive, accounts[0].LastActive)
}

func TestLoginFailureHasNoSideEffects(t *testing.T) {
	svc, store := newTestService(t)

	_, err := svc.Signup("Alice", "alice@example.com", "secret", "", "")
	require.NoError(t, err)
	require.NoError(t, svc.Logout())

	before := storedAccounts(t, store)

	_, err = svc.Login("alice@example.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login("nobody@example.com", "secret")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	assert.Equal(t, before, storedAccounts(t, store))
	assert.Nil(t, svc.CurrentUser())

	_, ok, err := store.Get(kvstore.SessionKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

// faultyStore rejects writes to one key, everything else passes through.
type faultyStore struct {
	kvstore.Store
	failKey string
}

var errStorageDown = errors.New("storage down")

func (f *faultyStore) Set(key, value string) error {
	if key == f.failKey {
		return errStorageDown
	}
	return f.Store.Set(key, value)
}

func TestLoginSessionWriteFailureRestoresRegistry(t *testing.T) {
	store := kvstore.NewMemoryStore()
	svc, err := NewService(store, testLogger())
	require.NoError(t, err)

	_, err = svc.Signup("Alice", "alice@example.com", "secret", "", "")
	require.NoError(t, err)
	require.NoError(t, svc.Logout())
	before := storedAccounts(t, store)

	broken, err := NewService(&faultyStore{Store: store, failKey: kvstore.SessionKey}, testLogger())
	require.NoError(t, err)

	_, err = broken.Login("alice@example.com", "secret")
	require.ErrorIs(t, err, errStorageDown)

	// no session and no stray last-active bump in the registry
	assert.Nil(t, broken.CurrentUser())
	assert.Equal(t, before, storedAccounts(t, store))
	_, ok, err := store.Get(kvstore.SessionKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLogoutClearsSession(t *testing.T) {
	svc, store := newTestService(t)

	_, err := svc.Signup("Alice", "alice@example.com", "secret", "", "")
	require.NoError(t, err)
	require.NoError(t, svc.Logout())

	assert.Nil(t, svc.CurrentUser())
	_, ok, err := store.Get(kvstore.SessionKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionHydration(t *testing.T) {
	svc, store := newTestService(t)

	user, err := svc.Signup("Alice", "alice@example.com", "secret", "", "")
	require.NoError(t, err)

	restored, err := NewService(store, testLogger())
	require.NoError(t, err)
	current := restored.CurrentUser()
	require.NotNil(t, current)
	assert.Equal(t, user.ID, current.ID)
	assert.Equal(t, user.Email, current.Email)
}

func TestSubscribersAreNotified(t *testing.T) {
	svc, _ := newTestService(t)

	var seen []*models.User
	svc.Subscribe(func(u *models.User) { seen = append(seen, u) })

	user, err := svc.Signup("Alice", "alice@example.com", "secret", "", "")
	require.NoError(t, err)
	require.NoError(t, svc.Logout())
	_, err = svc.Login("alice@example.com", "secret")
	require.NoError(t, err)

	require.Len(t, seen, 3)
	require.NotNil(t, seen[0])
	assert.Equal(t, user.ID, seen[0].ID)
	assert.Nil(t, seen[1])
	require.NotNil(t, seen[2])
	assert.Equal(t, user.ID, seen[2].ID)
}

func TestAccountsAreCredentialStripped(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Signup("Alice", "alice@example.com", "secret", "", "")
	require.NoError(t, err)
	_, err = svc.Signup("Root", "root@example.com", "hunter2", models.RoleAdmin, models.SubscriptionPro)
	require.NoError(t, err)

	users, err := svc.Accounts()
	require.NoError(t, err)
	require.Len(t, users, 2)

	data, err := json.Marshal(users)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "password")
}
