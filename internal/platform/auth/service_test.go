package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAccounts struct {
	accounts map[string]Account
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{accounts: make(map[string]Account)}
}

func (f *fakeAccounts) Get(_ context.Context, username string) (*Account, error) {
	a, ok := f.accounts[username]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (f *fakeAccounts) Create(_ context.Context, a Account) error {
	if _, ok := f.accounts[a.Username]; ok {
		return ErrAlreadyExists
	}
	f.accounts[a.Username] = a
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeAccounts) {
	t.Helper()
	store := newFakeAccounts()
	return NewServiceWithStore(store, []byte("test-secret"), time.Hour), store
}

func TestRegisterAndLogin(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "ana", "hunter2", ""))
	assert.Equal(t, "staff", store.accounts["ana"].Role)
	assert.NotEqual(t, "hunter2", store.accounts["ana"].PasswordHash)

	token, err := svc.Login(ctx, "ana", "hunter2")
	require.NoError(t, err)

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return []byte("test-secret"), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, "ana", claims["sub"])
	assert.Equal(t, "staff", claims["role"])
	assert.NotEmpty(t, claims["jti"])
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "ana", "hunter2", "admin"))

	_, err := svc.Login(ctx, "ana", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownUser(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Login(context.Background(), "ghost", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterDuplicate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "ana", "hunter2", ""))
	assert.ErrorIs(t, svc.Register(ctx, "ana", "other", ""), ErrAlreadyExists)
}
