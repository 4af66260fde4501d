package accounts

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"stocksim/database/dbtest"
)

func newService(t *testing.T) *Service {
	t.Helper()
	s := NewService(dbtest.Store(t), decimal.NewFromInt(10000), zerolog.Nop())
	s.cost = bcrypt.MinCost
	return s
}

func TestRegister_CreatesAccountWithStartingCash(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	user, err := s.Register(ctx, Registration{Username: "alice", Password: "pw", Confirmation: "pw"})
	require.NoError(t, err)

	assert.NotZero(t, user.ID)
	assert.True(t, decimal.NewFromInt(10000).Equal(user.Cash))
	assert.NotEqual(t, "pw", user.PasswordHash)

	txs, err := s.store.Transactions(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestRegister_Validation(t *testing.T) {
	testCases := []struct {
		name string
		reg  Registration
		err  error
	}{
		{"missing username", Registration{Password: "pw", Confirmation: "pw"}, ErrMissingUsername},
		{"missing password", Registration{Username: "a", Confirmation: "pw"}, ErrMissingPassword},
		{"missing confirmation", Registration{Username: "a", Password: "pw"}, ErrMissingConfirmation},
		{"mismatch", Registration{Username: "a", Password: "pw", Confirmation: "wp"}, ErrPasswordMismatch},
	}

	s := newService(t)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Register(context.Background(), tc.reg)
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestRegister_DuplicateUsernameRejected(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	_, err := s.Register(ctx, Registration{Username: "bob", Password: "a", Confirmation: "a"})
	require.NoError(t, err)

	_, err = s.Register(ctx, Registration{Username: "bob", Password: "b", Confirmation: "b"})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	// a different case is a different username
	_, err = s.Register(ctx, Registration{Username: "Bob", Password: "b", Confirmation: "b"})
	assert.NoError(t, err)
}

func TestAuthenticate(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	registered, err := s.Register(ctx, Registration{Username: "carol", Password: "secret", Confirmation: "secret"})
	require.NoError(t, err)

	user, err := s.Authenticate(ctx, "carol", "secret")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	_, wrongPassword := s.Authenticate(ctx, "carol", "guess")
	_, unknownUser := s.Authenticate(ctx, "nobody", "secret")
	require.Error(t, wrongPassword)
	require.Error(t, unknownUser)
	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())

	_, err = s.Authenticate(ctx, "", "secret")
	assert.ErrorIs(t, err, ErrMissingUsername)
	_, err = s.Authenticate(ctx, "carol", "")
	assert.ErrorIs(t, err, ErrMissingPassword)
}
