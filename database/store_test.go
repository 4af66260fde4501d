package database_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"stocksim/database"
	"stocksim/database/dbtest"
	"stocksim/models"
)

func newUser(t *testing.T, store *database.Store, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, PasswordHash: "hash", Cash: decimal.NewFromInt(10000)}
	require.NoError(t, store.CreateUser(context.Background(), user))
	return user
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	store := dbtest.Store(t)
	ctx := context.Background()

	newUser(t, store, "alice")

	err := store.CreateUser(ctx, &models.User{Username: "alice", PasswordHash: "x", Cash: decimal.Zero})
	require.Error(t, err)
	assert.ErrorIs(t, err, database.ErrDuplicate)

	// usernames are case-sensitive
	require.NoError(t, store.CreateUser(ctx, &models.User{Username: "Alice", PasswordHash: "x", Cash: decimal.Zero}))
}

func TestUserLookups(t *testing.T) {
	store := dbtest.Store(t)
	ctx := context.Background()
	user := newUser(t, store, "bob")

	byName, err := store.UserByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)
	assert.True(t, decimal.NewFromInt(10000).Equal(byName.Cash))

	byID, err := store.UserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", byID.Username)

	_, err = store.UserByUsername(ctx, "BOB")
	assert.ErrorIs(t, err, database.ErrNotFound)

	_, err = store.UserByID(ctx, user.ID+100)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestHoldings_AggregatesPerSymbol(t *testing.T) {
	store := dbtest.Store(t)
	ctx := context.Background()
	user := newUser(t, store, "carol")
	other := newUser(t, store, "dave")

	rows := []models.Transaction{
		{UserID: user.ID, Symbol: "NFLX", Shares: 10, Price: decimal.NewFromInt(50)},
		{UserID: user.ID, Symbol: "AAPL", Shares: 5, Price: decimal.NewFromInt(100)},
		{UserID: user.ID, Symbol: "NFLX", Shares: -4, Price: decimal.NewFromInt(60)},
		{UserID: user.ID, Symbol: "IBM", Shares: 3, Price: decimal.NewFromInt(20)},
		{UserID: user.ID, Symbol: "IBM", Shares: -3, Price: decimal.NewFromInt(25)},
		{UserID: other.ID, Symbol: "AAPL", Shares: 7, Price: decimal.NewFromInt(100)},
	}
	for i := range rows {
		require.NoError(t, store.AppendTransaction(ctx, &rows[i]))
	}

	holdings, err := store.Holdings(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.Holding{
		{Symbol: "AAPL", Shares: 5},
		{Symbol: "NFLX", Shares: 6},
	}, holdings, "fully sold symbols are dropped, other users are ignored")

	shares, err := store.HoldingShares(ctx, user.ID, "NFLX")
	require.NoError(t, err)
	assert.Equal(t, int64(6), shares)

	shares, err = store.HoldingShares(ctx, user.ID, "TSLA")
	require.NoError(t, err)
	assert.Zero(t, shares)
}

func TestTransactions_OldestFirst(t *testing.T) {
	store := dbtest.Store(t)
	ctx := context.Background()
	user := newUser(t, store, "erin")

	for _, shares := range []int64{3, -1, 2} {
		require.NoError(t, store.AppendTransaction(ctx, &models.Transaction{
			UserID: user.ID, Symbol: "MSFT", Shares: shares, Price: decimal.RequireFromString("12.34"),
		}))
	}

	txs, err := store.Transactions(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, []int64{3, -1, 2}, []int64{txs[0].Shares, txs[1].Shares, txs[2].Shares})
	assert.Equal(t, "12.34", txs[0].Price.String())
	assert.False(t, txs[0].Transacted.IsZero())
}

func TestWithTx_RollsBackCashAndLedgerTogether(t *testing.T) {
	store := dbtest.Store(t)
	ctx := context.Background()
	user := newUser(t, store, "frank")
	boom := errors.New("boom")

	err := store.WithTx(ctx, func(tx *database.Store) error {
		locked, err := tx.LockUser(ctx, user.ID)
		require.NoError(t, err)
		require.NoError(t, tx.SetCash(ctx, user.ID, locked.Cash.Sub(decimal.NewFromInt(500))))
		require.NoError(t, tx.AppendTransaction(ctx, &models.Transaction{
			UserID: user.ID, Symbol: "AAPL", Shares: 5, Price: decimal.NewFromInt(100),
		}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	reloaded, err := store.UserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(10000).Equal(reloaded.Cash))

	txs, err := store.Transactions(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestWithTransaction_RecoversPanic(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()

	err := database.WithTransaction(ctx, db, func(tx *gorm.DB) error {
		require.NoError(t, tx.Create(&models.User{Username: "gina", PasswordHash: "h", Cash: decimal.Zero}).Error)
		panic("panic occurred")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic")

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSetCash_UnknownUser(t *testing.T) {
	store := dbtest.Store(t)
	err := store.SetCash(context.Background(), 42, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestPing(t *testing.T) {
	store := dbtest.Store(t)
	assert.NoError(t, store.Ping(context.Background()))
}
