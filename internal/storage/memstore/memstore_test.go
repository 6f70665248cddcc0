package memstore

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/kart-store/internal/domain/account"
	"github.com/xenking/kart-store/internal/domain/item"
	"github.com/xenking/kart-store/internal/domain/order"
	"github.com/xenking/kart-store/internal/domain/store"
)

func seedItem(t *testing.T, s *Store, id string, stock int) {
	t.Helper()
	require.NoError(t, s.Items().Save(context.Background(), &item.Item{
		ID: id, Name: id, Price: decimal.NewFromInt(1), InStock: stock,
	}))
}

func seedAccount(t *testing.T, s *Store, userID string) {
	t.Helper()
	require.NoError(t, s.Accounts().Create(context.Background(), &account.Account{
		UserID:  userID,
		Account: userID + "-login",
		Credit:  decimal.NewFromInt(100),
		Cart:    []account.CartLine{},
	}))
}

func TestItemRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.Items().GetByID(ctx, "apple")
	assert.ErrorIs(t, err, item.ErrNotFound)

	seedItem(t, s, "apple", 5)

	it, err := s.Items().GetByID(ctx, "apple")
	require.NoError(t, err)
	assert.Equal(t, 5, it.InStock)

	require.NoError(t, s.Items().Delete(ctx, "apple"))
	assert.ErrorIs(t, s.Items().Delete(ctx, "apple"), item.ErrNotFound)
}

func TestAccountLoginIndex(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedAccount(t, s, "u1")

	acc, err := s.Accounts().GetByLogin(ctx, "u1-login")
	require.NoError(t, err)
	assert.Equal(t, "u1", acc.UserID)

	err = s.Accounts().Create(ctx, &account.Account{UserID: "u2", Account: "u1-login"})
	assert.ErrorIs(t, err, account.ErrDuplicateAccount)
}

func TestGetReturnsCopy(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedAccount(t, s, "u1")

	acc, err := s.Accounts().GetByID(ctx, "u1")
	require.NoError(t, err)
	acc.Cart = append(acc.Cart, account.CartLine{ItemID: "apple", Amount: 1})

	// Mutating the returned value must not leak into the store.
	again, err := s.Accounts().GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, again.Cart)
}

func TestDeleteAccountCascadesOrders(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedAccount(t, s, "u1")
	require.NoError(t, s.Orders().Create(ctx, &order.Order{ID: "o1", UserID: "u1"}))

	require.NoError(t, s.Accounts().Delete(ctx, "u1"))

	orders, err := s.Orders().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestTxReadOwnWrites(t *testing.T) {
	s := New()
	seedItem(t, s, "apple", 5)

	err := s.ExecSerializable(context.Background(), func(tx store.Tx) error {
		it, err := tx.Items().GetByID(context.Background(), "apple")
		require.NoError(t, err)

		it.InStock = 3
		require.NoError(t, tx.Items().Save(context.Background(), it))

		again, err := tx.Items().GetByID(context.Background(), "apple")
		require.NoError(t, err)
		assert.Equal(t, 3, again.InStock)
		return nil
	})
	require.NoError(t, err)

	it, err := s.Items().GetByID(context.Background(), "apple")
	require.NoError(t, err)
	assert.Equal(t, 3, it.InStock)
}

func TestTxErrorDiscardsWrites(t *testing.T) {
	s := New()
	seedItem(t, s, "apple", 5)

	boom := assert.AnError
	err := s.ExecSerializable(context.Background(), func(tx store.Tx) error {
		it, err := tx.Items().GetByID(context.Background(), "apple")
		require.NoError(t, err)
		it.InStock = 0
		require.NoError(t, tx.Items().Save(context.Background(), it))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	it, err := s.Items().GetByID(context.Background(), "apple")
	require.NoError(t, err)
	assert.Equal(t, 5, it.InStock)
}

func TestTxConflictOnChangedItem(t *testing.T) {
	s := New()
	seedItem(t, s, "apple", 5)
	ctx := context.Background()

	err := s.ExecSerializable(ctx, func(tx store.Tx) error {
		it, err := tx.Items().GetByID(ctx, "apple")
		require.NoError(t, err)

		// Another writer commits between our read and our commit.
		require.NoError(t, s.Items().Save(ctx, &item.Item{
			ID: "apple", Name: "apple", Price: decimal.NewFromInt(1), InStock: 4,
		}))

		it.InStock--
		return tx.Items().Save(ctx, it)
	})
	assert.ErrorIs(t, err, store.ErrConflict)

	// The losing transaction must not have applied its write.
	it, err := s.Items().GetByID(ctx, "apple")
	require.NoError(t, err)
	assert.Equal(t, 4, it.InStock)
}

func TestTxConflictOnChangedAccount(t *testing.T) {
	s := New()
	seedAccount(t, s, "u1")
	ctx := context.Background()

	err := s.ExecSerializable(ctx, func(tx store.Tx) error {
		acc, err := tx.Accounts().GetByID(ctx, "u1")
		require.NoError(t, err)

		outside, err := s.Accounts().GetByID(ctx, "u1")
		require.NoError(t, err)
		outside.Credit = decimal.NewFromInt(200)
		require.NoError(t, s.Accounts().Save(ctx, outside))

		acc.Credit = acc.Credit.Add(decimal.NewFromInt(10))
		return tx.Accounts().Save(ctx, acc)
	})
	assert.ErrorIs(t, err, store.ErrConflict)

	acc, err := s.Accounts().GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, acc.Credit.Equal(decimal.NewFromInt(200)), "outside write must win")
}

func TestTxConflictOnDeletedRecord(t *testing.T) {
	s := New()
	seedItem(t, s, "apple", 5)
	ctx := context.Background()

	err := s.ExecSerializable(ctx, func(tx store.Tx) error {
		it, err := tx.Items().GetByID(ctx, "apple")
		require.NoError(t, err)

		require.NoError(t, s.Items().Delete(ctx, "apple"))

		it.InStock--
		return tx.Items().Save(ctx, it)
	})
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestTxNoConflictOnDisjointRecords(t *testing.T) {
	s := New()
	seedItem(t, s, "apple", 5)
	seedItem(t, s, "pear", 5)
	ctx := context.Background()

	err := s.ExecSerializable(ctx, func(tx store.Tx) error {
		it, err := tx.Items().GetByID(ctx, "apple")
		require.NoError(t, err)

		// A write to a record this transaction never read is unrelated.
		require.NoError(t, s.Items().Save(ctx, &item.Item{
			ID: "pear", Name: "pear", Price: decimal.NewFromInt(1), InStock: 2,
		}))

		it.InStock--
		return tx.Items().Save(ctx, it)
	})
	require.NoError(t, err)

	it, err := s.Items().GetByID(ctx, "apple")
	require.NoError(t, err)
	assert.Equal(t, 4, it.InStock)
}

func TestTxDuplicateAccountAtCommit(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.ExecSerializable(ctx, func(tx store.Tx) error {
		// The same login is created outside before this transaction commits.
		seedAccount(t, s, "u1")
		return tx.Accounts().Create(ctx, &account.Account{UserID: "u2", Account: "u1-login"})
	})
	assert.ErrorIs(t, err, account.ErrDuplicateAccount)
}
