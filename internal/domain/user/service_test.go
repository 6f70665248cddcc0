package user

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/xenking/kart-store/internal/domain/account"
	"github.com/xenking/kart-store/internal/storage/memstore"
)

func registered(t *testing.T, svc *Service, name, password, credit string) *account.Account {
	t.Helper()
	acc, err := svc.Register(context.Background(), RegisterParams{
		Account:  name,
		UserName: "Some User",
		Password: password,
		Credit:   decimal.RequireFromString(credit),
	})
	require.NoError(t, err)
	return acc
}

func TestRegister(t *testing.T) {
	svc := NewService(memstore.New())

	acc := registered(t, svc, "alice", "s3cret", "50")

	assert.NotEmpty(t, acc.UserID)
	assert.Equal(t, "alice", acc.Account)
	assert.Empty(t, acc.Cart)
	assert.True(t, acc.Credit.Equal(decimal.NewFromInt(50)))
	assert.False(t, acc.CreatedAt.IsZero())

	// The stored password is a bcrypt hash, never the plaintext.
	assert.NotEqual(t, "s3cret", acc.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte("s3cret")))
}

func TestRegisterDuplicateName(t *testing.T) {
	svc := NewService(memstore.New())
	registered(t, svc, "alice", "s3cret", "50")

	_, err := svc.Register(context.Background(), RegisterParams{
		Account:  "alice",
		Password: "other",
	})
	assert.ErrorIs(t, err, account.ErrDuplicateAccount)
}

func TestRegisterDuplicateWithColdFilter(t *testing.T) {
	// A second service instance has an empty filter; the repository's
	// uniqueness check must still reject the duplicate.
	st := memstore.New()
	registered(t, NewService(st), "alice", "s3cret", "50")

	cold := NewService(st)
	_, err := cold.Register(context.Background(), RegisterParams{
		Account:  "alice",
		Password: "other",
	})
	assert.ErrorIs(t, err, account.ErrDuplicateAccount)
}

func TestWarmFilter(t *testing.T) {
	st := memstore.New()
	registered(t, NewService(st), "alice", "s3cret", "50")

	svc := NewService(st)
	require.NoError(t, svc.WarmFilter(context.Background()))
	assert.True(t, svc.maybeTaken("alice"))
}

func TestLogin(t *testing.T) {
	svc := NewService(memstore.New())
	created := registered(t, svc, "alice", "s3cret", "50")

	acc, err := svc.Login(context.Background(), "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, created.UserID, acc.UserID)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := NewService(memstore.New())
	registered(t, svc, "alice", "s3cret", "50")

	_, err := svc.Login(context.Background(), "alice", "wrong")
	assert.ErrorIs(t, err, account.ErrInvalidCredentials)
}

func TestLoginUnknownAccount(t *testing.T) {
	svc := NewService(memstore.New())

	_, err := svc.Login(context.Background(), "nobody", "s3cret")
	assert.ErrorIs(t, err, account.ErrNotFound)
}

func TestDeposit(t *testing.T) {
	svc := NewService(memstore.New())
	acc := registered(t, svc, "alice", "s3cret", "50")

	updated, err := svc.Deposit(context.Background(), acc.UserID, decimal.RequireFromString("12.50"))
	require.NoError(t, err)
	assert.True(t, updated.Credit.Equal(decimal.RequireFromString("62.50")), "credit: %s", updated.Credit)

	got, err := svc.Get(context.Background(), acc.UserID)
	require.NoError(t, err)
	assert.True(t, got.Credit.Equal(decimal.RequireFromString("62.50")))
}

func TestDepositInvalidAmount(t *testing.T) {
	svc := NewService(memstore.New())
	acc := registered(t, svc, "alice", "s3cret", "50")

	_, err := svc.Deposit(context.Background(), acc.UserID, decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.Deposit(context.Background(), acc.UserID, decimal.NewFromInt(-5))
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestDepositUnknownAccount(t *testing.T) {
	svc := NewService(memstore.New())

	_, err := svc.Deposit(context.Background(), "ghost", decimal.NewFromInt(5))
	assert.ErrorIs(t, err, account.ErrNotFound)
}

func TestDeleteCascadesOrders(t *testing.T) {
	st := memstore.New()
	svc := NewService(st)
	acc := registered(t, svc, "alice", "s3cret", "50")

	require.NoError(t, svc.Delete(context.Background(), acc.UserID))

	_, err := svc.Get(context.Background(), acc.UserID)
	assert.ErrorIs(t, err, account.ErrNotFound)

	// The freed name can be registered again.
	registered(t, svc, "alice", "new-pass", "10")
}

func TestList(t *testing.T) {
	svc := NewService(memstore.New())
	registered(t, svc, "alice", "a", "1")
	registered(t, svc, "bob", "b", "2")

	accounts, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, accounts, 2)
}
