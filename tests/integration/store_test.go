//go:build integration

package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/xenking/kart-store/internal/domain/account"
	"github.com/xenking/kart-store/internal/domain/cart"
	"github.com/xenking/kart-store/internal/domain/checkout"
	"github.com/xenking/kart-store/internal/domain/inventory"
	"github.com/xenking/kart-store/internal/domain/item"
	"github.com/xenking/kart-store/internal/domain/order"
	"github.com/xenking/kart-store/internal/domain/store"
	pgstore "github.com/xenking/kart-store/internal/storage/postgres"
)

var testStore *pgstore.Store

func TestMain(m *testing.M) {
	os.Exit(testMain(m))
}

func testMain(m *testing.M) int {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("kart"),
		tcpostgres.WithUsername("kart"),
		tcpostgres.WithPassword("kart"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	if err != nil {
		log.Fatalf("start postgres container: %v", err)
	}
	defer func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			log.Printf("terminate container: %v", err)
		}
	}()

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Fatalf("connection string: %v", err)
	}

	pool, err := pgstore.NewPool(ctx, connStr)
	if err != nil {
		log.Fatalf("create pool: %v", err)
	}
	defer pool.Close()

	if err := pgstore.RunMigrations(ctx, pool); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	testStore = pgstore.NewStore(pool)
	return m.Run()
}

func newAccount(t *testing.T, credit string) *account.Account {
	t.Helper()
	acc := &account.Account{
		UserID:      uuid.New().String(),
		Account:     "login-" + uuid.New().String(),
		UserName:    "Integration User",
		Credit:      decimal.RequireFromString(credit),
		Cart:        []account.CartLine{},
		CreatedAt:   time.Now().UTC(),
		LastLoginAt: time.Now().UTC(),
	}
	require.NoError(t, testStore.Accounts().Create(context.Background(), acc))
	return acc
}

func newItem(t *testing.T, price string, stock int) *item.Item {
	t.Helper()
	it := &item.Item{
		ID:      uuid.New().String(),
		Name:    "Item " + uuid.New().String()[:8],
		Price:   decimal.RequireFromString(price),
		InStock: stock,
	}
	require.NoError(t, testStore.Items().Save(context.Background(), it))
	return it
}

func TestItemRoundTrip(t *testing.T) {
	ctx := context.Background()
	it := newItem(t, "12.34", 7)

	got, err := testStore.Items().GetByID(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, it.Name, got.Name)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("12.34")), "price: %s", got.Price)
	assert.Equal(t, 7, got.InStock)

	// Save is an upsert.
	got.InStock = 3
	require.NoError(t, testStore.Items().Save(ctx, got))
	got, err = testStore.Items().GetByID(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.InStock)

	require.NoError(t, testStore.Items().Delete(ctx, it.ID))
	_, err = testStore.Items().GetByID(ctx, it.ID)
	assert.ErrorIs(t, err, item.ErrNotFound)
	assert.ErrorIs(t, testStore.Items().Delete(ctx, it.ID), item.ErrNotFound)
}

func TestAccountRoundTrip(t *testing.T) {
	ctx := context.Background()
	acc := newAccount(t, "42.50")

	got, err := testStore.Accounts().GetByID(ctx, acc.UserID)
	require.NoError(t, err)
	assert.Equal(t, acc.Account, got.Account)
	assert.True(t, got.Credit.Equal(decimal.RequireFromString("42.50")))
	assert.Empty(t, got.Cart)

	// The cart column survives a save/load cycle line for line.
	got.Cart = []account.CartLine{{ItemID: "apple", Amount: 2}, {ItemID: "pear", Amount: 1}}
	require.NoError(t, testStore.Accounts().Save(ctx, got))

	byLogin, err := testStore.Accounts().GetByLogin(ctx, acc.Account)
	require.NoError(t, err)
	assert.Equal(t, got.Cart, byLogin.Cart)
}

func TestAccountDuplicateName(t *testing.T) {
	acc := newAccount(t, "10")

	err := testStore.Accounts().Create(context.Background(), &account.Account{
		UserID:  uuid.New().String(),
		Account: acc.Account,
		Cart:    []account.CartLine{},
	})
	assert.ErrorIs(t, err, account.ErrDuplicateAccount)
}

func TestOrdersCascadeWithAccount(t *testing.T) {
	ctx := context.Background()
	acc := newAccount(t, "10")

	o := &order.Order{
		ID:        uuid.New().String(),
		UserID:    acc.UserID,
		Details:   []account.CartLine{{ItemID: "apple", Amount: 1}},
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, testStore.Orders().Create(ctx, o))

	orders, err := testStore.Orders().ListByUser(ctx, acc.UserID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, o.Details, orders[0].Details)

	require.NoError(t, testStore.Accounts().Delete(ctx, acc.UserID))

	orders, err = testStore.Orders().ListByUser(ctx, acc.UserID)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestSerializableConflict(t *testing.T) {
	ctx := context.Background()
	acc := newAccount(t, "100")

	// Two transactions read the same account, then both write it. Under
	// serializable isolation exactly one can commit; the other must surface
	// store.ErrConflict.
	readDone := make(chan struct{}, 2)
	proceed := make(chan struct{})
	errCh := make(chan error, 2)

	for range 2 {
		go func() {
			errCh <- testStore.ExecSerializable(ctx, func(tx store.Tx) error {
				got, err := tx.Accounts().GetByID(ctx, acc.UserID)
				if err != nil {
					return err
				}
				readDone <- struct{}{}
				<-proceed

				got.Credit = got.Credit.Add(decimal.NewFromInt(10))
				return tx.Accounts().Save(ctx, got)
			})
		}()
	}

	<-readDone
	<-readDone
	close(proceed)

	first, second := <-errCh, <-errCh
	winner, loser := first, second
	if winner != nil {
		winner, loser = second, first
	}
	require.NoError(t, winner, "one transaction must commit")
	assert.ErrorIs(t, loser, store.ErrConflict)

	// Exactly one increment applied.
	got, err := testStore.Accounts().GetByID(ctx, acc.UserID)
	require.NoError(t, err)
	assert.True(t, got.Credit.Equal(decimal.NewFromInt(110)), "credit: %s", got.Credit)
}

func TestCartCheckoutFlow(t *testing.T) {
	ctx := context.Background()
	acc := newAccount(t, "100")
	it := newItem(t, "10.00", 5)

	cartSvc := cart.NewService(testStore)
	checkoutSvc := checkout.NewService(testStore)

	require.NoError(t, cartSvc.AddItem(ctx, acc.UserID, it.ID, 3))

	got, err := testStore.Items().GetByID(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.InStock)

	// More than what is left cannot be reserved.
	err = cartSvc.AddItem(ctx, acc.UserID, it.ID, 3)
	require.Error(t, err)
	assert.NotErrorIs(t, err, store.ErrConflict)

	o, err := checkoutSvc.Checkout(ctx, acc.UserID)
	require.NoError(t, err)
	assert.Equal(t, []account.CartLine{{ItemID: it.ID, Amount: 3}}, o.Details)

	after, err := testStore.Accounts().GetByID(ctx, acc.UserID)
	require.NoError(t, err)
	assert.True(t, after.Credit.Equal(decimal.NewFromInt(70)), "credit: %s", after.Credit)
	assert.Empty(t, after.Cart)

	// Checkout left the stock where the reservation put it.
	got, err = testStore.Items().GetByID(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.InStock)

	history, err := checkoutSvc.OrderHistory(ctx, acc.UserID)
	require.NoError(t, err)
	require.Len(t, history.Orders, 1)
	assert.Equal(t, o.ID, history.Orders[0].OrderID)
	assert.True(t, history.Orders[0].Total.Equal(decimal.NewFromInt(30)))
}

func TestConcurrentReservations(t *testing.T) {
	ctx := context.Background()
	it := newItem(t, "1.00", 5)
	accA := newAccount(t, "100")
	accB := newAccount(t, "100")

	cartSvc := cart.NewService(testStore)

	errCh := make(chan error, 2)
	for _, userID := range []string{accA.UserID, accB.UserID} {
		go func() {
			errCh <- cartSvc.AddItem(ctx, userID, it.ID, 3)
		}()
	}

	errA, errB := <-errCh, <-errCh
	succeeded := 0
	for _, err := range []error{errA, errB} {
		if err == nil {
			succeeded++
			continue
		}
		// The loser fails either on the stock check or on serialization.
		if !errors.Is(err, store.ErrConflict) {
			var stockErr *inventory.InsufficientStockError
			require.True(t, errors.As(err, &stockErr), "unexpected error: %v", err)
		}
	}
	require.GreaterOrEqual(t, succeeded, 1)

	got, err := testStore.Items().GetByID(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, 5-3*succeeded, got.InStock)
	assert.GreaterOrEqual(t, got.InStock, 0)
}
