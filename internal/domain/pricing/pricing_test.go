package pricing

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/kart-store/internal/domain/account"
	"github.com/xenking/kart-store/internal/domain/item"
)

// --- Mock implementations ---

type mockItemRepo struct {
	byID   map[string]*item.Item
	getErr error
}

func (m *mockItemRepo) List(_ context.Context) ([]item.Item, error) { return nil, nil }

func (m *mockItemRepo) GetByID(_ context.Context, id string) (*item.Item, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	it, ok := m.byID[id]
	if !ok {
		return nil, item.ErrNotFound
	}
	return it, nil
}

func (m *mockItemRepo) Save(_ context.Context, _ *item.Item) error { return nil }

func (m *mockItemRepo) Delete(_ context.Context, _ string) error { return nil }

func newItemRepo(items ...item.Item) *mockItemRepo {
	byID := make(map[string]*item.Item, len(items))
	for i := range items {
		byID[items[i].ID] = &items[i]
	}
	return &mockItemRepo{byID: byID}
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// --- Tests ---

func TestBuildItemListEmpty(t *testing.T) {
	repo := newItemRepo()

	list, err := BuildItemList(context.Background(), repo, nil)

	require.NoError(t, err)
	assert.True(t, list.Total.IsZero())
	assert.Empty(t, list.Rows)
}

func TestBuildItemListSingleLine(t *testing.T) {
	repo := newItemRepo(item.Item{ID: "apple", Name: "Apple", Price: price("1.50"), InStock: 10})

	list, err := BuildItemList(context.Background(), repo, []account.CartLine{
		{ItemID: "apple", Amount: 4},
	})

	require.NoError(t, err)
	require.Len(t, list.Rows, 1)
	assert.Equal(t, "apple", list.Rows[0].ItemID)
	assert.Equal(t, "Apple", list.Rows[0].ItemName)
	assert.Equal(t, 4, list.Rows[0].Amount)
	assert.True(t, list.Rows[0].Subtotal.Equal(price("6.00")), "subtotal: %s", list.Rows[0].Subtotal)
	assert.True(t, list.Total.Equal(price("6.00")), "total: %s", list.Total)
}

func TestBuildItemListAccumulatesTotal(t *testing.T) {
	repo := newItemRepo(
		item.Item{ID: "apple", Name: "Apple", Price: price("1.50")},
		item.Item{ID: "pear", Name: "Pear", Price: price("0.75")},
	)

	list, err := BuildItemList(context.Background(), repo, []account.CartLine{
		{ItemID: "apple", Amount: 2},
		{ItemID: "pear", Amount: 3},
	})

	require.NoError(t, err)
	require.Len(t, list.Rows, 2)
	assert.True(t, list.Total.Equal(price("5.25")), "total: %s", list.Total)
}

func TestBuildItemListUnknownItem(t *testing.T) {
	repo := newItemRepo(item.Item{ID: "apple", Name: "Apple", Price: price("1.50")})

	_, err := BuildItemList(context.Background(), repo, []account.CartLine{
		{ItemID: "missing", Amount: 1},
	})

	assert.ErrorIs(t, err, item.ErrNotFound)
}
