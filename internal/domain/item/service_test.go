package item

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock implementation ---

type mockRepo struct {
	byID    map[string]*Item
	saveErr error
}

func newMockRepo(items ...Item) *mockRepo {
	byID := make(map[string]*Item, len(items))
	for i := range items {
		byID[items[i].ID] = &items[i]
	}
	return &mockRepo{byID: byID}
}

func (m *mockRepo) List(_ context.Context) ([]Item, error) {
	out := make([]Item, 0, len(m.byID))
	for _, it := range m.byID {
		out = append(out, *it)
	}
	return out, nil
}

func (m *mockRepo) GetByID(_ context.Context, id string) (*Item, error) {
	it, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	v := *it
	return &v, nil
}

func (m *mockRepo) Save(_ context.Context, it *Item) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	v := *it
	m.byID[it.ID] = &v
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.byID[id]; !ok {
		return ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

// --- Tests ---

func TestCreate(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	it, err := svc.Create(context.Background(), CreateParams{
		Name:    "Apple",
		Price:   decimal.RequireFromString("1.50"),
		InStock: 10,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, it.ID)
	assert.Equal(t, "Apple", it.Name)

	stored, err := repo.GetByID(context.Background(), it.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, stored.InStock)
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateParams{Name: "", Price: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, ErrInvalidItem)

	_, err = svc.Create(ctx, CreateParams{Name: "Apple", Price: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, ErrInvalidItem)

	_, err = svc.Create(ctx, CreateParams{Name: "Apple", Price: decimal.NewFromInt(1), InStock: -1})
	assert.ErrorIs(t, err, ErrInvalidItem)
}

func TestUpdate(t *testing.T) {
	repo := newMockRepo(Item{ID: "apple", Name: "Apple", Price: decimal.NewFromInt(1), InStock: 5})
	svc := NewService(repo)

	err := svc.Update(context.Background(), "apple", decimal.NewFromInt(2), 8)
	require.NoError(t, err)

	it, err := repo.GetByID(context.Background(), "apple")
	require.NoError(t, err)
	assert.True(t, it.Price.Equal(decimal.NewFromInt(2)))
	assert.Equal(t, 8, it.InStock)
	assert.Equal(t, "Apple", it.Name, "update must not touch the name")
}

func TestUpdateUnknownItem(t *testing.T) {
	svc := NewService(newMockRepo())

	err := svc.Update(context.Background(), "ghost", decimal.NewFromInt(2), 8)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateValidation(t *testing.T) {
	svc := NewService(newMockRepo(Item{ID: "apple"}))

	err := svc.Update(context.Background(), "apple", decimal.NewFromInt(-2), 8)
	assert.ErrorIs(t, err, ErrInvalidItem)

	err = svc.Update(context.Background(), "apple", decimal.NewFromInt(2), -8)
	assert.ErrorIs(t, err, ErrInvalidItem)
}

func TestDelete(t *testing.T) {
	repo := newMockRepo(Item{ID: "apple"})
	svc := NewService(repo)

	require.NoError(t, svc.Delete(context.Background(), "apple"))
	assert.ErrorIs(t, svc.Delete(context.Background(), "apple"), ErrNotFound)
}
