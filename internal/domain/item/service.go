package item

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrInvalidItem is returned when item parameters fail validation.
var ErrInvalidItem = errors.New("invalid item parameters")

// Service provides the administrative item surface: catalog CRUD plus
// price/stock adjustments. Stock mutations driven by carts go through the
// inventory ledger instead, never through this service.
type Service struct {
	items Repository
}

// NewService creates an item Service backed by the given repository.
func NewService(items Repository) *Service {
	return &Service{items: items}
}

// CreateParams holds the input for creating a catalog item.
type CreateParams struct {
	Name    string
	Price   decimal.Decimal
	InStock int
}

// Create validates the parameters, assigns a fresh ID, and persists the item.
func (s *Service) Create(ctx context.Context, p CreateParams) (*Item, error) {
	if p.Name == "" || p.Price.IsNegative() || p.InStock < 0 {
		return nil, ErrInvalidItem
	}

	it := &Item{
		ID:      uuid.New().String(),
		Name:    p.Name,
		Price:   p.Price,
		InStock: p.InStock,
	}
	if err := s.items.Save(ctx, it); err != nil {
		return nil, errors.Wrap(err, "save item")
	}
	return it, nil
}

// Update overwrites the price and stock of an existing item.
func (s *Service) Update(ctx context.Context, id string, price decimal.Decimal, inStock int) error {
	if price.IsNegative() || inStock < 0 {
		return ErrInvalidItem
	}

	it, err := s.items.GetByID(ctx, id)
	if err != nil {
		return err
	}

	it.Price = price
	it.InStock = inStock
	if err := s.items.Save(ctx, it); err != nil {
		return errors.Wrap(err, "save item")
	}
	return nil
}

// Get returns a single item by ID.
func (s *Service) Get(ctx context.Context, id string) (*Item, error) {
	return s.items.GetByID(ctx, id)
}

// List returns the full catalog.
func (s *Service) List(ctx context.Context) ([]Item, error) {
	return s.items.List(ctx)
}

// Delete removes an item from the catalog.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.items.Delete(ctx, id)
}
