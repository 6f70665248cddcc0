package item

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested item does not exist.
var ErrNotFound = errors.New("item not found")

// Item is a sellable catalog entry. InStock reflects the remaining sellable
// quantity after all outstanding cart reservations; it never goes negative.
type Item struct {
	ID      string
	Name    string
	Price   decimal.Decimal
	InStock int
}

// Repository defines persistence operations for items.
//
// Save is a full-record upsert: the whole item row is written back, so a
// read-modify-write sequence inside a transaction carries stock changes
// atomically with the enclosing unit of work.
type Repository interface {
	List(ctx context.Context) ([]Item, error)
	GetByID(ctx context.Context, id string) (*Item, error)
	Save(ctx context.Context, it *Item) error
	Delete(ctx context.Context, id string) error
}
