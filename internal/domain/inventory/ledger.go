// Package inventory owns the stock ledger invariant: an item's in-stock
// count never goes negative and always reflects the quantity not held by any
// cart. Reserve and Release mutate stock through the repository of the
// enclosing unit of work; they hold no locks of their own and rely entirely
// on the caller's transaction isolation.
package inventory

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"

	"github.com/xenking/kart-store/internal/domain/item"
)

// InsufficientStockError indicates a reservation asked for more units than
// the item has available.
type InsufficientStockError struct {
	ItemID    string
	Requested int
	InStock   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for item %s: requested %d, in stock %d",
		e.ItemID, e.Requested, e.InStock)
}

// Reserve holds amount units of the already-loaded item for a cart:
// it decrements the in-stock count and writes the item back through items.
// Fails with InsufficientStockError when fewer than amount units remain,
// leaving the item untouched.
func Reserve(ctx context.Context, items item.Repository, it *item.Item, amount int) error {
	if it.InStock < amount {
		return &InsufficientStockError{
			ItemID:    it.ID,
			Requested: amount,
			InStock:   it.InStock,
		}
	}

	it.InStock -= amount
	if err := items.Save(ctx, it); err != nil {
		return errors.Wrap(err, "save reserved stock")
	}
	return nil
}

// Release returns amount previously reserved units to the item's stock.
// The amount is trusted: it must equal what an earlier Reserve took, so the
// increment is unconditional.
func Release(ctx context.Context, items item.Repository, it *item.Item, amount int) error {
	it.InStock += amount
	if err := items.Save(ctx, it); err != nil {
		return errors.Wrap(err, "save released stock")
	}
	return nil
}
