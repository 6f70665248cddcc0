// Package cart owns mutation of an account's cart. Every mutation pairs a
// cart change with the matching inventory reservation so the two commit or
// fail as one unit.
package cart

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/kart-store/internal/domain/inventory"
	"github.com/xenking/kart-store/internal/domain/pricing"
	"github.com/xenking/kart-store/internal/domain/store"
)

var (
	// ErrLineNotFound is returned when removing an item the cart does not hold.
	ErrLineNotFound = errors.New("cart line not found")
	// ErrInvalidAmount is returned when an add requests a non-positive amount.
	ErrInvalidAmount = errors.New("amount must be positive")
)

// Service is the cart manager. Add and remove run under the store's
// serializable runner: two concurrent adds against the same item must never
// both pass the stock check when their sum exceeds what is available, and
// the store's isolation is the sole enforcement point. Conflicts surface as
// store.ErrConflict without retry.
type Service struct {
	store store.Store
}

// NewService creates a cart Service on top of the given record store.
func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// AddItem reserves amount units of an item into the account's cart. An
// existing line for the item grows by amount; otherwise a new line is
// appended. The cart write and the stock decrement commit together or not
// at all.
func (s *Service) AddItem(ctx context.Context, userID, itemID string, amount int) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	return s.store.ExecSerializable(ctx, func(tx store.Tx) error {
		acc, err := tx.Accounts().GetByID(ctx, userID)
		if err != nil {
			return err
		}

		it, err := tx.Items().GetByID(ctx, itemID)
		if err != nil {
			return err
		}

		if err := inventory.Reserve(ctx, tx.Items(), it, amount); err != nil {
			return err
		}

		acc.AddToCart(itemID, amount)
		return tx.Accounts().Save(ctx, acc)
	})
}

// RemoveItem drops the whole cart line for an item and releases its reserved
// stock, atomically. Partial removal is not supported.
func (s *Service) RemoveItem(ctx context.Context, userID, itemID string) error {
	return s.store.ExecSerializable(ctx, func(tx store.Tx) error {
		acc, err := tx.Accounts().GetByID(ctx, userID)
		if err != nil {
			return err
		}

		it, err := tx.Items().GetByID(ctx, itemID)
		if err != nil {
			return err
		}

		line, ok := acc.RemoveFromCart(itemID)
		if !ok {
			return ErrLineNotFound
		}

		if err := inventory.Release(ctx, tx.Items(), it, line.Amount); err != nil {
			return err
		}

		return tx.Accounts().Save(ctx, acc)
	})
}

// Cart returns the priced view of the account's current cart. The read runs
// outside any transaction; a concurrent mutation may make the snapshot
// stale, which is acceptable for display.
func (s *Service) Cart(ctx context.Context, userID string) (pricing.ItemList, error) {
	acc, err := s.store.Accounts().GetByID(ctx, userID)
	if err != nil {
		return pricing.ItemList{}, err
	}
	return pricing.BuildItemList(ctx, s.store.Items(), acc.Cart)
}
