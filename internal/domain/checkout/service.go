// Package checkout converts a cart into a permanent order and settles the
// charge against the account's credit. Checkout never touches stock: the
// units were already taken from inventory when they entered the cart, so the
// conversion is purely an accounting operation. Re-decrementing here would
// double-count the reservation.
package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-store/internal/domain/account"
	"github.com/xenking/kart-store/internal/domain/order"
	"github.com/xenking/kart-store/internal/domain/pricing"
	"github.com/xenking/kart-store/internal/domain/store"
)

// ErrEmptyCart is returned when checking out an account with no cart lines.
var ErrEmptyCart = errors.New("shopping cart is empty")

// InsufficientCreditError indicates the cart total exceeds the account's
// credit balance.
type InsufficientCreditError struct {
	Total  decimal.Decimal
	Credit decimal.Decimal
}

func (e *InsufficientCreditError) Error() string {
	return fmt.Sprintf("insufficient credit: total %s exceeds balance %s",
		e.Total.String(), e.Credit.String())
}

// Service is the checkout engine.
type Service struct {
	store store.Store
}

// NewService creates a checkout Service on top of the given record store.
func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// Checkout prices the cart at current prices, verifies the account can cover
// the total, and then atomically: creates an order with a frozen copy of the
// cart lines, debits the credit balance by the total, and empties the cart.
// All preconditions are checked before any write; a conflicting commit
// surfaces store.ErrConflict with nothing persisted.
func (s *Service) Checkout(ctx context.Context, userID string) (*order.Order, error) {
	var placed *order.Order

	err := s.store.ExecSerializable(ctx, func(tx store.Tx) error {
		acc, err := tx.Accounts().GetByID(ctx, userID)
		if err != nil {
			return err
		}

		if len(acc.Cart) == 0 {
			return ErrEmptyCart
		}

		list, err := pricing.BuildItemList(ctx, tx.Items(), acc.Cart)
		if err != nil {
			return err
		}

		if list.Total.GreaterThan(acc.Credit) {
			return &InsufficientCreditError{Total: list.Total, Credit: acc.Credit}
		}

		o := &order.Order{
			ID:        uuid.New().String(),
			UserID:    acc.UserID,
			Details:   append([]account.CartLine(nil), acc.Cart...),
			CreatedAt: time.Now().UTC(),
		}
		if err := tx.Orders().Create(ctx, o); err != nil {
			return errors.Wrap(err, "create order")
		}

		acc.Credit = acc.Credit.Sub(list.Total)
		acc.Cart = []account.CartLine{}
		if err := tx.Accounts().Save(ctx, acc); err != nil {
			return errors.Wrap(err, "save account")
		}

		placed = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return placed, nil
}

// HistoryEntry is one past order priced at current item prices.
type HistoryEntry struct {
	OrderID   string
	Items     []pricing.Row
	Total     decimal.Decimal
	CreatedAt time.Time
}

// History is the order history view of one account.
type History struct {
	Account string
	Name    string
	Orders  []HistoryEntry
}

// OrderHistory returns every order of the account, each priced through the
// listing helper. Prices reflect the catalog now, not at purchase time,
// matching the cart and order display paths.
func (s *Service) OrderHistory(ctx context.Context, userID string) (*History, error) {
	acc, err := s.store.Accounts().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	orders, err := s.store.Orders().ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}

	h := &History{
		Account: acc.Account,
		Name:    acc.UserName,
		Orders:  make([]HistoryEntry, 0, len(orders)),
	}
	for _, o := range orders {
		list, err := pricing.BuildItemList(ctx, s.store.Items(), o.Details)
		if err != nil {
			return nil, errors.Wrapf(err, "price order %s", o.ID)
		}
		h.Orders = append(h.Orders, HistoryEntry{
			OrderID:   o.ID,
			Items:     list.Rows,
			Total:     list.Total,
			CreatedAt: o.CreatedAt,
		})
	}

	return h, nil
}
