// Package account holds the customer account aggregate. The shopping cart is
// embedded in the account record: saving an account persists cart and credit
// together, which is what makes cart mutation and payment settlement atomic
// with respect to the rest of the aggregate.
package account

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a requested account does not exist.
	ErrNotFound = errors.New("account not found")
	// ErrDuplicateAccount is returned when a registration reuses a taken
	// account name.
	ErrDuplicateAccount = errors.New("account name already in use")
	// ErrInvalidCredentials is returned when a login password does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// CartLine is a single {item, quantity} reservation in a cart or, frozen,
// in an order snapshot. Amount is always positive; at most one line per item
// exists in a cart.
type CartLine struct {
	ItemID string `json:"item_id"`
	Amount int    `json:"amount"`
}

// Account is a customer with a credit balance and an in-progress cart.
type Account struct {
	UserID       string
	Account      string
	UserName     string
	PasswordHash string
	Credit       decimal.Decimal
	Cart         []CartLine
	CreatedAt    time.Time
	LastLoginAt  time.Time
}

// Line returns the cart line for itemID, or nil if the cart has none.
func (a *Account) Line(itemID string) *CartLine {
	for i := range a.Cart {
		if a.Cart[i].ItemID == itemID {
			return &a.Cart[i]
		}
	}
	return nil
}

// AddToCart merges amount into the existing line for itemID, or appends a
// new line. The one-line-per-item invariant is maintained here, not by
// storage.
func (a *Account) AddToCart(itemID string, amount int) {
	if line := a.Line(itemID); line != nil {
		line.Amount += amount
		return
	}
	a.Cart = append(a.Cart, CartLine{ItemID: itemID, Amount: amount})
}

// RemoveFromCart deletes the whole line for itemID and reports the removed
// line. ok is false when the cart has no such line.
func (a *Account) RemoveFromCart(itemID string) (removed CartLine, ok bool) {
	for i := range a.Cart {
		if a.Cart[i].ItemID == itemID {
			removed = a.Cart[i]
			a.Cart = append(a.Cart[:i], a.Cart[i+1:]...)
			return removed, true
		}
	}
	return CartLine{}, false
}

// Repository defines persistence operations for accounts.
//
// Create inserts a new account and reports ErrDuplicateAccount when the
// account name is taken. Save is a full-record update carrying credit and
// the embedded cart in one write.
type Repository interface {
	List(ctx context.Context) ([]Account, error)
	GetByID(ctx context.Context, userID string) (*Account, error)
	GetByLogin(ctx context.Context, accountName string) (*Account, error)
	Create(ctx context.Context, acc *Account) error
	Save(ctx context.Context, acc *Account) error
	Delete(ctx context.Context, userID string) error
}
