package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/kart-store/internal/domain/account"
)

// ErrNotFound is returned when a requested order does not exist.
var ErrNotFound = errors.New("order not found")

// Order is an immutable record of a completed checkout. Details is the cart
// exactly as it stood at checkout time and never changes afterwards.
type Order struct {
	ID        string
	UserID    string
	Details   []account.CartLine
	CreatedAt time.Time
}

// Repository defines persistence operations for orders. Orders are
// append-only: there is no update operation.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	List(ctx context.Context) ([]Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	Delete(ctx context.Context, id string) error
}
