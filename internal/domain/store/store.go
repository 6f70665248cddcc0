// Package store defines the record-store contract the domain services run
// against: keyed repositories for the three record collections, plus a
// transaction runner that executes a unit of work with all-or-nothing
// visibility.
package store

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/kart-store/internal/domain/account"
	"github.com/xenking/kart-store/internal/domain/item"
	"github.com/xenking/kart-store/internal/domain/order"
)

// ErrConflict is returned when a unit of work could not commit because a
// record it touched changed concurrently, or because the store aborted the
// transaction (serialization failure, deadlock). Nothing was persisted; the
// caller decides whether to retry the whole operation from scratch.
var ErrConflict = errors.New("concurrent update conflict")

// Tx exposes the repositories of one unit of work. All reads and writes made
// through the same Tx commit or roll back together.
type Tx interface {
	Items() item.Repository
	Accounts() account.Repository
	Orders() order.Repository
}

// Store is a durable record store. Repository calls made directly on the
// Store run as individual auto-committed operations; ExecTx and
// ExecSerializable run fn inside a single transaction and commit it iff fn
// returns nil.
//
// ExecSerializable uses the strictest isolation level the store offers.
// Neither runner retries: a conflicting unit of work surfaces ErrConflict
// and leaves every record as it was before the attempt.
type Store interface {
	Tx

	ExecTx(ctx context.Context, fn func(tx Tx) error) error
	ExecSerializable(ctx context.Context, fn func(tx Tx) error) error
}
