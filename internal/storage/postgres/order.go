package postgres

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/xenking/kart-store/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders (id, user_id, details, created_at)
		VALUES ($1, $2, $3, $4)`

	listOrdersSQL = `SELECT id, user_id, details, created_at FROM orders ORDER BY created_at`

	listOrdersByUserSQL = `SELECT id, user_id, details, created_at FROM orders
		WHERE user_id = $1 ORDER BY created_at`

	deleteOrderSQL = `DELETE FROM orders WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. The
// frozen cart snapshot is serialized to JSON for the JSONB details column.
type OrderRepository struct {
	db dbtx
}

// Create persists a new order.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	detailsJSON, err := json.Marshal(o.Details)
	if err != nil {
		return errors.Wrap(err, "marshal order details")
	}

	if _, err := r.db.Exec(ctx, createOrderSQL, o.ID, o.UserID, detailsJSON, o.CreatedAt); err != nil {
		return errors.Wrapf(err, "create order %q", o.ID)
	}
	return nil
}

// List returns all orders, oldest first.
func (r *OrderRepository) List(ctx context.Context) ([]order.Order, error) {
	rows, err := r.db.Query(ctx, listOrdersSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return pgx.CollectRows(rows, scanOrder)
}

// ListByUser returns one account's orders, oldest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	rows, err := r.db.Query(ctx, listOrdersByUserSQL, userID)
	if err != nil {
		return nil, errors.Wrapf(err, "list orders for %q", userID)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// Delete removes an order; order.ErrNotFound when no row matched.
func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, deleteOrderSQL, id)
	if err != nil {
		return errors.Wrapf(err, "delete order %q", id)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o           order.Order
		detailsJSON []byte
	)
	err := row.Scan(&o.ID, &o.UserID, &detailsJSON, &o.CreatedAt)
	if err != nil {
		return order.Order{}, err
	}
	if err := json.Unmarshal(detailsJSON, &o.Details); err != nil {
		return order.Order{}, errors.Wrap(err, "unmarshal order details")
	}
	return o, nil
}
