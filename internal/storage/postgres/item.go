package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/xenking/kart-store/internal/domain/item"
)

const (
	listItemsSQL = `SELECT id, name, price, in_stock FROM items ORDER BY id`

	getItemSQL = `SELECT id, name, price, in_stock FROM items WHERE id = $1`

	saveItemSQL = `INSERT INTO items (id, name, price, in_stock)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, price = EXCLUDED.price, in_stock = EXCLUDED.in_stock`

	deleteItemSQL = `DELETE FROM items WHERE id = $1`
)

var _ item.Repository = (*ItemRepository)(nil)

// ItemRepository implements item.Repository backed by PostgreSQL.
type ItemRepository struct {
	db dbtx
}

// List returns the full catalog ordered by ID.
func (r *ItemRepository) List(ctx context.Context) ([]item.Item, error) {
	rows, err := r.db.Query(ctx, listItemsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list items")
	}
	return pgx.CollectRows(rows, scanItem)
}

// GetByID returns a single item by its identifier.
func (r *ItemRepository) GetByID(ctx context.Context, id string) (*item.Item, error) {
	rows, err := r.db.Query(ctx, getItemSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get item %q", id)
	}

	it, err := pgx.CollectExactlyOneRow(rows, scanItem)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, item.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get item %q", id)
	}
	return &it, nil
}

// Save upserts the full item row.
func (r *ItemRepository) Save(ctx context.Context, it *item.Item) error {
	if _, err := r.db.Exec(ctx, saveItemSQL, it.ID, it.Name, it.Price, it.InStock); err != nil {
		return errors.Wrapf(err, "save item %q", it.ID)
	}
	return nil
}

// Delete removes an item; item.ErrNotFound when no row matched.
func (r *ItemRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, deleteItemSQL, id)
	if err != nil {
		return errors.Wrapf(err, "delete item %q", id)
	}
	if tag.RowsAffected() == 0 {
		return item.ErrNotFound
	}
	return nil
}

func scanItem(row pgx.CollectableRow) (item.Item, error) {
	var it item.Item
	err := row.Scan(&it.ID, &it.Name, &it.Price, &it.InStock)
	return it, err
}
