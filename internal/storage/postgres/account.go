package postgres

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/xenking/kart-store/internal/domain/account"
)

const (
	accountColumns = `id, account, user_name, password_hash, credit, cart, created_at, last_login_at`

	listAccountsSQL = `SELECT ` + accountColumns + ` FROM users ORDER BY created_at`

	getAccountSQL = `SELECT ` + accountColumns + ` FROM users WHERE id = $1`

	getAccountByLoginSQL = `SELECT ` + accountColumns + ` FROM users WHERE account = $1`

	createAccountSQL = `INSERT INTO users (id, account, user_name, password_hash, credit, cart, created_at, last_login_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	saveAccountSQL = `UPDATE users
		SET user_name = $2, password_hash = $3, credit = $4, cart = $5, last_login_at = $6
		WHERE id = $1`

	deleteAccountSQL = `DELETE FROM users WHERE id = $1`
)

const codeUniqueViolation = "23505"

var _ account.Repository = (*AccountRepository)(nil)

// AccountRepository implements account.Repository backed by PostgreSQL.
// The cart rides in a JSONB column so a single row write carries cart and
// credit together.
type AccountRepository struct {
	db dbtx
}

// List returns all accounts ordered by creation time.
func (r *AccountRepository) List(ctx context.Context) ([]account.Account, error) {
	rows, err := r.db.Query(ctx, listAccountsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list accounts")
	}
	return pgx.CollectRows(rows, scanAccount)
}

// GetByID returns a single account by user ID.
func (r *AccountRepository) GetByID(ctx context.Context, userID string) (*account.Account, error) {
	return r.getOne(ctx, getAccountSQL, userID)
}

// GetByLogin returns a single account by its unique account name.
func (r *AccountRepository) GetByLogin(ctx context.Context, name string) (*account.Account, error) {
	return r.getOne(ctx, getAccountByLoginSQL, name)
}

func (r *AccountRepository) getOne(ctx context.Context, sql, key string) (*account.Account, error) {
	rows, err := r.db.Query(ctx, sql, key)
	if err != nil {
		return nil, errors.Wrapf(err, "get account %q", key)
	}

	acc, err := pgx.CollectExactlyOneRow(rows, scanAccount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get account %q", key)
	}
	return &acc, nil
}

// Create inserts a new account. A unique violation on the account name maps
// to account.ErrDuplicateAccount.
func (r *AccountRepository) Create(ctx context.Context, acc *account.Account) error {
	cartJSON, err := json.Marshal(acc.Cart)
	if err != nil {
		return errors.Wrap(err, "marshal cart")
	}

	_, err = r.db.Exec(ctx, createAccountSQL,
		acc.UserID, acc.Account, acc.UserName, acc.PasswordHash,
		acc.Credit, cartJSON, acc.CreatedAt, acc.LastLoginAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation {
			return account.ErrDuplicateAccount
		}
		return errors.Wrapf(err, "create account %q", acc.Account)
	}
	return nil
}

// Save writes the full mutable part of the account row back: name, password
// hash, credit, cart, last login.
func (r *AccountRepository) Save(ctx context.Context, acc *account.Account) error {
	cartJSON, err := json.Marshal(acc.Cart)
	if err != nil {
		return errors.Wrap(err, "marshal cart")
	}

	tag, err := r.db.Exec(ctx, saveAccountSQL,
		acc.UserID, acc.UserName, acc.PasswordHash,
		acc.Credit, cartJSON, acc.LastLoginAt,
	)
	if err != nil {
		return errors.Wrapf(err, "save account %q", acc.UserID)
	}
	if tag.RowsAffected() == 0 {
		return account.ErrNotFound
	}
	return nil
}

// Delete removes an account; its orders cascade with the row.
func (r *AccountRepository) Delete(ctx context.Context, userID string) error {
	tag, err := r.db.Exec(ctx, deleteAccountSQL, userID)
	if err != nil {
		return errors.Wrapf(err, "delete account %q", userID)
	}
	if tag.RowsAffected() == 0 {
		return account.ErrNotFound
	}
	return nil
}

func scanAccount(row pgx.CollectableRow) (account.Account, error) {
	var (
		acc      account.Account
		cartJSON []byte
	)
	err := row.Scan(
		&acc.UserID, &acc.Account, &acc.UserName, &acc.PasswordHash,
		&acc.Credit, &cartJSON, &acc.CreatedAt, &acc.LastLoginAt,
	)
	if err != nil {
		return account.Account{}, err
	}
	if err := json.Unmarshal(cartJSON, &acc.Cart); err != nil {
		return account.Account{}, errors.Wrap(err, "unmarshal cart")
	}
	return acc, nil
}
