package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/kart-store/internal/domain/account"
	"github.com/xenking/kart-store/internal/domain/item"
	"github.com/xenking/kart-store/internal/domain/order"
	"github.com/xenking/kart-store/internal/domain/store"
)

// SQLSTATE codes that mean the transaction lost to a concurrent one and can
// be retried from scratch.
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// Store implements the domain record store on a pgx connection pool.
// Repository calls made directly on the Store auto-commit per statement;
// ExecTx and ExecSerializable run the unit of work inside one database
// transaction run at the requested isolation level.
type Store struct {
	pool *pgxpool.Pool
}

var _ store.Store = (*Store)(nil)

// NewStore creates a Store on top of an existing pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Items returns the auto-commit item repository.
func (s *Store) Items() item.Repository { return &ItemRepository{db: s.pool} }

// Accounts returns the auto-commit account repository.
func (s *Store) Accounts() account.Repository { return &AccountRepository{db: s.pool} }

// Orders returns the auto-commit order repository.
func (s *Store) Orders() order.Repository { return &OrderRepository{db: s.pool} }

// ExecTx runs fn inside a read-committed transaction.
func (s *Store) ExecTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return s.exec(ctx, pgx.ReadCommitted, fn)
}

// ExecSerializable runs fn inside a serializable transaction. Serialization
// failures and deadlocks, whether raised mid-work or at commit, surface as
// store.ErrConflict; the transaction is rolled back and nothing persists.
func (s *Store) ExecSerializable(ctx context.Context, fn func(tx store.Tx) error) error {
	return s.exec(ctx, pgx.Serializable, fn)
}

func (s *Store) exec(ctx context.Context, iso pgx.TxIsoLevel, fn func(tx store.Tx) error) error {
	dbTx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: iso})
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}

	if err := fn(txSet{db: dbTx}); err != nil {
		if rbErr := dbTx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return errors.Wrapf(err, "rollback failed: %v", rbErr)
		}
		return mapConflict(err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return mapConflict(errors.Wrap(err, "commit transaction"))
	}
	return nil
}

// txSet exposes the repositories of one open transaction.
type txSet struct {
	db pgx.Tx
}

var _ store.Tx = txSet{}

func (t txSet) Items() item.Repository       { return &ItemRepository{db: t.db} }
func (t txSet) Accounts() account.Repository { return &AccountRepository{db: t.db} }
func (t txSet) Orders() order.Repository     { return &OrderRepository{db: t.db} }

// mapConflict rewraps serialization failures and deadlocks as
// store.ErrConflict so callers can match them without knowing SQLSTATEs.
func mapConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeSerializationFailure, codeDeadlockDetected:
			return errors.Wrapf(store.ErrConflict, "sqlstate %s: %s", pgErr.Code, pgErr.Message)
		}
	}
	return err
}
