// Package memstore is an in-memory implementation of the record store. Every
// record carries a version; transactions buffer their writes and validate at
// commit time that nothing they read has moved, surfacing store.ErrConflict
// otherwise. That gives the same observable conflict behavior as the
// Postgres store without a database, which is what the unit tests and the
// databaseless dev mode run against.
package memstore

import (
	"context"
	"sync"

	"github.com/xenking/kart-store/internal/domain/account"
	"github.com/xenking/kart-store/internal/domain/item"
	"github.com/xenking/kart-store/internal/domain/order"
	"github.com/xenking/kart-store/internal/domain/store"
)

type itemRec struct {
	version uint64
	value   item.Item
}

type accountRec struct {
	version uint64
	value   account.Account
}

type orderRec struct {
	version uint64
	value   order.Order
}

// Store holds all records behind one mutex. Direct repository calls run as
// single auto-committed operations under the lock; transactional calls go
// through tx below.
type Store struct {
	mu       sync.Mutex
	items    map[string]*itemRec
	accounts map[string]*accountRec
	logins   map[string]string // account name -> user ID
	orders   map[string]*orderRec
	orderSeq []string // creation order, for stable listings
}

var _ store.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		items:    make(map[string]*itemRec),
		accounts: make(map[string]*accountRec),
		logins:   make(map[string]string),
		orders:   make(map[string]*orderRec),
	}
}

// Items returns the auto-commit item repository.
func (s *Store) Items() item.Repository { return &itemRepo{s: s} }

// Accounts returns the auto-commit account repository.
func (s *Store) Accounts() account.Repository { return &accountRepo{s: s} }

// Orders returns the auto-commit order repository.
func (s *Store) Orders() order.Repository { return &orderRepo{s: s} }

// ExecSerializable runs fn as one optimistic transaction: reads record the
// version they saw, writes are buffered, and commit re-validates every read
// under the store lock before applying anything. A record that changed since
// it was read fails the whole unit of work with store.ErrConflict.
func (s *Store) ExecSerializable(ctx context.Context, fn func(tx store.Tx) error) error {
	t := newTx(s)
	if err := fn(t); err != nil {
		return err
	}
	return t.commit()
}

// ExecTx runs fn at the strictest level this store offers, which is the same
// optimistic validation ExecSerializable uses.
func (s *Store) ExecTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return s.ExecSerializable(ctx, fn)
}

func cloneAccount(a account.Account) account.Account {
	a.Cart = append([]account.CartLine(nil), a.Cart...)
	return a
}

func cloneOrder(o order.Order) order.Order {
	o.Details = append([]account.CartLine(nil), o.Details...)
	return o
}

// --- auto-commit repositories ---

type itemRepo struct{ s *Store }

func (r *itemRepo) List(context.Context) ([]item.Item, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]item.Item, 0, len(r.s.items))
	for _, rec := range r.s.items {
		out = append(out, rec.value)
	}
	return out, nil
}

func (r *itemRepo) GetByID(_ context.Context, id string) (*item.Item, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.items[id]
	if !ok {
		return nil, item.ErrNotFound
	}
	v := rec.value
	return &v, nil
}

func (r *itemRepo) Save(_ context.Context, it *item.Item) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.putItem(*it)
	return nil
}

func (r *itemRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.items[id]; !ok {
		return item.ErrNotFound
	}
	delete(r.s.items, id)
	return nil
}

type accountRepo struct{ s *Store }

func (r *accountRepo) List(context.Context) ([]account.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]account.Account, 0, len(r.s.accounts))
	for _, rec := range r.s.accounts {
		out = append(out, cloneAccount(rec.value))
	}
	return out, nil
}

func (r *accountRepo) GetByID(_ context.Context, userID string) (*account.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.accounts[userID]
	if !ok {
		return nil, account.ErrNotFound
	}
	v := cloneAccount(rec.value)
	return &v, nil
}

func (r *accountRepo) GetByLogin(_ context.Context, name string) (*account.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	id, ok := r.s.logins[name]
	if !ok {
		return nil, account.ErrNotFound
	}
	v := cloneAccount(r.s.accounts[id].value)
	return &v, nil
}

func (r *accountRepo) Create(_ context.Context, acc *account.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.s.createAccount(*acc)
}

func (r *accountRepo) Save(_ context.Context, acc *account.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.putAccount(*acc)
	return nil
}

func (r *accountRepo) Delete(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.s.deleteAccount(userID)
}

type orderRepo struct{ s *Store }

func (r *orderRepo) Create(_ context.Context, o *order.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.createOrder(*o)
	return nil
}

func (r *orderRepo) List(context.Context) ([]order.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]order.Order, 0, len(r.s.orderSeq))
	for _, id := range r.s.orderSeq {
		out = append(out, cloneOrder(r.s.orders[id].value))
	}
	return out, nil
}

func (r *orderRepo) ListByUser(_ context.Context, userID string) ([]order.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []order.Order
	for _, id := range r.s.orderSeq {
		if rec := r.s.orders[id]; rec.value.UserID == userID {
			out = append(out, cloneOrder(rec.value))
		}
	}
	return out, nil
}

func (r *orderRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.orders[id]; !ok {
		return order.ErrNotFound
	}
	r.s.dropOrder(id)
	return nil
}

// --- locked-state helpers (callers hold s.mu) ---

func (s *Store) itemVersion(id string) uint64 {
	if rec, ok := s.items[id]; ok {
		return rec.version
	}
	return absentVersion
}

func (s *Store) accountVersion(id string) uint64 {
	if rec, ok := s.accounts[id]; ok {
		return rec.version
	}
	return absentVersion
}

func (s *Store) putItem(it item.Item) {
	if rec, ok := s.items[it.ID]; ok {
		rec.version++
		rec.value = it
		return
	}
	s.items[it.ID] = &itemRec{version: 1, value: it}
}

func (s *Store) putAccount(acc account.Account) {
	clone := cloneAccount(acc)
	if rec, ok := s.accounts[acc.UserID]; ok {
		rec.version++
		rec.value = clone
		return
	}
	s.accounts[acc.UserID] = &accountRec{version: 1, value: clone}
	s.logins[acc.Account] = acc.UserID
}

func (s *Store) createAccount(acc account.Account) error {
	if _, taken := s.logins[acc.Account]; taken {
		return account.ErrDuplicateAccount
	}
	s.accounts[acc.UserID] = &accountRec{version: 1, value: cloneAccount(acc)}
	s.logins[acc.Account] = acc.UserID
	return nil
}

func (s *Store) deleteAccount(userID string) error {
	rec, ok := s.accounts[userID]
	if !ok {
		return account.ErrNotFound
	}
	delete(s.logins, rec.value.Account)
	delete(s.accounts, userID)

	// Orders cascade with their account, mirroring the SQL schema.
	for id, o := range s.orders {
		if o.value.UserID == userID {
			s.dropOrder(id)
		}
	}
	return nil
}

func (s *Store) createOrder(o order.Order) {
	s.orders[o.ID] = &orderRec{version: 1, value: cloneOrder(o)}
	s.orderSeq = append(s.orderSeq, o.ID)
}

func (s *Store) dropOrder(id string) {
	delete(s.orders, id)
	for i, seq := range s.orderSeq {
		if seq == id {
			s.orderSeq = append(s.orderSeq[:i], s.orderSeq[i+1:]...)
			break
		}
	}
}
