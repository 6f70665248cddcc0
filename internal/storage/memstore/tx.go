package memstore

import (
	"context"

	"github.com/xenking/kart-store/internal/domain/account"
	"github.com/xenking/kart-store/internal/domain/item"
	"github.com/xenking/kart-store/internal/domain/order"
	"github.com/xenking/kart-store/internal/domain/store"
)

// absentVersion marks a key that was read and found missing. Live records
// start at version 1, so 0 is free to mean "was absent".
const absentVersion = 0

// tx is one optimistic unit of work. Reads snapshot record versions, writes
// stay buffered until commit validates every recorded version against the
// live store.
type tx struct {
	s *Store

	itemReads    map[string]uint64
	accountReads map[string]uint64

	itemWrites    map[string]*item.Item       // nil = delete
	accountWrites map[string]*account.Account // nil = delete
	accountNew    map[string]bool             // written key is a Create
	orderCreates  []order.Order
	orderDeletes  map[string]bool
}

var _ store.Tx = (*tx)(nil)

func newTx(s *Store) *tx {
	return &tx{
		s:             s,
		itemReads:     make(map[string]uint64),
		accountReads:  make(map[string]uint64),
		itemWrites:    make(map[string]*item.Item),
		accountWrites: make(map[string]*account.Account),
		accountNew:    make(map[string]bool),
		orderDeletes:  make(map[string]bool),
	}
}

func (t *tx) Items() item.Repository       { return &txItemRepo{t: t} }
func (t *tx) Accounts() account.Repository { return &txAccountRepo{t: t} }
func (t *tx) Orders() order.Repository     { return &txOrderRepo{t: t} }

// commit validates every read version and applies the buffered writes under
// the store lock. Any record that changed since it was read fails the whole
// transaction with store.ErrConflict and applies nothing.
func (t *tx) commit() error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	for id, seen := range t.itemReads {
		if t.s.itemVersion(id) != seen {
			return store.ErrConflict
		}
	}
	for id, seen := range t.accountReads {
		if t.s.accountVersion(id) != seen {
			return store.ErrConflict
		}
	}
	for id, isNew := range t.accountNew {
		if !isNew {
			continue
		}
		if acc := t.accountWrites[id]; acc != nil {
			if _, taken := t.s.logins[acc.Account]; taken {
				return account.ErrDuplicateAccount
			}
		}
	}

	for id, it := range t.itemWrites {
		if it == nil {
			delete(t.s.items, id)
			continue
		}
		t.s.putItem(*it)
	}
	for id, acc := range t.accountWrites {
		if acc == nil {
			_ = t.s.deleteAccount(id)
			continue
		}
		t.s.putAccount(*acc)
	}
	for _, o := range t.orderCreates {
		t.s.createOrder(o)
	}
	for id := range t.orderDeletes {
		t.s.dropOrder(id)
	}

	return nil
}

// --- transactional repositories ---

type txItemRepo struct{ t *tx }

func (r *txItemRepo) List(ctx context.Context) ([]item.Item, error) {
	// Listings inside a transaction see committed state plus own writes.
	base, _ := (&itemRepo{s: r.t.s}).List(ctx)
	out := base[:0:0]
	for _, it := range base {
		if buffered, ok := r.t.itemWrites[it.ID]; ok {
			if buffered == nil {
				continue
			}
			it = *buffered
		}
		out = append(out, it)
	}
	return out, nil
}

func (r *txItemRepo) GetByID(_ context.Context, id string) (*item.Item, error) {
	if buffered, ok := r.t.itemWrites[id]; ok {
		if buffered == nil {
			return nil, item.ErrNotFound
		}
		v := *buffered
		return &v, nil
	}

	r.t.s.mu.Lock()
	rec, ok := r.t.s.items[id]
	if !ok {
		r.t.itemReads[id] = absentVersion
		r.t.s.mu.Unlock()
		return nil, item.ErrNotFound
	}
	r.t.itemReads[id] = rec.version
	v := rec.value
	r.t.s.mu.Unlock()
	return &v, nil
}

func (r *txItemRepo) Save(_ context.Context, it *item.Item) error {
	v := *it
	r.t.itemWrites[it.ID] = &v
	return nil
}

func (r *txItemRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	r.t.itemWrites[id] = nil
	return nil
}

type txAccountRepo struct{ t *tx }

func (r *txAccountRepo) List(ctx context.Context) ([]account.Account, error) {
	base, _ := (&accountRepo{s: r.t.s}).List(ctx)
	out := base[:0:0]
	for _, acc := range base {
		if buffered, ok := r.t.accountWrites[acc.UserID]; ok {
			if buffered == nil {
				continue
			}
			acc = cloneAccount(*buffered)
		}
		out = append(out, acc)
	}
	return out, nil
}

func (r *txAccountRepo) GetByID(_ context.Context, userID string) (*account.Account, error) {
	if buffered, ok := r.t.accountWrites[userID]; ok {
		if buffered == nil {
			return nil, account.ErrNotFound
		}
		v := cloneAccount(*buffered)
		return &v, nil
	}

	r.t.s.mu.Lock()
	rec, ok := r.t.s.accounts[userID]
	if !ok {
		r.t.accountReads[userID] = absentVersion
		r.t.s.mu.Unlock()
		return nil, account.ErrNotFound
	}
	r.t.accountReads[userID] = rec.version
	v := cloneAccount(rec.value)
	r.t.s.mu.Unlock()
	return &v, nil
}

func (r *txAccountRepo) GetByLogin(ctx context.Context, name string) (*account.Account, error) {
	for _, buffered := range r.t.accountWrites {
		if buffered != nil && buffered.Account == name {
			v := cloneAccount(*buffered)
			return &v, nil
		}
	}

	r.t.s.mu.Lock()
	id, ok := r.t.s.logins[name]
	r.t.s.mu.Unlock()
	if !ok {
		return nil, account.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *txAccountRepo) Create(_ context.Context, acc *account.Account) error {
	v := cloneAccount(*acc)
	r.t.accountWrites[acc.UserID] = &v
	r.t.accountNew[acc.UserID] = true
	return nil
}

func (r *txAccountRepo) Save(_ context.Context, acc *account.Account) error {
	v := cloneAccount(*acc)
	r.t.accountWrites[acc.UserID] = &v
	return nil
}

func (r *txAccountRepo) Delete(ctx context.Context, userID string) error {
	if _, err := r.GetByID(ctx, userID); err != nil {
		return err
	}
	r.t.accountWrites[userID] = nil
	return nil
}

type txOrderRepo struct{ t *tx }

func (r *txOrderRepo) Create(_ context.Context, o *order.Order) error {
	r.t.orderCreates = append(r.t.orderCreates, cloneOrder(*o))
	return nil
}

func (r *txOrderRepo) List(ctx context.Context) ([]order.Order, error) {
	base, _ := (&orderRepo{s: r.t.s}).List(ctx)
	out := base[:0:0]
	for _, o := range base {
		if r.t.orderDeletes[o.ID] {
			continue
		}
		out = append(out, o)
	}
	for _, o := range r.t.orderCreates {
		out = append(out, cloneOrder(o))
	}
	return out, nil
}

func (r *txOrderRepo) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []order.Order
	for _, o := range all {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *txOrderRepo) Delete(_ context.Context, id string) error {
	r.t.s.mu.Lock()
	_, ok := r.t.s.orders[id]
	r.t.s.mu.Unlock()
	if !ok {
		return order.ErrNotFound
	}
	r.t.orderDeletes[id] = true
	return nil
}
