// Package user covers the account lifecycle: registration, login, deposits,
// and the plain read/delete surface over account records.
package user

import (
	"context"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/xenking/kart-store/internal/domain/account"
	"github.com/xenking/kart-store/internal/domain/store"
)

// ErrInvalidAmount is returned when a deposit amount is not positive.
var ErrInvalidAmount = errors.New("deposit amount must be positive")

const (
	bcryptCost = 10

	// Filter sizing for taken account names. False positives only cost an
	// extra lookup; false negatives cannot happen for names added locally,
	// and the unique constraint backstops everything else.
	filterCapacity = 1 << 20
	filterFPR      = 0.01
)

// Service manages accounts.
type Service struct {
	store store.Store

	// taken is a bloom filter over account names known to exist.
	// Registration consults it to skip the existence query for names that
	// are definitely unused.
	mu    sync.Mutex
	taken *bloom.BloomFilter
}

// NewService creates a user Service on top of the given record store.
func NewService(st store.Store) *Service {
	return &Service{
		store: st,
		taken: bloom.NewWithEstimates(filterCapacity, filterFPR),
	}
}

// WarmFilter loads all existing account names into the duplicate filter.
// Best-effort: registration stays correct without it, just slower on the
// first lookups.
func (s *Service) WarmFilter(ctx context.Context) error {
	accounts, err := s.store.Accounts().List(ctx)
	if err != nil {
		return errors.Wrap(err, "list accounts")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range accounts {
		s.taken.AddString(accounts[i].Account)
	}
	return nil
}

func (s *Service) maybeTaken(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.taken.TestString(name)
}

func (s *Service) markTaken(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.taken.AddString(name)
}

// RegisterParams holds the input for creating an account.
type RegisterParams struct {
	Account  string
	UserName string
	Password string
	Credit   decimal.Decimal
}

// Register creates a new account with a hashed password and an empty cart.
// Returns account.ErrDuplicateAccount when the account name is already in
// use; the repository's uniqueness check is authoritative, the filter only
// short-circuits the lookup.
func (s *Service) Register(ctx context.Context, p RegisterParams) (*account.Account, error) {
	if s.maybeTaken(p.Account) {
		_, err := s.store.Accounts().GetByLogin(ctx, p.Account)
		switch {
		case err == nil:
			return nil, account.ErrDuplicateAccount
		case !errors.Is(err, account.ErrNotFound):
			return nil, errors.Wrap(err, "check account name")
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), bcryptCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	now := time.Now().UTC()
	acc := &account.Account{
		UserID:       uuid.New().String(),
		Account:      p.Account,
		UserName:     p.UserName,
		PasswordHash: string(hash),
		Credit:       p.Credit,
		Cart:         []account.CartLine{},
		CreatedAt:    now,
		LastLoginAt:  now,
	}
	if err := s.store.Accounts().Create(ctx, acc); err != nil {
		return nil, err
	}

	s.markTaken(p.Account)
	return acc, nil
}

// Login verifies the password for an account name and returns the account.
// A wrong password yields account.ErrInvalidCredentials; an unknown name
// yields account.ErrNotFound.
func (s *Service) Login(ctx context.Context, accountName, password string) (*account.Account, error) {
	acc, err := s.store.Accounts().GetByLogin(ctx, accountName)
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		return nil, account.ErrInvalidCredentials
	}

	return acc, nil
}

// Deposit adds amount to the account's credit balance. The read-modify-write
// runs under the serializable runner so concurrent deposits and checkouts
// against the same account never lose an update.
func (s *Service) Deposit(ctx context.Context, userID string, amount decimal.Decimal) (*account.Account, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	var updated *account.Account
	err := s.store.ExecSerializable(ctx, func(tx store.Tx) error {
		acc, err := tx.Accounts().GetByID(ctx, userID)
		if err != nil {
			return err
		}

		acc.Credit = acc.Credit.Add(amount)
		if err := tx.Accounts().Save(ctx, acc); err != nil {
			return err
		}

		updated = acc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Get returns a single account by user ID.
func (s *Service) Get(ctx context.Context, userID string) (*account.Account, error) {
	return s.store.Accounts().GetByID(ctx, userID)
}

// List returns all accounts.
func (s *Service) List(ctx context.Context) ([]account.Account, error) {
	return s.store.Accounts().List(ctx)
}

// Delete removes an account and, through the store, its orders.
func (s *Service) Delete(ctx context.Context, userID string) error {
	return s.store.Accounts().Delete(ctx, userID)
}
