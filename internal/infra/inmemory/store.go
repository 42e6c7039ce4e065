// Package inmemory implements the ledger repositories on plain maps. It is
// safe for concurrent use and is suitable for tests and single-instance
// local development; production deployments use the postgres store.
package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/bookkeeper/internal/ledger"
)

// txKey marks a context as running inside WithTransaction.
type txKey struct{}

// Store holds all records behind one mutex. WithTransaction snapshots the
// record maps before running the unit of work and restores them on error,
// giving the same all-or-nothing contract as a database transaction.
type Store struct {
	mu sync.RWMutex

	accounts       map[uuid.UUID]*ledger.BankAccount
	accountNumbers map[string]uuid.UUID
	accountOrder   []uuid.UUID

	transactions []*ledger.Transaction

	debts     map[uuid.UUID]*ledger.Debt
	debtOrder []uuid.UUID
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		accounts:       make(map[uuid.UUID]*ledger.BankAccount),
		accountNumbers: make(map[string]uuid.UUID),
		debts:          make(map[uuid.UUID]*ledger.Debt),
	}
}

// Accounts returns the account repository view of the store.
func (s *Store) Accounts() ledger.AccountRepository { return &accountRepo{s} }

// Transactions returns the transaction repository view of the store.
func (s *Store) Transactions() ledger.TransactionRepository { return &transactionRepo{s} }

// Debts returns the debt repository view of the store.
func (s *Store) Debts() ledger.DebtRepository { return &debtRepo{s} }

// WithTransaction implements ledger.TransactionManager. The store lock is
// held for the whole unit, so units against the same store serialize.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type storeSnapshot struct {
	accounts       map[uuid.UUID]*ledger.BankAccount
	accountNumbers map[string]uuid.UUID
	accountOrder   []uuid.UUID
	transactions   []*ledger.Transaction
	debts          map[uuid.UUID]*ledger.Debt
	debtOrder      []uuid.UUID
}

// snapshot copies the container state. Record values are never mutated in
// place (repositories store and return clones), so copying the maps and
// slices is enough.
func (s *Store) snapshot() storeSnapshot {
	snap := storeSnapshot{
		accounts:       make(map[uuid.UUID]*ledger.BankAccount, len(s.accounts)),
		accountNumbers: make(map[string]uuid.UUID, len(s.accountNumbers)),
		accountOrder:   append([]uuid.UUID(nil), s.accountOrder...),
		transactions:   append([]*ledger.Transaction(nil), s.transactions...),
		debts:          make(map[uuid.UUID]*ledger.Debt, len(s.debts)),
		debtOrder:      append([]uuid.UUID(nil), s.debtOrder...),
	}
	for id, a := range s.accounts {
		snap.accounts[id] = a
	}
	for n, id := range s.accountNumbers {
		snap.accountNumbers[n] = id
	}
	for id, d := range s.debts {
		snap.debts[id] = d
	}
	return snap
}

func (s *Store) restore(snap storeSnapshot) {
	s.accounts = snap.accounts
	s.accountNumbers = snap.accountNumbers
	s.accountOrder = snap.accountOrder
	s.transactions = snap.transactions
	s.debts = snap.debts
	s.debtOrder = snap.debtOrder
}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

// read runs fn under the read lock unless already inside a transaction,
// which holds the write lock for its whole extent.
func (s *Store) read(ctx context.Context, fn func()) {
	if !inTx(ctx) {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	fn()
}

func (s *Store) write(ctx context.Context, fn func()) {
	if !inTx(ctx) {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	fn()
}

type accountRepo struct{ s *Store }

func (r *accountRepo) Create(ctx context.Context, account *ledger.BankAccount) error {
	var err error
	r.s.write(ctx, func() {
		if _, exists := r.s.accountNumbers[account.AccountNumber]; exists {
			err = ledger.ErrDuplicateAccountNumber
			return
		}
		r.s.accounts[account.ID] = cloneAccount(account)
		r.s.accountNumbers[account.AccountNumber] = account.ID
		r.s.accountOrder = append(r.s.accountOrder, account.ID)
	})
	return err
}

func (r *accountRepo) List(ctx context.Context) ([]*ledger.BankAccount, error) {
	var accounts []*ledger.BankAccount
	r.s.read(ctx, func() {
		accounts = make([]*ledger.BankAccount, 0, len(r.s.accountOrder))
		for _, id := range r.s.accountOrder {
			accounts = append(accounts, cloneAccount(r.s.accounts[id]))
		}
	})
	return accounts, nil
}

func (r *accountRepo) GetByID(ctx context.Context, id uuid.UUID) (*ledger.BankAccount, error) {
	var account *ledger.BankAccount
	r.s.read(ctx, func() {
		if a, ok := r.s.accounts[id]; ok {
			account = cloneAccount(a)
		}
	})
	if account == nil {
		return nil, ledger.ErrAccountNotFound
	}
	return account, nil
}

// Lock is equivalent to GetByID here: the store mutex already serializes
// whole transactions.
func (r *accountRepo) Lock(ctx context.Context, id uuid.UUID) (*ledger.BankAccount, error) {
	return r.GetByID(ctx, id)
}

func (r *accountRepo) Update(ctx context.Context, account *ledger.BankAccount) error {
	var err error
	r.s.write(ctx, func() {
		if _, ok := r.s.accounts[account.ID]; !ok {
			err = ledger.ErrAccountNotFound
			return
		}
		r.s.accounts[account.ID] = cloneAccount(account)
	})
	return err
}

type transactionRepo struct{ s *Store }

func (r *transactionRepo) Create(ctx context.Context, txn *ledger.Transaction) error {
	r.s.write(ctx, func() {
		r.s.transactions = append(r.s.transactions, cloneTransaction(txn))
	})
	return nil
}

func (r *transactionRepo) List(ctx context.Context, filter ledger.TransactionFilter) ([]*ledger.Transaction, error) {
	var out []*ledger.Transaction
	r.s.read(ctx, func() {
		for i := len(r.s.transactions) - 1; i >= 0; i-- {
			txn := r.s.transactions[i]
			if !matchesFilter(txn.Date, filter) {
				continue
			}
			out = append(out, cloneTransaction(txn))
		}
	})
	if out == nil {
		out = []*ledger.Transaction{}
	}
	return out, nil
}

func matchesFilter(date time.Time, filter ledger.TransactionFilter) bool {
	if !filter.Start.IsZero() && date.Before(filter.Start) {
		return false
	}
	if !filter.End.IsZero() && date.After(filter.End) {
		return false
	}
	return true
}

type debtRepo struct{ s *Store }

func (r *debtRepo) Create(ctx context.Context, debt *ledger.Debt) error {
	r.s.write(ctx, func() {
		r.s.debts[debt.ID] = cloneDebt(debt)
		r.s.debtOrder = append(r.s.debtOrder, debt.ID)
	})
	return nil
}

func (r *debtRepo) List(ctx context.Context) ([]*ledger.Debt, error) {
	var debts []*ledger.Debt
	r.s.read(ctx, func() {
		debts = make([]*ledger.Debt, 0, len(r.s.debtOrder))
		for _, id := range r.s.debtOrder {
			debts = append(debts, cloneDebt(r.s.debts[id]))
		}
	})
	return debts, nil
}

func (r *debtRepo) GetByID(ctx context.Context, id uuid.UUID) (*ledger.Debt, error) {
	var debt *ledger.Debt
	r.s.read(ctx, func() {
		if d, ok := r.s.debts[id]; ok {
			debt = cloneDebt(d)
		}
	})
	if debt == nil {
		return nil, ledger.ErrDebtNotFound
	}
	return debt, nil
}

func (r *debtRepo) Lock(ctx context.Context, id uuid.UUID) (*ledger.Debt, error) {
	return r.GetByID(ctx, id)
}

func (r *debtRepo) Update(ctx context.Context, debt *ledger.Debt) error {
	var err error
	r.s.write(ctx, func() {
		if _, ok := r.s.debts[debt.ID]; !ok {
			err = ledger.ErrDebtNotFound
			return
		}
		r.s.debts[debt.ID] = cloneDebt(debt)
	})
	return err
}

func cloneAccount(a *ledger.BankAccount) *ledger.BankAccount {
	c := *a
	return &c
}

func cloneTransaction(t *ledger.Transaction) *ledger.Transaction {
	c := *t
	c.SourceAccount = cloneID(t.SourceAccount)
	c.DestinationAccount = cloneID(t.DestinationAccount)
	c.Debt = cloneID(t.Debt)
	return &c
}

func cloneDebt(d *ledger.Debt) *ledger.Debt {
	c := *d
	c.DebtorAccount = cloneID(d.DebtorAccount)
	c.CreditorAccount = cloneID(d.CreditorAccount)
	if d.Recurrence != nil {
		rec := *d.Recurrence
		c.Recurrence = &rec
	}
	return &c
}

func cloneID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}
