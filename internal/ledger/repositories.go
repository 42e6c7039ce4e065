package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AccountRepository is the data access contract for bank accounts.
type AccountRepository interface {
	// Create persists a new account. Returns ErrDuplicateAccountNumber if the
	// accountNumber is already taken.
	Create(ctx context.Context, account *BankAccount) error

	// List returns all accounts ordered by creation time.
	List(ctx context.Context) ([]*BankAccount, error)

	// GetByID retrieves an account. Returns ErrAccountNotFound if absent.
	GetByID(ctx context.Context, id uuid.UUID) (*BankAccount, error)

	// Lock retrieves an account and holds a write lock on it for the duration
	// of the surrounding transaction. Must be called within a transaction
	// context. Returns ErrAccountNotFound if absent.
	Lock(ctx context.Context, id uuid.UUID) (*BankAccount, error)

	// Update persists changes to an existing account. Returns
	// ErrAccountNotFound if the account no longer exists.
	Update(ctx context.Context, account *BankAccount) error
}

// TransactionFilter narrows a transaction listing. Zero times are unbounded.
type TransactionFilter struct {
	Start time.Time
	End   time.Time
}

// TransactionRepository is the data access contract for transactions.
// Transactions are append-only.
type TransactionRepository interface {
	Create(ctx context.Context, txn *Transaction) error

	// List returns transactions matching the filter, newest first.
	List(ctx context.Context, filter TransactionFilter) ([]*Transaction, error)
}

// DebtRepository is the data access contract for debts.
type DebtRepository interface {
	Create(ctx context.Context, debt *Debt) error

	List(ctx context.Context) ([]*Debt, error)

	// GetByID retrieves a debt. Returns ErrDebtNotFound if absent.
	GetByID(ctx context.Context, id uuid.UUID) (*Debt, error)

	// Lock retrieves a debt and holds a write lock on it for the duration of
	// the surrounding transaction. Returns ErrDebtNotFound if absent.
	Lock(ctx context.Context, id uuid.UUID) (*Debt, error)

	// Update persists changes to an existing debt. Returns ErrDebtNotFound if
	// the debt no longer exists.
	Update(ctx context.Context, debt *Debt) error
}

// TransactionManager runs a function inside one atomic unit of work: every
// repository write made through the function's context commits together or
// not at all.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
