package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dvloznov/bookkeeper/internal/ledger"
)

// AccountRepository implements ledger.AccountRepository on PostgreSQL.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates an AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

func (r *AccountRepository) Create(ctx context.Context, account *ledger.BankAccount) error {
	query := `
		INSERT INTO bank_accounts (id, account_number, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := db(ctx, r.pool).Exec(ctx, query,
		account.ID,
		account.AccountNumber,
		account.Balance,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ledger.ErrDuplicateAccountNumber
		}
		return fmt.Errorf("failed to create bank account: %w", err)
	}
	return nil
}

func (r *AccountRepository) List(ctx context.Context) ([]*ledger.BankAccount, error) {
	query := `
		SELECT id, account_number, balance, created_at, updated_at
		FROM bank_accounts
		ORDER BY created_at
	`

	rows, err := db(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list bank accounts: %w", err)
	}
	defer rows.Close()

	accounts := []*ledger.BankAccount{}
	for rows.Next() {
		var account ledger.BankAccount
		if err := rows.Scan(
			&account.ID,
			&account.AccountNumber,
			&account.Balance,
			&account.CreatedAt,
			&account.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan bank account: %w", err)
		}
		accounts = append(accounts, &account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read bank accounts: %w", err)
	}
	return accounts, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*ledger.BankAccount, error) {
	query := `
		SELECT id, account_number, balance, created_at, updated_at
		FROM bank_accounts
		WHERE id = $1
	`
	return r.scanOne(db(ctx, r.pool).QueryRow(ctx, query, id))
}

// Lock loads the account with SELECT ... FOR UPDATE so concurrent units
// against the same account serialize. Must run inside a transaction.
func (r *AccountRepository) Lock(ctx context.Context, id uuid.UUID) (*ledger.BankAccount, error) {
	query := `
		SELECT id, account_number, balance, created_at, updated_at
		FROM bank_accounts
		WHERE id = $1
		FOR UPDATE
	`
	return r.scanOne(db(ctx, r.pool).QueryRow(ctx, query, id))
}

func (r *AccountRepository) scanOne(row pgx.Row) (*ledger.BankAccount, error) {
	var account ledger.BankAccount
	err := row.Scan(
		&account.ID,
		&account.AccountNumber,
		&account.Balance,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get bank account: %w", err)
	}
	return &account, nil
}

func (r *AccountRepository) Update(ctx context.Context, account *ledger.BankAccount) error {
	query := `
		UPDATE bank_accounts
		SET balance = $2,
		    updated_at = $3
		WHERE id = $1
	`

	result, err := db(ctx, r.pool).Exec(ctx, query, account.ID, account.Balance, account.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update bank account: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ledger.ErrAccountNotFound
	}
	return nil
}
