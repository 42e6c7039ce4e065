package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dvloznov/bookkeeper/internal/ledger"
)

// TransactionRepository implements ledger.TransactionRepository on
// PostgreSQL. Rows are append-only.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

func (r *TransactionRepository) Create(ctx context.Context, txn *ledger.Transaction) error {
	query := `
		INSERT INTO transactions (
			id, description, amount, category, tx_date, tx_type,
			source_account, destination_account, debt_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := db(ctx, r.pool).Exec(ctx, query,
		txn.ID,
		txn.Description,
		txn.Amount,
		txn.Category,
		txn.Date,
		string(txn.Type),
		txn.SourceAccount,
		txn.DestinationAccount,
		txn.Debt,
	)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (r *TransactionRepository) List(ctx context.Context, filter ledger.TransactionFilter) ([]*ledger.Transaction, error) {
	query := `
		SELECT id, description, amount, category, tx_date, tx_type,
		       source_account, destination_account, debt_id
		FROM transactions
		WHERE ($1::timestamptz IS NULL OR tx_date >= $1)
		  AND ($2::timestamptz IS NULL OR tx_date <= $2)
		ORDER BY tx_date DESC
	`

	var start, end any
	if !filter.Start.IsZero() {
		start = filter.Start
	}
	if !filter.End.IsZero() {
		end = filter.End
	}

	rows, err := db(ctx, r.pool).Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	transactions := []*ledger.Transaction{}
	for rows.Next() {
		var txn ledger.Transaction
		var txType string
		if err := rows.Scan(
			&txn.ID,
			&txn.Description,
			&txn.Amount,
			&txn.Category,
			&txn.Date,
			&txType,
			&txn.SourceAccount,
			&txn.DestinationAccount,
			&txn.Debt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txn.Type = ledger.TransactionType(txType)
		transactions = append(transactions, &txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transactions: %w", err)
	}
	return transactions, nil
}
