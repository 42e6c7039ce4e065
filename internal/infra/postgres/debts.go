package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dvloznov/bookkeeper/internal/ledger"
)

// DebtRepository implements ledger.DebtRepository on PostgreSQL.
type DebtRepository struct {
	pool *pgxpool.Pool
}

// NewDebtRepository creates a DebtRepository.
func NewDebtRepository(pool *pgxpool.Pool) *DebtRepository {
	return &DebtRepository{pool: pool}
}

const debtColumns = `
	id, description, total_amount, settled_amount, pending_amount,
	status, debt_type, debt_date, debtor, creditor,
	debtor_account, creditor_account,
	is_recurring, recurrence_frequency, recurrence_interval, recurrence_next_due
`

func (r *DebtRepository) Create(ctx context.Context, debt *ledger.Debt) error {
	query := `
		INSERT INTO debts (` + debtColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	var frequency *string
	var interval *int
	var nextDue *time.Time
	if debt.Recurrence != nil {
		f := string(debt.Recurrence.Frequency)
		frequency = &f
		interval = &debt.Recurrence.Interval
		nextDue = &debt.Recurrence.NextDueDate
	}

	_, err := db(ctx, r.pool).Exec(ctx, query,
		debt.ID,
		debt.Description,
		debt.TotalAmount,
		debt.SettledAmount,
		debt.PendingAmount,
		string(debt.Status),
		string(debt.Type),
		debt.Date,
		debt.Debtor,
		debt.Creditor,
		debt.DebtorAccount,
		debt.CreditorAccount,
		debt.IsRecurring,
		frequency,
		interval,
		nextDue,
	)
	if err != nil {
		return fmt.Errorf("failed to create debt: %w", err)
	}
	return nil
}

func (r *DebtRepository) List(ctx context.Context) ([]*ledger.Debt, error) {
	query := `SELECT ` + debtColumns + ` FROM debts ORDER BY debt_date`

	rows, err := db(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list debts: %w", err)
	}
	defer rows.Close()

	debts := []*ledger.Debt{}
	for rows.Next() {
		debt, err := scanDebt(rows)
		if err != nil {
			return nil, err
		}
		debts = append(debts, debt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read debts: %w", err)
	}
	return debts, nil
}

func (r *DebtRepository) GetByID(ctx context.Context, id uuid.UUID) (*ledger.Debt, error) {
	query := `SELECT ` + debtColumns + ` FROM debts WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// Lock loads the debt with SELECT ... FOR UPDATE. Must run inside a
// transaction.
func (r *DebtRepository) Lock(ctx context.Context, id uuid.UUID) (*ledger.Debt, error) {
	query := `SELECT ` + debtColumns + ` FROM debts WHERE id = $1 FOR UPDATE`
	return r.getOne(ctx, query, id)
}

func (r *DebtRepository) getOne(ctx context.Context, query string, id uuid.UUID) (*ledger.Debt, error) {
	debt, err := scanDebt(db(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrDebtNotFound
		}
		return nil, err
	}
	return debt, nil
}

func (r *DebtRepository) Update(ctx context.Context, debt *ledger.Debt) error {
	query := `
		UPDATE debts
		SET total_amount = $2,
		    settled_amount = $3,
		    pending_amount = $4,
		    status = $5
		WHERE id = $1
	`

	result, err := db(ctx, r.pool).Exec(ctx, query,
		debt.ID,
		debt.TotalAmount,
		debt.SettledAmount,
		debt.PendingAmount,
		string(debt.Status),
	)
	if err != nil {
		return fmt.Errorf("failed to update debt: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ledger.ErrDebtNotFound
	}
	return nil
}

func scanDebt(row pgx.Row) (*ledger.Debt, error) {
	var debt ledger.Debt
	var status, debtType string
	var frequency *string
	var interval *int
	var nextDue *time.Time

	err := row.Scan(
		&debt.ID,
		&debt.Description,
		&debt.TotalAmount,
		&debt.SettledAmount,
		&debt.PendingAmount,
		&status,
		&debtType,
		&debt.Date,
		&debt.Debtor,
		&debt.Creditor,
		&debt.DebtorAccount,
		&debt.CreditorAccount,
		&debt.IsRecurring,
		&frequency,
		&interval,
		&nextDue,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan debt: %w", err)
	}

	debt.Status = ledger.DebtStatus(status)
	debt.Type = ledger.DebtType(debtType)
	if frequency != nil && interval != nil && nextDue != nil {
		debt.Recurrence = &ledger.Recurrence{
			Frequency:   ledger.RecurrenceFrequency(*frequency),
			Interval:    *interval,
			NextDueDate: *nextDue,
		}
	}
	return &debt, nil
}
