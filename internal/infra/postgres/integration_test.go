package postgres_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/dvloznov/bookkeeper/internal/infra/postgres"
	"github.com/dvloznov/bookkeeper/internal/ledger"
)

// TestLedgerIntegration spins up a PostgreSQL container, applies the schema,
// and drives the full transaction protocol through the real store.
func TestLedgerIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, dbURL := startPostgresContainer(t, ctx)
	defer func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	}()

	pool, err := postgres.NewPool(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to create database pool: %v", err)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool.Pool, zerolog.Nop()); err != nil {
		t.Fatalf("failed to apply migrations: %v", err)
	}

	svc := ledger.NewService(
		postgres.NewAccountRepository(pool.Pool),
		postgres.NewTransactionRepository(pool.Pool),
		postgres.NewDebtRepository(pool.Pool),
		postgres.NewTransactionManager(pool.Pool, zerolog.Nop()),
		nil, nil, zerolog.Nop(),
	)

	t.Run("accounts", func(t *testing.T) {
		account, err := svc.CreateAccount(ctx, &ledger.CreateAccountRequest{AccountNumber: "IT-001"})
		if err != nil {
			t.Fatalf("CreateAccount: %v", err)
		}

		_, err = svc.CreateAccount(ctx, &ledger.CreateAccountRequest{AccountNumber: "IT-001"})
		if !errors.Is(err, ledger.ErrDuplicateAccountNumber) {
			t.Errorf("duplicate err = %v, want ErrDuplicateAccountNumber", err)
		}

		got, err := svc.GetAccount(ctx, account.ID)
		if err != nil {
			t.Fatalf("GetAccount: %v", err)
		}
		if got.AccountNumber != "IT-001" || got.Balance != 0 {
			t.Errorf("unexpected account: %+v", got)
		}
	})

	t.Run("self-transfer and rollback", func(t *testing.T) {
		source, err := svc.CreateAccount(ctx, &ledger.CreateAccountRequest{AccountNumber: "IT-SRC"})
		if err != nil {
			t.Fatalf("CreateAccount: %v", err)
		}
		destination, err := svc.CreateAccount(ctx, &ledger.CreateAccountRequest{AccountNumber: "IT-DST"})
		if err != nil {
			t.Fatalf("CreateAccount: %v", err)
		}

		if _, err := svc.RecordIncome(ctx, &ledger.IncomeRequest{
			Description: "seed", Amount: 1000, DestinationAccount: source.ID.String(),
		}); err != nil {
			t.Fatalf("RecordIncome: %v", err)
		}

		if _, err := svc.RecordSelfTransfer(ctx, &ledger.SelfTransferRequest{
			Amount:             250,
			SourceAccount:      source.ID.String(),
			DestinationAccount: destination.ID.String(),
		}); err != nil {
			t.Fatalf("RecordSelfTransfer: %v", err)
		}

		src, _ := svc.GetAccount(ctx, source.ID)
		dst, _ := svc.GetAccount(ctx, destination.ID)
		if src.Balance != 750 || dst.Balance != 250 {
			t.Errorf("balances = %v/%v, want 750/250", src.Balance, dst.Balance)
		}

		// Transfer to a nonexistent account must roll back the source debit.
		_, err = svc.RecordSelfTransfer(ctx, &ledger.SelfTransferRequest{
			Amount:             100,
			SourceAccount:      source.ID.String(),
			DestinationAccount: "f2d9c7aa-0000-4000-8000-00000000dead",
		})
		if !errors.Is(err, ledger.ErrAccountNotFound) {
			t.Fatalf("err = %v, want ErrAccountNotFound", err)
		}
		src, _ = svc.GetAccount(ctx, source.ID)
		if src.Balance != 750 {
			t.Errorf("source balance after rollback = %v, want 750", src.Balance)
		}
	})

	t.Run("debt settlement", func(t *testing.T) {
		amount := func(v float64) *float64 { return &v }

		debtorAccount, err := svc.CreateAccount(ctx, &ledger.CreateAccountRequest{AccountNumber: "IT-DEBTOR"})
		if err != nil {
			t.Fatalf("CreateAccount: %v", err)
		}
		payerAccount, err := svc.CreateAccount(ctx, &ledger.CreateAccountRequest{AccountNumber: "IT-PAYER"})
		if err != nil {
			t.Fatalf("CreateAccount: %v", err)
		}

		debt, err := svc.CreateDebt(ctx, &ledger.CreateDebtRequest{
			Description:   "loan",
			TotalAmount:   amount(500),
			SettledAmount: amount(0),
			PendingAmount: amount(500),
			Status:        ledger.DebtStatusPending,
			Type:          ledger.DebtTypePositive,
			DebtorAccount: debtorAccount.ID.String(),
			Creditor:      "me",
			IsRecurring:   true,
			Recurrence: &ledger.Recurrence{
				Frequency:   ledger.FrequencyMonthly,
				Interval:    1,
				NextDueDate: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
			},
		})
		if err != nil {
			t.Fatalf("CreateDebt: %v", err)
		}

		// Recurrence survives the round trip through nullable columns.
		stored, err := svc.GetDebt(ctx, debt.ID)
		if err != nil {
			t.Fatalf("GetDebt: %v", err)
		}
		if stored.Recurrence == nil || stored.Recurrence.Frequency != ledger.FrequencyMonthly {
			t.Errorf("recurrence not stored: %+v", stored.Recurrence)
		}

		if _, err := svc.RecordDebtTransaction(ctx, debt.ID, &ledger.DebtTransactionRequest{
			Description:   "installment",
			Amount:        75,
			Type:          ledger.TransactionTypeDebt,
			SourceAccount: payerAccount.ID.String(),
		}); err != nil {
			t.Fatalf("RecordDebtTransaction: %v", err)
		}

		debtor, _ := svc.GetAccount(ctx, debtorAccount.ID)
		if debtor.Balance != 75 {
			t.Errorf("debtor balance = %v, want 75", debtor.Balance)
		}
		after, _ := svc.GetDebt(ctx, debt.ID)
		if after.TotalAmount != 575 || after.PendingAmount != 575 {
			t.Errorf("debt totals = %v/%v, want 575/575", after.TotalAmount, after.PendingAmount)
		}
	})

	t.Run("transaction date filter", func(t *testing.T) {
		account, err := svc.CreateAccount(ctx, &ledger.CreateAccountRequest{AccountNumber: "IT-FILTER"})
		if err != nil {
			t.Fatalf("CreateAccount: %v", err)
		}

		old := time.Date(2020, 6, 15, 12, 0, 0, 0, time.UTC)
		if _, err := svc.RecordIncome(ctx, &ledger.IncomeRequest{
			Description: "old salary", Amount: 10, Date: old,
			DestinationAccount: account.ID.String(),
		}); err != nil {
			t.Fatalf("RecordIncome: %v", err)
		}

		got, err := svc.ListTransactions(ctx, ledger.TransactionFilter{
			Start: time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2020, 6, 30, 23, 59, 59, 0, time.UTC),
		})
		if err != nil {
			t.Fatalf("ListTransactions: %v", err)
		}
		if len(got) != 1 || !got[0].Date.Equal(old) {
			t.Errorf("filtered = %d transactions, want exactly the 2020 one", len(got))
		}
	})
}

func startPostgresContainer(t *testing.T, ctx context.Context) (testcontainers.Container, string) {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get postgres host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("failed to get postgres port: %v", err)
	}

	dbURL := fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port())
	return container, dbURL
}
