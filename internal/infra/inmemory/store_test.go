package inmemory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/bookkeeper/internal/ledger"
)

func TestAccountRepoCreateAndGet(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	account := ledger.NewBankAccount("A001")
	if err := store.Accounts().Create(ctx, account); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := store.Accounts().GetByID(ctx, account.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.AccountNumber != "A001" {
		t.Errorf("accountNumber = %s, want A001", got.AccountNumber)
	}

	_, err = store.Accounts().GetByID(ctx, uuid.New())
	if !errors.Is(err, ledger.ErrAccountNotFound) {
		t.Errorf("err = %v, want ErrAccountNotFound", err)
	}
}

func TestAccountRepoDuplicateNumber(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if err := store.Accounts().Create(ctx, ledger.NewBankAccount("A001")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	err := store.Accounts().Create(ctx, ledger.NewBankAccount("A001"))
	if !errors.Is(err, ledger.ErrDuplicateAccountNumber) {
		t.Fatalf("err = %v, want ErrDuplicateAccountNumber", err)
	}
}

func TestRepositoriesReturnClones(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	account := ledger.NewBankAccount("A001")
	if err := store.Accounts().Create(ctx, account); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Mutating a fetched record must not leak into the store.
	got, _ := store.Accounts().GetByID(ctx, account.ID)
	got.Balance = 9999

	fresh, _ := store.Accounts().GetByID(ctx, account.ID)
	if fresh.Balance != 0 {
		t.Errorf("store balance = %v, want 0; fetched records must be isolated copies", fresh.Balance)
	}
}

func TestWithTransactionRollback(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	account := ledger.NewBankAccount("A001")
	if err := store.Accounts().Create(ctx, account); err != nil {
		t.Fatalf("Create: %v", err)
	}

	boom := errors.New("boom")
	err := store.WithTransaction(ctx, func(txCtx context.Context) error {
		locked, err := store.Accounts().Lock(txCtx, account.ID)
		if err != nil {
			return err
		}
		locked.Credit(100)
		if err := store.Accounts().Update(txCtx, locked); err != nil {
			return err
		}
		if err := store.Transactions().Create(txCtx, &ledger.Transaction{
			ID: uuid.New(), Description: "doomed", Amount: 100,
			Date: time.Now(), Type: ledger.TransactionTypeIncome,
		}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	got, _ := store.Accounts().GetByID(ctx, account.ID)
	if got.Balance != 0 {
		t.Errorf("balance after rollback = %v, want 0", got.Balance)
	}
	txns, _ := store.Transactions().List(ctx, ledger.TransactionFilter{})
	if len(txns) != 0 {
		t.Errorf("transactions after rollback = %d, want 0", len(txns))
	}
}

func TestWithTransactionCommit(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	account := ledger.NewBankAccount("A001")
	if err := store.Accounts().Create(ctx, account); err != nil {
		t.Fatalf("Create: %v", err)
	}

	err := store.WithTransaction(ctx, func(txCtx context.Context) error {
		locked, err := store.Accounts().Lock(txCtx, account.ID)
		if err != nil {
			return err
		}
		locked.Credit(100)
		return store.Accounts().Update(txCtx, locked)
	})
	if err != nil {
		t.Fatalf("WithTransaction: %v", err)
	}

	got, _ := store.Accounts().GetByID(ctx, account.ID)
	if got.Balance != 100 {
		t.Errorf("balance = %v, want 100", got.Balance)
	}
}

func TestTransactionListNewestFirst(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	for i, desc := range []string{"first", "second", "third"} {
		txn := &ledger.Transaction{
			ID:          uuid.New(),
			Description: desc,
			Amount:      float64(i + 1),
			Date:        time.Date(2025, 1, i+1, 0, 0, 0, 0, time.UTC),
			Type:        ledger.TransactionTypeIncome,
		}
		if err := store.Transactions().Create(ctx, txn); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	txns, err := store.Transactions().List(ctx, ledger.TransactionFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(txns) != 3 {
		t.Fatalf("len = %d, want 3", len(txns))
	}
	if txns[0].Description != "third" || txns[2].Description != "first" {
		t.Errorf("unexpected order: %s, %s, %s", txns[0].Description, txns[1].Description, txns[2].Description)
	}
}

func TestDebtRepo(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	debt := &ledger.Debt{
		ID:            uuid.New(),
		Description:   "loan",
		TotalAmount:   500,
		PendingAmount: 500,
		Status:        ledger.DebtStatusPending,
		Type:          ledger.DebtTypeNegative,
		Date:          time.Now(),
		Debtor:        "me",
		Creditor:      "Alex",
	}
	if err := store.Debts().Create(ctx, debt); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := store.Debts().GetByID(ctx, debt.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	got.Status = ledger.DebtStatusSettled
	if err := store.Debts().Update(ctx, got); err != nil {
		t.Fatalf("Update: %v", err)
	}

	fresh, _ := store.Debts().GetByID(ctx, debt.ID)
	if fresh.Status != ledger.DebtStatusSettled {
		t.Errorf("status = %s, want settled", fresh.Status)
	}

	_, err = store.Debts().GetByID(ctx, uuid.New())
	if !errors.Is(err, ledger.ErrDebtNotFound) {
		t.Errorf("err = %v, want ErrDebtNotFound", err)
	}

	update := &ledger.Debt{ID: uuid.New()}
	if err := store.Debts().Update(ctx, update); !errors.Is(err, ledger.ErrDebtNotFound) {
		t.Errorf("Update err = %v, want ErrDebtNotFound", err)
	}
}
