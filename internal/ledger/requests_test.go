package ledger

import (
	"testing"

	"github.com/google/uuid"
)

func TestExpenseRequestValidate(t *testing.T) {
	validAccount := uuid.New().String()

	tests := []struct {
		name    string
		req     ExpenseRequest
		wantErr bool
	}{
		{
			name: "valid",
			req:  ExpenseRequest{Description: "groceries", Amount: 42.50, SourceAccount: validAccount},
		},
		{
			name:    "missing description",
			req:     ExpenseRequest{Amount: 42.50, SourceAccount: validAccount},
			wantErr: true,
		},
		{
			name:    "zero amount",
			req:     ExpenseRequest{Description: "groceries", SourceAccount: validAccount},
			wantErr: true,
		},
		{
			name:    "negative amount",
			req:     ExpenseRequest{Description: "groceries", Amount: -5, SourceAccount: validAccount},
			wantErr: true,
		},
		{
			name:    "missing source account",
			req:     ExpenseRequest{Description: "groceries", Amount: 42.50},
			wantErr: true,
		},
		{
			name:    "malformed source account",
			req:     ExpenseRequest{Description: "groceries", Amount: 42.50, SourceAccount: "not-a-uuid"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected validation error, got nil")
				}
				if !IsValidation(err) {
					t.Errorf("expected ValidationError, got %T", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.req.sourceAccountID.String() != tt.req.SourceAccount {
				t.Errorf("sourceAccountID not resolved: got %s", tt.req.sourceAccountID)
			}
		})
	}
}

func TestIncomeRequestValidate(t *testing.T) {
	req := IncomeRequest{Description: "salary", Amount: 1000, DestinationAccount: uuid.New().String()}
	if err := req.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	missing := IncomeRequest{Description: "salary", Amount: 1000}
	if err := missing.Validate(); err == nil {
		t.Error("expected error for missing destinationAccount")
	}
}

func TestSelfTransferRequestValidate(t *testing.T) {
	src := uuid.New().String()
	dst := uuid.New().String()

	// Description is optional for self-transfers.
	req := SelfTransferRequest{Amount: 100, SourceAccount: src, DestinationAccount: dst}
	if err := req.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	same := SelfTransferRequest{Amount: 100, SourceAccount: src, DestinationAccount: src}
	if err := same.Validate(); err == nil {
		t.Error("expected error for identical source and destination")
	}

	noAmount := SelfTransferRequest{SourceAccount: src, DestinationAccount: dst}
	if err := noAmount.Validate(); err == nil {
		t.Error("expected error for missing amount")
	}
}

func TestUpdateBalanceRequestValidate(t *testing.T) {
	missing := UpdateBalanceRequest{}
	if err := missing.Validate(); err == nil {
		t.Error("expected error for missing newBalance")
	}

	zero := 0.0
	explicit := UpdateBalanceRequest{NewBalance: &zero}
	if err := explicit.Validate(); err != nil {
		t.Errorf("explicit zero balance should be accepted: %v", err)
	}

	negative := -250.75
	debt := UpdateBalanceRequest{NewBalance: &negative}
	if err := debt.Validate(); err != nil {
		t.Errorf("negative balance should be accepted: %v", err)
	}
}

func TestCreateDebtRequestValidate(t *testing.T) {
	amount := func(v float64) *float64 { return &v }
	base := func() CreateDebtRequest {
		return CreateDebtRequest{
			Description:   "loan to a friend",
			TotalAmount:   amount(500),
			SettledAmount: amount(0),
			PendingAmount: amount(500),
			Status:        DebtStatusPending,
			Type:          DebtTypePositive,
			Debtor:        "Alex",
			Creditor:      "me",
		}
	}

	t.Run("valid", func(t *testing.T) {
		req := base()
		if err := req.Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("missing amounts", func(t *testing.T) {
		req := base()
		req.PendingAmount = nil
		if err := req.Validate(); err == nil {
			t.Error("expected error for missing pendingAmount")
		}
	})

	t.Run("invalid status", func(t *testing.T) {
		req := base()
		req.Status = "overdue"
		if err := req.Validate(); err == nil {
			t.Error("expected error for unknown status")
		}
	})

	t.Run("invalid type", func(t *testing.T) {
		req := base()
		req.Type = "neutral"
		if err := req.Validate(); err == nil {
			t.Error("expected error for unknown type")
		}
	})

	t.Run("debtor side empty", func(t *testing.T) {
		req := base()
		req.Debtor = ""
		if err := req.Validate(); err == nil {
			t.Error("expected error when neither debtor nor debtorAccount is set")
		}
	})

	t.Run("debtor account stands in for debtor name", func(t *testing.T) {
		req := base()
		req.Debtor = ""
		req.DebtorAccount = uuid.New().String()
		if err := req.Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if req.debtorAccountID == nil {
			t.Error("debtorAccountID not resolved")
		}
	})

	t.Run("recurring without recurrence", func(t *testing.T) {
		req := base()
		req.IsRecurring = true
		if err := req.Validate(); err == nil {
			t.Error("expected error for recurring debt without recurrence")
		}
	})

	t.Run("recurrence interval below one", func(t *testing.T) {
		req := base()
		req.IsRecurring = true
		req.Recurrence = &Recurrence{Frequency: FrequencyMonthly, Interval: 0}
		if err := req.Validate(); err == nil {
			t.Error("expected error for zero interval")
		}
	})

	t.Run("valid recurrence", func(t *testing.T) {
		req := base()
		req.IsRecurring = true
		req.Recurrence = &Recurrence{Frequency: FrequencyWeekly, Interval: 2}
		if err := req.Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestUpdateDebtStatusRequestValidate(t *testing.T) {
	for _, status := range []DebtStatus{DebtStatusPending, DebtStatusSettled} {
		req := UpdateDebtStatusRequest{NewStatus: status}
		if err := req.Validate(); err != nil {
			t.Errorf("status %q rejected: %v", status, err)
		}
	}

	bad := UpdateDebtStatusRequest{NewStatus: "paid"}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestDebtTransactionRequestValidate(t *testing.T) {
	valid := DebtTransactionRequest{
		Description:   "monthly installment",
		Amount:        50,
		Type:          TransactionTypeDebt,
		SourceAccount: uuid.New().String(),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	badType := valid
	badType.Type = "refund"
	if err := badType.Validate(); err == nil {
		t.Error("expected error for unknown transaction type")
	}
}
