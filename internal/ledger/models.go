package ledger

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType classifies how a transaction moves money.
type TransactionType string

const (
	TransactionTypeIncome       TransactionType = "income"
	TransactionTypeExpense      TransactionType = "expense"
	TransactionTypeSelfTransfer TransactionType = "self-transfer"
	TransactionTypeDebt         TransactionType = "debt"
)

// ValidTransactionType reports whether t is one of the known transaction types.
func ValidTransactionType(t TransactionType) bool {
	switch t {
	case TransactionTypeIncome, TransactionTypeExpense, TransactionTypeSelfTransfer, TransactionTypeDebt:
		return true
	}
	return false
}

// DebtStatus is the settlement state of a debt. Status never changes
// automatically; callers move it between pending and settled explicitly.
type DebtStatus string

const (
	DebtStatusPending DebtStatus = "pending"
	DebtStatusSettled DebtStatus = "settled"
)

// ValidDebtStatus reports whether s is an accepted debt status.
func ValidDebtStatus(s DebtStatus) bool {
	return s == DebtStatusPending || s == DebtStatusSettled
}

// DebtType is the polarity of a debt: a positive debt is money owed to the
// record owner, a negative debt is money the owner owes.
type DebtType string

const (
	DebtTypeNegative DebtType = "negative"
	DebtTypePositive DebtType = "positive"
)

// ValidDebtType reports whether t is an accepted debt polarity.
func ValidDebtType(t DebtType) bool {
	return t == DebtTypeNegative || t == DebtTypePositive
}

// RecurrenceFrequency is the unit of a recurring debt's schedule.
type RecurrenceFrequency string

const (
	FrequencyDaily   RecurrenceFrequency = "daily"
	FrequencyWeekly  RecurrenceFrequency = "weekly"
	FrequencyMonthly RecurrenceFrequency = "monthly"
	FrequencyYearly  RecurrenceFrequency = "yearly"
)

// ValidRecurrenceFrequency reports whether f is an accepted frequency.
func ValidRecurrenceFrequency(f RecurrenceFrequency) bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}

// BankAccount is an account whose running balance the transaction protocol
// maintains. Accounts are created explicitly and never deleted.
type BankAccount struct {
	ID            uuid.UUID `json:"id"`
	AccountNumber string    `json:"accountNumber"`
	Balance       float64   `json:"balance"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// NewBankAccount creates an account with a zero balance.
func NewBankAccount(accountNumber string) *BankAccount {
	now := time.Now().UTC()
	return &BankAccount{
		ID:            uuid.New(),
		AccountNumber: accountNumber,
		Balance:       0,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Credit adds amount to the balance.
func (a *BankAccount) Credit(amount float64) {
	a.Balance += amount
	a.UpdatedAt = time.Now().UTC()
}

// Debit subtracts amount from the balance. Balances may go negative; the
// protocol does not enforce sufficient funds.
func (a *BankAccount) Debit(amount float64) {
	a.Balance -= amount
	a.UpdatedAt = time.Now().UTC()
}

// Transaction is a single bookkeeping entry. Amounts are always positive;
// the sign of the balance effect follows from Type and from whether an
// account is referenced as source or destination. Transactions are immutable
// once written.
type Transaction struct {
	ID                 uuid.UUID       `json:"id"`
	Description        string          `json:"description"`
	Amount             float64         `json:"amount"`
	Category           string          `json:"category,omitempty"`
	Date               time.Time       `json:"date"`
	Type               TransactionType `json:"type"`
	SourceAccount      *uuid.UUID      `json:"sourceAccount,omitempty"`
	DestinationAccount *uuid.UUID      `json:"destinationAccount,omitempty"`
	Debt               *uuid.UUID      `json:"debt,omitempty"`
}

// Recurrence describes the schedule of a recurring debt.
type Recurrence struct {
	Frequency   RecurrenceFrequency `json:"frequency"`
	Interval    int                 `json:"interval"`
	NextDueDate time.Time           `json:"nextDueDate"`
}

// Debt is a ledger tracking money owed between the record owner and a
// counterparty. The counterparty may be named free-text (Debtor/Creditor) or
// referenced as an account; at least one of each pair is present.
type Debt struct {
	ID              uuid.UUID   `json:"id"`
	Description     string      `json:"description"`
	TotalAmount     float64     `json:"totalAmount"`
	SettledAmount   float64     `json:"settledAmount"`
	PendingAmount   float64     `json:"pendingAmount"`
	Status          DebtStatus  `json:"status"`
	Type            DebtType    `json:"type"`
	Date            time.Time   `json:"date"`
	Debtor          string      `json:"debtor,omitempty"`
	Creditor        string      `json:"creditor,omitempty"`
	DebtorAccount   *uuid.UUID  `json:"debtorAccount,omitempty"`
	CreditorAccount *uuid.UUID  `json:"creditorAccount,omitempty"`
	IsRecurring     bool        `json:"isRecurring"`
	Recurrence      *Recurrence `json:"recurrence,omitempty"`
}

// SettlementAccount returns the account a debt transaction moves, selected
// by polarity: positive debts settle against the debtor's account, negative
// debts against the creditor's. ok is false when the selected side has no
// account reference.
func (d *Debt) SettlementAccount() (id uuid.UUID, ok bool) {
	ref := d.CreditorAccount
	if d.Type == DebtTypePositive {
		ref = d.DebtorAccount
	}
	if ref == nil {
		return uuid.Nil, false
	}
	return *ref, true
}

// ApplyTransaction grows the debt's running totals by amount. Both
// totalAmount and pendingAmount move together; settledAmount is untouched.
func (d *Debt) ApplyTransaction(amount float64) {
	d.TotalAmount += amount
	d.PendingAmount += amount
}
