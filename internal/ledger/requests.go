package ledger

import (
	"time"

	"github.com/google/uuid"
)

// Request types declare each operation's input once: required and optional
// fields, validated centrally before any store interaction begins. Validate
// also resolves account references, so handlers decode a body, call
// Validate, and hand the request to the service.

// ExpenseRequest records money leaving a bank account.
type ExpenseRequest struct {
	Description   string    `json:"description"`
	Amount        float64   `json:"amount"`
	Category      string    `json:"category,omitempty"`
	Date          time.Time `json:"date,omitzero"`
	SourceAccount string    `json:"sourceAccount"`

	sourceAccountID uuid.UUID
}

func (r *ExpenseRequest) Validate() error {
	if r.Description == "" {
		return validationErrorf("description is required")
	}
	if err := validateAmount(r.Amount); err != nil {
		return err
	}
	id, err := parseAccountRef("sourceAccount", r.SourceAccount)
	if err != nil {
		return err
	}
	r.sourceAccountID = id
	return nil
}

// IncomeRequest records money arriving at a bank account.
type IncomeRequest struct {
	Description        string    `json:"description"`
	Amount             float64   `json:"amount"`
	Category           string    `json:"category,omitempty"`
	Date               time.Time `json:"date,omitzero"`
	DestinationAccount string    `json:"destinationAccount"`

	destinationAccountID uuid.UUID
}

func (r *IncomeRequest) Validate() error {
	if r.Description == "" {
		return validationErrorf("description is required")
	}
	if err := validateAmount(r.Amount); err != nil {
		return err
	}
	id, err := parseAccountRef("destinationAccount", r.DestinationAccount)
	if err != nil {
		return err
	}
	r.destinationAccountID = id
	return nil
}

// SelfTransferRequest moves money between two accounts of the same owner.
// Description is optional here, unlike expense and income.
type SelfTransferRequest struct {
	Description        string    `json:"description,omitempty"`
	Amount             float64   `json:"amount"`
	Category           string    `json:"category,omitempty"`
	Date               time.Time `json:"date,omitzero"`
	SourceAccount      string    `json:"sourceAccount"`
	DestinationAccount string    `json:"destinationAccount"`

	sourceAccountID      uuid.UUID
	destinationAccountID uuid.UUID
}

func (r *SelfTransferRequest) Validate() error {
	if err := validateAmount(r.Amount); err != nil {
		return err
	}
	src, err := parseAccountRef("sourceAccount", r.SourceAccount)
	if err != nil {
		return err
	}
	dst, err := parseAccountRef("destinationAccount", r.DestinationAccount)
	if err != nil {
		return err
	}
	if src == dst {
		return validationErrorf("sourceAccount and destinationAccount must be different")
	}
	r.sourceAccountID = src
	r.destinationAccountID = dst
	return nil
}

// CreateAccountRequest opens a new bank account with a zero balance.
type CreateAccountRequest struct {
	AccountNumber string `json:"accountNumber"`
}

func (r *CreateAccountRequest) Validate() error {
	if r.AccountNumber == "" {
		return validationErrorf("accountNumber is required")
	}
	return nil
}

// UpdateBalanceRequest sets a new absolute balance on an account. NewBalance
// is a pointer so a missing field is distinguishable from zero.
type UpdateBalanceRequest struct {
	NewBalance *float64 `json:"newBalance"`
}

func (r *UpdateBalanceRequest) Validate() error {
	if r.NewBalance == nil {
		return validationErrorf("newBalance is required and must be a number")
	}
	return nil
}

// CreateDebtRequest opens a new debt ledger. The three amounts are
// caller-supplied and stored verbatim; no pendingAmount derivation is done.
type CreateDebtRequest struct {
	Description     string      `json:"description"`
	TotalAmount     *float64    `json:"totalAmount"`
	SettledAmount   *float64    `json:"settledAmount"`
	PendingAmount   *float64    `json:"pendingAmount"`
	Status          DebtStatus  `json:"status"`
	Type            DebtType    `json:"type"`
	Date            time.Time   `json:"date,omitzero"`
	Debtor          string      `json:"debtor,omitempty"`
	Creditor        string      `json:"creditor,omitempty"`
	DebtorAccount   string      `json:"debtorAccount,omitempty"`
	CreditorAccount string      `json:"creditorAccount,omitempty"`
	IsRecurring     bool        `json:"isRecurring"`
	Recurrence      *Recurrence `json:"recurrence,omitempty"`

	debtorAccountID   *uuid.UUID
	creditorAccountID *uuid.UUID
}

func (r *CreateDebtRequest) Validate() error {
	if r.Description == "" {
		return validationErrorf("description is required")
	}
	if r.TotalAmount == nil || r.SettledAmount == nil || r.PendingAmount == nil {
		return validationErrorf("totalAmount, settledAmount and pendingAmount are required")
	}
	if !ValidDebtStatus(r.Status) {
		return validationErrorf("status must be %q or %q", DebtStatusPending, DebtStatusSettled)
	}
	if !ValidDebtType(r.Type) {
		return validationErrorf("type must be %q or %q", DebtTypeNegative, DebtTypePositive)
	}
	if r.Debtor == "" && r.DebtorAccount == "" {
		return validationErrorf("either debtor or debtorAccount is required")
	}
	if r.Creditor == "" && r.CreditorAccount == "" {
		return validationErrorf("either creditor or creditorAccount is required")
	}
	if r.DebtorAccount != "" {
		id, err := parseAccountRef("debtorAccount", r.DebtorAccount)
		if err != nil {
			return err
		}
		r.debtorAccountID = &id
	}
	if r.CreditorAccount != "" {
		id, err := parseAccountRef("creditorAccount", r.CreditorAccount)
		if err != nil {
			return err
		}
		r.creditorAccountID = &id
	}
	if r.IsRecurring {
		if r.Recurrence == nil {
			return validationErrorf("recurrence is required for a recurring debt")
		}
		if !ValidRecurrenceFrequency(r.Recurrence.Frequency) {
			return validationErrorf("recurrence.frequency must be one of daily, weekly, monthly, yearly")
		}
		if r.Recurrence.Interval < 1 {
			return validationErrorf("recurrence.interval must be at least 1")
		}
	}
	return nil
}

// UpdateDebtStatusRequest moves a debt between pending and settled.
type UpdateDebtStatusRequest struct {
	NewStatus DebtStatus `json:"newStatus"`
}

func (r *UpdateDebtStatusRequest) Validate() error {
	if !ValidDebtStatus(r.NewStatus) {
		return validationErrorf("newStatus must be %q or %q", DebtStatusPending, DebtStatusSettled)
	}
	return nil
}

// DebtTransactionRequest records a settlement entry against a debt. The
// transaction type is caller-supplied; the affected counterparty account is
// selected by the debt's polarity, not by this request.
type DebtTransactionRequest struct {
	Description   string          `json:"description"`
	Amount        float64         `json:"amount"`
	Category      string          `json:"category,omitempty"`
	Date          time.Time       `json:"date,omitzero"`
	Type          TransactionType `json:"type"`
	SourceAccount string          `json:"sourceAccount"`

	sourceAccountID uuid.UUID
}

func (r *DebtTransactionRequest) Validate() error {
	if r.Description == "" {
		return validationErrorf("description is required")
	}
	if err := validateAmount(r.Amount); err != nil {
		return err
	}
	if !ValidTransactionType(r.Type) {
		return validationErrorf("type must be one of income, expense, self-transfer, debt")
	}
	id, err := parseAccountRef("sourceAccount", r.SourceAccount)
	if err != nil {
		return err
	}
	r.sourceAccountID = id
	return nil
}

func validateAmount(amount float64) error {
	if amount <= 0 {
		return validationErrorf("amount is required and must be a positive number")
	}
	return nil
}

func parseAccountRef(field, value string) (uuid.UUID, error) {
	if value == "" {
		return uuid.Nil, validationErrorf("%s is required", field)
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, validationErrorf("%s is not a valid account id", field)
	}
	return id, nil
}
