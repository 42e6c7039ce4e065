// Package ledger implements the bookkeeping domain: the record kinds
// (transactions, bank accounts, debts) and the protocol that keeps them
// mutually consistent. Every multi-record write runs inside one atomic unit
// through the TransactionManager; either all participating records commit or
// none do.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvloznov/bookkeeper/internal/cache"
	"github.com/dvloznov/bookkeeper/internal/events"
)

const readCacheTTL = 5 * time.Minute

const (
	cacheKeyAccounts = "bank-accounts"
	cacheKeyDebts    = "debts"
)

// Service implements the transaction protocol and the directory operations
// on top of the repository contracts. It holds no authoritative state; every
// operation re-reads what it needs from the store.
type Service struct {
	accounts     AccountRepository
	transactions TransactionRepository
	debts        DebtRepository
	txm          TransactionManager
	cache        cache.Store      // optional read cache, nil to disable
	publisher    events.Publisher // optional event publisher, nil to disable
	log          zerolog.Logger
}

// NewService wires a Service. cacheStore and publisher may be nil.
func NewService(
	accounts AccountRepository,
	transactions TransactionRepository,
	debts DebtRepository,
	txm TransactionManager,
	cacheStore cache.Store,
	publisher events.Publisher,
	log zerolog.Logger,
) *Service {
	return &Service{
		accounts:     accounts,
		transactions: transactions,
		debts:        debts,
		txm:          txm,
		cache:        cacheStore,
		publisher:    publisher,
		log:          log,
	}
}

// RecordExpense creates an expense transaction and debits the source
// account, as one atomic unit.
func (s *Service) RecordExpense(ctx context.Context, req *ExpenseRequest) (*Transaction, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var txn *Transaction
	err := s.txm.WithTransaction(ctx, func(txCtx context.Context) error {
		account, err := s.accounts.Lock(txCtx, req.sourceAccountID)
		if err != nil {
			return err
		}

		txn = newTransaction(TransactionTypeExpense, req.Description, req.Amount, req.Category, req.Date)
		src := req.sourceAccountID
		txn.SourceAccount = &src
		if err := s.transactions.Create(txCtx, txn); err != nil {
			return err
		}

		account.Debit(req.Amount)
		return s.accounts.Update(txCtx, account)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateAccounts(ctx, req.sourceAccountID)
	s.publishRecorded(txn)
	return txn, nil
}

// RecordIncome creates an income transaction and credits the destination
// account, as one atomic unit.
func (s *Service) RecordIncome(ctx context.Context, req *IncomeRequest) (*Transaction, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var txn *Transaction
	err := s.txm.WithTransaction(ctx, func(txCtx context.Context) error {
		account, err := s.accounts.Lock(txCtx, req.destinationAccountID)
		if err != nil {
			return err
		}

		txn = newTransaction(TransactionTypeIncome, req.Description, req.Amount, req.Category, req.Date)
		dst := req.destinationAccountID
		txn.DestinationAccount = &dst
		if err := s.transactions.Create(txCtx, txn); err != nil {
			return err
		}

		account.Credit(req.Amount)
		return s.accounts.Update(txCtx, account)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateAccounts(ctx, req.destinationAccountID)
	s.publishRecorded(txn)
	return txn, nil
}

// RecordSelfTransfer moves amount between two accounts of the same owner:
// one transaction record plus both balance updates commit together or not at
// all, even when one balance update already succeeded in-session.
func (s *Service) RecordSelfTransfer(ctx context.Context, req *SelfTransferRequest) (*Transaction, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var txn *Transaction
	err := s.txm.WithTransaction(ctx, func(txCtx context.Context) error {
		// Lock in a deterministic order to prevent deadlocks between
		// concurrent transfers touching the same pair.
		var source, destination *BankAccount
		var err error
		if req.sourceAccountID.String() < req.destinationAccountID.String() {
			if source, err = s.accounts.Lock(txCtx, req.sourceAccountID); err != nil {
				return err
			}
			if destination, err = s.accounts.Lock(txCtx, req.destinationAccountID); err != nil {
				return err
			}
		} else {
			if destination, err = s.accounts.Lock(txCtx, req.destinationAccountID); err != nil {
				return err
			}
			if source, err = s.accounts.Lock(txCtx, req.sourceAccountID); err != nil {
				return err
			}
		}

		txn = newTransaction(TransactionTypeSelfTransfer, req.Description, req.Amount, req.Category, req.Date)
		src, dst := req.sourceAccountID, req.destinationAccountID
		txn.SourceAccount = &src
		txn.DestinationAccount = &dst
		if err := s.transactions.Create(txCtx, txn); err != nil {
			return err
		}

		source.Debit(req.Amount)
		if err := s.accounts.Update(txCtx, source); err != nil {
			return err
		}
		destination.Credit(req.Amount)
		return s.accounts.Update(txCtx, destination)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateAccounts(ctx, req.sourceAccountID, req.destinationAccountID)
	s.publishRecorded(txn)
	return txn, nil
}

// ListTransactions returns recorded transactions, optionally narrowed to a
// date range.
func (s *Service) ListTransactions(ctx context.Context, filter TransactionFilter) ([]*Transaction, error) {
	return s.transactions.List(ctx, filter)
}

// CreateAccount opens a new account with a zero balance. The accountNumber
// must be unique; a duplicate is rejected with ErrDuplicateAccountNumber.
func (s *Service) CreateAccount(ctx context.Context, req *CreateAccountRequest) (*BankAccount, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	account := NewBankAccount(req.AccountNumber)
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}

	s.cacheInvalidate(ctx, cacheKeyAccounts)
	return account, nil
}

// ListAccounts returns all accounts.
func (s *Service) ListAccounts(ctx context.Context) ([]*BankAccount, error) {
	var cached []*BankAccount
	if s.cacheGet(ctx, cacheKeyAccounts, &cached) {
		return cached, nil
	}

	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, cacheKeyAccounts, accounts)
	return accounts, nil
}

// GetAccount fetches one account by id.
func (s *Service) GetAccount(ctx context.Context, id uuid.UUID) (*BankAccount, error) {
	key := cache.Key("bank-account", id.String())
	var cached BankAccount
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, key, account)
	return account, nil
}

// SetAccountBalance overwrites an account's balance with a new absolute
// value.
func (s *Service) SetAccountBalance(ctx context.Context, id uuid.UUID, req *UpdateBalanceRequest) (*BankAccount, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	account.Balance = *req.NewBalance
	account.UpdatedAt = time.Now().UTC()
	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, err
	}

	s.invalidateAccounts(ctx, id)
	return account, nil
}

// CreateDebt opens a new debt ledger. The three amounts are stored exactly
// as supplied; pendingAmount is not derived from the others.
func (s *Service) CreateDebt(ctx context.Context, req *CreateDebtRequest) (*Debt, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	date := req.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}
	debt := &Debt{
		ID:              uuid.New(),
		Description:     req.Description,
		TotalAmount:     *req.TotalAmount,
		SettledAmount:   *req.SettledAmount,
		PendingAmount:   *req.PendingAmount,
		Status:          req.Status,
		Type:            req.Type,
		Date:            date,
		Debtor:          req.Debtor,
		Creditor:        req.Creditor,
		DebtorAccount:   req.debtorAccountID,
		CreditorAccount: req.creditorAccountID,
		IsRecurring:     req.IsRecurring,
		Recurrence:      req.Recurrence,
	}
	if err := s.debts.Create(ctx, debt); err != nil {
		return nil, err
	}

	s.cacheInvalidate(ctx, cacheKeyDebts)
	return debt, nil
}

// ListDebts returns all debts.
func (s *Service) ListDebts(ctx context.Context) ([]*Debt, error) {
	var cached []*Debt
	if s.cacheGet(ctx, cacheKeyDebts, &cached) {
		return cached, nil
	}

	debts, err := s.debts.List(ctx)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, cacheKeyDebts, debts)
	return debts, nil
}

// GetDebt fetches one debt by id.
func (s *Service) GetDebt(ctx context.Context, id uuid.UUID) (*Debt, error) {
	key := cache.Key("debt", id.String())
	var cached Debt
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	debt, err := s.debts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, key, debt)
	return debt, nil
}

// UpdateDebtStatus moves a debt between pending and settled. Any other
// status value is rejected before the store is touched.
func (s *Service) UpdateDebtStatus(ctx context.Context, id uuid.UUID, req *UpdateDebtStatusRequest) (*Debt, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	debt, err := s.debts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	debt.Status = req.NewStatus
	if err := s.debts.Update(ctx, debt); err != nil {
		return nil, err
	}

	s.cacheInvalidate(ctx, cacheKeyDebts, cache.Key("debt", id.String()))
	return debt, nil
}

// RecordDebtTransaction records a settlement entry against a debt. In one
// atomic unit it creates the transaction, moves the polarity-selected
// counterparty account's balance (credit for a positive debt's debtor,
// debit for a negative debt's creditor), and grows the debt's totalAmount
// and pendingAmount by the same amount.
func (s *Service) RecordDebtTransaction(ctx context.Context, debtID uuid.UUID, req *DebtTransactionRequest) (*Transaction, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var txn *Transaction
	var settlementAccount uuid.UUID
	err := s.txm.WithTransaction(ctx, func(txCtx context.Context) error {
		debt, err := s.debts.Lock(txCtx, debtID)
		if err != nil {
			return err
		}

		txn = newTransaction(req.Type, req.Description, req.Amount, req.Category, req.Date)
		src := req.sourceAccountID
		debtRef := debt.ID
		txn.SourceAccount = &src
		txn.Debt = &debtRef
		if err := s.transactions.Create(txCtx, txn); err != nil {
			return err
		}

		accountID, ok := debt.SettlementAccount()
		if !ok {
			return ErrAccountNotFound
		}
		settlementAccount = accountID

		account, err := s.accounts.Lock(txCtx, accountID)
		if err != nil {
			return err
		}
		if debt.Type == DebtTypePositive {
			account.Credit(req.Amount)
		} else {
			account.Debit(req.Amount)
		}
		if err := s.accounts.Update(txCtx, account); err != nil {
			return err
		}

		debt.ApplyTransaction(req.Amount)
		return s.debts.Update(txCtx, debt)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateAccounts(ctx, settlementAccount)
	s.cacheInvalidate(ctx, cacheKeyDebts, cache.Key("debt", debtID.String()))
	s.publishRecorded(txn)
	return txn, nil
}

func newTransaction(t TransactionType, description string, amount float64, category string, date time.Time) *Transaction {
	if date.IsZero() {
		date = time.Now().UTC()
	}
	return &Transaction{
		ID:          uuid.New(),
		Description: description,
		Amount:      amount,
		Category:    category,
		Date:        date,
		Type:        t,
	}
}

// publishRecorded emits a transaction.recorded event after commit,
// best-effort and asynchronous so broker outages never fail an already
// committed transaction.
func (s *Service) publishRecorded(txn *Transaction) {
	if s.publisher == nil {
		return
	}
	event := &events.TransactionRecorded{
		TransactionID: txn.ID.String(),
		Type:          string(txn.Type),
		Amount:        txn.Amount,
		RecordedAt:    txn.Date,
	}
	if txn.SourceAccount != nil {
		event.SourceAccount = txn.SourceAccount.String()
	}
	if txn.DestinationAccount != nil {
		event.DestinationAccount = txn.DestinationAccount.String()
	}
	if txn.Debt != nil {
		event.Debt = txn.Debt.String()
	}

	go func() {
		if err := s.publisher.PublishTransactionRecorded(context.Background(), event); err != nil {
			s.log.Warn().Err(err).Str("transaction_id", event.TransactionID).Msg("Failed to publish transaction event")
		}
	}()
}

func (s *Service) cacheGet(ctx context.Context, key string, v any) bool {
	if s.cache == nil {
		return false
	}
	b, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			s.log.Debug().Err(err).Str("key", key).Msg("Cache read failed")
		}
		return false
	}
	if err := json.Unmarshal(b, v); err != nil {
		s.log.Debug().Err(err).Str("key", key).Msg("Cache entry corrupt")
		return false
	}
	return true
}

func (s *Service) cacheSet(ctx context.Context, key string, v any) {
	if s.cache == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, b, readCacheTTL); err != nil {
		s.log.Debug().Err(err).Str("key", key).Msg("Cache write failed")
	}
}

func (s *Service) cacheInvalidate(ctx context.Context, keys ...string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.log.Debug().Err(err).Strs("keys", keys).Msg("Cache invalidation failed")
	}
}

func (s *Service) invalidateAccounts(ctx context.Context, ids ...uuid.UUID) {
	keys := []string{cacheKeyAccounts}
	for _, id := range ids {
		keys = append(keys, cache.Key("bank-account", id.String()))
	}
	s.cacheInvalidate(ctx, keys...)
}
