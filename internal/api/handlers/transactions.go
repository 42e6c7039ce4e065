// Package handlers contains the HTTP handlers for the bookkeeping API. Each
// handler decodes a typed request, delegates to the ledger service, and maps
// the error kind to the endpoint's status contract.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/bookkeeper/internal/api/middleware"
	"github.com/dvloznov/bookkeeper/internal/ledger"
)

// TransactionsHandler handles transaction-recording endpoints.
//
// The transaction-creating endpoints report every failure as 500, whether it
// was a missing field, a missing account, or a store outage. That is the
// documented contract of this API; the 400/404 distinction exists only on
// the single-record endpoints.
type TransactionsHandler struct {
	svc *ledger.Service
	log zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(svc *ledger.Service, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{svc: svc, log: log}
}

// RecordExpense handles POST /transactions/expense
func (h *TransactionsHandler) RecordExpense(w http.ResponseWriter, r *http.Request) {
	var req ledger.ExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusInternalServerError, "Invalid request body")
		return
	}

	txn, err := h.svc.RecordExpense(r.Context(), &req)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to record expense")
		middleware.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	middleware.WriteJSON(w, http.StatusOK, txn)
}

// RecordIncome handles POST /transactions/income
func (h *TransactionsHandler) RecordIncome(w http.ResponseWriter, r *http.Request) {
	var req ledger.IncomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusInternalServerError, "Invalid request body")
		return
	}

	txn, err := h.svc.RecordIncome(r.Context(), &req)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to record income")
		middleware.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	middleware.WriteJSON(w, http.StatusOK, txn)
}

// RecordSelfTransfer handles POST /transactions/self-transfer
func (h *TransactionsHandler) RecordSelfTransfer(w http.ResponseWriter, r *http.Request) {
	var req ledger.SelfTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusInternalServerError, "Invalid request body")
		return
	}

	txn, err := h.svc.RecordSelfTransfer(r.Context(), &req)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to record self-transfer")
		middleware.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	middleware.WriteJSON(w, http.StatusOK, txn)
}

// ListTransactions handles GET /transactions
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	var filter ledger.TransactionFilter
	query := r.URL.Query()

	if startStr := query.Get("start_date"); startStr != "" {
		start, err := time.Parse("2006-01-02", startStr)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid start_date format")
			return
		}
		filter.Start = start
	}

	if endStr := query.Get("end_date"); endStr != "" {
		end, err := time.Parse("2006-01-02", endStr)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid end_date format")
			return
		}
		// Include the whole end day.
		filter.End = end.Add(24*time.Hour - time.Nanosecond)
	}

	transactions, err := h.svc.ListTransactions(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, transactions)
}
