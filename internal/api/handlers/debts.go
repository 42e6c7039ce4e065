package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvloznov/bookkeeper/internal/api/middleware"
	"github.com/dvloznov/bookkeeper/internal/ledger"
)

// DebtsHandler handles the debt ledger endpoints.
type DebtsHandler struct {
	svc *ledger.Service
	log zerolog.Logger
}

// NewDebtsHandler creates a new debts handler.
func NewDebtsHandler(svc *ledger.Service, log zerolog.Logger) *DebtsHandler {
	return &DebtsHandler{svc: svc, log: log}
}

// CreateDebt handles POST /debts
func (h *DebtsHandler) CreateDebt(w http.ResponseWriter, r *http.Request) {
	var req ledger.CreateDebtRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	debt, err := h.svc.CreateDebt(r.Context(), &req)
	if err != nil {
		if ledger.IsValidation(err) {
			middleware.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("Failed to create debt")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to create debt")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, debt)
}

// ListDebts handles GET /debts
func (h *DebtsHandler) ListDebts(w http.ResponseWriter, r *http.Request) {
	debts, err := h.svc.ListDebts(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list debts")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list debts")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, debts)
}

// GetDebt handles GET /debts/{debtID}
func (h *DebtsHandler) GetDebt(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "debtID"))
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, ledger.ErrDebtNotFound.Error())
		return
	}

	debt, err := h.svc.GetDebt(r.Context(), id)
	if err != nil {
		if errors.Is(err, ledger.ErrDebtNotFound) {
			middleware.WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		h.log.Error().Err(err).Str("debt_id", id.String()).Msg("Failed to get debt")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get debt")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, debt)
}

// UpdateStatus handles PATCH /debts/{debtID}/update-status
func (h *DebtsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "debtID"))
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, ledger.ErrDebtNotFound.Error())
		return
	}

	var req ledger.UpdateDebtStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	debt, err := h.svc.UpdateDebtStatus(r.Context(), id, &req)
	if err != nil {
		switch {
		case ledger.IsValidation(err):
			middleware.WriteError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ledger.ErrDebtNotFound):
			middleware.WriteError(w, http.StatusNotFound, err.Error())
		default:
			h.log.Error().Err(err).Str("debt_id", id.String()).Msg("Failed to update debt status")
			middleware.WriteError(w, http.StatusInternalServerError, "Failed to update debt status")
		}
		return
	}

	middleware.WriteJSON(w, http.StatusOK, debt)
}

// RecordTransaction handles POST /debts/{debtID}/transactions
//
// Like the other transaction-creating endpoints, every failure is a 500.
func (h *DebtsHandler) RecordTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "debtID"))
	if err != nil {
		middleware.WriteError(w, http.StatusInternalServerError, ledger.ErrDebtNotFound.Error())
		return
	}

	var req ledger.DebtTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusInternalServerError, "Invalid request body")
		return
	}

	txn, err := h.svc.RecordDebtTransaction(r.Context(), id, &req)
	if err != nil {
		h.log.Error().Err(err).Str("debt_id", id.String()).Msg("Failed to record debt transaction")
		middleware.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, txn)
}
