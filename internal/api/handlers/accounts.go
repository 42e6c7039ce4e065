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

// AccountsHandler handles the bank account directory endpoints.
type AccountsHandler struct {
	svc *ledger.Service
	log zerolog.Logger
}

// NewAccountsHandler creates a new accounts handler.
func NewAccountsHandler(svc *ledger.Service, log zerolog.Logger) *AccountsHandler {
	return &AccountsHandler{svc: svc, log: log}
}

// ListAccounts handles GET /bank-accounts
func (h *AccountsHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.svc.ListAccounts(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list bank accounts")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list bank accounts")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, accounts)
}

// GetAccount handles GET /bank-accounts/{accountID}
func (h *AccountsHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "accountID"))
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, ledger.ErrAccountNotFound.Error())
		return
	}

	account, err := h.svc.GetAccount(r.Context(), id)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			middleware.WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		h.log.Error().Err(err).Str("account_id", id.String()).Msg("Failed to get bank account")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get bank account")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, account)
}

// CreateAccount handles POST /bank-accounts
func (h *AccountsHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req ledger.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	account, err := h.svc.CreateAccount(r.Context(), &req)
	if err != nil {
		switch {
		case ledger.IsValidation(err), errors.Is(err, ledger.ErrDuplicateAccountNumber):
			middleware.WriteError(w, http.StatusBadRequest, err.Error())
		default:
			h.log.Error().Err(err).Msg("Failed to create bank account")
			middleware.WriteError(w, http.StatusInternalServerError, "Failed to create bank account")
		}
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, account)
}

// UpdateBalance handles PATCH /bank-accounts/{accountID}/update-balance
func (h *AccountsHandler) UpdateBalance(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "accountID"))
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, ledger.ErrAccountNotFound.Error())
		return
	}

	var req ledger.UpdateBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "newBalance must be a valid number")
		return
	}

	account, err := h.svc.SetAccountBalance(r.Context(), id, &req)
	if err != nil {
		switch {
		case ledger.IsValidation(err):
			middleware.WriteError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ledger.ErrAccountNotFound):
			middleware.WriteError(w, http.StatusNotFound, err.Error())
		default:
			h.log.Error().Err(err).Str("account_id", id.String()).Msg("Failed to update balance")
			middleware.WriteError(w, http.StatusInternalServerError, "Failed to update balance")
		}
		return
	}

	middleware.WriteJSON(w, http.StatusOK, account)
}
