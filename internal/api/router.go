// Package api assembles the HTTP surface: the chi router, the middleware
// chain, and the route-to-handler bindings.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/dvloznov/bookkeeper/internal/api/handlers"
	"github.com/dvloznov/bookkeeper/internal/api/middleware"
	"github.com/dvloznov/bookkeeper/internal/ledger"
)

// NewRouter builds the API router over the given ledger service.
func NewRouter(svc *ledger.Service, log zerolog.Logger) http.Handler {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := middleware.NewMetrics(registry)

	transactionsHandler := handlers.NewTransactionsHandler(svc, log)
	accountsHandler := handlers.NewAccountsHandler(svc, log)
	debtsHandler := handlers.NewDebtsHandler(svc, log)

	r := chi.NewRouter()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log))
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS)
	r.Use(metrics.Handler())

	r.Route("/transactions", func(r chi.Router) {
		r.Get("/", transactionsHandler.ListTransactions)
		r.Post("/expense", transactionsHandler.RecordExpense)
		r.Post("/income", transactionsHandler.RecordIncome)
		r.Post("/self-transfer", transactionsHandler.RecordSelfTransfer)
	})

	r.Route("/bank-accounts", func(r chi.Router) {
		r.Get("/", accountsHandler.ListAccounts)
		r.Post("/", accountsHandler.CreateAccount)
		r.Get("/{accountID}", accountsHandler.GetAccount)
		r.Patch("/{accountID}/update-balance", accountsHandler.UpdateBalance)
	})

	r.Route("/debts", func(r chi.Router) {
		r.Get("/", debtsHandler.ListDebts)
		r.Post("/", debtsHandler.CreateDebt)
		r.Get("/{debtID}", debtsHandler.GetDebt)
		r.Patch("/{debtID}/update-status", debtsHandler.UpdateStatus)
		r.Post("/{debtID}/transactions", debtsHandler.RecordTransaction)
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return r
}
