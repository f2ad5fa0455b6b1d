package handler

import (
	"log/slog"

	"github.com/segyhp/lending-engine/pkg/response"

	"github.com/gorilla/mux"
)

type Handlers struct {
	Loans       *LoanHandler
	Lenders     *LenderHandler
	Collections *CollectionHandler
	Health      *HealthHandler
}

func NewRouter(h Handlers, logger *slog.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware(logger))
	router.Use(response.CORSMiddleware)

	// Health check
	if h.Health != nil {
		router.HandleFunc("/health", h.Health.Health).Methods("GET")
		router.HandleFunc("/health/ready", h.Health.Ready).Methods("GET")
	}

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(response.JSONMiddleware)

	api.HandleFunc("/loans/disbursement", h.Loans.ComputeDisbursement).Methods("POST")
	api.HandleFunc("/loans/schedule", h.Loans.PreviewSchedule).Methods("POST")
	api.HandleFunc("/loans", h.Loans.CreateLoan).Methods("POST")
	api.HandleFunc("/loans", h.Loans.ListLoans).Methods("GET")
	api.HandleFunc("/loans/{loanId}", h.Loans.GetLoan).Methods("GET")
	api.HandleFunc("/loans/{loanId}/overdue", h.Loans.GetOverdue).Methods("GET")
	api.HandleFunc("/loans/{loanId}/collections", h.Collections.RecordCollection).Methods("POST")
	api.HandleFunc("/transactions", h.Collections.ListTransactions).Methods("GET")

	api.HandleFunc("/lenders", h.Lenders.RegisterLender).Methods("POST")
	api.HandleFunc("/lenders/{lenderId}", h.Lenders.GetLender).Methods("GET")
	api.HandleFunc("/lenders/{lenderId}/cash-entries", h.Lenders.RecordCashEntry).Methods("POST")
	api.HandleFunc("/lenders/{lenderId}/cash-entries", h.Lenders.ListCashEntries).Methods("GET")

	return router
}
