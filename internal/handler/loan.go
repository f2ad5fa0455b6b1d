package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/segyhp/lending-engine/internal/domain"
	customError "github.com/segyhp/lending-engine/pkg/errors"
	"github.com/segyhp/lending-engine/pkg/response"

	"github.com/go-playground/validator/v10"
)

type LoanHandler struct {
	loans     LoanService
	overdue   OverdueService
	settings  domain.Settings
	validator *validator.Validate
	logger    *slog.Logger
	now       func() time.Time
}

func NewLoanHandler(loans LoanService, overdue OverdueService, settings domain.Settings, logger *slog.Logger) *LoanHandler {
	return &LoanHandler{
		loans:     loans,
		overdue:   overdue,
		settings:  settings,
		validator: newValidator(),
		logger:    logger,
		now:       time.Now,
	}
}

// ComputeDisbursement handles POST /loans/disbursement.
func (h *LoanHandler) ComputeDisbursement(w http.ResponseWriter, r *http.Request) {
	var request domain.DisbursementRequest
	if err := decode(r, h.validator, &request); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	breakdown, err := h.loans.ComputeDisbursement(r.Context(), &request, h.settings)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.Success(w, breakdown)
}

// PreviewSchedule handles POST /loans/schedule.
func (h *LoanHandler) PreviewSchedule(w http.ResponseWriter, r *http.Request) {
	var request domain.ScheduleRequest
	if err := decode(r, h.validator, &request); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	schedule, err := h.loans.PreviewSchedule(r.Context(), &request, h.settings)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.Success(w, schedule)
}

// CreateLoan handles POST /loans.
func (h *LoanHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var request domain.CreateLoanRequest
	if err := decode(r, h.validator, &request); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	loan, err := h.loans.CreateLoanWithFunding(r.Context(), &request, h.settings)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.Created(w, loan)
}

func (h *LoanHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "loanId")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	loan, err := h.loans.GetLoan(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.Success(w, loan)
}

// ListLoans handles GET /loans?status=&customer_id=&limit=&offset=.
func (h *LoanHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pagination(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	filter := domain.LoanFilter{
		Status:     domain.LoanStatus(r.URL.Query().Get("status")),
		CustomerID: r.URL.Query().Get("customer_id"),
		Limit:      limit,
		Offset:     offset,
	}
	switch filter.Status {
	case "", domain.LoanStatusActive, domain.LoanStatusClosed, domain.LoanStatusDefault:
	default:
		writeError(w, r, h.logger, customError.WrapInvalidRequest("status must be Active, Closed or Default"))
		return
	}

	loans, err := h.loans.ListLoans(r.Context(), filter)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.Success(w, loans)
}

// GetOverdue handles GET /loans/{loanId}/overdue?as_of=. as_of accepts a date
// or an RFC 3339 timestamp and defaults to now.
func (h *LoanHandler) GetOverdue(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "loanId")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	asOf := h.now()
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		if asOf, err = parseAsOf(raw); err != nil {
			writeError(w, r, h.logger, err)
			return
		}
	}

	summary, err := h.overdue.LoanOverdue(r.Context(), id, asOf)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.Success(w, summary)
}

func parseAsOf(raw string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Time{}, customError.WrapInvalidRequest("as_of must be YYYY-MM-DD or RFC 3339")
}
