// Package handler exposes the lending engine over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"time"

	"github.com/segyhp/lending-engine/internal/domain"
	customError "github.com/segyhp/lending-engine/pkg/errors"
	"github.com/segyhp/lending-engine/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

type LoanService interface {
	ComputeDisbursement(ctx context.Context, request *domain.DisbursementRequest, settings domain.Settings) (*domain.DisbursementBreakdown, error)
	PreviewSchedule(ctx context.Context, request *domain.ScheduleRequest, settings domain.Settings) (*domain.ScheduleResponse, error)
	CreateLoanWithFunding(ctx context.Context, request *domain.CreateLoanRequest, settings domain.Settings) (*domain.Loan, error)
	GetLoan(ctx context.Context, id uuid.UUID) (*domain.Loan, error)
	ListLoans(ctx context.Context, filter domain.LoanFilter) ([]*domain.Loan, error)
}

type OverdueService interface {
	LoanOverdue(ctx context.Context, loanID uuid.UUID, asOf time.Time) (*domain.OverdueSummary, error)
}

type LenderService interface {
	RegisterLender(ctx context.Context, request *domain.RegisterLenderRequest) (*domain.Lender, error)
	RecordCashEntry(ctx context.Context, lenderID uuid.UUID, request *domain.CashEntryRequest, settings domain.Settings) (*domain.CashEntryResult, error)
	GetLender(ctx context.Context, id uuid.UUID) (*domain.Lender, error)
	ListCashEntries(ctx context.Context, lenderID uuid.UUID, limit, offset int) ([]*domain.LenderTransaction, error)
}

type CollectionService interface {
	RecordCollection(ctx context.Context, loanID uuid.UUID, request *domain.RecordCollectionRequest, settings domain.Settings) (*domain.CollectionResult, error)
	ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error)
}

// newValidator compares decimal fields as floats so gt/gte tags apply to them.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// decode reads a JSON body into dst and validates it.
func decode(r *http.Request, v *validator.Validate, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return customError.WrapInvalidRequest(fmt.Sprintf("malformed JSON body: %v", err))
	}
	if err := v.Struct(dst); err != nil {
		return customError.WrapInvalidRequest(err.Error())
	}
	return nil
}

func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		return uuid.Nil, customError.WrapInvalidRequest(fmt.Sprintf("invalid %s", name))
	}
	return id, nil
}

// pagination reads limit and offset; both default to zero, which lists everything.
func pagination(r *http.Request) (limit, offset int, err error) {
	q := r.URL.Query()
	if limit, err = queryInt(q.Get("limit"), "limit"); err != nil {
		return 0, 0, err
	}
	if offset, err = queryInt(q.Get("offset"), "offset"); err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

func queryInt(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, customError.WrapInvalidRequest(fmt.Sprintf("%s must be a non-negative integer", name))
	}
	return n, nil
}

func statusFor(code string) int {
	switch code {
	case customError.ErrCodeLoanNotFound, customError.ErrCodeLenderNotFound:
		return http.StatusNotFound
	case customError.ErrCodeInvalidLoanTerms,
		customError.ErrCodeInvalidPaymentAmount,
		customError.ErrCodePaymentSplitMismatch,
		customError.ErrCodeUnknownPaymentMode,
		customError.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case customError.ErrCodeFundingMismatch,
		customError.ErrCodeInsufficientLenderBalance,
		customError.ErrCodeLoanNotActive,
		customError.ErrCodeScheduleTruncated:
		return http.StatusUnprocessableEntity
	case customError.ErrCodeDuplicateTransaction, customError.ErrCodeConcurrentModification:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps a service error to its HTTP status. Server-side failures are
// logged and their detail is not echoed to the client.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var be *customError.BusinessError
	if !errors.As(err, &be) {
		be = customError.NewBusinessError("INTERNAL_ERROR", "internal server error", err)
	}

	status := statusFor(be.Code)
	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"code", be.Code,
			"error", err,
		)
		response.Fail(w, status, be.Code, "internal server error")
		return
	}

	response.Fail(w, status, be.Code, be.Message)
}
