package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrLoanNotFound                 = errors.New("loan not found")
	ErrLenderNotFound               = errors.New("lender not found")
	ErrInvalidLoanTerms             = errors.New("invalid loan terms")
	ErrFundingMismatch              = errors.New("lender funding does not match net disbursement")
	ErrInsufficientLenderBalance    = errors.New("insufficient lender balance")
	ErrLoanNotActive                = errors.New("loan is not active")
	ErrScheduleTruncated            = errors.New("schedule generation truncated")
	ErrDuplicateTransaction         = errors.New("duplicate transaction")
	ErrInvalidPaymentAmount         = errors.New("invalid payment amount")
	ErrPaymentSplitMismatch         = errors.New("payment split does not match amount")
	ErrUnknownPaymentMode           = errors.New("payment mode is not active")
	ErrVersionConflict              = errors.New("version conflict")
	ErrConcurrentModification       = errors.New("concurrent modification")
	ErrInvalidLenderTransactionType = errors.New("invalid lender transaction type")
	ErrInvalidRequest               = errors.New("invalid request")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeLoanNotFound              = "LOAN_NOT_FOUND"
	ErrCodeLenderNotFound            = "LENDER_NOT_FOUND"
	ErrCodeInvalidLoanTerms          = "INVALID_LOAN_TERMS"
	ErrCodeFundingMismatch           = "FUNDING_MISMATCH"
	ErrCodeInsufficientLenderBalance = "INSUFFICIENT_LENDER_BALANCE"
	ErrCodeLoanNotActive             = "LOAN_NOT_ACTIVE"
	ErrCodeScheduleTruncated         = "SCHEDULE_GENERATION_TRUNCATED"
	ErrCodeDuplicateTransaction      = "DUPLICATE_TRANSACTION"
	ErrCodeInvalidPaymentAmount      = "INVALID_PAYMENT_AMOUNT"
	ErrCodePaymentSplitMismatch      = "PAYMENT_SPLIT_MISMATCH"
	ErrCodeUnknownPaymentMode        = "UNKNOWN_PAYMENT_MODE"
	ErrCodeConcurrentModification    = "CONCURRENT_MODIFICATION"
	ErrCodeInvalidRequest            = "INVALID_REQUEST"
	ErrCodeDatabaseError             = "DATABASE_ERROR"
)

// CodeOf returns the business code carried by err, or "" when err is not a BusinessError.
func CodeOf(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

func WrapLoanNotFound(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanNotFound,
		fmt.Sprintf("Loan with ID %s not found", loanID),
		ErrLoanNotFound,
	)
}

func WrapLenderNotFound(lenderID string) *BusinessError {
	return NewBusinessError(
		ErrCodeLenderNotFound,
		fmt.Sprintf("Lender with ID %s not found", lenderID),
		ErrLenderNotFound,
	)
}

func WrapInvalidLoanTerms(reason string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidLoanTerms,
		reason,
		ErrInvalidLoanTerms,
	)
}

func WrapFundingMismatch(expected, actual string) *BusinessError {
	return NewBusinessError(
		ErrCodeFundingMismatch,
		fmt.Sprintf("Lender splits total %s but net disbursement is %s", actual, expected),
		ErrFundingMismatch,
	)
}

func WrapInsufficientLenderBalance(lenderID, available, requested string) *BusinessError {
	return NewBusinessError(
		ErrCodeInsufficientLenderBalance,
		fmt.Sprintf("Lender %s has %s available, %s requested", lenderID, available, requested),
		ErrInsufficientLenderBalance,
	)
}

func WrapLoanNotActive(loanID, status string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanNotActive,
		fmt.Sprintf("Loan with ID %s is %s", loanID, status),
		ErrLoanNotActive,
	)
}

func WrapScheduleTruncated(limit int) *BusinessError {
	return NewBusinessError(
		ErrCodeScheduleTruncated,
		fmt.Sprintf("Schedule stopped after %d installments with balance remaining", limit),
		ErrScheduleTruncated,
	)
}

func WrapDuplicateTransaction(deviceTransactionID string) *BusinessError {
	return NewBusinessError(
		ErrCodeDuplicateTransaction,
		fmt.Sprintf("Transaction with device ID %s already recorded", deviceTransactionID),
		ErrDuplicateTransaction,
	)
}

func WrapInvalidPaymentAmount(amount string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidPaymentAmount,
		fmt.Sprintf("Invalid payment amount: %s", amount),
		ErrInvalidPaymentAmount,
	)
}

func WrapPaymentSplitMismatch(amount, splitTotal string) *BusinessError {
	return NewBusinessError(
		ErrCodePaymentSplitMismatch,
		fmt.Sprintf("Payment split totals %s but amount is %s", splitTotal, amount),
		ErrPaymentSplitMismatch,
	)
}

func WrapUnknownPaymentMode(mode string) *BusinessError {
	return NewBusinessError(
		ErrCodeUnknownPaymentMode,
		fmt.Sprintf("Payment mode %q is not active", mode),
		ErrUnknownPaymentMode,
	)
}

func WrapInvalidLenderTransactionType(txType string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidRequest,
		fmt.Sprintf("Unknown lender transaction type %q", txType),
		ErrInvalidLenderTransactionType,
	)
}

func WrapInvalidRequest(reason string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidRequest,
		reason,
		ErrInvalidRequest,
	)
}

func WrapConcurrentModification(entity string, attempts int) *BusinessError {
	return NewBusinessError(
		ErrCodeConcurrentModification,
		fmt.Sprintf("%s was modified concurrently, gave up after %d attempts", entity, attempts),
		ErrConcurrentModification,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}
