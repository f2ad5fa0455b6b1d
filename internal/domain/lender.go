package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Lender is a pool account holding the funds a lender has left with the admin.
type Lender struct {
	ID                      uuid.UUID       `json:"id"`
	Name                    string          `json:"name"`
	CurrentBalanceWithAdmin decimal.Decimal `json:"current_balance_with_admin"`
	Version                 int64           `json:"version"`
	CreatedAt               time.Time       `json:"created_at"`
	UpdatedAt               time.Time       `json:"updated_at"`
}

type LoanLenderStatus string

const (
	LoanLenderActive      LoanLenderStatus = "Active"
	LoanLenderFullyRepaid LoanLenderStatus = "FullyRepaid"
)

// LoanLender records one lender's share in funding a loan.
type LoanLender struct {
	LenderID       uuid.UUID        `json:"lender_id"`
	InvestedAmount decimal.Decimal  `json:"invested_amount"`
	RepaidAmount   decimal.Decimal  `json:"repaid_amount"`
	Priority       int              `json:"priority"`
	Status         LoanLenderStatus `json:"status"`
}

// LenderSplit is the caller-supplied funding share for a new loan.
type LenderSplit struct {
	LenderID       uuid.UUID       `json:"lender_id" validate:"required"`
	InvestedAmount decimal.Decimal `json:"invested_amount" validate:"gt=0"`
	Priority       int             `json:"priority" validate:"gte=0"`
}

type LenderTransactionType string

const (
	LenderTransactionDeposit    LenderTransactionType = "Deposit"
	LenderTransactionWithdrawal LenderTransactionType = "Withdrawal"
)

func (t LenderTransactionType) Valid() bool {
	return t == LenderTransactionDeposit || t == LenderTransactionWithdrawal
}

type PaymentSplit struct {
	Mode   string          `json:"mode" validate:"required"`
	Amount decimal.Decimal `json:"amount" validate:"gt=0"`
}

// LenderTransaction is an append-only cash movement between a lender and the admin pool.
type LenderTransaction struct {
	ID           uuid.UUID             `json:"id"`
	LenderID     uuid.UUID             `json:"lender_id"`
	Type         LenderTransactionType `json:"type"`
	Amount       decimal.Decimal       `json:"amount"`
	PaymentSplit []PaymentSplit        `json:"payment_split"`
	Notes        string                `json:"notes,omitempty"`
	ProcessedBy  string                `json:"processed_by,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
}
