package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentType string

const (
	PaymentTypeInterest  PaymentType = "Interest"
	PaymentTypePrincipal PaymentType = "Principal"
	PaymentTypeMixed     PaymentType = "Mixed"
)

// Transaction is the immutable record of one collection against a loan.
type Transaction struct {
	ID                 uuid.UUID       `json:"id"`
	LoanID             uuid.UUID       `json:"loan_id"`
	CustomerID         string          `json:"customer_id"`
	CollectedBy        string          `json:"collected_by"`
	Amount             decimal.Decimal `json:"amount"`
	AppliedAmount      decimal.Decimal `json:"applied_amount"`
	ExcessAmount       decimal.Decimal `json:"excess_amount"`
	PaymentType        PaymentType     `json:"payment_type"`
	PaymentMode        string          `json:"payment_mode"`
	InstallmentNumbers []int           `json:"installment_numbers"`
	Notes              string          `json:"notes,omitempty"`
	SyncDetails        SyncDetails     `json:"sync_details"`
	CreatedAt          time.Time       `json:"created_at"`
}

// SyncDetails carries offline-sync metadata from a collector's device.
type SyncDetails struct {
	IsOfflineEntry      bool       `json:"is_offline_entry"`
	DeviceTransactionID string     `json:"device_transaction_id,omitempty"`
	SyncedAt            *time.Time `json:"synced_at,omitempty"`
}

// TransactionFilter narrows transaction listings; empty fields match everything.
type TransactionFilter struct {
	LoanID     *uuid.UUID
	CustomerID string
	Limit      int
	Offset     int
}
