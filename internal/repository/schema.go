package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Decimal amounts and timestamps are stored as TEXT so the same schema runs on
// Postgres and SQLite without losing precision.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS lenders (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		current_balance_with_admin TEXT NOT NULL DEFAULT '0',
		version INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS loans (
		id TEXT PRIMARY KEY,
		customer_id TEXT NOT NULL,
		loan_type TEXT NOT NULL,
		status TEXT NOT NULL,
		disbursement_mode TEXT NOT NULL,
		principal TEXT NOT NULL,
		interest_rate TEXT NOT NULL,
		duration INTEGER NOT NULL,
		interest_duration_months TEXT NOT NULL,
		fixed_installment_amount TEXT NOT NULL DEFAULT '0',
		deduction_interest TEXT NOT NULL,
		deduction_admin_commission TEXT NOT NULL,
		deduction_staff_commission TEXT NOT NULL,
		admin_commission_percent TEXT NOT NULL DEFAULT '0',
		admin_commission_amount TEXT NOT NULL DEFAULT '0',
		staff_commission_percent TEXT NOT NULL DEFAULT '0',
		staff_commission_amount TEXT NOT NULL DEFAULT '0',
		interest_deduction TEXT NOT NULL DEFAULT '0',
		admin_deduction TEXT NOT NULL DEFAULT '0',
		staff_deduction TEXT NOT NULL DEFAULT '0',
		rollover_deduction TEXT NOT NULL DEFAULT '0',
		net_disbursement_amount TEXT NOT NULL,
		total_principal_paid TEXT NOT NULL DEFAULT '0',
		total_interest_paid TEXT NOT NULL DEFAULT '0',
		total_penalty_paid TEXT NOT NULL DEFAULT '0',
		excess_collected TEXT NOT NULL DEFAULT '0',
		rollover_loan_id TEXT,
		rollover_notes TEXT,
		risk_flags TEXT NOT NULL DEFAULT '[]',
		version INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_loans_customer ON loans (customer_id)`,
	`CREATE INDEX IF NOT EXISTS idx_loans_status ON loans (status)`,
	`CREATE TABLE IF NOT EXISTS loan_dues (
		id TEXT PRIMARY KEY,
		loan_id TEXT NOT NULL REFERENCES loans (id),
		installment_number INTEGER NOT NULL,
		due_date TEXT NOT NULL,
		due_type TEXT NOT NULL,
		amount TEXT NOT NULL,
		paid_amount TEXT NOT NULL DEFAULT '0',
		status TEXT NOT NULL,
		paid_date TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_loan_dues_loan ON loan_dues (loan_id, installment_number)`,
	`CREATE TABLE IF NOT EXISTS loan_lenders (
		loan_id TEXT NOT NULL REFERENCES loans (id),
		lender_id TEXT NOT NULL REFERENCES lenders (id),
		invested_amount TEXT NOT NULL,
		repaid_amount TEXT NOT NULL DEFAULT '0',
		priority INTEGER NOT NULL,
		status TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_loan_lenders_loan ON loan_lenders (loan_id, priority)`,
	`CREATE TABLE IF NOT EXISTS lender_transactions (
		id TEXT PRIMARY KEY,
		lender_id TEXT NOT NULL REFERENCES lenders (id),
		type TEXT NOT NULL,
		amount TEXT NOT NULL,
		payment_split TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		processed_by TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_lender_transactions_lender ON lender_transactions (lender_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		loan_id TEXT NOT NULL REFERENCES loans (id),
		customer_id TEXT NOT NULL,
		collected_by TEXT NOT NULL,
		amount TEXT NOT NULL,
		applied_amount TEXT NOT NULL,
		excess_amount TEXT NOT NULL,
		payment_type TEXT NOT NULL,
		payment_mode TEXT NOT NULL,
		installment_numbers TEXT NOT NULL DEFAULT '[]',
		notes TEXT NOT NULL DEFAULT '',
		device_transaction_id TEXT,
		is_offline_entry INTEGER NOT NULL DEFAULT 0,
		synced_at TEXT,
		created_at TEXT NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_device ON transactions (device_transaction_id)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_loan ON transactions (loan_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_customer ON transactions (customer_id, created_at)`,
}

// Migrate creates any missing tables and indexes.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
