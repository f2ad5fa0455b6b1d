package repository_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/segyhp/lending-engine/internal/config"
	"github.com/segyhp/lending-engine/internal/domain"
	"github.com/segyhp/lending-engine/internal/repository"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	cfg := config.DatabaseConfig{
		Driver: config.DriverSQLite,
		URL:    filepath.Join(t.TempDir(), "lending.db"),
	}
	db, err := repository.Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedLender(t *testing.T, repo repository.LenderRepository, name, balance string) *domain.Lender {
	t.Helper()

	lender := &domain.Lender{
		ID:                      uuid.New(),
		Name:                    name,
		CurrentBalanceWithAdmin: dec(balance),
		Version:                 1,
		CreatedAt:               fixedNow,
		UpdatedAt:               fixedNow,
	}
	require.NoError(t, repo.Create(context.Background(), lender))
	return lender
}

func newLoan(customerID string, lenders ...*domain.LoanLender) *domain.Loan {
	loanID := uuid.New()
	dues := []*domain.Due{
		{InstallmentNumber: 1, Date: fixedNow.AddDate(0, 0, 1), Type: domain.DueTypePrincipal, Amount: dec("100"), PaidAmount: decimal.Zero, Status: domain.DueStatusUnpaid},
		{InstallmentNumber: 2, Date: fixedNow.AddDate(0, 0, 2), Type: domain.DueTypePrincipal, Amount: dec("100"), PaidAmount: decimal.Zero, Status: domain.DueStatusUnpaid},
		{InstallmentNumber: 3, Date: fixedNow.AddDate(0, 0, 3), Type: domain.DueTypePrincipal, Amount: dec("100"), PaidAmount: decimal.Zero, Status: domain.DueStatusUnpaid},
	}

	return &domain.Loan{
		ID:               loanID,
		CustomerID:       customerID,
		LoanType:         domain.LoanTypeDaily,
		Status:           domain.LoanStatusActive,
		DisbursementMode: "Cash",
		Financials: domain.Financials{
			Principal:              dec("300"),
			InterestRate:           decimal.Zero,
			Duration:               3,
			InterestDurationMonths: dec("0.1"),
			FixedInstallmentAmount: decimal.Zero,
			DeductionConfig: domain.DeductionConfig{
				Interest:        domain.DeductionEnd,
				AdminCommission: domain.DeductionUpfront,
				StaffCommission: domain.DeductionEnd,
			},
			AdminCommission:       domain.Commission{Percent: dec("2"), Amount: dec("6")},
			StaffCommission:       domain.Commission{Percent: decimal.Zero, Amount: decimal.Zero},
			InterestDeduction:     decimal.Zero,
			AdminDeduction:        dec("6"),
			StaffDeduction:        decimal.Zero,
			RolloverDeduction:     decimal.Zero,
			NetDisbursementAmount: dec("294"),
			TotalPrincipalPaid:    decimal.Zero,
			TotalInterestPaid:     decimal.Zero,
			TotalPenaltyPaid:      decimal.Zero,
			ExcessCollected:       decimal.Zero,
		},
		Dues:      dues,
		Lenders:   lenders,
		Version:   1,
		CreatedAt: fixedNow,
		UpdatedAt: fixedNow,
	}
}
