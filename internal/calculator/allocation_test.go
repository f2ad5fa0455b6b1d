package calculator

import (
	"errors"
	"testing"

	"github.com/segyhp/lending-engine/internal/domain"
	customError "github.com/segyhp/lending-engine/pkg/errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanAllocation(t *testing.T) {
	lenderA := uuid.New()
	lenderB := uuid.New()

	tests := []struct {
		name        string
		net         decimal.Decimal
		splits      []domain.LenderSplit
		expectedErr error
		validate    func(*testing.T, *AllocationPlan)
	}{
		{
			name: "two lenders in list order",
			net:  d("9000"),
			splits: []domain.LenderSplit{
				{LenderID: lenderA, InvestedAmount: d("5000")},
				{LenderID: lenderB, InvestedAmount: d("4000")},
			},
			validate: func(t *testing.T, plan *AllocationPlan) {
				require.Len(t, plan.Lenders, 2)
				assert.Equal(t, lenderA, plan.Lenders[0].LenderID)
				assert.Equal(t, 1, plan.Lenders[0].Priority)
				assert.Equal(t, 2, plan.Lenders[1].Priority)
				for _, l := range plan.Lenders {
					assert.True(t, l.RepaidAmount.IsZero())
					assert.Equal(t, domain.LoanLenderActive, l.Status)
				}
				assert.Equal(t, []uuid.UUID{lenderA, lenderB}, plan.LenderIDs)
			},
		},
		{
			name: "explicit priorities reorder",
			net:  d("9000"),
			splits: []domain.LenderSplit{
				{LenderID: lenderA, InvestedAmount: d("5000"), Priority: 2},
				{LenderID: lenderB, InvestedAmount: d("4000"), Priority: 1},
			},
			validate: func(t *testing.T, plan *AllocationPlan) {
				assert.Equal(t, lenderB, plan.Lenders[0].LenderID)
				assert.Equal(t, lenderA, plan.Lenders[1].LenderID)
				assert.Equal(t, []uuid.UUID{lenderB, lenderA}, plan.LenderIDs)
			},
		},
		{
			name: "same lender twice aggregates debit",
			net:  d("3000"),
			splits: []domain.LenderSplit{
				{LenderID: lenderA, InvestedAmount: d("1000")},
				{LenderID: lenderA, InvestedAmount: d("2000")},
			},
			validate: func(t *testing.T, plan *AllocationPlan) {
				assert.Len(t, plan.Lenders, 2)
				assert.Len(t, plan.LenderIDs, 1)
				assert.True(t, plan.Debits[lenderA].Equal(d("3000")))
			},
		},
		{
			name: "sum above net disbursement",
			net:  d("9000"),
			splits: []domain.LenderSplit{
				{LenderID: lenderA, InvestedAmount: d("5000")},
				{LenderID: lenderB, InvestedAmount: d("5000")},
			},
			expectedErr: customError.ErrFundingMismatch,
		},
		{
			name: "fractional shortfall is not tolerated",
			net:  d("9000"),
			splits: []domain.LenderSplit{
				{LenderID: lenderA, InvestedAmount: d("8999.99")},
			},
			expectedErr: customError.ErrFundingMismatch,
		},
		{
			name:        "no lenders for a positive net",
			net:         d("100"),
			splits:      nil,
			expectedErr: customError.ErrFundingMismatch,
		},
		{
			name: "non-positive investment",
			net:  decimal.Zero,
			splits: []domain.LenderSplit{
				{LenderID: lenderA, InvestedAmount: decimal.Zero},
			},
			expectedErr: customError.ErrInvalidLoanTerms,
		},
		{
			name: "duplicate priorities",
			net:  d("2"),
			splits: []domain.LenderSplit{
				{LenderID: lenderA, InvestedAmount: d("1"), Priority: 1},
				{LenderID: lenderB, InvestedAmount: d("1"), Priority: 1},
			},
			expectedErr: customError.ErrInvalidLoanTerms,
		},
		{
			name: "missing lender id",
			net:  d("1"),
			splits: []domain.LenderSplit{
				{InvestedAmount: d("1")},
			},
			expectedErr: customError.ErrInvalidLoanTerms,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := PlanAllocation(tt.net, tt.splits)

			if tt.expectedErr != nil {
				assert.Nil(t, plan)
				assert.True(t, errors.Is(err, tt.expectedErr), "unexpected error %v", err)
				return
			}
			require.NoError(t, err)
			tt.validate(t, plan)
		})
	}
}

func TestAllocationPlan_Apply(t *testing.T) {
	lenderA := uuid.New()
	lenderB := uuid.New()

	plan, err := PlanAllocation(d("9000"), []domain.LenderSplit{
		{LenderID: lenderA, InvestedAmount: d("5000")},
		{LenderID: lenderB, InvestedAmount: d("4000")},
	})
	require.NoError(t, err)

	t.Run("balances cover the plan", func(t *testing.T) {
		balances := map[uuid.UUID]decimal.Decimal{lenderA: d("6000"), lenderB: d("4000")}

		next, err := plan.Apply(balances)

		require.NoError(t, err)
		assert.True(t, next[lenderA].Equal(d("1000")))
		assert.True(t, next[lenderB].IsZero())
		assert.True(t, balances[lenderA].Equal(d("6000")), "input balances must not change")
	})

	t.Run("one short lender fails everything", func(t *testing.T) {
		balances := map[uuid.UUID]decimal.Decimal{lenderA: d("6000"), lenderB: d("3999")}

		next, err := plan.Apply(balances)

		assert.Nil(t, next)
		assert.True(t, errors.Is(err, customError.ErrInsufficientLenderBalance))
		assert.True(t, balances[lenderA].Equal(d("6000")))
	})

	t.Run("unknown lender", func(t *testing.T) {
		next, err := plan.Apply(map[uuid.UUID]decimal.Decimal{lenderA: d("6000")})

		assert.Nil(t, next)
		assert.True(t, errors.Is(err, customError.ErrLenderNotFound))
	})
}
