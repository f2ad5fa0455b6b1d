package calculator

import (
	"errors"
	"testing"
	"time"

	"github.com/segyhp/lending-engine/internal/domain"
	customError "github.com/segyhp/lending-engine/pkg/errors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scheduleStart = time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

func sumDues(dues []*domain.Due) decimal.Decimal {
	total := decimal.Zero
	for _, d := range dues {
		total = total.Add(d.Amount)
	}
	return total
}

func TestGenerateSchedule_Daily(t *testing.T) {
	terms := ScheduleTerms{
		Principal:      d("10000"),
		InterestRate:   d("2"),
		Duration:       100,
		InterestTiming: domain.DeductionEnd,
	}

	dues, err := GenerateSchedule(domain.LoanTypeDaily, terms, scheduleStart)

	require.NoError(t, err)
	require.Len(t, dues, 100)

	total := TotalPayable(domain.LoanTypeDaily, terms)
	assert.True(t, total.Round(2).Equal(d("10666.67")), "total payable was %v", total)

	for i, due := range dues {
		assert.Equal(t, i+1, due.InstallmentNumber)
		assert.True(t, due.Amount.Equal(d("107")), "installment %d was %v", i+1, due.Amount)
		assert.Equal(t, domain.DueTypePrincipal, due.Type)
		assert.Equal(t, domain.DueStatusUnpaid, due.Status)
		assert.True(t, due.PaidAmount.IsZero())
		assert.Equal(t, scheduleStart.AddDate(0, 0, i+1), due.Date)
	}
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), dues[0].Date)

	overshoot := sumDues(dues).Sub(total)
	assert.False(t, overshoot.IsNegative())
	assert.True(t, overshoot.LessThanOrEqual(decimal.NewFromInt(99)))
}

func TestGenerateSchedule_DailyUpfrontInterestSplitsPrincipalOnly(t *testing.T) {
	terms := ScheduleTerms{
		Principal:      d("1000"),
		InterestRate:   d("5"),
		Duration:       3,
		InterestTiming: domain.DeductionUpfront,
	}

	dues, err := GenerateSchedule(domain.LoanTypeDaily, terms, scheduleStart)

	require.NoError(t, err)
	require.Len(t, dues, 3)
	for _, due := range dues {
		assert.True(t, due.Amount.Equal(d("334")))
	}
	assert.True(t, sumDues(dues).Equal(d("1002")))
}

func TestGenerateSchedule_Weekly(t *testing.T) {
	tests := []struct {
		name          string
		terms         ScheduleTerms
		expectedCount int
		expectedEach  decimal.Decimal
		expectedLast  decimal.Decimal
	}{
		{
			name: "fixed amount divides evenly",
			terms: ScheduleTerms{
				Principal:              d("26000"),
				InterestRate:           d("2"),
				Duration:               13,
				FixedInstallmentAmount: d("2000"),
				InterestTiming:         domain.DeductionUpfront,
			},
			expectedCount: 13,
			expectedEach:  d("2000"),
			expectedLast:  d("2000"),
		},
		{
			name: "fixed amount terminates without trailing zero",
			terms: ScheduleTerms{
				Principal:              d("30000"),
				InterestRate:           decimal.Zero,
				Duration:               15,
				FixedInstallmentAmount: d("2000"),
				InterestTiming:         domain.DeductionEnd,
			},
			expectedCount: 15,
			expectedEach:  d("2000"),
			expectedLast:  d("2000"),
		},
		{
			name: "fixed amount with remainder",
			terms: ScheduleTerms{
				Principal:              d("25500"),
				InterestRate:           decimal.Zero,
				Duration:               13,
				FixedInstallmentAmount: d("2000"),
				InterestTiming:         domain.DeductionEnd,
			},
			expectedCount: 13,
			expectedEach:  d("2000"),
			expectedLast:  d("1500"),
		},
		{
			name: "fixed amount with end interest",
			terms: ScheduleTerms{
				Principal:              d("20000"),
				InterestRate:           d("2"),
				Duration:               8,
				FixedInstallmentAmount: d("2000"),
				InterestTiming:         domain.DeductionEnd,
			},
			// 20000 + 20000*2*(8/4)/100 = 20800
			expectedCount: 11,
			expectedEach:  d("2000"),
			expectedLast:  d("800"),
		},
		{
			name: "no fixed amount falls back to equal split",
			terms: ScheduleTerms{
				Principal:      d("10000"),
				InterestRate:   d("4"),
				Duration:       12,
				InterestTiming: domain.DeductionEnd,
			},
			// 10000 + 10000*4*3/100 = 11200, /12 = 933.33 -> 934
			expectedCount: 12,
			expectedEach:  d("934"),
			expectedLast:  d("934"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dues, err := GenerateSchedule(domain.LoanTypeWeekly, tt.terms, scheduleStart)

			require.NoError(t, err)
			require.Len(t, dues, tt.expectedCount)
			for i, due := range dues[:len(dues)-1] {
				assert.True(t, due.Amount.Equal(tt.expectedEach), "installment %d was %v", i+1, due.Amount)
				assert.Equal(t, scheduleStart.AddDate(0, 0, 7*(i+1)), due.Date)
			}
			last := dues[len(dues)-1]
			assert.True(t, last.Amount.Equal(tt.expectedLast), "last installment was %v", last.Amount)
			assert.True(t, last.Amount.IsPositive())
			assert.Equal(t, tt.expectedCount, last.InstallmentNumber)

			if tt.terms.FixedInstallmentAmount.IsPositive() {
				assert.True(t, sumDues(dues).Equal(TotalPayable(domain.LoanTypeWeekly, tt.terms)))
				assert.True(t, last.Amount.LessThanOrEqual(tt.terms.FixedInstallmentAmount))
			}
		})
	}
}

func TestGenerateSchedule_WeeklyTruncated(t *testing.T) {
	terms := ScheduleTerms{
		Principal:              d("1000000"),
		InterestRate:           decimal.Zero,
		Duration:               10,
		FixedInstallmentAmount: d("100"),
		InterestTiming:         domain.DeductionEnd,
	}

	dues, err := GenerateSchedule(domain.LoanTypeWeekly, terms, scheduleStart)

	require.Error(t, err)
	assert.True(t, errors.Is(err, customError.ErrScheduleTruncated))
	assert.Len(t, dues, MaxWeeklyInstallments)
}

func TestGenerateSchedule_WeeklyExactlyAtCap(t *testing.T) {
	terms := ScheduleTerms{
		Principal:              d("20000"),
		InterestRate:           decimal.Zero,
		Duration:               200,
		FixedInstallmentAmount: d("100"),
		InterestTiming:         domain.DeductionEnd,
	}

	dues, err := GenerateSchedule(domain.LoanTypeWeekly, terms, scheduleStart)

	require.NoError(t, err)
	assert.Len(t, dues, MaxWeeklyInstallments)
}

func TestGenerateSchedule_Monthly(t *testing.T) {
	t.Run("interest collected monthly with bullet principal", func(t *testing.T) {
		terms := ScheduleTerms{
			Principal:      d("50000"),
			InterestRate:   d("3"),
			Duration:       4,
			InterestTiming: domain.DeductionEnd,
		}

		dues, err := GenerateSchedule(domain.LoanTypeMonthly, terms, scheduleStart)

		require.NoError(t, err)
		require.Len(t, dues, 4)
		for i, due := range dues[:3] {
			assert.Equal(t, domain.DueTypeInterest, due.Type)
			assert.True(t, due.Amount.Equal(d("1500")))
			assert.Equal(t, i+1, due.InstallmentNumber)
			assert.Equal(t, scheduleStart.AddDate(0, i+1, 0), due.Date)
		}
		assert.Equal(t, domain.DueTypePrincipal, dues[3].Type)
		assert.True(t, dues[3].Amount.Equal(d("51500")))
		assert.True(t, sumDues(dues).Equal(TotalPayable(domain.LoanTypeMonthly, terms)))
	})

	t.Run("upfront interest leaves a single principal due", func(t *testing.T) {
		terms := ScheduleTerms{
			Principal:      d("50000"),
			InterestRate:   d("3"),
			Duration:       4,
			InterestTiming: domain.DeductionUpfront,
		}

		dues, err := GenerateSchedule(domain.LoanTypeMonthly, terms, scheduleStart)

		require.NoError(t, err)
		require.Len(t, dues, 1)
		assert.Equal(t, 4, dues[0].InstallmentNumber)
		assert.Equal(t, domain.DueTypePrincipal, dues[0].Type)
		assert.True(t, dues[0].Amount.Equal(d("50000")))
		assert.Equal(t, scheduleStart.AddDate(0, 4, 0), dues[0].Date)
	})
}

func TestGenerateSchedule_InvalidTerms(t *testing.T) {
	tests := []struct {
		name     string
		loanType domain.LoanType
		terms    ScheduleTerms
	}{
		{name: "unknown loan type", loanType: "Yearly", terms: ScheduleTerms{Principal: d("100"), Duration: 1}},
		{name: "zero principal", loanType: domain.LoanTypeDaily, terms: ScheduleTerms{Principal: decimal.Zero, Duration: 10}},
		{name: "zero duration", loanType: domain.LoanTypeDaily, terms: ScheduleTerms{Principal: d("100"), Duration: 0}},
		{name: "negative rate", loanType: domain.LoanTypeMonthly, terms: ScheduleTerms{Principal: d("100"), Duration: 2, InterestRate: d("-1")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dues, err := GenerateSchedule(tt.loanType, tt.terms, scheduleStart)

			assert.Nil(t, dues)
			assert.True(t, errors.Is(err, customError.ErrInvalidLoanTerms))
		})
	}
}
