package service

import (
	"context"
	"testing"
	"time"

	"github.com/segyhp/lending-engine/internal/domain"
	"github.com/segyhp/lending-engine/internal/mocks"
	"github.com/segyhp/lending-engine/internal/observability"
	customError "github.com/segyhp/lending-engine/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type lenderFixture struct {
	lenders *mocks.MockLenderRepository
	entries *mocks.MockLenderTransactionRepository
	tx      *mocks.MockTransactor
	svc     *LenderService
}

func newLenderFixture() *lenderFixture {
	f := &lenderFixture{
		lenders: &mocks.MockLenderRepository{},
		entries: &mocks.MockLenderTransactionRepository{},
		tx:      &mocks.MockTransactor{},
	}
	f.svc = NewLenderService(f.lenders, f.entries, f.tx, observability.Discard(), 3)
	f.svc.now = func() time.Time { return testNow }
	return f
}

func TestRegisterLender(t *testing.T) {
	t.Run("Success - opens with a zero balance", func(t *testing.T) {
		f := newLenderFixture()
		f.lenders.On("Create", mock.Anything, mock.AnythingOfType("*domain.Lender")).Return(nil)

		lender, err := f.svc.RegisterLender(context.Background(), &domain.RegisterLenderRequest{Name: "  Ravi  "})

		require.NoError(t, err)
		assert.Equal(t, "Ravi", lender.Name)
		assert.True(t, lender.CurrentBalanceWithAdmin.IsZero())
		assert.Equal(t, int64(1), lender.Version)
		assert.Equal(t, testNow, lender.CreatedAt)
		f.lenders.AssertExpectations(t)
	})

	t.Run("Failure - blank name", func(t *testing.T) {
		f := newLenderFixture()

		_, err := f.svc.RegisterLender(context.Background(), &domain.RegisterLenderRequest{Name: " "})

		assert.ErrorIs(t, err, customError.ErrInvalidRequest)
		f.lenders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestRecordCashEntry(t *testing.T) {
	tests := []struct {
		name            string
		balance         string
		request         *domain.CashEntryRequest
		expectedError   error
		expectedBalance string
	}{
		{
			name:    "Success - deposit across two modes",
			balance: "100",
			request: &domain.CashEntryRequest{
				Type:   domain.LenderTransactionDeposit,
				Amount: dec("1500"),
				PaymentSplit: []domain.PaymentSplit{
					{Mode: "Cash", Amount: dec("1000")},
					{Mode: "PhonePe", Amount: dec("500")},
				},
				ProcessedBy: "admin",
			},
			expectedBalance: "1600",
		},
		{
			name:    "Success - withdrawal of the whole balance",
			balance: "700",
			request: &domain.CashEntryRequest{
				Type:         domain.LenderTransactionWithdrawal,
				Amount:       dec("700"),
				PaymentSplit: []domain.PaymentSplit{{Mode: "GPay", Amount: dec("700")}},
			},
			expectedBalance: "0",
		},
		{
			name:    "Failure - withdrawal beyond balance",
			balance: "700",
			request: &domain.CashEntryRequest{
				Type:         domain.LenderTransactionWithdrawal,
				Amount:       dec("700.01"),
				PaymentSplit: []domain.PaymentSplit{{Mode: "Cash", Amount: dec("700.01")}},
			},
			expectedError: customError.ErrInsufficientLenderBalance,
		},
		{
			name: "Failure - split does not add up",
			request: &domain.CashEntryRequest{
				Type:   domain.LenderTransactionDeposit,
				Amount: dec("1500"),
				PaymentSplit: []domain.PaymentSplit{
					{Mode: "Cash", Amount: dec("1000")},
					{Mode: "GPay", Amount: dec("400")},
				},
			},
			expectedError: customError.ErrPaymentSplitMismatch,
		},
		{
			name: "Failure - empty split",
			request: &domain.CashEntryRequest{
				Type:   domain.LenderTransactionDeposit,
				Amount: dec("100"),
			},
			expectedError: customError.ErrPaymentSplitMismatch,
		},
		{
			name: "Failure - inactive mode",
			request: &domain.CashEntryRequest{
				Type:         domain.LenderTransactionDeposit,
				Amount:       dec("100"),
				PaymentSplit: []domain.PaymentSplit{{Mode: "Cheque", Amount: dec("100")}},
			},
			expectedError: customError.ErrUnknownPaymentMode,
		},
		{
			name: "Failure - zero split line",
			request: &domain.CashEntryRequest{
				Type:   domain.LenderTransactionDeposit,
				Amount: dec("100"),
				PaymentSplit: []domain.PaymentSplit{
					{Mode: "Cash", Amount: dec("100")},
					{Mode: "GPay", Amount: dec("0")},
				},
			},
			expectedError: customError.ErrInvalidPaymentAmount,
		},
		{
			name: "Failure - unknown entry type",
			request: &domain.CashEntryRequest{
				Type:         "Transfer",
				Amount:       dec("100"),
				PaymentSplit: []domain.PaymentSplit{{Mode: "Cash", Amount: dec("100")}},
			},
			expectedError: customError.ErrInvalidLenderTransactionType,
		},
		{
			name: "Failure - non-positive amount",
			request: &domain.CashEntryRequest{
				Type:         domain.LenderTransactionDeposit,
				Amount:       dec("-5"),
				PaymentSplit: []domain.PaymentSplit{{Mode: "Cash", Amount: dec("-5")}},
			},
			expectedError: customError.ErrInvalidPaymentAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLenderFixture()
			stored := lender("0")
			if tt.balance != "" {
				stored = lender(tt.balance)
			}
			f.lenders.On("GetByID", mock.Anything, stored.ID).Return(stored, nil)
			if tt.expectedError == nil {
				f.lenders.On("UpdateBalance", mock.Anything, balanceIs(stored.ID, tt.expectedBalance)).Return(nil)
				f.entries.On("Create", mock.Anything, mock.MatchedBy(func(e *domain.LenderTransaction) bool {
					return e.LenderID == stored.ID && e.Type == tt.request.Type && e.Amount.Equal(tt.request.Amount)
				})).Return(nil)
			}

			result, err := f.svc.RecordCashEntry(context.Background(), stored.ID, tt.request, testSettings)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, result)
				f.lenders.AssertNotCalled(t, "UpdateBalance", mock.Anything, mock.Anything)
				f.entries.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.True(t, result.Lender.CurrentBalanceWithAdmin.Equal(dec(tt.expectedBalance)))
			assert.Equal(t, testNow, result.Entry.CreatedAt)
			assert.Len(t, result.Entry.PaymentSplit, len(tt.request.PaymentSplit))
			f.lenders.AssertExpectations(t)
			f.entries.AssertExpectations(t)
		})
	}
}

func TestRecordCashEntry_Retries(t *testing.T) {
	f := newLenderFixture()
	first, second := lender("100"), lender("250")
	second.ID = first.ID
	f.lenders.On("GetByID", mock.Anything, first.ID).Return(first, nil).Once()
	f.lenders.On("GetByID", mock.Anything, first.ID).Return(second, nil).Once()
	f.lenders.On("UpdateBalance", mock.Anything, balanceIs(first.ID, "150")).Return(customError.ErrVersionConflict).Once()
	f.lenders.On("UpdateBalance", mock.Anything, balanceIs(first.ID, "300")).Return(nil).Once()
	f.entries.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

	result, err := f.svc.RecordCashEntry(context.Background(), first.ID, &domain.CashEntryRequest{
		Type:         domain.LenderTransactionDeposit,
		Amount:       dec("50"),
		PaymentSplit: []domain.PaymentSplit{{Mode: "Cash", Amount: dec("50")}},
	}, testSettings)

	require.NoError(t, err)
	assert.True(t, result.Lender.CurrentBalanceWithAdmin.Equal(dec("300")))
	assert.Equal(t, 2, f.tx.Calls)
	f.entries.AssertNumberOfCalls(t, "Create", 1)
}

func TestRecordCashEntry_StoresConfiguredModeSpelling(t *testing.T) {
	f := newLenderFixture()
	stored := lender("100")
	f.lenders.On("GetByID", mock.Anything, stored.ID).Return(stored, nil)
	f.lenders.On("UpdateBalance", mock.Anything, balanceIs(stored.ID, "1600")).Return(nil)
	f.entries.On("Create", mock.Anything, mock.AnythingOfType("*domain.LenderTransaction")).Return(nil)
	request := &domain.CashEntryRequest{
		Type:   domain.LenderTransactionDeposit,
		Amount: dec("1500"),
		PaymentSplit: []domain.PaymentSplit{
			{Mode: "cash", Amount: dec("1000")},
			{Mode: "PHONEPE", Amount: dec("500")},
		},
	}

	result, err := f.svc.RecordCashEntry(context.Background(), stored.ID, request, testSettings)

	require.NoError(t, err)
	require.Len(t, result.Entry.PaymentSplit, 2)
	assert.Equal(t, "Cash", result.Entry.PaymentSplit[0].Mode)
	assert.Equal(t, "PhonePe", result.Entry.PaymentSplit[1].Mode)
	// The caller's request is left as sent.
	assert.Equal(t, "cash", request.PaymentSplit[0].Mode)
}

func TestRecordCashEntry_LenderNotFound(t *testing.T) {
	f := newLenderFixture()
	id := uuid.New()
	f.lenders.On("GetByID", mock.Anything, id).Return(nil, customError.ErrLenderNotFound)

	_, err := f.svc.RecordCashEntry(context.Background(), id, &domain.CashEntryRequest{
		Type:         domain.LenderTransactionDeposit,
		Amount:       dec("50"),
		PaymentSplit: []domain.PaymentSplit{{Mode: "Cash", Amount: dec("50")}},
	}, testSettings)

	assert.ErrorIs(t, err, customError.ErrLenderNotFound)
	assert.Equal(t, customError.ErrCodeLenderNotFound, customError.CodeOf(err))
}

func TestListCashEntries(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		f := newLenderFixture()
		stored := lender("0")
		entries := []*domain.LenderTransaction{{ID: uuid.New(), LenderID: stored.ID}}
		f.lenders.On("GetByID", mock.Anything, stored.ID).Return(stored, nil)
		f.entries.On("ListByLender", mock.Anything, stored.ID, 20, 40).Return(entries, nil)

		got, err := f.svc.ListCashEntries(context.Background(), stored.ID, 20, 40)

		require.NoError(t, err)
		assert.Equal(t, entries, got)
	})

	t.Run("Failure - unknown lender", func(t *testing.T) {
		f := newLenderFixture()
		id := uuid.New()
		f.lenders.On("GetByID", mock.Anything, id).Return(nil, customError.ErrLenderNotFound)

		_, err := f.svc.ListCashEntries(context.Background(), id, 0, 0)

		assert.ErrorIs(t, err, customError.ErrLenderNotFound)
		f.entries.AssertNotCalled(t, "ListByLender", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
