package handler_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/segyhp/lending-engine/internal/domain"
	customError "github.com/segyhp/lending-engine/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestLenderHandler_RegisterLender(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		s := newTestServer()
		s.lenders.On("RegisterLender", mock.Anything, &domain.RegisterLenderRequest{Name: "Ravi"}).
			Return(&domain.Lender{ID: uuid.New(), Name: "Ravi", CurrentBalanceWithAdmin: dec("0")}, nil)

		w := s.do(t, http.MethodPost, "/api/v1/lenders", map[string]string{"name": "Ravi"})

		assert.Equal(t, http.StatusCreated, w.Code)
		var lender domain.Lender
		require.NoError(t, json.Unmarshal(readEnvelope(t, w).Data, &lender))
		assert.Equal(t, "Ravi", lender.Name)
	})

	t.Run("missing name", func(t *testing.T) {
		s := newTestServer()

		w := s.do(t, http.MethodPost, "/api/v1/lenders", map[string]string{})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		s.lenders.AssertNotCalled(t, "RegisterLender", mock.Anything, mock.Anything)
	})
}

func TestLenderHandler_RecordCashEntry(t *testing.T) {
	lenderID := uuid.New()
	path := "/api/v1/lenders/" + lenderID.String() + "/cash-entries"
	deposit := map[string]interface{}{
		"type":   "Deposit",
		"amount": "1500",
		"payment_split": []map[string]interface{}{
			{"mode": "Cash", "amount": "1000"},
			{"mode": "PhonePe", "amount": "500"},
		},
		"processed_by": "admin",
	}

	tests := []struct {
		name           string
		body           interface{}
		setupMock      func(*testServer)
		expectedStatus int
		expectedCode   string
	}{
		{
			name: "deposit recorded",
			body: deposit,
			setupMock: func(s *testServer) {
				s.lenders.On("RecordCashEntry", mock.Anything, lenderID, mock.MatchedBy(func(req *domain.CashEntryRequest) bool {
					return req.Type == domain.LenderTransactionDeposit && len(req.PaymentSplit) == 2
				}), testSettings).Return(&domain.CashEntryResult{
					Entry:  &domain.LenderTransaction{ID: uuid.New(), LenderID: lenderID, Amount: dec("1500")},
					Lender: &domain.Lender{ID: lenderID, CurrentBalanceWithAdmin: dec("1500")},
				}, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "withdrawal beyond balance",
			body: map[string]interface{}{
				"type":          "Withdrawal",
				"amount":        "500",
				"payment_split": []map[string]interface{}{{"mode": "Cash", "amount": "500"}},
			},
			setupMock: func(s *testServer) {
				s.lenders.On("RecordCashEntry", mock.Anything, lenderID, mock.Anything, mock.Anything).
					Return(nil, customError.WrapInsufficientLenderBalance(lenderID.String(), "100", "500"))
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedCode:   customError.ErrCodeInsufficientLenderBalance,
		},
		{
			name: "split mismatch",
			body: deposit,
			setupMock: func(s *testServer) {
				s.lenders.On("RecordCashEntry", mock.Anything, lenderID, mock.Anything, mock.Anything).
					Return(nil, customError.WrapPaymentSplitMismatch("1500", "1400"))
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   customError.ErrCodePaymentSplitMismatch,
		},
		{
			name: "unknown entry type fails validation",
			body: map[string]interface{}{
				"type":          "Transfer",
				"amount":        "500",
				"payment_split": []map[string]interface{}{{"mode": "Cash", "amount": "500"}},
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   customError.ErrCodeInvalidRequest,
		},
		{
			name:           "empty split fails validation",
			body:           map[string]interface{}{"type": "Deposit", "amount": "500", "payment_split": []interface{}{}},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   customError.ErrCodeInvalidRequest,
		},
		{
			name: "unknown lender",
			body: deposit,
			setupMock: func(s *testServer) {
				s.lenders.On("RecordCashEntry", mock.Anything, lenderID, mock.Anything, mock.Anything).
					Return(nil, customError.WrapLenderNotFound(lenderID.String()))
			},
			expectedStatus: http.StatusNotFound,
			expectedCode:   customError.ErrCodeLenderNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer()
			if tt.setupMock != nil {
				tt.setupMock(s)
			}

			w := s.do(t, http.MethodPost, path, tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedCode, readEnvelope(t, w).Code)
			if tt.setupMock == nil {
				s.lenders.AssertNotCalled(t, "RecordCashEntry", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			}
			s.lenders.AssertExpectations(t)
		})
	}
}

func TestLenderHandler_GetLenderAndEntries(t *testing.T) {
	lenderID := uuid.New()

	t.Run("get lender", func(t *testing.T) {
		s := newTestServer()
		s.lenders.On("GetLender", mock.Anything, lenderID).
			Return(&domain.Lender{ID: lenderID, Name: "Ravi", CurrentBalanceWithAdmin: dec("250")}, nil)

		w := s.do(t, http.MethodGet, "/api/v1/lenders/"+lenderID.String(), nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var lender domain.Lender
		require.NoError(t, json.Unmarshal(readEnvelope(t, w).Data, &lender))
		assert.True(t, lender.CurrentBalanceWithAdmin.Equal(dec("250")))
	})

	t.Run("list entries with paging", func(t *testing.T) {
		s := newTestServer()
		s.lenders.On("ListCashEntries", mock.Anything, lenderID, 25, 50).
			Return([]*domain.LenderTransaction{{ID: uuid.New(), LenderID: lenderID}}, nil)

		w := s.do(t, http.MethodGet, "/api/v1/lenders/"+lenderID.String()+"/cash-entries?limit=25&offset=50", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		s.lenders.AssertExpectations(t)
	})

	t.Run("unknown lender", func(t *testing.T) {
		s := newTestServer()
		s.lenders.On("ListCashEntries", mock.Anything, lenderID, 0, 0).
			Return(nil, customError.WrapLenderNotFound(lenderID.String()))

		w := s.do(t, http.MethodGet, "/api/v1/lenders/"+lenderID.String()+"/cash-entries", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
