package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/segyhp/lending-engine/internal/cache"
	"github.com/segyhp/lending-engine/internal/calculator"
	"github.com/segyhp/lending-engine/internal/domain"
	"github.com/segyhp/lending-engine/internal/repository"
	customError "github.com/segyhp/lending-engine/pkg/errors"

	"github.com/google/uuid"
)

type CollectionService struct {
	loans        repository.LoanRepository
	transactions repository.TransactionRepository
	tx           repository.Transactor
	cache        cache.LoanCache
	logger       *slog.Logger
	maxRetries   int
	now          func() time.Time
}

func NewCollectionService(
	loans repository.LoanRepository,
	transactions repository.TransactionRepository,
	tx repository.Transactor,
	loanCache cache.LoanCache,
	logger *slog.Logger,
	maxRetries int,
) *CollectionService {
	return &CollectionService{
		loans:        loans,
		transactions: transactions,
		tx:           tx,
		cache:        loanCache,
		logger:       logger,
		maxRetries:   maxRetries,
		now:          time.Now,
	}
}

// RecordCollection applies a collected amount to a loan's dues oldest first
// and records the transaction. A device transaction id that was already
// recorded against the same loan returns the stored result with Replayed set
// and changes nothing, even when the settings have changed since.
func (s *CollectionService) RecordCollection(ctx context.Context, loanID uuid.UUID, request *domain.RecordCollectionRequest, settings domain.Settings) (*domain.CollectionResult, error) {
	deviceID := request.DeviceTransactionID
	if result, err := s.replay(ctx, loanID, deviceID); result != nil || err != nil {
		return result, err
	}

	if !request.Amount.IsPositive() {
		return nil, customError.WrapInvalidPaymentAmount(request.Amount.String())
	}
	if request.CollectedBy == "" {
		return nil, customError.WrapInvalidRequest("collected_by is required")
	}
	mode, ok := settings.ResolvePaymentMode(request.PaymentMode)
	if !ok {
		return nil, customError.WrapUnknownPaymentMode(request.PaymentMode)
	}

	var (
		loan *domain.Loan
		txn  *domain.Transaction
		app  calculator.Application
	)
	err := withRetry(ctx, s.logger, "loan", s.maxRetries, func() error {
		return s.tx.WithinTx(ctx, func(ctx context.Context) error {
			current, err := s.loans.GetByID(ctx, loanID)
			if err != nil {
				if errors.Is(err, customError.ErrLoanNotFound) {
					return customError.WrapLoanNotFound(loanID.String())
				}
				return storageError(err)
			}
			if !current.IsActive() {
				return customError.WrapLoanNotActive(loanID.String(), string(current.Status))
			}

			now := s.now()
			app = calculator.ReconcileLoan(current, request.Amount, now)
			current.UpdatedAt = now
			if err := s.loans.UpdateState(ctx, current, app.Touched); err != nil {
				return storageError(err)
			}

			record := &domain.Transaction{
				ID:                 uuid.New(),
				LoanID:             current.ID,
				CustomerID:         current.CustomerID,
				CollectedBy:        request.CollectedBy,
				Amount:             request.Amount,
				AppliedAmount:      app.Applied,
				ExcessAmount:       app.Excess,
				PaymentType:        app.PaymentType(),
				PaymentMode:        mode,
				InstallmentNumbers: app.InstallmentNumbers,
				Notes:              request.Notes,
				SyncDetails: domain.SyncDetails{
					IsOfflineEntry:      request.IsOfflineEntry,
					DeviceTransactionID: deviceID,
				},
				CreatedAt: now,
			}
			if request.IsOfflineEntry {
				record.SyncDetails.SyncedAt = &now
			}
			if err := s.transactions.Create(ctx, record); err != nil {
				return storageError(err)
			}

			loan, txn = current, record
			return nil
		})
	})
	if errors.Is(err, customError.ErrDuplicateTransaction) && deviceID != "" {
		// Another request with the same device id committed first.
		if result, replayErr := s.replay(ctx, loanID, deviceID); result != nil || replayErr != nil {
			return result, replayErr
		}
		return nil, customError.WrapDuplicateTransaction(deviceID)
	}
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateLoan(ctx, loan.ID)
	s.logger.InfoContext(ctx, "collection recorded",
		"loan_id", loan.ID,
		"transaction_id", txn.ID,
		"amount", txn.Amount.String(),
		"applied", txn.AppliedAmount.String(),
		"excess", txn.ExcessAmount.String(),
		"installments", txn.InstallmentNumbers,
	)
	if app.Closed {
		s.logger.InfoContext(ctx, "loan closed",
			"loan_id", loan.ID,
			"total_principal_paid", loan.Financials.TotalPrincipalPaid.String(),
		)
	}

	return &domain.CollectionResult{Transaction: txn, Loan: loan}, nil
}

// replay returns the stored result for a device transaction id, or nil when
// the id is empty or unseen. An id recorded against another loan is a conflict.
func (s *CollectionService) replay(ctx context.Context, loanID uuid.UUID, deviceID string) (*domain.CollectionResult, error) {
	if deviceID == "" {
		return nil, nil
	}

	existing, err := s.transactions.FindByDeviceTransactionID(ctx, deviceID)
	if err != nil {
		return nil, storageError(err)
	}
	if existing == nil {
		return nil, nil
	}
	if existing.LoanID != loanID {
		return nil, customError.WrapDuplicateTransaction(deviceID)
	}

	loan, err := s.loans.GetByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, customError.ErrLoanNotFound) {
			return nil, customError.WrapLoanNotFound(loanID.String())
		}
		return nil, storageError(err)
	}

	s.logger.InfoContext(ctx, "collection replayed",
		"loan_id", loanID,
		"transaction_id", existing.ID,
		"device_transaction_id", deviceID,
	)
	return &domain.CollectionResult{Transaction: existing, Loan: loan, Replayed: true}, nil
}

func (s *CollectionService) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	txns, err := s.transactions.List(ctx, filter)
	if err != nil {
		return nil, storageError(err)
	}
	return txns, nil
}
