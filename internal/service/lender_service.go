package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/segyhp/lending-engine/internal/domain"
	"github.com/segyhp/lending-engine/internal/repository"
	customError "github.com/segyhp/lending-engine/pkg/errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type LenderService struct {
	lenders    repository.LenderRepository
	entries    repository.LenderTransactionRepository
	tx         repository.Transactor
	logger     *slog.Logger
	maxRetries int
	now        func() time.Time
}

func NewLenderService(
	lenders repository.LenderRepository,
	entries repository.LenderTransactionRepository,
	tx repository.Transactor,
	logger *slog.Logger,
	maxRetries int,
) *LenderService {
	return &LenderService{
		lenders:    lenders,
		entries:    entries,
		tx:         tx,
		logger:     logger,
		maxRetries: maxRetries,
		now:        time.Now,
	}
}

// RegisterLender opens a pool account with a zero balance.
func (s *LenderService) RegisterLender(ctx context.Context, request *domain.RegisterLenderRequest) (*domain.Lender, error) {
	name := strings.TrimSpace(request.Name)
	if name == "" {
		return nil, customError.WrapInvalidRequest("lender name is required")
	}

	now := s.now()
	lender := &domain.Lender{
		ID:                      uuid.New(),
		Name:                    name,
		CurrentBalanceWithAdmin: decimal.Zero,
		Version:                 1,
		CreatedAt:               now,
		UpdatedAt:               now,
	}
	if err := s.lenders.Create(ctx, lender); err != nil {
		return nil, storageError(err)
	}

	s.logger.InfoContext(ctx, "lender registered", "lender_id", lender.ID, "name", lender.Name)
	return lender, nil
}

// RecordCashEntry moves cash into or out of a lender's pool. The balance
// change and the ledger entry commit together.
func (s *LenderService) RecordCashEntry(ctx context.Context, lenderID uuid.UUID, request *domain.CashEntryRequest, settings domain.Settings) (*domain.CashEntryResult, error) {
	split, err := validateCashEntry(request, settings)
	if err != nil {
		return nil, err
	}

	var result *domain.CashEntryResult
	err = withRetry(ctx, s.logger, "lender balance", s.maxRetries, func() error {
		return s.tx.WithinTx(ctx, func(ctx context.Context) error {
			lender, err := s.lenders.GetByID(ctx, lenderID)
			if err != nil {
				if errors.Is(err, customError.ErrLenderNotFound) {
					return customError.WrapLenderNotFound(lenderID.String())
				}
				return storageError(err)
			}

			balance := lender.CurrentBalanceWithAdmin
			switch request.Type {
			case domain.LenderTransactionDeposit:
				balance = balance.Add(request.Amount)
			case domain.LenderTransactionWithdrawal:
				if balance.LessThan(request.Amount) {
					return customError.WrapInsufficientLenderBalance(lenderID.String(), balance.String(), request.Amount.String())
				}
				balance = balance.Sub(request.Amount)
			}

			now := s.now()
			lender.CurrentBalanceWithAdmin = balance
			lender.UpdatedAt = now
			if err := s.lenders.UpdateBalance(ctx, lender); err != nil {
				return storageError(err)
			}

			entry := &domain.LenderTransaction{
				ID:           uuid.New(),
				LenderID:     lenderID,
				Type:         request.Type,
				Amount:       request.Amount,
				PaymentSplit: split,
				Notes:        request.Notes,
				ProcessedBy:  request.ProcessedBy,
				CreatedAt:    now,
			}
			if err := s.entries.Create(ctx, entry); err != nil {
				return storageError(err)
			}

			result = &domain.CashEntryResult{Entry: entry, Lender: lender}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "lender cash entry recorded",
		"lender_id", lenderID,
		"type", request.Type,
		"amount", request.Amount.String(),
		"balance", result.Lender.CurrentBalanceWithAdmin.String(),
	)
	return result, nil
}

func (s *LenderService) GetLender(ctx context.Context, id uuid.UUID) (*domain.Lender, error) {
	lender, err := s.lenders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, customError.ErrLenderNotFound) {
			return nil, customError.WrapLenderNotFound(id.String())
		}
		return nil, storageError(err)
	}
	return lender, nil
}

func (s *LenderService) ListCashEntries(ctx context.Context, lenderID uuid.UUID, limit, offset int) ([]*domain.LenderTransaction, error) {
	if _, err := s.GetLender(ctx, lenderID); err != nil {
		return nil, err
	}

	entries, err := s.entries.ListByLender(ctx, lenderID, limit, offset)
	if err != nil {
		return nil, storageError(err)
	}
	return entries, nil
}

// validateCashEntry checks the entry and returns its split with each mode in
// the configured spelling.
func validateCashEntry(request *domain.CashEntryRequest, settings domain.Settings) ([]domain.PaymentSplit, error) {
	if !request.Type.Valid() {
		return nil, customError.WrapInvalidLenderTransactionType(string(request.Type))
	}
	if !request.Amount.IsPositive() {
		return nil, customError.WrapInvalidPaymentAmount(request.Amount.String())
	}
	if len(request.PaymentSplit) == 0 {
		return nil, customError.WrapPaymentSplitMismatch(request.Amount.String(), "0")
	}

	total := decimal.Zero
	split := make([]domain.PaymentSplit, 0, len(request.PaymentSplit))
	for _, part := range request.PaymentSplit {
		if !part.Amount.IsPositive() {
			return nil, customError.WrapInvalidPaymentAmount(part.Amount.String())
		}
		mode, ok := settings.ResolvePaymentMode(part.Mode)
		if !ok {
			return nil, customError.WrapUnknownPaymentMode(part.Mode)
		}
		part.Mode = mode
		split = append(split, part)
		total = total.Add(part.Amount)
	}
	if !total.Equal(request.Amount) {
		return nil, customError.WrapPaymentSplitMismatch(request.Amount.String(), total.String())
	}
	return split, nil
}
