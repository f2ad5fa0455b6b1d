package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/segyhp/lending-engine/internal/domain"
	customError "github.com/segyhp/lending-engine/pkg/errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type lenderRow struct {
	ID                      string          `db:"id"`
	Name                    string          `db:"name"`
	CurrentBalanceWithAdmin decimal.Decimal `db:"current_balance_with_admin"`
	Version                 int64           `db:"version"`
	CreatedAt               string          `db:"created_at"`
	UpdatedAt               string          `db:"updated_at"`
}

type lenderRepository struct {
	db *sqlx.DB
}

func NewLenderRepository(db *sqlx.DB) LenderRepository {
	return &lenderRepository{db: db}
}

func (r *lenderRepository) Create(ctx context.Context, lender *domain.Lender) error {
	query := `
		INSERT INTO lenders (id, name, current_balance_with_admin, version, created_at, updated_at)
		VALUES (:id, :name, :current_balance_with_admin, :version, :created_at, :updated_at)
	`
	row := lenderRow{
		ID:                      lender.ID.String(),
		Name:                    lender.Name,
		CurrentBalanceWithAdmin: lender.CurrentBalanceWithAdmin,
		Version:                 lender.Version,
		CreatedAt:               formatTime(lender.CreatedAt),
		UpdatedAt:               formatTime(lender.UpdatedAt),
	}

	_, err := sqlx.NamedExecContext(ctx, executor(ctx, r.db), query, row)
	return err
}

func (r *lenderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lender, error) {
	ext := executor(ctx, r.db)
	query := ext.Rebind(`
		SELECT id, name, current_balance_with_admin, version, created_at, updated_at
		FROM lenders
		WHERE id = ?
	`)

	var row lenderRow
	if err := sqlx.GetContext(ctx, ext, &row, query, id.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.ErrLenderNotFound
		}
		return nil, err
	}
	return row.toDomain()
}

func (r *lenderRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Lender, error) {
	lenders := make(map[uuid.UUID]*domain.Lender, len(ids))
	if len(ids) == 0 {
		return lenders, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}

	query, args, err := sqlx.In(`
		SELECT id, name, current_balance_with_admin, version, created_at, updated_at
		FROM lenders
		WHERE id IN (?)
	`, keys)
	if err != nil {
		return nil, err
	}

	ext := executor(ctx, r.db)
	var rows []lenderRow
	if err := sqlx.SelectContext(ctx, ext, &rows, ext.Rebind(query), args...); err != nil {
		return nil, err
	}

	for _, row := range rows {
		lender, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		lenders[lender.ID] = lender
	}
	return lenders, nil
}

func (r *lenderRepository) UpdateBalance(ctx context.Context, lender *domain.Lender) error {
	ext := executor(ctx, r.db)
	query := ext.Rebind(`
		UPDATE lenders
		SET current_balance_with_admin = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`)

	result, err := ext.ExecContext(ctx, query,
		lender.CurrentBalanceWithAdmin,
		formatTime(lender.UpdatedAt),
		lender.ID.String(),
		lender.Version,
	)
	if err != nil {
		return fmt.Errorf("update lender balance: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return customError.ErrVersionConflict
	}

	lender.Version++
	return nil
}

func (row lenderRow) toDomain() (*domain.Lender, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, err
	}
	createdAt, err := parseTime(row.CreatedAt)
	if err != nil {
		return nil, err
	}
	updatedAt, err := parseTime(row.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &domain.Lender{
		ID:                      id,
		Name:                    row.Name,
		CurrentBalanceWithAdmin: row.CurrentBalanceWithAdmin,
		Version:                 row.Version,
		CreatedAt:               createdAt,
		UpdatedAt:               updatedAt,
	}, nil
}
