// Package cache keeps read-through snapshots of loans and overdue summaries in
// Redis. The database stays the source of truth: every cache failure is logged
// and treated as a miss.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segyhp/lending-engine/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type LoanCache interface {
	GetLoan(ctx context.Context, id uuid.UUID) (*domain.Loan, bool)
	SetLoan(ctx context.Context, loan *domain.Loan)
	InvalidateLoan(ctx context.Context, id uuid.UUID)
	GetOverdue(ctx context.Context, loanID uuid.UUID) (*domain.OverdueSummary, bool)
	SetOverdue(ctx context.Context, summary *domain.OverdueSummary)
}

type redisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) LoanCache {
	return &redisCache{client: client, ttl: ttl, logger: logger}
}

func loanKey(id uuid.UUID) string {
	return fmt.Sprintf("loan:%s", id)
}

func overdueKey(id uuid.UUID) string {
	return fmt.Sprintf("loan:%s:overdue", id)
}

func (c *redisCache) GetLoan(ctx context.Context, id uuid.UUID) (*domain.Loan, bool) {
	var loan domain.Loan
	if !c.get(ctx, loanKey(id), &loan) {
		return nil, false
	}
	return &loan, true
}

func (c *redisCache) SetLoan(ctx context.Context, loan *domain.Loan) {
	c.set(ctx, loanKey(loan.ID), loan)
}

func (c *redisCache) InvalidateLoan(ctx context.Context, id uuid.UUID) {
	if err := c.client.Del(ctx, loanKey(id), overdueKey(id)).Err(); err != nil {
		c.logger.Warn("cache invalidate failed", "loan_id", id, "error", err)
	}
}

func (c *redisCache) GetOverdue(ctx context.Context, loanID uuid.UUID) (*domain.OverdueSummary, bool) {
	var summary domain.OverdueSummary
	if !c.get(ctx, overdueKey(loanID), &summary) {
		return nil, false
	}
	return &summary, true
}

func (c *redisCache) SetOverdue(ctx context.Context, summary *domain.OverdueSummary) {
	c.set(ctx, overdueKey(summary.LoanID), summary)
}

func (c *redisCache) get(ctx context.Context, key string, dest interface{}) bool {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache read failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.logger.Warn("cache entry undecodable", "key", key, "error", err)
		return false
	}
	return true
}

func (c *redisCache) set(ctx context.Context, key string, value interface{}) {
	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("cache encode failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", "key", key, "error", err)
	}
}

type nopCache struct{}

// NewNopCache returns a cache that never stores anything.
func NewNopCache() LoanCache {
	return nopCache{}
}

func (nopCache) GetLoan(context.Context, uuid.UUID) (*domain.Loan, bool) {
	return nil, false
}

func (nopCache) SetLoan(context.Context, *domain.Loan) {}

func (nopCache) InvalidateLoan(context.Context, uuid.UUID) {}

func (nopCache) GetOverdue(context.Context, uuid.UUID) (*domain.OverdueSummary, bool) {
	return nil, false
}

func (nopCache) SetOverdue(context.Context, *domain.OverdueSummary) {}
