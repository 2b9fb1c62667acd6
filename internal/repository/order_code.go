package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// OrderCodeGenerator issues unique human-readable order codes.
type OrderCodeGenerator interface {
	Next(ctx context.Context, now time.Time) (string, error)
}

type orderCodeGenerator struct {
	db     *gorm.DB
	orders OrderRepository
}

// NewOrderCodeGenerator returns a generator producing ORD-YYYYMMDD-NNNNN codes.
// Next must run inside a transaction so the advisory lock covers the insert.
func NewOrderCodeGenerator(db *gorm.DB, orders OrderRepository) OrderCodeGenerator {
	return &orderCodeGenerator{db: db, orders: orders}
}

func (g *orderCodeGenerator) Next(ctx context.Context, now time.Time) (string, error) {
	if !InTx(ctx) {
		return "", ErrNoTransaction
	}
	prefix := "ORD-" + now.Format("20060102") + "-"

	// Serialize concurrent generators for the same day
	if err := GetDB(ctx, g.db).Exec("SELECT pg_advisory_xact_lock(hashtext(?))", prefix).Error; err != nil {
		return "", fmt.Errorf("lock order code prefix: %w", err)
	}

	count, err := g.orders.CountCodesWithPrefix(ctx, prefix)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%05d", prefix, count+1), nil
}
