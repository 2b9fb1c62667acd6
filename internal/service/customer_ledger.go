package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fishryanie/GC-sub000/internal/model"
	"github.com/fishryanie/GC-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CustomerLedger maintains the per-customer lifetime aggregates.
type CustomerLedger struct {
	orders    repository.OrderRepository
	customers repository.CustomerRepository
	auditRepo repository.AuditRepository
	log       *zap.Logger
}

func NewCustomerLedger(
	orders repository.OrderRepository,
	customers repository.CustomerRepository,
	auditRepo repository.AuditRepository,
	log *zap.Logger,
) *CustomerLedger {
	if log == nil {
		log = zap.NewNop()
	}
	return &CustomerLedger{orders: orders, customers: customers, auditRepo: auditRepo, log: log}
}

// Apply increments orderCount by one and totalSpentAmount by amount, and sets lastOrderAt.
func (l *CustomerLedger) Apply(ctx context.Context, customerID uuid.UUID, amount decimal.Decimal, at time.Time) error {
	if err := l.customers.IncrementLedger(ctx, customerID, amount, at); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCustomerNotFound
		}
		return fmt.Errorf("increment customer ledger: %w", err)
	}
	return nil
}

// ApplyForOrder applies the order's sale total once, the first time the order is spend-counted.
// It reports whether the ledger moved. Callers run it inside the transaction that confirmed the order.
func (l *CustomerLedger) ApplyForOrder(ctx context.Context, actorID *uuid.UUID, order *model.Order, at time.Time) (bool, error) {
	if !order.IsSpendCounted() {
		return false, nil
	}

	marked, err := l.orders.MarkLedgerApplied(ctx, order.ID, at)
	if err != nil {
		return false, fmt.Errorf("mark ledger applied: %w", err)
	}
	if !marked {
		l.log.Warn("ledger already applied", zap.String("order_code", order.Code))
		return false, nil
	}
	order.LedgerAppliedAt = &at

	if err := l.Apply(ctx, order.CustomerID, order.TotalSaleAmount, at); err != nil {
		return false, err
	}

	details, err := encodeAuditDetails(map[string]interface{}{
		"order_id":    order.ID.String(),
		"order_code":  order.Code,
		"amount":      order.TotalSaleAmount.String(),
		"occurred_at": at,
	})
	if err != nil {
		return false, err
	}
	if err := l.auditRepo.Log(ctx, &model.AuditLog{
		UserID:     actorID,
		Action:     model.ActionCustomerLedgerApply,
		EntityID:   order.CustomerID.String(),
		EntityName: order.CustomerName,
		Details:    details,
	}); err != nil {
		return false, fmt.Errorf("failed to write audit log: %w", err)
	}

	l.log.Info("customer ledger applied",
		zap.String("order_code", order.Code),
		zap.String("customer_id", order.CustomerID.String()),
		zap.String("amount", order.TotalSaleAmount.String()),
	)
	return true, nil
}
