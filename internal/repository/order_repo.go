package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/fishryanie/GC-sub000/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderFilter narrows order listings. Zero values mean "any".
type OrderFilter struct {
	SellerID          *uuid.UUID
	CustomerID        *uuid.UUID
	FulfillmentStatus string
	ApprovalStatus    string
	Page              int
	Limit             int
}

// StatusChange carries the operator-editable status axes; nil fields are left untouched.
type StatusChange struct {
	FulfillmentStatus     *string
	SupplierPaymentStatus *string
	CollectionStatus      *string
}

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	FindByIDWithLines(ctx context.Context, id uuid.UUID) (*model.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]model.Order, int64, error)
	// SaveReview writes the review outcome only while the order is still awaiting review.
	// It reports false when another writer got there first.
	SaveReview(ctx context.Context, order *model.Order) (bool, error)
	ReplaceLines(ctx context.Context, orderID uuid.UUID, lines []model.OrderLine) error
	// UpdateStatus refuses orders still in PENDING_APPROVAL and reports false in that case.
	UpdateStatus(ctx context.Context, id uuid.UUID, change StatusChange) (bool, error)
	// MarkLedgerApplied stamps ledger_applied_at once; false means it was already stamped.
	MarkLedgerApplied(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	CountCodesWithPrefix(ctx context.Context, prefix string) (int64, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	return GetDB(ctx, r.db).Create(order).Error
}

func (r *orderRepository) FindByIDWithLines(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	if err := GetDB(ctx, r.db).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) List(ctx context.Context, filter OrderFilter) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64

	scoped := func(db *gorm.DB) *gorm.DB {
		if filter.SellerID != nil {
			db = db.Where("seller_id = ?", *filter.SellerID)
		}
		if filter.CustomerID != nil {
			db = db.Where("customer_id = ?", *filter.CustomerID)
		}
		if filter.FulfillmentStatus != "" {
			db = db.Where("fulfillment_status = ?", filter.FulfillmentStatus)
		}
		if filter.ApprovalStatus != "" {
			db = db.Where("approval_status = ?", filter.ApprovalStatus)
		}
		return db
	}

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Order{}).Scopes(scoped).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := db.Scopes(scoped).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *orderRepository) SaveReview(ctx context.Context, order *model.Order) (bool, error) {
	res := GetDB(ctx, r.db).Model(&model.Order{}).
		Where("id = ? AND fulfillment_status = ? AND approval_status = ?",
			order.ID, model.FulfillmentPendingApproval, model.ApprovalPending).
		Updates(map[string]interface{}{
			"fulfillment_status":             order.FulfillmentStatus,
			"approval_status":                order.Approval.Status,
			"approval_reviewed_at":           order.Approval.ReviewedAt,
			"approval_reviewed_by":           order.Approval.ReviewedBy,
			"approval_reviewed_by_name":      order.Approval.ReviewedByName,
			"approval_note":                  order.Approval.Note,
			"discount_status":                order.DiscountRequest.Status,
			"discount_requested_amount":      order.DiscountRequest.RequestedAmount,
			"discount_requested_sale_amount": order.DiscountRequest.RequestedSaleAmount,
			"discount_reviewed_at":           order.DiscountRequest.ReviewedAt,
			"discount_reviewed_by":           order.DiscountRequest.ReviewedBy,
			"discount_review_note":           order.DiscountRequest.ReviewNote,
			"total_sale_amount":              order.TotalSaleAmount,
			"total_profit_amount":            order.TotalProfitAmount,
			"updated_at":                     time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *orderRepository) ReplaceLines(ctx context.Context, orderID uuid.UUID, lines []model.OrderLine) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("order_id = ?", orderID).Delete(&model.OrderLine{}).Error; err != nil {
		return fmt.Errorf("delete order lines: %w", err)
	}
	if len(lines) == 0 {
		return nil
	}
	fresh := make([]model.OrderLine, len(lines))
	for i, line := range lines {
		line.ID = uuid.Nil
		line.OrderID = orderID
		fresh[i] = line
	}
	return db.Create(&fresh).Error
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, change StatusChange) (bool, error) {
	updates := map[string]interface{}{"updated_at": time.Now()}
	if change.FulfillmentStatus != nil {
		updates["fulfillment_status"] = *change.FulfillmentStatus
	}
	if change.SupplierPaymentStatus != nil {
		updates["supplier_payment_status"] = *change.SupplierPaymentStatus
	}
	if change.CollectionStatus != nil {
		updates["collection_status"] = *change.CollectionStatus
	}

	res := GetDB(ctx, r.db).Model(&model.Order{}).
		Where("id = ? AND fulfillment_status <> ?", id, model.FulfillmentPendingApproval).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *orderRepository) MarkLedgerApplied(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res := GetDB(ctx, r.db).Model(&model.Order{}).
		Where("id = ? AND ledger_applied_at IS NULL", id).
		Update("ledger_applied_at", at)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *orderRepository) CountCodesWithPrefix(ctx context.Context, prefix string) (int64, error) {
	var count int64
	if err := GetDB(ctx, r.db).Model(&model.Order{}).Where("code LIKE ?", prefix+"%").Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
