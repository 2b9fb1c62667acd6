package repository

import (
	"context"
	"time"

	"github.com/fishryanie/GC-sub000/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CustomerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Customer, error)
	// IncrementLedger atomically bumps order_count, total_spent_amount and sets last_order_at.
	IncrementLedger(ctx context.Context, id uuid.UUID, amount decimal.Decimal, at time.Time) error
}

type customerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	var customer model.Customer
	if err := GetDB(ctx, r.db).First(&customer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) IncrementLedger(ctx context.Context, id uuid.UUID, amount decimal.Decimal, at time.Time) error {
	res := GetDB(ctx, r.db).Model(&model.Customer{}).Where("id = ?", id).Updates(map[string]interface{}{
		"order_count":        gorm.Expr("order_count + ?", 1),
		"total_spent_amount": gorm.Expr("total_spent_amount + ?", amount),
		"last_order_at":      at,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
