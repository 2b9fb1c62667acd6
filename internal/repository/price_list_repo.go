package repository

import (
	"context"

	"github.com/fishryanie/GC-sub000/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PriceListRepository interface {
	// FindActiveCost returns the most recent active COST list, or gorm.ErrRecordNotFound.
	FindActiveCost(ctx context.Context) (*model.PriceList, error)
	// FindByID returns the list header without items.
	FindByID(ctx context.Context, id uuid.UUID) (*model.PriceList, error)
	FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.PriceList, error)
	FindItems(ctx context.Context, priceListID uuid.UUID) ([]model.PriceListItem, error)
	Activate(ctx context.Context, id uuid.UUID) error
}

type priceListRepository struct {
	db *gorm.DB
}

func NewPriceListRepository(db *gorm.DB) PriceListRepository {
	return &priceListRepository{db: db}
}

func (r *priceListRepository) FindActiveCost(ctx context.Context) (*model.PriceList, error) {
	var list model.PriceList
	if err := GetDB(ctx, r.db).
		Where("type = ? AND is_active = ?", model.PriceListTypeCost, true).
		Order("effective_from DESC").
		Order("created_at DESC").
		First(&list).Error; err != nil {
		return nil, err
	}
	return &list, nil
}

func (r *priceListRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.PriceList, error) {
	var list model.PriceList
	if err := GetDB(ctx, r.db).First(&list, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &list, nil
}

func (r *priceListRepository) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.PriceList, error) {
	var list model.PriceList
	if err := GetDB(ctx, r.db).Preload("Items").First(&list, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &list, nil
}

func (r *priceListRepository) FindItems(ctx context.Context, priceListID uuid.UUID) ([]model.PriceListItem, error) {
	var items []model.PriceListItem
	if err := GetDB(ctx, r.db).Where("price_list_id = ?", priceListID).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Activate marks the list active. Activating a COST list deactivates every other COST list
// in the same statement pair; SALE activation is independent per scope.
func (r *priceListRepository) Activate(ctx context.Context, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	return db.Transaction(func(tx *gorm.DB) error {
		var list model.PriceList
		if err := tx.First(&list, "id = ?", id).Error; err != nil {
			return err
		}
		if list.Type == model.PriceListTypeCost {
			if err := tx.Model(&model.PriceList{}).
				Where("type = ? AND id <> ? AND is_active = ?", model.PriceListTypeCost, id, true).
				Update("is_active", false).Error; err != nil {
				return err
			}
		}
		return tx.Model(&model.PriceList{}).Where("id = ?", id).Update("is_active", true).Error
	})
}
