package repository

import (
	"context"
	"time"

	"github.com/fishryanie/GC-sub000/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PublicLinkRepository interface {
	Create(ctx context.Context, link *model.PublicOrderLink) error
	FindByToken(ctx context.Context, token string) (*model.PublicOrderLink, error)
	// Touch increments usage_count and stamps last_used_at.
	Touch(ctx context.Context, id uuid.UUID, at time.Time) error
	// SaveSnapshot writes back the inline sale list snapshot.
	SaveSnapshot(ctx context.Context, link *model.PublicOrderLink) error
}

type publicLinkRepository struct {
	db *gorm.DB
}

func NewPublicLinkRepository(db *gorm.DB) PublicLinkRepository {
	return &publicLinkRepository{db: db}
}

func (r *publicLinkRepository) Create(ctx context.Context, link *model.PublicOrderLink) error {
	return GetDB(ctx, r.db).Create(link).Error
}

func (r *publicLinkRepository) FindByToken(ctx context.Context, token string) (*model.PublicOrderLink, error) {
	var link model.PublicOrderLink
	if err := GetDB(ctx, r.db).First(&link, "token = ?", token).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *publicLinkRepository) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	return GetDB(ctx, r.db).Model(&model.PublicOrderLink{}).Where("id = ?", id).Updates(map[string]interface{}{
		"usage_count":  gorm.Expr("usage_count + ?", 1),
		"last_used_at": at,
	}).Error
}

func (r *publicLinkRepository) SaveSnapshot(ctx context.Context, link *model.PublicOrderLink) error {
	return GetDB(ctx, r.db).Model(link).Select(
		"sale_price_list_name", "sale_list_effective_from", "snapshot_items", "updated_at",
	).Updates(link).Error
}
