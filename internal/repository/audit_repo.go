package repository

import (
	"context"

	"github.com/fishryanie/GC-sub000/internal/model"

	"gorm.io/gorm"
)

// AuditRepository appends workflow audit rows and reads an entity's history.
type AuditRepository interface {
	Log(ctx context.Context, entry *model.AuditLog) error
	ListByEntity(ctx context.Context, entityID string) ([]model.AuditLog, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

// Log writes inside the caller's transaction when there is one.
func (r *auditRepository) Log(ctx context.Context, entry *model.AuditLog) error {
	if entry.Details == "" {
		// the column is jsonb
		entry.Details = "{}"
	}
	return GetDB(ctx, r.db).Create(entry).Error
}

// ListByEntity returns the entity's audit rows, oldest first.
func (r *auditRepository) ListByEntity(ctx context.Context, entityID string) ([]model.AuditLog, error) {
	var logs []model.AuditLog
	err := GetDB(ctx, r.db).
		Where("entity_id = ?", entityID).
		Order("created_at ASC").
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}
