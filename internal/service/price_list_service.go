package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/fishryanie/GC-sub000/internal/model"
	"github.com/fishryanie/GC-sub000/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PriceItemInvalidator drops cached items of a list version.
type PriceItemInvalidator interface {
	Invalidate(ctx context.Context, list model.PriceList) error
}

// PriceListService is the admin surface over price lists.
type PriceListService interface {
	Activate(ctx context.Context, actor Actor, id uuid.UUID) (*model.PriceList, error)
}

type priceListService struct {
	lists     repository.PriceListRepository
	auditRepo repository.AuditRepository
	cache     PriceItemInvalidator
	log       *zap.Logger
}

func NewPriceListService(lists repository.PriceListRepository, auditRepo repository.AuditRepository, cache PriceItemInvalidator, log *zap.Logger) PriceListService {
	if log == nil {
		log = zap.NewNop()
	}
	return &priceListService{lists: lists, auditRepo: auditRepo, cache: cache, log: log}
}

// Activate turns a list on. Activating a COST list turns every other COST list off.
func (s *priceListService) Activate(ctx context.Context, actor Actor, id uuid.UUID) (*model.PriceList, error) {
	if !actor.IsAdmin() {
		return nil, ErrAdminRequired
	}
	before, err := s.lists.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSalePriceListInvalid
		}
		return nil, fmt.Errorf("find price list: %w", err)
	}
	if err := s.lists.Activate(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to activate price list: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, *before); err != nil {
			s.log.Warn("price cache invalidate failed", zap.String("price_list_id", id.String()), zap.Error(err))
		}
	}

	actorID := actor.SellerID
	details, err := encodeAuditDetails(map[string]interface{}{"type": before.Type})
	if err == nil {
		err = s.auditRepo.Log(ctx, &model.AuditLog{
			UserID:     &actorID,
			Action:     model.ActionPriceListActivated,
			EntityID:   id.String(),
			EntityName: before.Name,
			Details:    details,
		})
	}
	if err != nil {
		s.log.Warn("failed to write audit log", zap.Error(err))
	}

	after, err := s.lists.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload price list: %w", err)
	}
	s.log.Info("price list activated",
		zap.String("price_list_id", id.String()),
		zap.String("type", after.Type),
		zap.String("by", actor.SellerID.String()),
	)
	return after, nil
}
