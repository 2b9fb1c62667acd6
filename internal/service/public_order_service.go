package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fishryanie/GC-sub000/internal/model"
	"github.com/fishryanie/GC-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PublicOrderLinkBroker resolves sale prices for a shareable link. The link's inline
// snapshot is read first; on a miss the live list is loaded and written back.
type PublicOrderLinkBroker struct {
	links     repository.PublicLinkRepository
	resolver  *PriceListResolver
	auditRepo repository.AuditRepository
	log       *zap.Logger
	now       func() time.Time
}

func NewPublicOrderLinkBroker(
	links repository.PublicLinkRepository,
	resolver *PriceListResolver,
	auditRepo repository.AuditRepository,
	log *zap.Logger,
) *PublicOrderLinkBroker {
	if log == nil {
		log = zap.NewNop()
	}
	return &PublicOrderLinkBroker{links: links, resolver: resolver, auditRepo: auditRepo, log: log, now: time.Now}
}

// Resolve returns the sale list reference and price map of the link.
func (b *PublicOrderLinkBroker) Resolve(ctx context.Context, link *model.PublicOrderLink) (model.PriceListRef, PriceMap, error) {
	if link.HasSnapshot() {
		return snapshotRef(link), snapshotPrices(link.SnapshotItems), nil
	}

	list, err := b.resolver.SaleListByID(ctx, link.SalePriceListID)
	if err != nil {
		return model.PriceListRef{}, nil, err
	}
	items, err := b.resolver.items.Items(ctx, *list)
	if err != nil {
		return model.PriceListRef{}, nil, fmt.Errorf("load items of price list %s: %w", list.ID, err)
	}

	fill(link, list, items)
	if len(link.SnapshotItems) > 0 {
		b.backfill(ctx, link)
	}
	return refOf(*list), NewPriceMap(items), nil
}

func (b *PublicOrderLinkBroker) backfill(ctx context.Context, link *model.PublicOrderLink) {
	link.UpdatedAt = b.now()
	if err := b.links.SaveSnapshot(ctx, link); err != nil {
		// the live prices are still good for this request
		b.log.Warn("public link snapshot backfill failed", zap.String("link_id", link.ID.String()), zap.Error(err))
		return
	}

	details, err := encodeAuditDetails(map[string]interface{}{
		"sale_price_list_id": link.SalePriceListID.String(),
		"items":              len(link.SnapshotItems),
	})
	if err == nil {
		err = b.auditRepo.Log(ctx, &model.AuditLog{
			Action:     model.ActionPublicLinkBackfilled,
			EntityID:   link.ID.String(),
			EntityName: link.SalePriceListName,
			Details:    details,
		})
	}
	if err != nil {
		b.log.Warn("failed to write audit log", zap.Error(err))
	}
	b.log.Info("public link snapshot backfilled", zap.String("link_id", link.ID.String()), zap.Int("items", len(link.SnapshotItems)))
}

func fill(link *model.PublicOrderLink, list *model.PriceList, items []model.PriceListItem) {
	effective := list.EffectiveFrom
	link.SalePriceListName = list.Name
	link.SaleListEffectiveFrom = &effective
	link.SnapshotItems = make([]model.PriceSnapshotItem, 0, len(items))
	for _, item := range items {
		link.SnapshotItems = append(link.SnapshotItems, model.PriceSnapshotItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			PricePerKg:  item.PricePerKg,
		})
	}
}

func snapshotRef(link *model.PublicOrderLink) model.PriceListRef {
	ref := model.PriceListRef{ID: link.SalePriceListID, Name: link.SalePriceListName}
	if link.SaleListEffectiveFrom != nil {
		ref.EffectiveFrom = *link.SaleListEffectiveFrom
	}
	return ref
}

func snapshotPrices(items []model.PriceSnapshotItem) PriceMap {
	m := make(PriceMap, len(items))
	for _, item := range items {
		m[item.ProductID] = PriceEntry{ProductName: item.ProductName, PricePerKg: item.PricePerKg}
	}
	return m
}

// DTOs
type CreateLinkRequest struct {
	CustomerID      uuid.UUID  `json:"customer_id" binding:"required"`
	SalePriceListID uuid.UUID  `json:"sale_price_list_id" binding:"required"`
	ExpiresAt       *time.Time `json:"expires_at"`
}

type PublicOrderRequest struct {
	DeliveryDate string     `json:"delivery_date" validate:"required" example:"2026-10-20"`
	Note         string     `json:"note" validate:"max=1000"`
	Lines        []CartLine `json:"lines" validate:"required,min=1,dive"`
}

type PublicLinkView struct {
	Token         string                    `json:"token"`
	SellerName    string                    `json:"seller_name"`
	CustomerName  string                    `json:"customer_name"`
	SalePriceList model.PriceListRef        `json:"sale_price_list"`
	Items         []model.PriceSnapshotItem `json:"items"`
	ExpiresAt     *time.Time                `json:"expires_at,omitempty"`
}

// PublicOrderService is the token-authenticated self-service ordering flow.
type PublicOrderService interface {
	CreateLink(ctx context.Context, actor Actor, req CreateLinkRequest) (*model.PublicOrderLink, error)
	GetLink(ctx context.Context, token string) (*PublicLinkView, error)
	CreateOrder(ctx context.Context, token string, req PublicOrderRequest) (*model.Order, error)
}

type publicOrderService struct {
	OrderDeps
	links  repository.PublicLinkRepository
	broker *PublicOrderLinkBroker
}

func NewPublicOrderService(deps OrderDeps, links repository.PublicLinkRepository, broker *PublicOrderLinkBroker) PublicOrderService {
	deps = deps.withDefaults()
	broker.now = deps.Now
	return &publicOrderService{OrderDeps: deps, links: links, broker: broker}
}

func (s *publicOrderService) CreateLink(ctx context.Context, actor Actor, req CreateLinkRequest) (*model.PublicOrderLink, error) {
	customer, err := loadActiveCustomer(ctx, s.Customers, req.CustomerID)
	if err != nil {
		return nil, err
	}
	list, err := s.Resolver.ActiveSaleList(ctx, req.SalePriceListID)
	if err != nil {
		return nil, err
	}
	policy := EvaluatePolicy(actor.Role, list.OwnerSellerID, actor.SellerID)
	if !policy.AllowedSaleListScope.Permits(*list, actor.SellerID) {
		return nil, ErrSalePriceListInvalid
	}
	items, err := s.Resolver.items.Items(ctx, *list)
	if err != nil {
		return nil, fmt.Errorf("load items of price list %s: %w", list.ID, err)
	}

	link := &model.PublicOrderLink{
		Token:           ulid.Make().String(),
		SellerID:        actor.SellerID,
		SellerName:      actor.Name,
		CustomerID:      customer.ID,
		SalePriceListID: list.ID,
		IsActive:        true,
		ExpiresAt:       req.ExpiresAt,
	}
	fill(link, list, items)

	if err := s.links.Create(ctx, link); err != nil {
		return nil, fmt.Errorf("failed to create public link: %w", err)
	}
	s.Log.Info("public order link created",
		zap.String("link_id", link.ID.String()),
		zap.String("seller_id", actor.SellerID.String()),
		zap.String("customer_id", customer.ID.String()),
	)
	return link, nil
}

func (s *publicOrderService) GetLink(ctx context.Context, token string) (*PublicLinkView, error) {
	link, err := s.openLink(ctx, token)
	if err != nil {
		return nil, err
	}
	customer, err := loadActiveCustomer(ctx, s.Customers, link.CustomerID)
	if err != nil {
		return nil, err
	}
	// Resolve leaves the link's snapshot filled on both the hit and the miss path
	ref, _, err := s.broker.Resolve(ctx, link)
	if err != nil {
		return nil, err
	}

	view := &PublicLinkView{
		Token:         link.Token,
		SellerName:    link.SellerName,
		CustomerName:  customer.Name,
		SalePriceList: ref,
		Items:         append([]model.PriceSnapshotItem{}, link.SnapshotItems...),
		ExpiresAt:     link.ExpiresAt,
	}
	return view, nil
}

func (s *publicOrderService) CreateOrder(ctx context.Context, token string, req PublicOrderRequest) (*model.Order, error) {
	link, err := s.openLink(ctx, token)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	// usage is recorded whether or not the order goes through
	if err := s.links.Touch(ctx, link.ID, now); err != nil {
		s.Log.Warn("failed to touch public link", zap.String("link_id", link.ID.String()), zap.Error(err))
	}

	deliveryDate, err := parseDeliveryDate(req.DeliveryDate)
	if err != nil {
		return nil, err
	}
	customer, err := loadActiveCustomer(ctx, s.Customers, link.CustomerID)
	if err != nil {
		return nil, err
	}

	costList, err := s.Resolver.ActiveCostList(ctx)
	if err != nil {
		return nil, err
	}
	costPrices, err := s.Resolver.Prices(ctx, *costList)
	if err != nil {
		return nil, err
	}
	saleRef, salePrices, err := s.broker.Resolve(ctx, link)
	if err != nil {
		return nil, err
	}

	names, err := catalogNames(ctx, s.Products, req.Lines)
	if err != nil {
		return nil, err
	}
	set, err := CalculateLines(req.Lines, costPrices, salePrices, names)
	if err != nil {
		return nil, err
	}

	order := newOrder(now, customer, refOf(*costList), saleRef, PublicPolicy())
	order.Source = model.OrderSourcePublicLink
	order.PublicLinkID = &link.ID
	order.SellerID = link.SellerID
	order.SellerName = link.SellerName
	order.DeliveryDate = deliveryDate
	order.Note = strings.TrimSpace(req.Note)
	ApplyTotals(order, set)

	err = s.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		code, err := s.Codes.Next(txCtx, now)
		if err != nil {
			return fmt.Errorf("failed to generate order code: %w", err)
		}
		order.Code = code
		if err := s.Orders.Create(txCtx, order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		return logOrderAudit(txCtx, s.AuditRepo, nil, model.ActionOrderCreated, order, map[string]interface{}{
			"source":            order.Source,
			"public_link_id":    link.ID.String(),
			"total_sale_amount": order.TotalSaleAmount.String(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.Log.Info("public order created",
		zap.String("order_code", order.Code),
		zap.String("link_id", link.ID.String()),
	)
	s.Events.Publish(EventOrderPendingApproval, orderEventData(order))
	return order, nil
}

func (s *publicOrderService) openLink(ctx context.Context, token string) (*model.PublicOrderLink, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrPublicLinkNotFound
	}
	link, err := s.links.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPublicLinkNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if !link.IsActive {
		return nil, ErrPublicLinkInactive
	}
	if link.ExpiresAt != nil && !link.ExpiresAt.After(s.Now()) {
		return nil, ErrPublicLinkInactive
	}
	return link, nil
}
