package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fishryanie/GC-sub000/internal/model"
	"github.com/fishryanie/GC-sub000/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const deliveryDateLayout = "2006-01-02"

// Review decisions
const (
	DecisionRejectOrder            = "REJECT_ORDER"
	DecisionApproveOrder           = "APPROVE_ORDER"
	DecisionApproveWithDiscount    = "APPROVE_WITH_DISCOUNT"
	DecisionApproveWithoutDiscount = "APPROVE_WITHOUT_DISCOUNT"
)

// DTOs
type CreateOrderRequest struct {
	CustomerID      uuid.UUID     `json:"customer_id" binding:"required"`
	SalePriceListID uuid.UUID     `json:"sale_price_list_id" binding:"required"`
	DeliveryDate    string        `json:"delivery_date" example:"2026-10-20"`
	Note            string        `json:"note"`
	Lines           []CartLine    `json:"lines"`
	Discount        DiscountInput `json:"discount"`
}

type ReviewOrderRequest struct {
	Decision string `json:"decision" binding:"required" enums:"REJECT_ORDER,APPROVE_ORDER,APPROVE_WITH_DISCOUNT,APPROVE_WITHOUT_DISCOUNT"`
	Note     string `json:"note"`
}

type UpdateStatusRequest struct {
	FulfillmentStatus     *string `json:"fulfillment_status"`
	SupplierPaymentStatus *string `json:"supplier_payment_status"`
	CollectionStatus      *string `json:"collection_status"`
}

type ListOrdersQuery struct {
	Page              int
	Limit             int
	FulfillmentStatus string
	ApprovalStatus    string
	CustomerID        *uuid.UUID
}

// OrderService drives order creation, admin review and operator status changes.
type OrderService interface {
	CreateOrder(ctx context.Context, actor Actor, req CreateOrderRequest) (*model.Order, error)
	ReviewOrder(ctx context.Context, actor Actor, orderID uuid.UUID, req ReviewOrderRequest) (*model.Order, error)
	UpdateStatus(ctx context.Context, actor Actor, orderID uuid.UUID, req UpdateStatusRequest) (*model.Order, error)
	ListOrders(ctx context.Context, actor Actor, q ListOrdersQuery) ([]model.Order, int64, error)
	GetOrder(ctx context.Context, actor Actor, orderID uuid.UUID) (*model.Order, error)
	OrderHistory(ctx context.Context, actor Actor, orderID uuid.UUID) ([]model.AuditLog, error)
}

// OrderDeps bundles the collaborators of the order services.
type OrderDeps struct {
	Orders    repository.OrderRepository
	Customers repository.CustomerRepository
	Products  repository.ProductRepository
	AuditRepo repository.AuditRepository
	TxManager repository.TransactionManager
	Codes     repository.OrderCodeGenerator
	Resolver  *PriceListResolver
	Ledger    *CustomerLedger
	Events    EventPublisher
	Log       *zap.Logger
	Now       func() time.Time
}

func (d OrderDeps) withDefaults() OrderDeps {
	if d.Events == nil {
		d.Events = nopPublisher{}
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

type orderService struct {
	OrderDeps
}

func NewOrderService(deps OrderDeps) OrderService {
	return &orderService{OrderDeps: deps.withDefaults()}
}

func (s *orderService) CreateOrder(ctx context.Context, actor Actor, req CreateOrderRequest) (*model.Order, error) {
	deliveryDate, err := parseDeliveryDate(req.DeliveryDate)
	if err != nil {
		return nil, err
	}
	customer, err := loadActiveCustomer(ctx, s.Customers, req.CustomerID)
	if err != nil {
		return nil, err
	}

	res, err := s.Resolver.ResolveInApp(ctx, actor, req.SalePriceListID)
	if err != nil {
		return nil, err
	}
	percent, err := ValidateDiscount(req.Discount, res.Policy)
	if err != nil {
		return nil, err
	}

	names, err := catalogNames(ctx, s.Products, req.Lines)
	if err != nil {
		return nil, err
	}
	set, err := CalculateLines(req.Lines, res.CostPrices, res.SalePrices, names)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	order := newOrder(now, customer, refOf(res.CostList), refOf(res.SaleList), res.Policy)
	order.Source = model.OrderSourceInApp
	order.SellerID = actor.SellerID
	order.SellerName = actor.Name
	order.CreatedBy = &actor.SellerID
	order.DeliveryDate = deliveryDate
	order.Note = strings.TrimSpace(req.Note)
	if !res.Policy.RequiresAdminApproval {
		order.Approval.ReviewedAt = &now
		order.Approval.ReviewedBy = &actor.SellerID
		order.Approval.ReviewedByName = actor.Name
	}
	ApplyTotals(order, set)

	if percent.IsPositive() {
		quote := QuoteDiscount(set.BaseSaleSum, percent)
		order.DiscountRequest = model.DiscountRequest{
			Status:              model.DiscountPending,
			RequestedPercent:    quote.Percent,
			RequestedAmount:     quote.RequestedAmount,
			RequestedSaleAmount: quote.RequestedSaleAmount,
			Reason:              strings.TrimSpace(req.Discount.Reason),
			RequestedBy:         &actor.SellerID,
			RequestedAt:         &now,
		}
		if res.Policy.CanImmediateDiscount {
			applied := ApplyDiscount(set, quote)
			order.Lines = applied.Lines
			order.TotalSaleAmount = applied.TotalSaleAmount
			order.TotalProfitAmount = applied.TotalProfitAmount
			order.DiscountRequest.Status = model.DiscountApproved
			order.DiscountRequest.ReviewedAt = &now
			order.DiscountRequest.ReviewedBy = &actor.SellerID
		}
	}

	err = s.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		code, err := s.Codes.Next(txCtx, now)
		if err != nil {
			return fmt.Errorf("failed to generate order code: %w", err)
		}
		order.Code = code

		if err := s.Orders.Create(txCtx, order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		if _, err := s.Ledger.ApplyForOrder(txCtx, &actor.SellerID, order, now); err != nil {
			return err
		}
		return logOrderAudit(txCtx, s.AuditRepo, &actor.SellerID, model.ActionOrderCreated, order, map[string]interface{}{
			"source":             order.Source,
			"sale_price_list_id": order.SalePriceList.ID.String(),
			"fulfillment_status": order.FulfillmentStatus,
			"discount_status":    order.DiscountRequest.Status,
			"total_sale_amount":  order.TotalSaleAmount.String(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.Log.Info("order created",
		zap.String("order_code", order.Code),
		zap.String("seller_id", actor.SellerID.String()),
		zap.String("fulfillment_status", order.FulfillmentStatus),
		zap.String("discount_status", order.DiscountRequest.Status),
	)
	if order.FulfillmentStatus == model.FulfillmentPendingApproval {
		s.Events.Publish(EventOrderPendingApproval, orderEventData(order))
	}
	return order, nil
}

func (s *orderService) ReviewOrder(ctx context.Context, actor Actor, orderID uuid.UUID, req ReviewOrderRequest) (*model.Order, error) {
	if !actor.IsAdmin() {
		return nil, ErrAdminRequired
	}
	switch req.Decision {
	case DecisionRejectOrder, DecisionApproveOrder, DecisionApproveWithDiscount, DecisionApproveWithoutDiscount:
	default:
		return nil, newError(CodeInvalidReviewDecision, req.Decision)
	}

	var order *model.Order
	err := s.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		order, err = findOrder(txCtx, s.Orders, orderID)
		if err != nil {
			return err
		}
		if !order.IsAwaitingReview() {
			return ErrOrderAlreadyReviewed
		}

		now := s.Now()
		linesChanged, err := applyReviewDecision(order, req, actor, now)
		if err != nil {
			return err
		}

		saved, err := s.Orders.SaveReview(txCtx, order)
		if err != nil {
			return fmt.Errorf("failed to save review: %w", err)
		}
		if !saved {
			return ErrOrderAlreadyReviewed
		}
		if linesChanged {
			if err := s.Orders.ReplaceLines(txCtx, order.ID, order.Lines); err != nil {
				return fmt.Errorf("failed to replace order lines: %w", err)
			}
		}
		if _, err := s.Ledger.ApplyForOrder(txCtx, &actor.SellerID, order, now); err != nil {
			return err
		}
		return logOrderAudit(txCtx, s.AuditRepo, &actor.SellerID, model.ActionOrderReviewed, order, map[string]interface{}{
			"decision":          req.Decision,
			"note":              req.Note,
			"discount_status":   order.DiscountRequest.Status,
			"total_sale_amount": order.TotalSaleAmount.String(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.Log.Info("order reviewed",
		zap.String("order_code", order.Code),
		zap.String("decision", req.Decision),
		zap.String("reviewer_id", actor.SellerID.String()),
	)
	s.Events.Publish(EventOrderReviewed, orderEventData(order))
	return order, nil
}

// applyReviewDecision mutates order in memory and reports whether its lines were redistributed.
func applyReviewDecision(order *model.Order, req ReviewOrderRequest, actor Actor, now time.Time) (bool, error) {
	pendingDiscount := order.DiscountRequest.Status == model.DiscountPending
	linesChanged := false

	switch req.Decision {
	case DecisionRejectOrder:
		order.FulfillmentStatus = model.FulfillmentCanceled
		order.Approval.Status = model.ApprovalRejected
		if pendingDiscount {
			order.DiscountRequest.Status = model.DiscountRejected
		}
	case DecisionApproveOrder:
		if pendingDiscount {
			return false, ErrDiscountDecisionRequired
		}
		order.FulfillmentStatus = model.FulfillmentConfirmed
		order.Approval.Status = model.ApprovalApproved
	case DecisionApproveWithDiscount, DecisionApproveWithoutDiscount:
		if !pendingDiscount {
			return false, ErrDiscountRequestNotFound
		}
		set := LineSetFromOrder(order.Lines)
		var out DiscountedLines
		if req.Decision == DecisionApproveWithDiscount {
			quote := QuoteDiscount(set.BaseSaleSum, order.DiscountRequest.RequestedPercent)
			out = ApplyDiscount(set, quote)
			order.DiscountRequest.RequestedAmount = quote.RequestedAmount
			order.DiscountRequest.RequestedSaleAmount = quote.RequestedSaleAmount
			order.DiscountRequest.Status = model.DiscountApproved
		} else {
			out = RevertDiscount(set)
			order.DiscountRequest.Status = model.DiscountRejected
		}
		order.Lines = out.Lines
		order.TotalSaleAmount = out.TotalSaleAmount
		order.TotalProfitAmount = out.TotalProfitAmount
		order.FulfillmentStatus = model.FulfillmentConfirmed
		order.Approval.Status = model.ApprovalApproved
		linesChanged = true
	}

	order.Approval.ReviewedAt = &now
	order.Approval.ReviewedBy = &actor.SellerID
	order.Approval.ReviewedByName = actor.Name
	order.Approval.Note = strings.TrimSpace(req.Note)
	if pendingDiscount {
		order.DiscountRequest.ReviewedAt = &now
		order.DiscountRequest.ReviewedBy = &actor.SellerID
		order.DiscountRequest.ReviewNote = order.Approval.Note
	}
	return linesChanged, nil
}

var (
	operatorFulfillmentStatuses = map[string]bool{
		model.FulfillmentConfirmed:  true,
		model.FulfillmentPicked:     true,
		model.FulfillmentDelivering: true,
		model.FulfillmentDelivered:  true,
		model.FulfillmentCanceled:   true,
	}
	supplierPaymentStatuses = map[string]bool{
		model.SupplierPaymentUnpaid:  true,
		model.SupplierPaymentPartial: true,
		model.SupplierPaymentPaid:    true,
	}
	collectionStatuses = map[string]bool{
		model.CollectionUncollected: true,
		model.CollectionPartial:     true,
		model.CollectionCollected:   true,
	}
)

func validateStatusChange(req UpdateStatusRequest) error {
	if req.FulfillmentStatus == nil && req.SupplierPaymentStatus == nil && req.CollectionStatus == nil {
		return newError(CodeInvalidStatus, "no status given")
	}
	if req.FulfillmentStatus != nil && !operatorFulfillmentStatuses[*req.FulfillmentStatus] {
		return newError(CodeInvalidStatus, *req.FulfillmentStatus)
	}
	if req.SupplierPaymentStatus != nil && !supplierPaymentStatuses[*req.SupplierPaymentStatus] {
		return newError(CodeInvalidStatus, *req.SupplierPaymentStatus)
	}
	if req.CollectionStatus != nil && !collectionStatuses[*req.CollectionStatus] {
		return newError(CodeInvalidStatus, *req.CollectionStatus)
	}
	return nil
}

func (s *orderService) UpdateStatus(ctx context.Context, actor Actor, orderID uuid.UUID, req UpdateStatusRequest) (*model.Order, error) {
	if !actor.IsAdmin() {
		return nil, ErrAdminRequired
	}
	if err := validateStatusChange(req); err != nil {
		return nil, err
	}

	var order *model.Order
	err := s.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		current, err := findOrder(txCtx, s.Orders, orderID)
		if err != nil {
			return err
		}
		if current.FulfillmentStatus == model.FulfillmentPendingApproval {
			return ErrOrderPendingApprovalLocked
		}

		updated, err := s.Orders.UpdateStatus(txCtx, orderID, repository.StatusChange{
			FulfillmentStatus:     req.FulfillmentStatus,
			SupplierPaymentStatus: req.SupplierPaymentStatus,
			CollectionStatus:      req.CollectionStatus,
		})
		if err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}
		if !updated {
			return ErrOrderPendingApprovalLocked
		}

		order, err = findOrder(txCtx, s.Orders, orderID)
		if err != nil {
			return err
		}
		return logOrderAudit(txCtx, s.AuditRepo, &actor.SellerID, model.ActionOrderStatusUpdated, order, map[string]interface{}{
			"from_fulfillment_status": current.FulfillmentStatus,
			"fulfillment_status":      order.FulfillmentStatus,
			"supplier_payment_status": order.SupplierPaymentStatus,
			"collection_status":       order.CollectionStatus,
		})
	})
	if err != nil {
		return nil, err
	}

	s.Log.Info("order status updated",
		zap.String("order_code", order.Code),
		zap.String("fulfillment_status", order.FulfillmentStatus),
		zap.String("supplier_payment_status", order.SupplierPaymentStatus),
		zap.String("collection_status", order.CollectionStatus),
	)
	s.Events.Publish(EventOrderStatusUpdated, orderEventData(order))
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, actor Actor, q ListOrdersQuery) ([]model.Order, int64, error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = 20
	}

	filter := repository.OrderFilter{
		CustomerID:        q.CustomerID,
		FulfillmentStatus: q.FulfillmentStatus,
		ApprovalStatus:    q.ApprovalStatus,
		Page:              q.Page,
		Limit:             q.Limit,
	}
	if !actor.IsAdmin() {
		sellerID := actor.SellerID
		filter.SellerID = &sellerID
	}

	orders, total, err := s.Orders.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, total, nil
}

func (s *orderService) GetOrder(ctx context.Context, actor Actor, orderID uuid.UUID) (*model.Order, error) {
	order, err := findOrder(ctx, s.Orders, orderID)
	if err != nil {
		return nil, err
	}
	// sellers cannot see that other sellers' orders exist
	if !actor.IsAdmin() && order.SellerID != actor.SellerID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// OrderHistory returns the audit trail of an order the actor can see.
func (s *orderService) OrderHistory(ctx context.Context, actor Actor, orderID uuid.UUID) ([]model.AuditLog, error) {
	if _, err := s.GetOrder(ctx, actor, orderID); err != nil {
		return nil, err
	}
	logs, err := s.AuditRepo.ListByEntity(ctx, orderID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to load order history: %w", err)
	}
	return logs, nil
}

func newOrder(now time.Time, customer *model.Customer, costList, saleList model.PriceListRef, policy OrderPolicy) *model.Order {
	order := &model.Order{
		CustomerID:            customer.ID,
		CustomerName:          customer.Name,
		SupplierPaymentStatus: model.SupplierPaymentUnpaid,
		CollectionStatus:      model.CollectionUncollected,
		CostPriceList:         costList,
		SalePriceList:         saleList,
		Approval: model.Approval{
			RequiresAdminApproval: policy.RequiresAdminApproval,
			RequestedAt:           now,
		},
		DiscountRequest: model.DiscountRequest{Status: model.DiscountNone},
	}
	if policy.RequiresAdminApproval {
		order.FulfillmentStatus = model.FulfillmentPendingApproval
		order.Approval.Status = model.ApprovalPending
	} else {
		order.FulfillmentStatus = model.FulfillmentConfirmed
		order.Approval.Status = model.ApprovalApproved
	}
	return order
}

func parseDeliveryDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrDeliveryDateRequired
	}
	d, err := time.Parse(deliveryDateLayout, raw)
	if err != nil {
		return time.Time{}, newError(CodeDeliveryDateRequired, raw)
	}
	return d, nil
}

func loadActiveCustomer(ctx context.Context, customers repository.CustomerRepository, id uuid.UUID) (*model.Customer, error) {
	customer, err := customers.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if !customer.IsActive {
		return nil, newError(CodeCustomerInactive, customer.Name)
	}
	return customer, nil
}

func findOrder(ctx context.Context, orders repository.OrderRepository, id uuid.UUID) (*model.Order, error) {
	order, err := orders.FindByIDWithLines(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return order, nil
}

func catalogNames(ctx context.Context, products repository.ProductRepository, cart []CartLine) (map[uuid.UUID]string, error) {
	if products == nil {
		return nil, nil
	}
	ids := make([]uuid.UUID, 0, len(cart))
	seen := make(map[uuid.UUID]bool, len(cart))
	for _, line := range cart {
		if line.ProductID == uuid.Nil || seen[line.ProductID] {
			continue
		}
		seen[line.ProductID] = true
		ids = append(ids, line.ProductID)
	}
	found, err := products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	names := make(map[uuid.UUID]string, len(found))
	for _, p := range found {
		names[p.ID] = p.Name
	}
	return names, nil
}

// encodeAuditDetails renders audit details as JSON. Every audit writer goes through it.
func encodeAuditDetails(details map[string]interface{}) (string, error) {
	raw, err := json.Marshal(details)
	if err != nil {
		return "", fmt.Errorf("failed to encode audit details: %w", err)
	}
	return string(raw), nil
}

func logOrderAudit(ctx context.Context, auditRepo repository.AuditRepository, userID *uuid.UUID, action string, order *model.Order, details map[string]interface{}) error {
	details["order_code"] = order.Code
	raw, err := encodeAuditDetails(details)
	if err != nil {
		return err
	}
	audit := &model.AuditLog{
		UserID:     userID,
		Action:     action,
		EntityID:   order.ID.String(),
		EntityName: order.Code,
		Details:    raw,
	}
	if err := auditRepo.Log(ctx, audit); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func orderEventData(order *model.Order) OrderEventData {
	return OrderEventData{
		OrderID:           order.ID.String(),
		Code:              order.Code,
		CustomerName:      order.CustomerName,
		SellerName:        order.SellerName,
		FulfillmentStatus: order.FulfillmentStatus,
		ApprovalStatus:    order.Approval.Status,
		DiscountStatus:    order.DiscountRequest.Status,
		TotalSaleAmount:   order.TotalSaleAmount.String(),
	}
}
