package service

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/fishryanie/GC-sub000/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertMoney(t *testing.T, want int64, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, money(want).Equal(got), append([]interface{}{"want %d got %s", want, got.String()}, msgAndArgs...)...)
}

func TestCreateOrder_SellerOrderWaitsForApproval(t *testing.T) {
	f := newFixture(t)

	order, err := f.orders.CreateOrder(context.Background(), f.seller, f.request(f.systemSale, kg(f.productA, 2)))
	require.NoError(t, err)

	assert.Equal(t, model.FulfillmentPendingApproval, order.FulfillmentStatus)
	assert.Equal(t, model.ApprovalPending, order.Approval.Status)
	assert.True(t, order.Approval.RequiresAdminApproval)
	assert.Nil(t, order.Approval.ReviewedAt)
	assert.Equal(t, model.DiscountNone, order.DiscountRequest.Status)
	assert.Equal(t, model.OrderSourceInApp, order.Source)
	assertMoney(t, 200, order.TotalSaleAmount)
	assertMoney(t, 100, order.TotalCostAmount)
	assertMoney(t, 100, order.TotalProfitAmount)
	assertMoney(t, 200, order.BaseSaleAmount)
	assert.True(t, strings.HasPrefix(order.Code, "ORD-20261017-"))
	assert.Equal(t, f.costList.ID, order.CostPriceList.ID)
	assert.Equal(t, f.systemSale.ID, order.SalePriceList.ID)
	assert.Equal(t, "System", order.SalePriceList.Name)

	require.Len(t, order.Lines, 1)
	line := order.Lines[0]
	assert.Equal(t, "Product A", line.ProductName)
	assertMoney(t, 100, line.SalePricePerKg)
	assertMoney(t, 100, line.BaseSalePricePerKg)
	assertMoney(t, 200, line.BaseLineSaleTotal)
	assertMoney(t, 100, line.LineProfit)

	customer := f.store.customer(f.customer.ID)
	assert.Equal(t, 0, customer.OrderCount)
	assert.True(t, customer.TotalSpentAmount.IsZero())
	assert.Nil(t, f.store.order(order.ID).LedgerAppliedAt)

	assert.Equal(t, []string{EventOrderPendingApproval}, f.events.names())
	assert.Equal(t, []string{model.ActionOrderCreated}, f.store.auditActions())
}

func TestCreateOrder_GroupsDuplicateProducts(t *testing.T) {
	f := newFixture(t)

	order, err := f.orders.CreateOrder(context.Background(), f.seller, f.request(f.systemSale,
		kg(f.productA, 1.0004),
		kg(f.productB, 0),
		kg(f.productA, 0.5003),
		kg(f.productB, -3),
	))
	require.NoError(t, err)

	require.Len(t, order.Lines, 1)
	assert.True(t, decimal.RequireFromString("1.501").Equal(order.Lines[0].WeightKg), order.Lines[0].WeightKg.String())
	assert.True(t, decimal.RequireFromString("1.501").Equal(order.TotalWeightKg))
	assertMoney(t, 150, order.TotalSaleAmount)
}

func TestCreateOrder_ValidationFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *fixture, req *CreateOrderRequest)
		actor  func(f *fixture) Actor
		want   error
	}{
		{
			name: "empty cart after grouping",
			mutate: func(f *fixture, req *CreateOrderRequest) {
				req.Lines = []CartLine{kg(f.productA, 0), kg(f.productB, -1)}
			},
			want: ErrEmptyCart,
		},
		{
			name:   "missing delivery date",
			mutate: func(f *fixture, req *CreateOrderRequest) { req.DeliveryDate = "" },
			want:   ErrDeliveryDateRequired,
		},
		{
			name:   "malformed delivery date",
			mutate: func(f *fixture, req *CreateOrderRequest) { req.DeliveryDate = "20/10/2026" },
			want:   ErrDeliveryDateRequired,
		},
		{
			name:   "unknown customer",
			mutate: func(f *fixture, req *CreateOrderRequest) { req.CustomerID = uuid.New() },
			want:   ErrCustomerNotFound,
		},
		{
			name:   "inactive customer",
			mutate: func(f *fixture, req *CreateOrderRequest) { f.store.customers[f.customer.ID].IsActive = false },
			want:   ErrCustomerInactive,
		},
		{
			name:   "no active cost list",
			mutate: func(f *fixture, req *CreateOrderRequest) { f.store.lists[f.costList.ID].IsActive = false },
			want:   ErrNoCostPriceAvailable,
		},
		{
			name:   "unknown sale list",
			mutate: func(f *fixture, req *CreateOrderRequest) { req.SalePriceListID = uuid.New() },
			want:   ErrSalePriceListInvalid,
		},
		{
			name:   "inactive sale list",
			mutate: func(f *fixture, req *CreateOrderRequest) { f.store.lists[f.systemSale.ID].IsActive = false },
			want:   ErrSalePriceListInvalid,
		},
		{
			name:   "cost list used as sale list",
			mutate: func(f *fixture, req *CreateOrderRequest) { req.SalePriceListID = f.costList.ID },
			want:   ErrSalePriceListInvalid,
		},
		{
			name:   "another seller's list",
			mutate: func(f *fixture, req *CreateOrderRequest) { req.SalePriceListID = f.otherSale.ID },
			want:   ErrSalePriceListInvalid,
		},
		{
			name: "discount above 90",
			mutate: func(f *fixture, req *CreateOrderRequest) {
				req.Discount = DiscountInput{Percent: 95, Reason: "bulk"}
			},
			want: ErrInvalidDiscountPercent,
		},
		{
			name: "negative discount",
			mutate: func(f *fixture, req *CreateOrderRequest) {
				req.Discount = DiscountInput{Percent: -1, Reason: "bulk"}
			},
			want: ErrInvalidDiscountPercent,
		},
		{
			name: "discount without reason",
			mutate: func(f *fixture, req *CreateOrderRequest) {
				req.Discount = DiscountInput{Percent: 10, Reason: "  "}
			},
			want: ErrDiscountReasonRequired,
		},
		{
			name: "admin discount without reason",
			mutate: func(f *fixture, req *CreateOrderRequest) {
				req.Discount = DiscountInput{Percent: 10}
			},
			actor: func(f *fixture) Actor { return f.admin },
			want:  ErrDiscountReasonRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := f.request(f.systemSale, kg(f.productA, 2))
			tt.mutate(f, &req)
			actor := f.seller
			if tt.actor != nil {
				actor = tt.actor(f)
			}

			order, err := f.orders.CreateOrder(context.Background(), actor, req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Nil(t, order)
			assert.Empty(t, f.store.orders)
			assert.Empty(t, f.events.names())
		})
	}
}

func TestCreateOrder_MissingPriceNamesProduct(t *testing.T) {
	f := newFixture(t)

	_, err := f.orders.CreateOrder(context.Background(), f.seller, f.request(f.systemSale,
		kg(f.productA, 1),
		kg(f.productC, 1),
	))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingPriceForProduct))

	var svcErr *Error
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, "Product C", svcErr.Detail)
	assert.Empty(t, f.store.orders)
	assert.Empty(t, f.store.audits)
}

func TestCreateOrder_SellerMayUseOwnList(t *testing.T) {
	f := newFixture(t)

	order, err := f.orders.CreateOrder(context.Background(), f.seller, f.request(f.sellerSale, kg(f.productA, 1)))
	require.NoError(t, err)
	assertMoney(t, 120, order.TotalSaleAmount)
	assert.Equal(t, f.sellerSale.ID, order.SalePriceList.ID)
}

func TestCreateOrder_AdminMayUseAnyActiveList(t *testing.T) {
	f := newFixture(t)

	order, err := f.orders.CreateOrder(context.Background(), f.admin, f.request(f.otherSale, kg(f.productA, 1)))
	require.NoError(t, err)
	assertMoney(t, 130, order.TotalSaleAmount)
	assert.Equal(t, model.FulfillmentConfirmed, order.FulfillmentStatus)
}

func TestCreateOrder_DiscountOwnershipGate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	own := f.request(f.sellerSale, kg(f.productA, 2))
	own.Discount = DiscountInput{Percent: 10, Reason: "loyal customer"}
	_, err := f.orders.CreateOrder(ctx, f.seller, own)
	assert.True(t, errors.Is(err, ErrDiscountRequiresSystemProfile), "got %v", err)

	system := f.request(f.systemSale, kg(f.productA, 2))
	system.Discount = DiscountInput{Percent: 10, Reason: "loyal customer"}
	order, err := f.orders.CreateOrder(ctx, f.seller, system)
	require.NoError(t, err)

	assert.Equal(t, model.DiscountPending, order.DiscountRequest.Status)
	assert.True(t, decimal.NewFromInt(10).Equal(order.DiscountRequest.RequestedPercent))
	assertMoney(t, 180, order.DiscountRequest.RequestedSaleAmount)
	assertMoney(t, 20, order.DiscountRequest.RequestedAmount)
	assert.Equal(t, "loyal customer", order.DiscountRequest.Reason)
	assert.Equal(t, model.FulfillmentPendingApproval, order.FulfillmentStatus)
	// deferred: lines and totals stay undiscounted
	assertMoney(t, 200, order.TotalSaleAmount)
	assertMoney(t, 100, order.Lines[0].SalePricePerKg)
}

func TestCreateOrder_AdminDiscountAppliedImmediately(t *testing.T) {
	f := newFixture(t)

	req := f.request(f.systemSale, kg(f.productA, 2), kg(f.productB, 1))
	req.Discount = DiscountInput{Percent: 20, Reason: "promo"}
	order, err := f.orders.CreateOrder(context.Background(), f.admin, req)
	require.NoError(t, err)

	assert.Equal(t, model.FulfillmentConfirmed, order.FulfillmentStatus)
	assert.Equal(t, model.ApprovalApproved, order.Approval.Status)
	assert.False(t, order.Approval.RequiresAdminApproval)
	require.NotNil(t, order.Approval.ReviewedBy)
	assert.Equal(t, f.admin.SellerID, *order.Approval.ReviewedBy)
	assert.Equal(t, model.DiscountApproved, order.DiscountRequest.Status)
	assertMoney(t, 250, order.BaseSaleAmount)
	assertMoney(t, 200, order.TotalSaleAmount)
	assertMoney(t, 80, order.TotalProfitAmount)

	require.Len(t, order.Lines, 2)
	assertMoney(t, 160, order.Lines[0].LineSaleTotal)
	assertMoney(t, 80, order.Lines[0].SalePricePerKg)
	assertMoney(t, 100, order.Lines[0].BaseSalePricePerKg)
	assertMoney(t, 40, order.Lines[1].LineSaleTotal)

	customer := f.store.customer(f.customer.ID)
	assert.Equal(t, 1, customer.OrderCount)
	assertMoney(t, 200, customer.TotalSpentAmount)
	require.NotNil(t, customer.LastOrderAt)
	assert.Equal(t, f.now, *customer.LastOrderAt)
	assert.NotNil(t, f.store.order(order.ID).LedgerAppliedAt)

	assert.Empty(t, f.events.names())
	assert.Equal(t, []string{model.ActionCustomerLedgerApply, model.ActionOrderCreated}, f.store.auditActions())
}

func TestReviewOrder_ApproveOrderAppliesLedgerOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.orders.CreateOrder(ctx, f.seller, f.request(f.systemSale, kg(f.productA, 2)))
	require.NoError(t, err)

	reviewed, err := f.orders.ReviewOrder(ctx, f.admin, order.ID, ReviewOrderRequest{Decision: DecisionApproveOrder, Note: "ok"})
	require.NoError(t, err)
	assert.Equal(t, model.FulfillmentConfirmed, reviewed.FulfillmentStatus)
	assert.Equal(t, model.ApprovalApproved, reviewed.Approval.Status)
	assert.Equal(t, "ok", reviewed.Approval.Note)
	assert.Equal(t, "Admin", reviewed.Approval.ReviewedByName)
	require.NotNil(t, reviewed.Approval.ReviewedAt)

	customer := f.store.customer(f.customer.ID)
	assert.Equal(t, 1, customer.OrderCount)
	assertMoney(t, 200, customer.TotalSpentAmount)

	_, err = f.orders.ReviewOrder(ctx, f.admin, order.ID, ReviewOrderRequest{Decision: DecisionApproveOrder})
	assert.True(t, errors.Is(err, ErrOrderAlreadyReviewed), "got %v", err)

	customer = f.store.customer(f.customer.ID)
	assert.Equal(t, 1, customer.OrderCount)
	assertMoney(t, 200, customer.TotalSpentAmount)
	assert.Equal(t, []string{EventOrderPendingApproval, EventOrderReviewed}, f.events.names())
}

func TestReviewOrder_ConditionalWriteLosesRace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.orders.CreateOrder(ctx, f.seller, f.request(f.systemSale, kg(f.productA, 2)))
	require.NoError(t, err)
	stale := f.store.order(order.ID)

	_, err = f.orders.ReviewOrder(ctx, f.admin, order.ID, ReviewOrderRequest{Decision: DecisionApproveOrder})
	require.NoError(t, err)

	// a second reviewer that read the order before the first write
	f.store.staleOrder = &stale
	_, err = f.orders.ReviewOrder(ctx, f.admin, order.ID, ReviewOrderRequest{Decision: DecisionRejectOrder})
	assert.True(t, errors.Is(err, ErrOrderAlreadyReviewed), "got %v", err)

	f.store.staleOrder = nil
	assert.Equal(t, model.FulfillmentConfirmed, f.store.order(order.ID).FulfillmentStatus)
	assert.Equal(t, 1, f.store.customer(f.customer.ID).OrderCount)
}

func createDiscountRequest(t *testing.T, f *fixture) *model.Order {
	t.Helper()
	req := f.request(f.systemSale, kg(f.productA, 2), kg(f.productB, 1))
	req.Discount = DiscountInput{Percent: 20, Reason: "volume"}
	order, err := f.orders.CreateOrder(context.Background(), f.seller, req)
	require.NoError(t, err)
	require.Equal(t, model.DiscountPending, order.DiscountRequest.Status)
	assertMoney(t, 250, order.TotalSaleAmount)
	assertMoney(t, 200, order.DiscountRequest.RequestedSaleAmount)
	return order
}

func TestReviewOrder_ApproveWithDiscount(t *testing.T) {
	f := newFixture(t)
	order := createDiscountRequest(t, f)

	reviewed, err := f.orders.ReviewOrder(context.Background(), f.admin, order.ID, ReviewOrderRequest{Decision: DecisionApproveWithDiscount})
	require.NoError(t, err)

	assert.Equal(t, model.FulfillmentConfirmed, reviewed.FulfillmentStatus)
	assert.Equal(t, model.ApprovalApproved, reviewed.Approval.Status)
	assert.Equal(t, model.DiscountApproved, reviewed.DiscountRequest.Status)
	require.NotNil(t, reviewed.DiscountRequest.ReviewedBy)
	assertMoney(t, 200, reviewed.TotalSaleAmount)
	assertMoney(t, 250, reviewed.BaseSaleAmount)

	stored := f.store.order(order.ID)
	require.Len(t, stored.Lines, 2)
	assertMoney(t, 160, stored.Lines[0].LineSaleTotal)
	assertMoney(t, 80, stored.Lines[0].SalePricePerKg)
	assertMoney(t, 200, stored.Lines[0].BaseLineSaleTotal)
	assertMoney(t, 60, stored.Lines[0].LineProfit)
	assertMoney(t, 40, stored.Lines[1].LineSaleTotal)
	assertMoney(t, 40, stored.Lines[1].SalePricePerKg)
	assertMoney(t, 20, stored.Lines[1].LineProfit)
	assertMoney(t, 200, stored.TotalSaleAmount)
	assertMoney(t, 80, stored.TotalProfitAmount)

	customer := f.store.customer(f.customer.ID)
	assert.Equal(t, 1, customer.OrderCount)
	assertMoney(t, 200, customer.TotalSpentAmount)
}

func TestReviewOrder_ApproveWithoutDiscountRestoresBase(t *testing.T) {
	f := newFixture(t)
	order := createDiscountRequest(t, f)

	reviewed, err := f.orders.ReviewOrder(context.Background(), f.admin, order.ID, ReviewOrderRequest{Decision: DecisionApproveWithoutDiscount})
	require.NoError(t, err)

	assert.Equal(t, model.FulfillmentConfirmed, reviewed.FulfillmentStatus)
	assert.Equal(t, model.DiscountRejected, reviewed.DiscountRequest.Status)
	assertMoney(t, 250, reviewed.TotalSaleAmount)

	for _, line := range f.store.order(order.ID).Lines {
		assert.True(t, line.SalePricePerKg.Equal(line.BaseSalePricePerKg))
		assert.True(t, line.LineSaleTotal.Equal(line.BaseLineSaleTotal))
		assert.True(t, line.LineProfit.Equal(line.BaseLineSaleTotal.Sub(line.LineCostTotal)))
	}
	assertMoney(t, 250, f.store.customer(f.customer.ID).TotalSpentAmount)
}

func TestReviewOrder_ApproveOrderRequiresDiscountDecision(t *testing.T) {
	f := newFixture(t)
	order := createDiscountRequest(t, f)

	_, err := f.orders.ReviewOrder(context.Background(), f.admin, order.ID, ReviewOrderRequest{Decision: DecisionApproveOrder})
	assert.True(t, errors.Is(err, ErrDiscountDecisionRequired), "got %v", err)

	stored := f.store.order(order.ID)
	assert.Equal(t, model.FulfillmentPendingApproval, stored.FulfillmentStatus)
	assert.Equal(t, model.DiscountPending, stored.DiscountRequest.Status)
	assert.Equal(t, 0, f.store.customer(f.customer.ID).OrderCount)
}

func TestReviewOrder_DiscountDecisionWithoutRequest(t *testing.T) {
	for _, decision := range []string{DecisionApproveWithDiscount, DecisionApproveWithoutDiscount} {
		t.Run(decision, func(t *testing.T) {
			f := newFixture(t)
			order, err := f.orders.CreateOrder(context.Background(), f.seller, f.request(f.systemSale, kg(f.productA, 2)))
			require.NoError(t, err)

			_, err = f.orders.ReviewOrder(context.Background(), f.admin, order.ID, ReviewOrderRequest{Decision: decision})
			assert.True(t, errors.Is(err, ErrDiscountRequestNotFound), "got %v", err)
			assert.Equal(t, model.ApprovalPending, f.store.order(order.ID).Approval.Status)
		})
	}
}

func TestReviewOrder_RejectCancelsPendingDiscount(t *testing.T) {
	f := newFixture(t)
	order := createDiscountRequest(t, f)

	reviewed, err := f.orders.ReviewOrder(context.Background(), f.admin, order.ID, ReviewOrderRequest{Decision: DecisionRejectOrder, Note: "out of stock"})
	require.NoError(t, err)

	assert.Equal(t, model.FulfillmentCanceled, reviewed.FulfillmentStatus)
	assert.Equal(t, model.ApprovalRejected, reviewed.Approval.Status)
	assert.Equal(t, model.DiscountRejected, reviewed.DiscountRequest.Status)
	assert.Equal(t, "out of stock", reviewed.DiscountRequest.ReviewNote)

	customer := f.store.customer(f.customer.ID)
	assert.Equal(t, 0, customer.OrderCount)
	assert.Nil(t, customer.LastOrderAt)
	assert.Nil(t, f.store.order(order.ID).LedgerAppliedAt)
}

func TestReviewOrder_Guards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order, err := f.orders.CreateOrder(ctx, f.seller, f.request(f.systemSale, kg(f.productA, 2)))
	require.NoError(t, err)

	_, err = f.orders.ReviewOrder(ctx, f.seller, order.ID, ReviewOrderRequest{Decision: DecisionApproveOrder})
	assert.True(t, errors.Is(err, ErrAdminRequired))

	_, err = f.orders.ReviewOrder(ctx, f.admin, order.ID, ReviewOrderRequest{Decision: "APPROVE_EVERYTHING"})
	assert.True(t, errors.Is(err, ErrInvalidReviewDecision))

	_, err = f.orders.ReviewOrder(ctx, f.admin, uuid.New(), ReviewOrderRequest{Decision: DecisionApproveOrder})
	assert.True(t, errors.Is(err, ErrOrderNotFound))

	assert.Equal(t, model.ApprovalPending, f.store.order(order.ID).Approval.Status)
}

func TestReviewOrder_AutoApprovedOrderIsAlreadyReviewed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order, err := f.orders.CreateOrder(ctx, f.admin, f.request(f.systemSale, kg(f.productA, 2)))
	require.NoError(t, err)
	require.Equal(t, 1, f.store.customer(f.customer.ID).OrderCount)

	_, err = f.orders.ReviewOrder(ctx, f.admin, order.ID, ReviewOrderRequest{Decision: DecisionApproveOrder})
	assert.True(t, errors.Is(err, ErrOrderAlreadyReviewed))
	assert.Equal(t, 1, f.store.customer(f.customer.ID).OrderCount)
}

func strPtr(s string) *string { return &s }

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order, err := f.orders.CreateOrder(ctx, f.seller, f.request(f.systemSale, kg(f.productA, 2)))
	require.NoError(t, err)

	_, err = f.orders.UpdateStatus(ctx, f.admin, order.ID, UpdateStatusRequest{FulfillmentStatus: strPtr(model.FulfillmentPicked)})
	assert.True(t, errors.Is(err, ErrOrderPendingApprovalLocked), "got %v", err)

	_, err = f.orders.UpdateStatus(ctx, f.admin, order.ID, UpdateStatusRequest{CollectionStatus: strPtr(model.CollectionCollected)})
	assert.True(t, errors.Is(err, ErrOrderPendingApprovalLocked), "payment axes are locked too")

	_, err = f.orders.ReviewOrder(ctx, f.admin, order.ID, ReviewOrderRequest{Decision: DecisionApproveOrder})
	require.NoError(t, err)

	updated, err := f.orders.UpdateStatus(ctx, f.admin, order.ID, UpdateStatusRequest{
		FulfillmentStatus:     strPtr(model.FulfillmentDelivering),
		SupplierPaymentStatus: strPtr(model.SupplierPaymentPartial),
		CollectionStatus:      strPtr(model.CollectionPartial),
	})
	require.NoError(t, err)
	assert.Equal(t, model.FulfillmentDelivering, updated.FulfillmentStatus)
	assert.Equal(t, model.SupplierPaymentPartial, updated.SupplierPaymentStatus)
	assert.Equal(t, model.CollectionPartial, updated.CollectionStatus)

	// moving back to CONFIRMED never re-fires the ledger
	_, err = f.orders.UpdateStatus(ctx, f.admin, order.ID, UpdateStatusRequest{FulfillmentStatus: strPtr(model.FulfillmentConfirmed)})
	require.NoError(t, err)
	assert.Equal(t, 1, f.store.customer(f.customer.ID).OrderCount)

	_, err = f.orders.UpdateStatus(ctx, f.admin, order.ID, UpdateStatusRequest{FulfillmentStatus: strPtr(model.FulfillmentPendingApproval)})
	assert.True(t, errors.Is(err, ErrInvalidStatus))

	_, err = f.orders.UpdateStatus(ctx, f.admin, order.ID, UpdateStatusRequest{CollectionStatus: strPtr("LOST")})
	assert.True(t, errors.Is(err, ErrInvalidStatus))

	_, err = f.orders.UpdateStatus(ctx, f.admin, order.ID, UpdateStatusRequest{})
	assert.True(t, errors.Is(err, ErrInvalidStatus))

	_, err = f.orders.UpdateStatus(ctx, f.seller, order.ID, UpdateStatusRequest{FulfillmentStatus: strPtr(model.FulfillmentDelivered)})
	assert.True(t, errors.Is(err, ErrAdminRequired))

	assert.Contains(t, f.store.auditActions(), model.ActionOrderStatusUpdated)
	assert.Contains(t, f.events.names(), EventOrderStatusUpdated)
}

func TestListAndGetOrders_SellerVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mine, err := f.orders.CreateOrder(ctx, f.seller, f.request(f.systemSale, kg(f.productA, 1)))
	require.NoError(t, err)
	theirs, err := f.orders.CreateOrder(ctx, f.other, f.request(f.systemSale, kg(f.productB, 1)))
	require.NoError(t, err)

	orders, total, err := f.orders.ListOrders(ctx, f.seller, ListOrdersQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, orders, 1)
	assert.Equal(t, mine.ID, orders[0].ID)

	_, total, err = f.orders.ListOrders(ctx, f.admin, ListOrdersQuery{ApprovalStatus: model.ApprovalPending})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	_, err = f.orders.GetOrder(ctx, f.seller, theirs.ID)
	assert.True(t, errors.Is(err, ErrOrderNotFound))

	got, err := f.orders.GetOrder(ctx, f.admin, theirs.ID)
	require.NoError(t, err)
	assert.Equal(t, theirs.Code, got.Code)
}

func TestOrderHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.orders.CreateOrder(ctx, f.seller, f.request(f.systemSale, kg(f.productA, 1)))
	require.NoError(t, err)
	_, err = f.orders.ReviewOrder(ctx, f.admin, order.ID, ReviewOrderRequest{Decision: DecisionApproveOrder})
	require.NoError(t, err)

	logs, err := f.orders.OrderHistory(ctx, f.seller, order.ID)
	require.NoError(t, err)
	var actions []string
	for _, l := range logs {
		actions = append(actions, l.Action)
	}
	assert.Equal(t, []string{model.ActionOrderCreated, model.ActionOrderReviewed}, actions)

	_, err = f.orders.OrderHistory(ctx, f.other, order.ID)
	assert.True(t, errors.Is(err, ErrOrderNotFound))
}

func TestEncodeAuditDetails(t *testing.T) {
	raw, err := encodeAuditDetails(map[string]interface{}{"order_code": "ORD-1", "items": 2})
	require.NoError(t, err)
	assert.JSONEq(t, `{"order_code":"ORD-1","items":2}`, raw)

	_, err = encodeAuditDetails(map[string]interface{}{"amount": math.NaN()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to encode audit details")
}

func TestAuditDetailsAreValidJSON(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.orders.CreateOrder(ctx, f.seller, f.request(f.systemSale, kg(f.productA, 2)))
	require.NoError(t, err)
	_, err = f.orders.ReviewOrder(ctx, f.admin, order.ID, ReviewOrderRequest{Decision: DecisionApproveOrder})
	require.NoError(t, err)

	f.store.mu.Lock()
	audits := append([]model.AuditLog(nil), f.store.audits...)
	f.store.mu.Unlock()

	require.Len(t, audits, 3)
	for _, a := range audits {
		var details map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(a.Details), &details), a.Action)
		if a.Action == model.ActionCustomerLedgerApply {
			assert.Equal(t, order.Code, details["order_code"])
			assert.Equal(t, "200", details["amount"])
		} else {
			assert.Equal(t, order.Code, details["order_code"], a.Action)
		}
	}
}
