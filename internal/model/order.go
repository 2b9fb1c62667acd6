package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FulfillmentStatus values
const (
	FulfillmentPendingApproval = "PENDING_APPROVAL"
	FulfillmentConfirmed       = "CONFIRMED"
	FulfillmentPicked          = "PICKED"
	FulfillmentDelivering      = "DELIVERING"
	FulfillmentDelivered       = "DELIVERED"
	FulfillmentCanceled        = "CANCELED"
)

// ApprovalStatus values
const (
	ApprovalPending  = "PENDING"
	ApprovalApproved = "APPROVED"
	ApprovalRejected = "REJECTED"
)

// DiscountStatus values
const (
	DiscountNone     = "NONE"
	DiscountPending  = "PENDING"
	DiscountApproved = "APPROVED"
	DiscountRejected = "REJECTED"
)

// SupplierPaymentStatus values
const (
	SupplierPaymentUnpaid  = "UNPAID"
	SupplierPaymentPartial = "PARTIAL"
	SupplierPaymentPaid    = "PAID"
)

// CollectionStatus values
const (
	CollectionUncollected = "UNCOLLECTED"
	CollectionPartial     = "PARTIAL"
	CollectionCollected   = "COLLECTED"
)

// OrderSource values
const (
	OrderSourceInApp      = "IN_APP"
	OrderSourcePublicLink = "PUBLIC_LINK"
)

// PriceListRef freezes the identity of a price list at order time. It is never re-resolved.
type PriceListRef struct {
	ID            uuid.UUID `gorm:"type:uuid" json:"id"`
	Name          string    `gorm:"type:varchar(255)" json:"name"`
	EffectiveFrom time.Time `json:"effective_from"`
}

// Approval tracks the admin review axis of an order.
type Approval struct {
	RequiresAdminApproval bool       `gorm:"not null;default:false" json:"requires_admin_approval"`
	Status                string     `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	RequestedAt           time.Time  `json:"requested_at"`
	ReviewedAt            *time.Time `json:"reviewed_at"`
	ReviewedBy            *uuid.UUID `gorm:"type:uuid" json:"reviewed_by"`
	ReviewedByName        string     `gorm:"type:varchar(255)" json:"reviewed_by_name,omitempty"`
	Note                  string     `gorm:"type:text" json:"note,omitempty"`
}

// DiscountRequest tracks the requested discount axis of an order.
type DiscountRequest struct {
	Status              string          `gorm:"type:varchar(20);not null;default:'NONE'" json:"status"`
	RequestedPercent    decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"requested_percent"`
	RequestedAmount     decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"requested_amount"`
	RequestedSaleAmount decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"requested_sale_amount"`
	Reason              string          `gorm:"type:text" json:"reason,omitempty"`
	RequestedBy         *uuid.UUID      `gorm:"type:uuid" json:"requested_by"`
	RequestedAt         *time.Time      `json:"requested_at"`
	ReviewedAt          *time.Time      `json:"reviewed_at"`
	ReviewedBy          *uuid.UUID      `gorm:"type:uuid" json:"reviewed_by"`
	ReviewNote          string          `gorm:"type:text" json:"review_note,omitempty"`
}

// Order is a weight-priced sales order. Price list references are frozen at creation;
// status axes, lines and sale totals may change during admin review.
type Order struct {
	ID                    uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code                  string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Source                string          `gorm:"type:varchar(20);not null;default:'IN_APP'" json:"source"`
	PublicLinkID          *uuid.UUID      `gorm:"type:uuid;index" json:"public_link_id,omitempty"`
	CustomerID            uuid.UUID       `gorm:"type:uuid;not null;index" json:"customer_id"`
	CustomerName          string          `gorm:"type:varchar(255);not null" json:"customer_name"`
	SellerID              uuid.UUID       `gorm:"type:uuid;not null;index" json:"seller_id"`
	SellerName            string          `gorm:"type:varchar(255)" json:"seller_name"`
	CreatedBy             *uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	DeliveryDate          time.Time       `gorm:"type:date;not null;index" json:"delivery_date"`
	Note                  string          `gorm:"type:text" json:"note"`
	FulfillmentStatus     string          `gorm:"type:varchar(30);not null;index" json:"fulfillment_status"`
	SupplierPaymentStatus string          `gorm:"type:varchar(20);not null;default:'UNPAID'" json:"supplier_payment_status"`
	CollectionStatus      string          `gorm:"type:varchar(20);not null;default:'UNCOLLECTED'" json:"collection_status"`
	Approval              Approval        `gorm:"embedded;embeddedPrefix:approval_" json:"approval"`
	DiscountRequest       DiscountRequest `gorm:"embedded;embeddedPrefix:discount_" json:"discount_request"`
	CostPriceList         PriceListRef    `gorm:"embedded;embeddedPrefix:cost_list_" json:"cost_price_list"`
	SalePriceList         PriceListRef    `gorm:"embedded;embeddedPrefix:sale_list_" json:"sale_price_list"`
	TotalWeightKg         decimal.Decimal `gorm:"type:decimal(14,3);not null;default:0" json:"total_weight_kg"`
	TotalCostAmount       decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"total_cost_amount"`
	BaseSaleAmount        decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"base_sale_amount"`
	TotalSaleAmount       decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"total_sale_amount"`
	TotalProfitAmount     decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"total_profit_amount"`
	LedgerAppliedAt       *time.Time      `json:"ledger_applied_at"`
	Lines                 []OrderLine     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"lines"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// IsAwaitingReview reports whether the order may still go through the review transition.
func (o Order) IsAwaitingReview() bool {
	return o.FulfillmentStatus == FulfillmentPendingApproval && o.Approval.Status == ApprovalPending
}

// IsSpendCounted reports whether the order has reached the state that feeds the customer ledger.
func (o Order) IsSpendCounted() bool {
	return o.FulfillmentStatus == FulfillmentConfirmed && o.Approval.Status == ApprovalApproved
}

// OrderLine is a priced product line. Totals are authoritative once stored; after a
// discount they are not re-derived from weight and price.
type OrderLine struct {
	ID                 uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID            uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	Position           int             `gorm:"not null;default:0" json:"position"`
	ProductID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	ProductName        string          `gorm:"type:varchar(255);not null" json:"product_name"`
	WeightKg           decimal.Decimal `gorm:"type:decimal(14,3);not null" json:"weight_kg"`
	CostPricePerKg     decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"cost_price_per_kg"`
	SalePricePerKg     decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"sale_price_per_kg"`
	BaseSalePricePerKg decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"base_sale_price_per_kg"`
	LineCostTotal      decimal.Decimal `gorm:"type:decimal(24,8);not null" json:"line_cost_total"`
	LineSaleTotal      decimal.Decimal `gorm:"type:decimal(24,8);not null" json:"line_sale_total"`
	BaseLineSaleTotal  decimal.Decimal `gorm:"type:decimal(24,8);not null" json:"base_line_sale_total"`
	LineProfit         decimal.Decimal `gorm:"type:decimal(24,8);not null" json:"line_profit"`
}

// PriceSnapshotItem is one entry of a public link's inline sale price snapshot.
type PriceSnapshotItem struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	PricePerKg  decimal.Decimal `json:"price_per_kg"`
}

// PublicOrderLink is a shareable token that lets a customer place orders without a session.
// The inline snapshot is a read-through cache of the referenced sale list.
type PublicOrderLink struct {
	ID                    uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Token                 string              `gorm:"type:varchar(40);uniqueIndex;not null" json:"token"`
	SellerID              uuid.UUID           `gorm:"type:uuid;not null;index" json:"seller_id"`
	SellerName            string              `gorm:"type:varchar(255)" json:"seller_name"`
	CustomerID            uuid.UUID           `gorm:"type:uuid;not null;index" json:"customer_id"`
	SalePriceListID       uuid.UUID           `gorm:"type:uuid;not null" json:"sale_price_list_id"`
	SalePriceListName     string              `gorm:"type:varchar(255)" json:"sale_price_list_name"`
	SaleListEffectiveFrom *time.Time          `json:"sale_list_effective_from"`
	SnapshotItems         []PriceSnapshotItem `gorm:"type:jsonb;serializer:json" json:"snapshot_items"`
	IsActive              bool                `gorm:"default:true" json:"is_active"`
	ExpiresAt             *time.Time          `json:"expires_at"`
	UsageCount            int                 `gorm:"not null;default:0" json:"usage_count"`
	LastUsedAt            *time.Time          `json:"last_used_at"`
	CreatedAt             time.Time           `json:"created_at"`
	UpdatedAt             time.Time           `json:"updated_at"`
}

// HasSnapshot reports whether the inline snapshot is usable without a live lookup.
func (l PublicOrderLink) HasSnapshot() bool {
	return len(l.SnapshotItems) > 0 && l.SaleListEffectiveFrom != nil && !l.SaleListEffectiveFrom.IsZero()
}
