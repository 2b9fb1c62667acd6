package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents a catalog item sold by weight
type Product struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	Unit      string         `gorm:"type:varchar(20);not null;default:'kg'" json:"unit"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// PriceListType values
const (
	PriceListTypeCost = "COST"
	PriceListTypeSale = "SALE"
)

// PriceList is a dated, optionally seller-owned table of per-kg prices.
// OwnerSellerID == nil means the list is system-wide.
type PriceList struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name          string          `gorm:"type:varchar(255);not null" json:"name"`
	Type          string          `gorm:"type:varchar(10);not null;index" json:"type"` // COST, SALE
	OwnerSellerID *uuid.UUID      `gorm:"type:uuid;index" json:"owner_seller_id"`
	EffectiveFrom time.Time       `gorm:"not null;index" json:"effective_from"`
	IsActive      bool            `gorm:"default:false;index" json:"is_active"`
	Items         []PriceListItem `gorm:"foreignKey:PriceListID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// IsSystemWide reports whether no seller owns the list.
func (p PriceList) IsSystemWide() bool {
	return p.OwnerSellerID == nil
}

// OwnedBy reports whether the given seller owns the list.
func (p PriceList) OwnedBy(sellerID uuid.UUID) bool {
	return p.OwnerSellerID != nil && *p.OwnerSellerID == sellerID
}

// PriceListItem is a single product price inside a PriceList, unique per product.
type PriceListItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PriceListID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_price_list_product" json:"price_list_id"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_price_list_product" json:"product_id"`
	ProductName string          `gorm:"type:varchar(255);not null" json:"product_name"`
	PricePerKg  decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"price_per_kg"`
}
