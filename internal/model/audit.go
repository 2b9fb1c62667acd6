package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionOrderCreated         = "ORDER_CREATED"
	ActionOrderReviewed        = "ORDER_REVIEWED"
	ActionOrderStatusUpdated   = "ORDER_STATUS_UPDATED"
	ActionCustomerLedgerApply  = "CUSTOMER_LEDGER_APPLIED"
	ActionPublicLinkBackfilled = "PUBLIC_LINK_BACKFILLED"
	ActionPriceListActivated   = "PRICE_LIST_ACTIVATED"
)

// AuditLog tracks Who, What, and When for order workflow changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // nil for public link traffic
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string     `gorm:"type:jsonb" json:"details"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
