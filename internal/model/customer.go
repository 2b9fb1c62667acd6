package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Customer is a buyer. OrderCount, TotalSpentAmount and LastOrderAt form the
// lifetime ledger and are only changed through atomic increments.
type Customer struct {
	ID               uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name             string          `gorm:"type:varchar(255);not null" json:"name"`
	Phone            string          `gorm:"type:varchar(50)" json:"phone"`
	Address          string          `gorm:"type:text" json:"address"`
	SellerID         *uuid.UUID      `gorm:"type:uuid;index" json:"seller_id"`
	IsActive         bool            `gorm:"default:true" json:"is_active"`
	OrderCount       int             `gorm:"not null;default:0" json:"order_count"`
	TotalSpentAmount decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"total_spent_amount"`
	LastOrderAt      *time.Time      `json:"last_order_at"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	DeletedAt        gorm.DeletedAt  `gorm:"index" json:"-"`
}
