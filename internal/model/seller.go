package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role values carried in the session token
const (
	RoleAdmin  = "ADMIN"
	RoleSeller = "SELLER"
)

// Seller is an authenticated operator of the system. Admins review orders; sellers create them.
type Seller struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	Email     string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Phone     string         `gorm:"type:varchar(20)" json:"phone"`
	Password  string         `gorm:"type:varchar(255);not null" json:"-"`
	Role      string         `gorm:"type:varchar(20);not null;default:'SELLER'" json:"role"` // ADMIN, SELLER
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsAdmin reports whether the seller holds the ADMIN role.
func (s Seller) IsAdmin() bool {
	return s.Role == RoleAdmin
}
