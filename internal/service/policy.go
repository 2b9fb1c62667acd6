package service

import (
	"github.com/fishryanie/GC-sub000/internal/model"

	"github.com/google/uuid"
)

// Actor is the authenticated caller of an in-app operation.
type Actor struct {
	SellerID uuid.UUID
	Role     string
	Name     string
}

// IsAdmin reports whether the actor holds the ADMIN role.
func (a Actor) IsAdmin() bool {
	return a.Role == model.RoleAdmin
}

// SaleListScope is the set of sale lists an actor may price an order with.
type SaleListScope int

const (
	// ScopeOwnOrSystem allows system-wide lists and lists owned by the actor.
	ScopeOwnOrSystem SaleListScope = iota
	// ScopeAny allows every active sale list.
	ScopeAny
)

// OrderPolicy is the role decision for one request, evaluated once and then consulted.
type OrderPolicy struct {
	RequiresAdminApproval bool
	CanImmediateDiscount  bool
	CanRequestDiscount    bool
	AllowedSaleListScope  SaleListScope
}

// EvaluatePolicy decides what an actor may do with a given sale list.
// saleListOwnerID is nil for system-wide lists.
func EvaluatePolicy(role string, saleListOwnerID *uuid.UUID, actingSellerID uuid.UUID) OrderPolicy {
	if role == model.RoleAdmin {
		return OrderPolicy{
			RequiresAdminApproval: false,
			CanImmediateDiscount:  true,
			CanRequestDiscount:    true,
			AllowedSaleListScope:  ScopeAny,
		}
	}
	return OrderPolicy{
		RequiresAdminApproval: true,
		CanImmediateDiscount:  false,
		// non-admins may only discount system-wide lists
		CanRequestDiscount:   saleListOwnerID == nil,
		AllowedSaleListScope: ScopeOwnOrSystem,
	}
}

// PublicPolicy is the fixed policy of the self-service flow: always reviewed, never discounted.
func PublicPolicy() OrderPolicy {
	return OrderPolicy{
		RequiresAdminApproval: true,
		AllowedSaleListScope:  ScopeOwnOrSystem,
	}
}

// Permits reports whether list falls inside the scope for the acting seller.
func (s SaleListScope) Permits(list model.PriceList, actingSellerID uuid.UUID) bool {
	if s == ScopeAny {
		return true
	}
	return list.IsSystemWide() || list.OwnedBy(actingSellerID)
}
