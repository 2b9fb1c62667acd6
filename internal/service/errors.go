package service

import (
	"fmt"
)

// Code identifies a user-facing validation failure.
type Code string

const (
	CodeNoCostPriceAvailable          Code = "NoCostPriceAvailable"
	CodeSalePriceListInvalid          Code = "SalePriceListInvalid"
	CodeMissingPriceForProduct        Code = "MissingPriceForProduct"
	CodeEmptyCart                     Code = "EmptyCart"
	CodeInvalidDiscountPercent        Code = "InvalidDiscountPercent"
	CodeDiscountReasonRequired        Code = "DiscountReasonRequired"
	CodeDiscountRequiresSystemProfile Code = "DiscountRequiresSystemProfile"
	CodeDiscountDecisionRequired      Code = "DiscountDecisionRequired"
	CodeDiscountRequestNotFound       Code = "DiscountRequestNotFound"
	CodeOrderAlreadyReviewed          Code = "OrderAlreadyReviewed"
	CodeOrderPendingApprovalLocked    Code = "OrderPendingApprovalLocked"
	CodeOrderNotFound                 Code = "OrderNotFound"
	CodeCustomerNotFound              Code = "CustomerNotFound"
	CodeCustomerInactive              Code = "CustomerInactive"
	CodeDeliveryDateRequired          Code = "DeliveryDateRequired"
	CodeInvalidReviewDecision         Code = "InvalidReviewDecision"
	CodeInvalidStatus                 Code = "InvalidStatus"
	CodeAdminRequired                 Code = "AdminRequired"
	CodePublicLinkNotFound            Code = "PublicLinkNotFound"
	CodePublicLinkInactive            Code = "PublicLinkInactive"
	CodeInvalidCredentials            Code = "InvalidCredentials"
)

// Error is a validation failure surfaced verbatim to the caller. Errors are never retried.
type Error struct {
	Code   Code
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

// Is matches on Code so sentinels work with errors.Is regardless of Detail.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func newError(code Code, detail string) *Error {
	return &Error{Code: code, Detail: detail}
}

var (
	ErrNoCostPriceAvailable          = &Error{Code: CodeNoCostPriceAvailable}
	ErrSalePriceListInvalid          = &Error{Code: CodeSalePriceListInvalid}
	ErrMissingPriceForProduct        = &Error{Code: CodeMissingPriceForProduct}
	ErrEmptyCart                     = &Error{Code: CodeEmptyCart}
	ErrInvalidDiscountPercent        = &Error{Code: CodeInvalidDiscountPercent}
	ErrDiscountReasonRequired        = &Error{Code: CodeDiscountReasonRequired}
	ErrDiscountRequiresSystemProfile = &Error{Code: CodeDiscountRequiresSystemProfile}
	ErrDiscountDecisionRequired      = &Error{Code: CodeDiscountDecisionRequired}
	ErrDiscountRequestNotFound       = &Error{Code: CodeDiscountRequestNotFound}
	ErrOrderAlreadyReviewed          = &Error{Code: CodeOrderAlreadyReviewed}
	ErrOrderPendingApprovalLocked    = &Error{Code: CodeOrderPendingApprovalLocked}
	ErrOrderNotFound                 = &Error{Code: CodeOrderNotFound}
	ErrCustomerNotFound              = &Error{Code: CodeCustomerNotFound}
	ErrCustomerInactive              = &Error{Code: CodeCustomerInactive}
	ErrDeliveryDateRequired          = &Error{Code: CodeDeliveryDateRequired}
	ErrInvalidReviewDecision         = &Error{Code: CodeInvalidReviewDecision}
	ErrInvalidStatus                 = &Error{Code: CodeInvalidStatus}
	ErrAdminRequired                 = &Error{Code: CodeAdminRequired}
	ErrPublicLinkNotFound            = &Error{Code: CodePublicLinkNotFound}
	ErrPublicLinkInactive            = &Error{Code: CodePublicLinkInactive}
	ErrInvalidCredentials            = &Error{Code: CodeInvalidCredentials}
)
