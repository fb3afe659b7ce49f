package models

import (
	"errors"
	"fmt"
)

// error kinds
var (
	ErrNotFound       = errors.New("not found")
	ErrForbidden      = errors.New("forbidden")
	ErrInvalidRequest = errors.New("invalid request")
	ErrConflict       = errors.New("conflict")
)

var (
	ErrConflictData       = fmt.Errorf("%w: data conflicts with existing data", ErrConflict)
	ErrDataNotFound       = fmt.Errorf("%w: data not found", ErrNotFound)
	ErrInvalidCredentials = errors.New("invalid login or password")

	ErrUserNotFound          = fmt.Errorf("%w: user", ErrNotFound)
	ErrProductNotFound       = fmt.Errorf("%w: product", ErrNotFound)
	ErrOrderNotFound         = fmt.Errorf("%w: order", ErrNotFound)
	ErrOrderItemNotFound     = fmt.Errorf("%w: order item", ErrNotFound)
	ErrPaymentNotFound       = fmt.Errorf("%w: payment", ErrNotFound)
	ErrRefundNotFound        = fmt.Errorf("%w: refund", ErrNotFound)
	ErrAddressNotFound       = fmt.Errorf("%w: address", ErrNotFound)
	ErrPaymentMethodNotFound = fmt.Errorf("%w: payment method", ErrNotFound)

	ErrNotOwner = fmt.Errorf("%w: resource belongs to another user", ErrForbidden)

	ErrEmptyItems             = fmt.Errorf("%w: item list is empty", ErrInvalidRequest)
	ErrInvalidQuantity        = fmt.Errorf("%w: quantity must be at least 1", ErrInvalidRequest)
	ErrNoDefaultAddress       = fmt.Errorf("%w: no shipping address given and no default address", ErrInvalidRequest)
	ErrNoDefaultPaymentMethod = fmt.Errorf("%w: no payment method given and no default payment method", ErrInvalidRequest)
	ErrInvalidReasonCode      = fmt.Errorf("%w: unknown refund reason code", ErrInvalidRequest)
	ErrInvalidRefundType      = fmt.Errorf("%w: unknown refund type", ErrInvalidRequest)
	ErrInvalidPaymentType     = fmt.Errorf("%w: unknown payment method type", ErrInvalidRequest)
	ErrInvalidCardNumber      = fmt.Errorf("%w: invalid card number", ErrInvalidRequest)
	ErrNotFullRefund          = fmt.Errorf("%w: refund type is FULL but the order is not fully refunded", ErrInvalidRequest)
	ErrActuallyFullRefund     = fmt.Errorf("%w: refund type is PARTIAL but the order is fully refunded, use FULL", ErrInvalidRequest)

	ErrInsufficientStock      = fmt.Errorf("%w: insufficient stock", ErrConflict)
	ErrRefundQuantityExceeded = fmt.Errorf("%w: refund quantity exceeds ordered quantity", ErrConflict)
	ErrShippingStarted        = fmt.Errorf("%w: shipping already in progress, request a refund instead", ErrConflict)
	ErrRefundHistoryExists    = fmt.Errorf("%w: order has refund history", ErrConflict)
	ErrInvalidRefundStatus    = fmt.Errorf("%w: refund item has wrong status for this transition", ErrConflict)
	ErrPaymentMismatch        = fmt.Errorf("%w: payment does not belong to order", ErrConflict)
	ErrForeignOrderItem       = fmt.Errorf("%w: order item does not belong to order", ErrConflict)
)

// InsufficientStockError is returned when requested quantity is greater than product stock
type InsufficientStockError struct {
	ProductID uint64
	Stock     int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("%v: productId=%d, stock=%d, requested=%d", ErrInsufficientStock, e.ProductID, e.Stock, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}
