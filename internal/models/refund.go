package models

import (
	"fmt"
	"time"
)

// RefundType is FULL when the refund exhausts every order line, PARTIAL otherwise
type RefundType string

const (
	RefundTypeFull    RefundType = "FULL"
	RefundTypePartial RefundType = "PARTIAL"
)

// ParseRefundType converts string to RefundType
func ParseRefundType(s string) (RefundType, error) {
	switch t := RefundType(s); t {
	case RefundTypeFull, RefundTypePartial:
		return t, nil
	}
	return "", fmt.Errorf("%w: refundType=%s", ErrInvalidRefundType, s)
}

// refund line status
//
// REQUESTED -> APPROVED -> COMPLETED
// REQUESTED -> REJECTED
type RefundStatus string

const (
	RefundStatusRequested RefundStatus = "REQUESTED"
	RefundStatusApproved  RefundStatus = "APPROVED"
	RefundStatusRejected  RefundStatus = "REJECTED"
	RefundStatusCompleted RefundStatus = "COMPLETED"
)

// YesNo is Y or N flag
type YesNo string

const (
	Yes YesNo = "Y"
	No  YesNo = "N"
)

// ReasonCode is refund reason
type ReasonCode string

const (
	ReasonChangeMind ReasonCode = "CHANGE_MIND"
	ReasonDefective  ReasonCode = "DEFECTIVE"
	ReasonWrongItem  ReasonCode = "WRONG_ITEM"
	ReasonDamaged    ReasonCode = "DAMAGED"
	ReasonDelayed    ReasonCode = "DELAYED"
	ReasonOther      ReasonCode = "OTHER"
)

// ParseReasonCode converts string to ReasonCode
func ParseReasonCode(s string) (ReasonCode, error) {
	switch c := ReasonCode(s); c {
	case ReasonChangeMind, ReasonDefective, ReasonWrongItem, ReasonDamaged, ReasonDelayed, ReasonOther:
		return c, nil
	}
	return "", fmt.Errorf("%w: reasonCode=%s", ErrInvalidReasonCode, s)
}

// RefundLine is refund entry against one order line
type RefundLine struct {
	ID          uint64
	RefundID    uint64
	OrderItemID uint64
	Quantity    int
	Amount      int64
	Status      RefundStatus
}

// RefundedQuantities is cumulative refunded quantity per order item id
type RefundedQuantities map[uint64]int

// Refund is refund aggregate. Lines are owned by the refund.
type Refund struct {
	ID           uint64
	OrderID      uint64
	PaymentID    uint64
	ReasonCode   ReasonCode
	ReasonDetail string
	TotalAmount  int64
	RefundType   RefundType
	Completed    YesNo
	CreatedAt    time.Time
	Lines        []RefundLine
}

// RefundSummary is short refund representation embedded into order
type RefundSummary struct {
	ID          uint64
	RefundType  RefundType
	TotalAmount int64
	Completed   YesNo
}

// Summary returns refund summary
func (r *Refund) Summary() RefundSummary {
	return RefundSummary{
		ID:          r.ID,
		RefundType:  r.RefundType,
		TotalAmount: r.TotalAmount,
		Completed:   r.Completed,
	}
}

// AddLine appends refund line for order line. refunded holds quantities refunded by earlier refunds.
// Several lines of one refund may reference the same order line, their quantities add up.
func (r *Refund) AddLine(line *OrderLine, quantity int, refunded RefundedQuantities) error {
	if line.OrderID != r.OrderID {
		return fmt.Errorf("%w: orderItemId=%d", ErrForeignOrderItem, line.ID)
	}
	if quantity < 1 {
		return fmt.Errorf("%w: orderItemId=%d", ErrInvalidQuantity, line.ID)
	}

	after := refunded[line.ID] + r.RequestedQuantity(line.ID) + quantity
	if after > line.Quantity {
		return fmt.Errorf("%w: orderItemId=%d, ordered=%d, refunded=%d, requested=%d",
			ErrRefundQuantityExceeded, line.ID, line.Quantity, refunded[line.ID], after-refunded[line.ID])
	}

	r.Lines = append(r.Lines, RefundLine{
		RefundID:    r.ID,
		OrderItemID: line.ID,
		Quantity:    quantity,
		Amount:      line.UnitPrice * int64(quantity),
		Status:      RefundStatusRequested,
	})
	r.TotalAmount = r.CalculateTotalAmount()

	return nil
}

// RequestedQuantity returns quantity of order item requested by this refund
func (r *Refund) RequestedQuantity(orderItemID uint64) int {
	var qty int
	for _, l := range r.Lines {
		if l.OrderItemID == orderItemID {
			qty += l.Quantity
		}
	}
	return qty
}

// CalculateTotalAmount sums line amounts
func (r *Refund) CalculateTotalAmount() int64 {
	var total int64
	for _, l := range r.Lines {
		total += l.Amount
	}
	return total
}

// IsFull reports whether every line of order is refunded completely after this refund
func (r *Refund) IsFull(order *Order, refunded RefundedQuantities) bool {
	for _, l := range order.Lines {
		if refunded[l.ID]+r.RequestedQuantity(l.ID) != l.Quantity {
			return false
		}
	}
	return true
}

// CheckType verifies declared refund type against computed fullness
func (r *Refund) CheckType(order *Order, refunded RefundedQuantities) error {
	full := r.IsFull(order, refunded)

	switch {
	case r.RefundType == RefundTypeFull && !full:
		return fmt.Errorf("%w: orderId=%d", ErrNotFullRefund, order.ID)
	case r.RefundType == RefundTypePartial && full:
		return fmt.Errorf("%w: orderId=%d", ErrActuallyFullRefund, order.ID)
	}

	return nil
}

// Approve moves every REQUESTED line to APPROVED
func (r *Refund) Approve() error {
	if err := r.requireStatus(RefundStatusRequested); err != nil {
		return err
	}
	r.setStatus(RefundStatusApproved)
	return nil
}

// Reject moves every REQUESTED line to REJECTED
func (r *Refund) Reject() error {
	if err := r.requireStatus(RefundStatusRequested); err != nil {
		return err
	}
	r.setStatus(RefundStatusRejected)
	r.Completed = No
	return nil
}

// Complete moves every APPROVED line to COMPLETED and marks refund as settled.
// Lines already COMPLETED are left as is.
func (r *Refund) Complete() error {
	if err := r.requireStatus(RefundStatusApproved, RefundStatusCompleted); err != nil {
		return err
	}
	r.setStatus(RefundStatusCompleted)
	r.Completed = Yes
	return nil
}

// requireStatus checks all lines before any line is changed
func (r *Refund) requireStatus(allowed ...RefundStatus) error {
	for _, l := range r.Lines {
		ok := false
		for _, s := range allowed {
			if l.Status == s {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("%w: refundItemId=%d, status=%s", ErrInvalidRefundStatus, l.ID, l.Status)
		}
	}
	return nil
}

func (r *Refund) setStatus(status RefundStatus) {
	for i := range r.Lines {
		r.Lines[i].Status = status
	}
}

// RefundItemRequest is requested order item and quantity to refund
type RefundItemRequest struct {
	OrderItemID    uint64
	RefundQuantity int
}

// CreateRefundRequest is refund creation input
type CreateRefundRequest struct {
	OrderID      uint64
	PaymentID    uint64
	ReasonCode   string
	ReasonDetail string
	RefundType   string
	Items        []RefundItemRequest
}
