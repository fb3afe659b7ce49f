package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func singleLineOrder(quantity int) *Order {
	return &Order{
		ID:         10,
		TotalPrice: 100 * int64(quantity),
		Lines:      []OrderLine{{ID: 1, OrderID: 10, ProductID: 1, UnitPrice: 100, Quantity: quantity}},
	}
}

func newRefund(order *Order, refundType RefundType) *Refund {
	return &Refund{OrderID: order.ID, RefundType: refundType, Completed: No}
}

func TestRefund_FullRefundOfWholeLine(t *testing.T) {
	order := singleLineOrder(5)
	r := newRefund(order, RefundTypeFull)

	require.NoError(t, r.AddLine(&order.Lines[0], 5, RefundedQuantities{}))
	require.NoError(t, r.CheckType(order, RefundedQuantities{}))

	assert.Equal(t, int64(500), r.TotalAmount)
	assert.Equal(t, RefundStatusRequested, r.Lines[0].Status)
	assert.Equal(t, No, r.Completed)
}

func TestRefund_PartialThenFull(t *testing.T) {
	order := singleLineOrder(5)
	refunded := RefundedQuantities{}

	// FULL declared for part of the order
	first := newRefund(order, RefundTypeFull)
	require.NoError(t, first.AddLine(&order.Lines[0], 2, refunded))
	assert.ErrorIs(t, first.CheckType(order, refunded), ErrNotFullRefund)
	assert.ErrorIs(t, first.CheckType(order, refunded), ErrInvalidRequest)

	// the same request as PARTIAL succeeds
	first.RefundType = RefundTypePartial
	require.NoError(t, first.CheckType(order, refunded))
	assert.Equal(t, int64(200), first.TotalAmount)

	refunded[order.Lines[0].ID] += 2

	// the rest makes the order fully refunded
	second := newRefund(order, RefundTypeFull)
	require.NoError(t, second.AddLine(&order.Lines[0], 3, refunded))
	require.NoError(t, second.CheckType(order, refunded))
	assert.Equal(t, int64(300), second.TotalAmount)

	// PARTIAL for the rest is rejected
	second.RefundType = RefundTypePartial
	assert.ErrorIs(t, second.CheckType(order, refunded), ErrActuallyFullRefund)
}

func TestRefund_QuantityExceeded(t *testing.T) {
	order := singleLineOrder(5)
	refunded := RefundedQuantities{1: 2}

	r := newRefund(order, RefundTypePartial)
	err := r.AddLine(&order.Lines[0], 4, refunded)

	assert.ErrorIs(t, err, ErrRefundQuantityExceeded)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Empty(t, r.Lines)
}

func TestRefund_DuplicateLinesAddUp(t *testing.T) {
	order := singleLineOrder(5)
	r := newRefund(order, RefundTypePartial)

	require.NoError(t, r.AddLine(&order.Lines[0], 3, RefundedQuantities{}))
	err := r.AddLine(&order.Lines[0], 3, RefundedQuantities{})

	assert.ErrorIs(t, err, ErrRefundQuantityExceeded)
	assert.Equal(t, 3, r.RequestedQuantity(1))
}

func TestRefund_AddLineValidation(t *testing.T) {
	order := singleLineOrder(5)

	tests := []struct {
		name     string
		line     OrderLine
		quantity int
		wantErr  error
	}{
		{
			name:     "zero_quantity",
			line:     order.Lines[0],
			quantity: 0,
			wantErr:  ErrInvalidQuantity,
		},
		{
			name:     "negative_quantity",
			line:     order.Lines[0],
			quantity: -1,
			wantErr:  ErrInvalidQuantity,
		},
		{
			name:     "line_of_another_order",
			line:     OrderLine{ID: 99, OrderID: 11, UnitPrice: 10, Quantity: 1},
			quantity: 1,
			wantErr:  ErrForeignOrderItem,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRefund(order, RefundTypePartial)
			assert.ErrorIs(t, r.AddLine(&tt.line, tt.quantity, RefundedQuantities{}), tt.wantErr)
			assert.Empty(t, r.Lines)
			assert.Zero(t, r.TotalAmount)
		})
	}
}

func TestRefund_IsFullChecksAllOrderLines(t *testing.T) {
	order := &Order{
		ID: 10,
		Lines: []OrderLine{
			{ID: 1, OrderID: 10, UnitPrice: 100, Quantity: 2},
			{ID: 2, OrderID: 10, UnitPrice: 50, Quantity: 1},
		},
	}

	r := newRefund(order, RefundTypeFull)
	require.NoError(t, r.AddLine(&order.Lines[0], 2, RefundedQuantities{}))

	assert.False(t, r.IsFull(order, RefundedQuantities{}))
	assert.True(t, r.IsFull(order, RefundedQuantities{2: 1}))
}

func refundWithStatuses(statuses ...RefundStatus) *Refund {
	r := &Refund{ID: 1, OrderID: 10, Completed: No}
	for i, s := range statuses {
		r.Lines = append(r.Lines, RefundLine{ID: uint64(i + 1), RefundID: 1, Status: s})
	}
	return r
}

func statusesOf(r *Refund) []RefundStatus {
	statuses := make([]RefundStatus, 0, len(r.Lines))
	for _, l := range r.Lines {
		statuses = append(statuses, l.Status)
	}
	return statuses
}

func TestRefund_Transitions(t *testing.T) {
	tests := []struct {
		name          string
		statuses      []RefundStatus
		apply         func(r *Refund) error
		wantErr       error
		wantStatuses  []RefundStatus
		wantCompleted YesNo
	}{
		{
			name:          "approve_requested",
			statuses:      []RefundStatus{RefundStatusRequested, RefundStatusRequested},
			apply:         (*Refund).Approve,
			wantStatuses:  []RefundStatus{RefundStatusApproved, RefundStatusApproved},
			wantCompleted: No,
		},
		{
			name:          "approve_mixed_is_rejected_and_nothing_changes",
			statuses:      []RefundStatus{RefundStatusRequested, RefundStatusApproved},
			apply:         (*Refund).Approve,
			wantErr:       ErrInvalidRefundStatus,
			wantStatuses:  []RefundStatus{RefundStatusRequested, RefundStatusApproved},
			wantCompleted: No,
		},
		{
			name:          "reject_requested",
			statuses:      []RefundStatus{RefundStatusRequested},
			apply:         (*Refund).Reject,
			wantStatuses:  []RefundStatus{RefundStatusRejected},
			wantCompleted: No,
		},
		{
			name:          "reject_approved",
			statuses:      []RefundStatus{RefundStatusApproved},
			apply:         (*Refund).Reject,
			wantErr:       ErrInvalidRefundStatus,
			wantStatuses:  []RefundStatus{RefundStatusApproved},
			wantCompleted: No,
		},
		{
			name:          "complete_approved",
			statuses:      []RefundStatus{RefundStatusApproved, RefundStatusApproved},
			apply:         (*Refund).Complete,
			wantStatuses:  []RefundStatus{RefundStatusCompleted, RefundStatusCompleted},
			wantCompleted: Yes,
		},
		{
			name:          "complete_is_idempotent",
			statuses:      []RefundStatus{RefundStatusCompleted, RefundStatusCompleted},
			apply:         (*Refund).Complete,
			wantStatuses:  []RefundStatus{RefundStatusCompleted, RefundStatusCompleted},
			wantCompleted: Yes,
		},
		{
			name:          "complete_requested",
			statuses:      []RefundStatus{RefundStatusApproved, RefundStatusRequested},
			apply:         (*Refund).Complete,
			wantErr:       ErrInvalidRefundStatus,
			wantStatuses:  []RefundStatus{RefundStatusApproved, RefundStatusRequested},
			wantCompleted: No,
		},
		{
			name:          "complete_rejected",
			statuses:      []RefundStatus{RefundStatusRejected},
			apply:         (*Refund).Complete,
			wantErr:       ErrInvalidRefundStatus,
			wantStatuses:  []RefundStatus{RefundStatusRejected},
			wantCompleted: No,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := refundWithStatuses(tt.statuses...)

			err := tt.apply(r)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, ErrConflict)
			} else {
				assert.NoError(t, err)
			}

			assert.Equal(t, tt.wantStatuses, statusesOf(r))
			assert.Equal(t, tt.wantCompleted, r.Completed)
		})
	}
}

func TestParseEnums(t *testing.T) {
	_, err := ParseRefundType("HALF")
	assert.ErrorIs(t, err, ErrInvalidRefundType)

	rt, err := ParseRefundType("PARTIAL")
	require.NoError(t, err)
	assert.Equal(t, RefundTypePartial, rt)

	_, err = ParseReasonCode("BORED")
	assert.ErrorIs(t, err, ErrInvalidRequest)

	rc, err := ParseReasonCode("DEFECTIVE")
	require.NoError(t, err)
	assert.Equal(t, ReasonDefective, rc)

	_, err = ParsePaymentMethodType("CASH")
	assert.ErrorIs(t, err, ErrInvalidPaymentType)
}
