package models

import (
	"encoding/json"
	"time"
)

// domain event types
const (
	EventOrderCreated    = "order.created"
	EventOrderCancelled  = "order.cancelled"
	EventRefundRequested = "refund.requested"
	EventRefundApproved  = "refund.approved"
	EventRefundRejected  = "refund.rejected"
	EventRefundCompleted = "refund.completed"
)

// Event is domain event stored in outbox
type Event struct {
	ID        uint64
	EventID   string
	Type      string
	Key       string
	Payload   json.RawMessage
	CreatedAt time.Time
	SentAt    *time.Time
}
