package service

import (
	"context"
	"fmt"

	"github.com/rookgm/fmmall/internal/logger"
	"github.com/rookgm/fmmall/internal/metrics"
	"github.com/rookgm/fmmall/internal/models"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// RefundRepository is interface for interacting with refund-related data
type RefundRepository interface {
	// CreateRefund inserts refund with its lines
	CreateRefund(ctx context.Context, refund *models.Refund) (*models.Refund, error)
	// GetRefund returns refund with lines
	GetRefund(ctx context.Context, id uint64) (*models.Refund, error)
	// GetRefundForUpdate returns refund with lines and locks it until the end of transaction
	GetRefundForUpdate(ctx context.Context, id uint64) (*models.Refund, error)
	// GetRefundedQuantities returns quantity refunded so far per order line of order
	GetRefundedQuantities(ctx context.Context, orderID uint64) (models.RefundedQuantities, error)
	// GetRefundsByUserID returns refunds of user orders
	GetRefundsByUserID(ctx context.Context, userID uint64) ([]models.Refund, error)
	// GetRefundsByUserAndProduct returns refunds of user orders containing product
	GetRefundsByUserAndProduct(ctx context.Context, userID, productID uint64) ([]models.Refund, error)
	// UpdateRefundStatus stores line statuses and completion flag
	UpdateRefundStatus(ctx context.Context, refund *models.Refund) error
}

// RefundDeps is RefundService dependencies
type RefundDeps struct {
	Tx      Transactor
	Orders  OrderRepository
	Refunds RefundRepository
	Events  EventWriter
	Metrics *metrics.Metrics
}

// RefundService implements RefundService interface
type RefundService struct {
	RefundDeps
}

// NewRefundService creates new RefundService instance
func NewRefundService(deps RefundDeps) *RefundService {
	return &RefundService{RefundDeps: deps}
}

type refundEvent struct {
	RefundID    uint64              `json:"refund_id"`
	OrderID     uint64              `json:"order_id"`
	PaymentID   uint64              `json:"payment_id"`
	RefundType  models.RefundType   `json:"refund_type"`
	TotalAmount int64               `json:"total_amount"`
	Status      models.RefundStatus `json:"status"`
	Completed   models.YesNo        `json:"completed"`
}

func newRefundEvent(refund *models.Refund, status models.RefundStatus) refundEvent {
	return refundEvent{
		RefundID:    refund.ID,
		OrderID:     refund.OrderID,
		PaymentID:   refund.PaymentID,
		RefundType:  refund.RefundType,
		TotalAmount: refund.TotalAmount,
		Status:      status,
		Completed:   refund.Completed,
	}
}

// CreateRefund creates refund request of user order.
// Refunded quantity of every order line, summed over all refunds of the order, never exceeds ordered quantity.
func (rs *RefundService) CreateRefund(ctx context.Context, userID uint64, req *models.CreateRefundRequest) (refund *models.Refund, err error) {
	ctx, span := tracer.Start(ctx, "RefundService.CreateRefund")
	span.SetAttributes(attribute.Int64("order.id", int64(req.OrderID)), attribute.String("refund.type", req.RefundType))
	defer func() { finishSpan(span, err) }()

	err = rs.Tx.WithTx(ctx, func(ctx context.Context) error {
		if err := rs.Orders.LockOrder(ctx, req.OrderID); err != nil {
			return fmt.Errorf("%w: orderId=%d", err, req.OrderID)
		}

		order, err := rs.Orders.GetOrder(ctx, req.OrderID)
		if err != nil {
			return fmt.Errorf("%w: orderId=%d", err, req.OrderID)
		}

		if order.UserID != userID {
			return fmt.Errorf("%w: orderId=%d", models.ErrNotOwner, order.ID)
		}

		payment, err := rs.Orders.GetPayment(ctx, req.PaymentID)
		if err != nil {
			return fmt.Errorf("%w: paymentId=%d", err, req.PaymentID)
		}

		if payment.OrderID != order.ID {
			return fmt.Errorf("%w: orderId=%d, paymentId=%d", models.ErrPaymentMismatch, order.ID, payment.ID)
		}

		reason, err := models.ParseReasonCode(req.ReasonCode)
		if err != nil {
			return err
		}

		refundType, err := models.ParseRefundType(req.RefundType)
		if err != nil {
			return err
		}

		if len(req.Items) == 0 {
			return models.ErrEmptyItems
		}

		refunded, err := rs.Refunds.GetRefundedQuantities(ctx, order.ID)
		if err != nil {
			return err
		}

		r := &models.Refund{
			OrderID:      order.ID,
			PaymentID:    payment.ID,
			ReasonCode:   reason,
			ReasonDetail: req.ReasonDetail,
			RefundType:   refundType,
			Completed:    models.No,
		}

		for _, item := range req.Items {
			line, err := rs.Orders.GetOrderItem(ctx, item.OrderItemID)
			if err != nil {
				return fmt.Errorf("%w: orderItemId=%d", err, item.OrderItemID)
			}

			if err := r.AddLine(line, item.RefundQuantity, refunded); err != nil {
				return err
			}
		}

		if err := r.CheckType(order, refunded); err != nil {
			return err
		}

		r, err = rs.Refunds.CreateRefund(ctx, r)
		if err != nil {
			return err
		}

		if err := publish(ctx, rs.Events, models.EventRefundRequested, r.OrderID, newRefundEvent(r, models.RefundStatusRequested)); err != nil {
			return err
		}

		refund = r
		return nil
	})
	if err != nil {
		logger.Log.Debug("create refund rejected",
			zap.Uint64("user_id", userID),
			zap.Uint64("order_id", req.OrderID),
			zap.Error(err))
		return nil, err
	}

	rs.Metrics.RefundsRequested.WithLabelValues(string(refund.RefundType)).Inc()
	logger.Log.Info("refund requested",
		zap.Uint64("refund_id", refund.ID),
		zap.Uint64("order_id", refund.OrderID),
		zap.String("type", string(refund.RefundType)),
		zap.Int64("total_amount", refund.TotalAmount))

	return refund, nil
}

// ApproveRefund moves all refund lines from REQUESTED to APPROVED
func (rs *RefundService) ApproveRefund(ctx context.Context, refundID uint64) (*models.Refund, error) {
	return rs.transition(ctx, refundID, models.RefundStatusApproved, models.EventRefundApproved, (*models.Refund).Approve)
}

// RejectRefund moves all refund lines from REQUESTED to REJECTED
func (rs *RefundService) RejectRefund(ctx context.Context, refundID uint64) (*models.Refund, error) {
	return rs.transition(ctx, refundID, models.RefundStatusRejected, models.EventRefundRejected, (*models.Refund).Reject)
}

// CompleteRefund moves all refund lines from APPROVED to COMPLETED and marks refund as settled
func (rs *RefundService) CompleteRefund(ctx context.Context, refundID uint64) (*models.Refund, error) {
	return rs.transition(ctx, refundID, models.RefundStatusCompleted, models.EventRefundCompleted, (*models.Refund).Complete)
}

// transition applies status change to every line of refund or to none of them
func (rs *RefundService) transition(ctx context.Context, refundID uint64, status models.RefundStatus, eventType string,
	apply func(*models.Refund) error) (refund *models.Refund, err error) {
	ctx, span := tracer.Start(ctx, "RefundService.Transition")
	span.SetAttributes(attribute.Int64("refund.id", int64(refundID)), attribute.String("refund.status", string(status)))
	defer func() { finishSpan(span, err) }()

	err = rs.Tx.WithTx(ctx, func(ctx context.Context) error {
		r, err := rs.Refunds.GetRefundForUpdate(ctx, refundID)
		if err != nil {
			return fmt.Errorf("%w: refundId=%d", err, refundID)
		}

		if err := apply(r); err != nil {
			return err
		}

		if err := rs.Refunds.UpdateRefundStatus(ctx, r); err != nil {
			return err
		}

		if err := publish(ctx, rs.Events, eventType, r.OrderID, newRefundEvent(r, status)); err != nil {
			return err
		}

		refund = r
		return nil
	})
	if err != nil {
		logger.Log.Debug("refund transition rejected",
			zap.Uint64("refund_id", refundID),
			zap.String("status", string(status)),
			zap.Error(err))
		return nil, err
	}

	rs.Metrics.RefundTransitions.WithLabelValues(string(status)).Inc()
	logger.Log.Info("refund status changed",
		zap.Uint64("refund_id", refundID),
		zap.String("status", string(status)),
		zap.String("completed", string(refund.Completed)))

	return refund, nil
}

// GetRefunds returns refunds of user
func (rs *RefundService) GetRefunds(ctx context.Context, userID uint64) ([]models.Refund, error) {
	return rs.Refunds.GetRefundsByUserID(ctx, userID)
}

// GetRefundsByProduct returns refunds of user orders containing product
func (rs *RefundService) GetRefundsByProduct(ctx context.Context, userID, productID uint64) ([]models.Refund, error) {
	return rs.Refunds.GetRefundsByUserAndProduct(ctx, userID, productID)
}

// GetRefund returns refund visible to caller. Administrators see every refund.
func (rs *RefundService) GetRefund(ctx context.Context, refundID uint64, caller *models.TokenPayload) (*models.Refund, error) {
	refund, err := rs.Refunds.GetRefund(ctx, refundID)
	if err != nil {
		return nil, fmt.Errorf("%w: refundId=%d", err, refundID)
	}

	if caller.IsAdmin() {
		return refund, nil
	}

	order, err := rs.Orders.GetOrder(ctx, refund.OrderID)
	if err != nil {
		return nil, fmt.Errorf("%w: orderId=%d", err, refund.OrderID)
	}

	if order.UserID != caller.UserID {
		return nil, fmt.Errorf("%w: refundId=%d", models.ErrNotOwner, refundID)
	}

	return refund, nil
}
