package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/rookgm/fmmall/internal/models"
	"github.com/rookgm/fmmall/internal/repository/postgres"
)

const (
	insertRefundQuery = `
						INSERT INTO refunds (order_id, payment_id, reason_code, reason_detail, total_amount, refund_type, is_completed)
						VALUES ($1, $2, $3, $4, $5, $6, $7)
						RETURNING id, created_at
`
	insertRefundItemQuery = `
						INSERT INTO refund_items (refund_id, order_item_id, refund_quantity, refund_price, refund_status)
						VALUES ($1, $2, $3, $4, $5)
						RETURNING id
`
	selectRefundQuery = `
						SELECT id, order_id, payment_id, reason_code, reason_detail, total_amount, refund_type, is_completed, created_at FROM refunds
						WHERE id = $1
`
	selectRefundForUpdateQuery = selectRefundQuery + ` FOR UPDATE`

	selectRefundItemsQuery = `
						SELECT id, refund_id, order_item_id, refund_quantity, refund_price, refund_status FROM refund_items
						WHERE refund_id = $1
						ORDER BY id
`
	selectRefundedQuantitiesQuery = `
						SELECT ri.order_item_id, SUM(ri.refund_quantity)
						FROM refund_items ri
						JOIN order_items oi ON oi.id = ri.order_item_id
						WHERE oi.order_id = $1
						GROUP BY ri.order_item_id
`
	selectRefundsByUserIDQuery = `
						SELECT r.id, r.order_id, r.payment_id, r.reason_code, r.reason_detail, r.total_amount, r.refund_type, r.is_completed, r.created_at
						FROM refunds r
						JOIN orders o ON o.id = r.order_id
						WHERE o.user_id = $1
						ORDER BY r.created_at DESC
`
	selectRefundsByUserAndProductQuery = `
						SELECT DISTINCT r.id, r.order_id, r.payment_id, r.reason_code, r.reason_detail, r.total_amount, r.refund_type, r.is_completed, r.created_at
						FROM refunds r
						JOIN orders o ON o.id = r.order_id
						JOIN refund_items ri ON ri.refund_id = r.id
						JOIN order_items oi ON oi.id = ri.order_item_id
						WHERE o.user_id = $1 AND oi.product_id = $2
						ORDER BY r.created_at DESC
`
	updateRefundCompletedQuery = `
						UPDATE refunds
						SET is_completed = $1
						WHERE id = $2
`
	updateRefundItemStatusQuery = `
						UPDATE refund_items
						SET refund_status = $1
						WHERE id = $2
`
)

// RefundRepository implements RefundRepository interface
type RefundRepository struct {
	db *postgres.DB
}

// NewRefundRepository creates new RefundRepository instance
func NewRefundRepository(db *postgres.DB) *RefundRepository {
	return &RefundRepository{db: db}
}

// CreateRefund inserts refund with its lines
func (rr *RefundRepository) CreateRefund(ctx context.Context, refund *models.Refund) (*models.Refund, error) {
	err := rr.db.QueryRow(ctx, insertRefundQuery, refund.OrderID, refund.PaymentID, refund.ReasonCode, refund.ReasonDetail,
		refund.TotalAmount, refund.RefundType, refund.Completed).Scan(&refund.ID, &refund.CreatedAt)
	if err != nil {
		return nil, err
	}

	for i := range refund.Lines {
		line := &refund.Lines[i]
		line.RefundID = refund.ID
		err := rr.db.QueryRow(ctx, insertRefundItemQuery, line.RefundID, line.OrderItemID, line.Quantity,
			line.Amount, line.Status).Scan(&line.ID)
		if err != nil {
			return nil, err
		}
	}

	return refund, nil
}

// GetRefund returns refund with lines
func (rr *RefundRepository) GetRefund(ctx context.Context, id uint64) (*models.Refund, error) {
	return rr.getRefund(ctx, selectRefundQuery, id)
}

// GetRefundForUpdate returns refund with lines and locks refund row until the end of transaction
func (rr *RefundRepository) GetRefundForUpdate(ctx context.Context, id uint64) (*models.Refund, error) {
	return rr.getRefund(ctx, selectRefundForUpdateQuery, id)
}

func (rr *RefundRepository) getRefund(ctx context.Context, query string, id uint64) (*models.Refund, error) {
	refund := models.Refund{}
	err := rr.db.QueryRow(ctx, query, id).Scan(&refund.ID, &refund.OrderID, &refund.PaymentID, &refund.ReasonCode,
		&refund.ReasonDetail, &refund.TotalAmount, &refund.RefundType, &refund.Completed, &refund.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrRefundNotFound
		}
		return nil, err
	}

	lines, err := rr.getRefundItems(ctx, refund.ID)
	if err != nil {
		return nil, err
	}
	refund.Lines = lines

	return &refund, nil
}

func (rr *RefundRepository) getRefundItems(ctx context.Context, refundID uint64) ([]models.RefundLine, error) {
	rows, err := rr.db.Query(ctx, selectRefundItemsQuery, refundID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := []models.RefundLine{}

	for rows.Next() {
		line := models.RefundLine{}
		if err := rows.Scan(&line.ID, &line.RefundID, &line.OrderItemID, &line.Quantity, &line.Amount, &line.Status); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}

// GetRefundedQuantities returns quantity refunded so far for every refunded line of order
func (rr *RefundRepository) GetRefundedQuantities(ctx context.Context, orderID uint64) (models.RefundedQuantities, error) {
	rows, err := rr.db.Query(ctx, selectRefundedQuantitiesQuery, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	refunded := models.RefundedQuantities{}

	for rows.Next() {
		var (
			orderItemID uint64
			qty         int
		)
		if err := rows.Scan(&orderItemID, &qty); err != nil {
			return nil, err
		}
		refunded[orderItemID] = qty
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return refunded, nil
}

// GetRefundsByUserID returns refunds of user orders
func (rr *RefundRepository) GetRefundsByUserID(ctx context.Context, userID uint64) ([]models.Refund, error) {
	return rr.getRefunds(ctx, selectRefundsByUserIDQuery, userID)
}

// GetRefundsByUserAndProduct returns refunds of user orders containing product
func (rr *RefundRepository) GetRefundsByUserAndProduct(ctx context.Context, userID, productID uint64) ([]models.Refund, error) {
	return rr.getRefunds(ctx, selectRefundsByUserAndProductQuery, userID, productID)
}

func (rr *RefundRepository) getRefunds(ctx context.Context, query string, args ...any) ([]models.Refund, error) {
	rows, err := rr.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	refunds := []models.Refund{}

	for rows.Next() {
		refund := models.Refund{}
		err := rows.Scan(&refund.ID, &refund.OrderID, &refund.PaymentID, &refund.ReasonCode,
			&refund.ReasonDetail, &refund.TotalAmount, &refund.RefundType, &refund.Completed, &refund.CreatedAt)
		if err != nil {
			return nil, err
		}
		refunds = append(refunds, refund)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for i := range refunds {
		lines, err := rr.getRefundItems(ctx, refunds[i].ID)
		if err != nil {
			return nil, err
		}
		refunds[i].Lines = lines
	}

	return refunds, nil
}

// UpdateRefundStatus stores line statuses and completion flag of refund
func (rr *RefundRepository) UpdateRefundStatus(ctx context.Context, refund *models.Refund) error {
	cmd, err := rr.db.Exec(ctx, updateRefundCompletedQuery, refund.Completed, refund.ID)
	if err != nil {
		return err
	}

	if cmd.RowsAffected() == 0 {
		return models.ErrRefundNotFound
	}

	for _, line := range refund.Lines {
		if _, err := rr.db.Exec(ctx, updateRefundItemStatusQuery, line.Status, line.ID); err != nil {
			return err
		}
	}

	return nil
}
