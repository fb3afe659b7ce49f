package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/rookgm/fmmall/internal/models"
	"github.com/rookgm/fmmall/internal/repository/postgres"
)

const (
	insertOrderQuery = `
						INSERT INTO orders (user_id, receiver_name, receiver_phone, zipcode, address1, address2, total_price)
						VALUES ($1, $2, $3, $4, $5, $6, $7)
						RETURNING id, created_at
`
	insertOrderItemQuery = `
						INSERT INTO order_items (order_id, product_id, unit_price, quantity, delivery_date, installation_date)
						VALUES ($1, $2, $3, $4, $5, $6)
						RETURNING id
`
	insertPaymentQuery = `
						INSERT INTO payments (order_id, payment_method_type)
						VALUES ($1, $2)
						RETURNING id, paid_at
`
	selectOrderQuery = `
						SELECT id, user_id, receiver_name, receiver_phone, zipcode, address1, address2, total_price, created_at FROM orders
						WHERE id = $1
`
	lockOrderQuery = `
						SELECT id FROM orders
						WHERE id = $1
						FOR UPDATE
`
	selectOrdersByUserIDQuery = `
						SELECT id, user_id, receiver_name, receiver_phone, zipcode, address1, address2, total_price, created_at FROM orders
						WHERE user_id = $1
						ORDER BY created_at DESC
`
	selectOrdersByUserAndProductQuery = `
						SELECT DISTINCT o.id, o.user_id, o.receiver_name, o.receiver_phone, o.zipcode, o.address1, o.address2, o.total_price, o.created_at
						FROM orders o
						JOIN order_items oi ON oi.order_id = o.id
						WHERE o.user_id = $1 AND oi.product_id = $2
						ORDER BY o.created_at DESC
`
	selectOrderItemsQuery = `
						SELECT oi.id, oi.order_id, oi.product_id, p.name, oi.unit_price, oi.quantity, oi.delivery_date, oi.installation_date
						FROM order_items oi
						JOIN products p ON p.id = oi.product_id
						WHERE oi.order_id = $1
						ORDER BY oi.id
`
	selectOrderItemQuery = `
						SELECT oi.id, oi.order_id, oi.product_id, p.name, oi.unit_price, oi.quantity, oi.delivery_date, oi.installation_date
						FROM order_items oi
						JOIN products p ON p.id = oi.product_id
						WHERE oi.id = $1
`
	updateOrderItemScheduleQuery = `
						UPDATE order_items
						SET delivery_date = $1, installation_date = $2
						WHERE id = $3
`
	selectPaymentByOrderIDQuery = `
						SELECT id, order_id, payment_method_type, paid_at FROM payments
						WHERE order_id = $1
`
	selectPaymentQuery = `
						SELECT id, order_id, payment_method_type, paid_at FROM payments
						WHERE id = $1
`
	selectRefundSummariesQuery = `
						SELECT id, refund_type, total_amount, is_completed FROM refunds
						WHERE order_id = $1
						ORDER BY id
`
	deletePaymentQuery = `
						DELETE FROM payments
						WHERE id = $1
`
	deleteOrderQuery = `
						DELETE FROM orders
						WHERE id = $1
`
)

// OrderRepository implements OrderRepository interface
type OrderRepository struct {
	db *postgres.DB
}

// NewOrderRepository creates new OrderRepository instance
func NewOrderRepository(db *postgres.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// CreateOrder inserts order with its lines
func (or *OrderRepository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	err := or.db.QueryRow(ctx, insertOrderQuery, order.UserID, order.ReceiverName, order.ReceiverPhone,
		order.Zipcode, order.Address1, order.Address2, order.TotalPrice).Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		return nil, err
	}

	for i := range order.Lines {
		line := &order.Lines[i]
		line.OrderID = order.ID
		err := or.db.QueryRow(ctx, insertOrderItemQuery, line.OrderID, line.ProductID, line.UnitPrice,
			line.Quantity, line.DeliveryDate, line.InstallationDate).Scan(&line.ID)
		if err != nil {
			return nil, err
		}
	}

	return order, nil
}

// CreatePayment inserts payment of order
func (or *OrderRepository) CreatePayment(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	err := or.db.QueryRow(ctx, insertPaymentQuery, payment.OrderID, payment.PaymentMethodType).Scan(&payment.ID, &payment.PaidAt)
	if err != nil {
		if errCode := or.db.ErrorCode(err); errCode == pgErrUniqueViolationCode {
			return nil, models.ErrConflictData
		}
		return nil, err
	}

	return payment, nil
}

// GetOrder returns order with lines, payment and refund summaries
func (or *OrderRepository) GetOrder(ctx context.Context, id uint64) (*models.Order, error) {
	order := models.Order{}
	err := or.db.QueryRow(ctx, selectOrderQuery, id).Scan(&order.ID, &order.UserID, &order.ReceiverName, &order.ReceiverPhone,
		&order.Zipcode, &order.Address1, &order.Address2, &order.TotalPrice, &order.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrOrderNotFound
		}
		return nil, err
	}

	if err := or.hydrate(ctx, &order); err != nil {
		return nil, err
	}

	return &order, nil
}

// LockOrder locks order row until the end of transaction
func (or *OrderRepository) LockOrder(ctx context.Context, id uint64) error {
	var orderID uint64
	err := or.db.QueryRow(ctx, lockOrderQuery, id).Scan(&orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ErrOrderNotFound
		}
		return err
	}

	return nil
}

// GetOrdersByUserID gets user orders
func (or *OrderRepository) GetOrdersByUserID(ctx context.Context, userID uint64) ([]models.Order, error) {
	return or.getOrders(ctx, selectOrdersByUserIDQuery, userID)
}

// GetOrdersByUserAndProduct gets user orders containing product
func (or *OrderRepository) GetOrdersByUserAndProduct(ctx context.Context, userID, productID uint64) ([]models.Order, error) {
	return or.getOrders(ctx, selectOrdersByUserAndProductQuery, userID, productID)
}

func (or *OrderRepository) getOrders(ctx context.Context, query string, args ...any) ([]models.Order, error) {
	rows, err := or.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []models.Order{}

	for rows.Next() {
		order := models.Order{}
		err = rows.Scan(&order.ID, &order.UserID, &order.ReceiverName, &order.ReceiverPhone,
			&order.Zipcode, &order.Address1, &order.Address2, &order.TotalPrice, &order.CreatedAt)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for i := range orders {
		if err := or.hydrate(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}

	return orders, nil
}

// hydrate loads order lines, payment and refund summaries
func (or *OrderRepository) hydrate(ctx context.Context, order *models.Order) error {
	lines, err := or.getOrderItems(ctx, order.ID)
	if err != nil {
		return err
	}
	order.Lines = lines

	payment := models.Payment{}
	err = or.db.QueryRow(ctx, selectPaymentByOrderIDQuery, order.ID).Scan(&payment.ID, &payment.OrderID, &payment.PaymentMethodType, &payment.PaidAt)
	switch {
	case err == nil:
		order.Payment = &payment
	case errors.Is(err, pgx.ErrNoRows):
		order.Payment = nil
	default:
		return err
	}

	rows, err := or.db.Query(ctx, selectRefundSummariesQuery, order.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	order.Refunds = []models.RefundSummary{}
	for rows.Next() {
		rs := models.RefundSummary{}
		if err := rows.Scan(&rs.ID, &rs.RefundType, &rs.TotalAmount, &rs.Completed); err != nil {
			return err
		}
		order.Refunds = append(order.Refunds, rs)
	}

	return rows.Err()
}

func (or *OrderRepository) getOrderItems(ctx context.Context, orderID uint64) ([]models.OrderLine, error) {
	rows, err := or.db.Query(ctx, selectOrderItemsQuery, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := []models.OrderLine{}

	for rows.Next() {
		line := models.OrderLine{}
		err = rows.Scan(&line.ID, &line.OrderID, &line.ProductID, &line.ProductName, &line.UnitPrice,
			&line.Quantity, &line.DeliveryDate, &line.InstallationDate)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}

// GetOrderItem returns order line by id
func (or *OrderRepository) GetOrderItem(ctx context.Context, id uint64) (*models.OrderLine, error) {
	line := models.OrderLine{}
	err := or.db.QueryRow(ctx, selectOrderItemQuery, id).Scan(&line.ID, &line.OrderID, &line.ProductID, &line.ProductName,
		&line.UnitPrice, &line.Quantity, &line.DeliveryDate, &line.InstallationDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrOrderItemNotFound
		}
		return nil, err
	}

	return &line, nil
}

// UpdateOrderItemSchedule sets delivery and installation dates of order line
func (or *OrderRepository) UpdateOrderItemSchedule(ctx context.Context, id uint64, schedule models.LineSchedule) error {
	cmd, err := or.db.Exec(ctx, updateOrderItemScheduleQuery, schedule.DeliveryDate, schedule.InstallationDate, id)
	if err != nil {
		return err
	}

	if cmd.RowsAffected() == 0 {
		return models.ErrOrderItemNotFound
	}

	return nil
}

// GetPayment returns payment by id
func (or *OrderRepository) GetPayment(ctx context.Context, id uint64) (*models.Payment, error) {
	payment := models.Payment{}
	err := or.db.QueryRow(ctx, selectPaymentQuery, id).Scan(&payment.ID, &payment.OrderID, &payment.PaymentMethodType, &payment.PaidAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrPaymentNotFound
		}
		return nil, err
	}

	return &payment, nil
}

// DeletePayment deletes payment
func (or *OrderRepository) DeletePayment(ctx context.Context, id uint64) error {
	cmd, err := or.db.Exec(ctx, deletePaymentQuery, id)
	if err != nil {
		return err
	}

	if cmd.RowsAffected() == 0 {
		return models.ErrPaymentNotFound
	}

	return nil
}

// DeleteOrder deletes order, order lines are deleted by cascade
func (or *OrderRepository) DeleteOrder(ctx context.Context, id uint64) error {
	cmd, err := or.db.Exec(ctx, deleteOrderQuery, id)
	if err != nil {
		return err
	}

	if cmd.RowsAffected() == 0 {
		return models.ErrOrderNotFound
	}

	return nil
}
