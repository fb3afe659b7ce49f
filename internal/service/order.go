package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rookgm/fmmall/internal/logger"
	"github.com/rookgm/fmmall/internal/metrics"
	"github.com/rookgm/fmmall/internal/models"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// OrderRepository is interface for interacting with order-related data
type OrderRepository interface {
	// CreateOrder inserts order with its lines
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	// CreatePayment inserts payment of order
	CreatePayment(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	// GetOrder returns order with lines, payment and refund summaries
	GetOrder(ctx context.Context, id uint64) (*models.Order, error)
	// LockOrder locks order row until the end of transaction
	LockOrder(ctx context.Context, id uint64) error
	// GetOrdersByUserID gets user orders
	GetOrdersByUserID(ctx context.Context, userID uint64) ([]models.Order, error)
	// GetOrdersByUserAndProduct gets user orders containing product
	GetOrdersByUserAndProduct(ctx context.Context, userID, productID uint64) ([]models.Order, error)
	// GetOrderItem returns order line by id
	GetOrderItem(ctx context.Context, id uint64) (*models.OrderLine, error)
	// UpdateOrderItemSchedule sets delivery and installation dates of order line
	UpdateOrderItemSchedule(ctx context.Context, id uint64, schedule models.LineSchedule) error
	// GetPayment returns payment by id
	GetPayment(ctx context.Context, id uint64) (*models.Payment, error)
	// DeletePayment deletes payment
	DeletePayment(ctx context.Context, id uint64) error
	// DeleteOrder deletes order with its lines
	DeleteOrder(ctx context.Context, id uint64) error
}

// InventoryLedger is interface for reading and changing product stock
type InventoryLedger interface {
	// GetProductForUpdate returns product and locks it until the end of transaction
	GetProductForUpdate(ctx context.Context, id uint64) (*models.Product, error)
	// DecrementStock decreases product stock by quantity
	DecrementStock(ctx context.Context, productID uint64, quantity int) error
	// IncrementStock increases product stock by quantity
	IncrementStock(ctx context.Context, productID uint64, quantity int) error
}

// UserReader is interface for user lookup
type UserReader interface {
	// GetUserByID returns user by id
	GetUserByID(ctx context.Context, id uint64) (*models.User, error)
}

// AddressReader is interface for address lookup
type AddressReader interface {
	// GetAddress returns address by id
	GetAddress(ctx context.Context, id uint64) (*models.Address, error)
	// GetDefaultAddress returns user default address
	GetDefaultAddress(ctx context.Context, userID uint64) (*models.Address, error)
}

// PaymentMethodReader is interface for payment method lookup
type PaymentMethodReader interface {
	// GetPaymentMethod returns payment method by id
	GetPaymentMethod(ctx context.Context, id uint64) (*models.PaymentMethod, error)
	// GetDefaultPaymentMethod returns user default payment method
	GetDefaultPaymentMethod(ctx context.Context, userID uint64) (*models.PaymentMethod, error)
}

// OrderDeps is OrderService dependencies
type OrderDeps struct {
	Tx             Transactor
	Orders         OrderRepository
	Inventory      InventoryLedger
	Users          UserReader
	Addresses      AddressReader
	PaymentMethods PaymentMethodReader
	Events         EventWriter
	Metrics        *metrics.Metrics
}

// OrderService implements OrderService interface
type OrderService struct {
	OrderDeps
	now func() time.Time
}

// NewOrderService creates new OrderService instance
func NewOrderService(deps OrderDeps) *OrderService {
	return &OrderService{
		OrderDeps: deps,
		now:       time.Now,
	}
}

type orderEvent struct {
	OrderID    uint64 `json:"order_id"`
	UserID     uint64 `json:"user_id"`
	TotalPrice int64  `json:"total_price"`
	Items      []struct {
		ProductID uint64 `json:"product_id"`
		Quantity  int    `json:"quantity"`
	} `json:"items"`
}

func newOrderEvent(order *models.Order) orderEvent {
	ev := orderEvent{
		OrderID:    order.ID,
		UserID:     order.UserID,
		TotalPrice: order.TotalPrice,
	}
	for _, l := range order.Lines {
		ev.Items = append(ev.Items, struct {
			ProductID uint64 `json:"product_id"`
			Quantity  int    `json:"quantity"`
		}{l.ProductID, l.Quantity})
	}
	return ev
}

// CreateOrder reserves stock for every requested line and stores order with its payment.
// Everything happens in one transaction, so a failed line reverts stock of previous lines.
func (os *OrderService) CreateOrder(ctx context.Context, userID uint64, req *models.CreateOrderRequest) (order *models.Order, err error) {
	ctx, span := tracer.Start(ctx, "OrderService.CreateOrder")
	span.SetAttributes(attribute.Int64("user.id", int64(userID)), attribute.Int("order.items", len(req.Items)))
	defer func() { finishSpan(span, err) }()

	err = os.Tx.WithTx(ctx, func(ctx context.Context) error {
		if _, err := os.Users.GetUserByID(ctx, userID); err != nil {
			return fmt.Errorf("%w: userId=%d", err, userID)
		}

		if len(req.Items) == 0 {
			return models.ErrEmptyItems
		}

		addr, err := os.resolveAddress(ctx, userID, req)
		if err != nil {
			return err
		}

		o := &models.Order{UserID: userID}
		o.ShipTo(*addr)

		for _, item := range req.Items {
			if err := os.reserve(ctx, o, item); err != nil {
				return err
			}
		}

		o, err = os.Orders.CreateOrder(ctx, o)
		if err != nil {
			return err
		}

		methodType, err := os.resolvePaymentMethod(ctx, userID, req)
		if err != nil {
			return err
		}

		payment, err := os.Orders.CreatePayment(ctx, &models.Payment{
			OrderID:           o.ID,
			PaymentMethodType: methodType,
		})
		if err != nil {
			return err
		}
		o.Payment = payment
		o.Refunds = []models.RefundSummary{}

		if err := publish(ctx, os.Events, models.EventOrderCreated, o.ID, newOrderEvent(o)); err != nil {
			return err
		}

		order = o
		return nil
	})
	if err != nil {
		logger.Log.Debug("create order rejected", zap.Uint64("user_id", userID), zap.Error(err))
		return nil, err
	}

	os.Metrics.OrdersCreated.Inc()
	logger.Log.Info("order created",
		zap.Uint64("order_id", order.ID),
		zap.Uint64("user_id", userID),
		zap.Int64("total_price", order.TotalPrice))

	return order, nil
}

// reserve checks requested quantity against product stock, decrements stock and adds order line
func (os *OrderService) reserve(ctx context.Context, order *models.Order, item models.OrderItemRequest) error {
	product, err := os.Inventory.GetProductForUpdate(ctx, item.ProductID)
	if err != nil {
		return fmt.Errorf("%w: productId=%d", err, item.ProductID)
	}

	if item.Quantity < 1 {
		return fmt.Errorf("%w: productId=%d", models.ErrInvalidQuantity, item.ProductID)
	}

	if item.Quantity > product.StockQuantity {
		return &models.InsufficientStockError{
			ProductID: product.ID,
			Stock:     product.StockQuantity,
			Requested: item.Quantity,
		}
	}

	if err := os.Inventory.DecrementStock(ctx, product.ID, item.Quantity); err != nil {
		if errors.Is(err, models.ErrInsufficientStock) {
			return &models.InsufficientStockError{
				ProductID: product.ID,
				Stock:     product.StockQuantity,
				Requested: item.Quantity,
			}
		}
		return err
	}

	return order.AddLine(*product, item.Quantity)
}

// resolveAddress returns address referenced by request, inline address or user default address
func (os *OrderService) resolveAddress(ctx context.Context, userID uint64, req *models.CreateOrderRequest) (*models.Address, error) {
	switch {
	case req.AddressID != nil:
		addr, err := os.Addresses.GetAddress(ctx, *req.AddressID)
		if err != nil {
			return nil, fmt.Errorf("%w: addressId=%d", err, *req.AddressID)
		}
		if addr.UserID != userID {
			return nil, fmt.Errorf("%w: addressId=%d", models.ErrNotOwner, addr.ID)
		}
		return addr, nil
	case req.HasInlineAddress():
		addr := req.InlineAddress()
		addr.UserID = userID
		return &addr, nil
	}

	addr, err := os.Addresses.GetDefaultAddress(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrAddressNotFound) {
			return nil, models.ErrNoDefaultAddress
		}
		return nil, err
	}

	return addr, nil
}

// resolvePaymentMethod returns type of payment method referenced by request, inline type or type of user default method
func (os *OrderService) resolvePaymentMethod(ctx context.Context, userID uint64, req *models.CreateOrderRequest) (models.PaymentMethodType, error) {
	switch {
	case req.PaymentMethodID != nil:
		pm, err := os.PaymentMethods.GetPaymentMethod(ctx, *req.PaymentMethodID)
		if err != nil {
			return "", fmt.Errorf("%w: paymentMethodId=%d", err, *req.PaymentMethodID)
		}
		if pm.UserID != userID {
			return "", fmt.Errorf("%w: paymentMethodId=%d", models.ErrNotOwner, pm.ID)
		}
		return pm.Type, nil
	case req.PaymentMethodType != "":
		return models.ParsePaymentMethodType(req.PaymentMethodType)
	}

	pm, err := os.PaymentMethods.GetDefaultPaymentMethod(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrPaymentMethodNotFound) {
			return "", models.ErrNoDefaultPaymentMethod
		}
		return "", err
	}

	return pm.Type, nil
}

// CancelOrder restores stock of every line and deletes order together with its payment
func (os *OrderService) CancelOrder(ctx context.Context, orderID, userID uint64) (err error) {
	ctx, span := tracer.Start(ctx, "OrderService.CancelOrder")
	span.SetAttributes(attribute.Int64("order.id", int64(orderID)), attribute.Int64("user.id", int64(userID)))
	defer func() { finishSpan(span, err) }()

	err = os.Tx.WithTx(ctx, func(ctx context.Context) error {
		if err := os.Orders.LockOrder(ctx, orderID); err != nil {
			return fmt.Errorf("%w: orderId=%d", err, orderID)
		}

		order, err := os.Orders.GetOrder(ctx, orderID)
		if err != nil {
			return fmt.Errorf("%w: orderId=%d", err, orderID)
		}

		if order.UserID != userID {
			return fmt.Errorf("%w: orderId=%d", models.ErrNotOwner, orderID)
		}

		if err := order.CheckCancelable(os.now()); err != nil {
			return err
		}

		for _, l := range order.Lines {
			if err := os.Inventory.IncrementStock(ctx, l.ProductID, l.Quantity); err != nil {
				return err
			}
		}

		if order.Payment != nil {
			if err := os.Orders.DeletePayment(ctx, order.Payment.ID); err != nil {
				return err
			}
			order.Payment = nil
		}

		if err := os.Orders.DeleteOrder(ctx, order.ID); err != nil {
			return err
		}

		return publish(ctx, os.Events, models.EventOrderCancelled, order.ID, newOrderEvent(order))
	})
	if err != nil {
		logger.Log.Debug("cancel order rejected", zap.Uint64("order_id", orderID), zap.Error(err))
		return err
	}

	os.Metrics.OrdersCancelled.Inc()
	logger.Log.Info("order cancelled", zap.Uint64("order_id", orderID), zap.Uint64("user_id", userID))

	return nil
}

// GetOrders returns summaries of user orders
func (os *OrderService) GetOrders(ctx context.Context, userID uint64) ([]models.OrderSummary, error) {
	orders, err := os.Orders.GetOrdersByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.OrderSummary, 0, len(orders))
	for i := range orders {
		summaries = append(summaries, orders[i].Summary())
	}

	return summaries, nil
}

// GetOrder returns order of user
func (os *OrderService) GetOrder(ctx context.Context, orderID, userID uint64) (*models.Order, error) {
	order, err := os.Orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: orderId=%d", err, orderID)
	}

	if order.UserID != userID {
		return nil, fmt.Errorf("%w: orderId=%d", models.ErrNotOwner, orderID)
	}

	return order, nil
}

// GetOrdersByProduct returns user orders containing product
func (os *OrderService) GetOrdersByProduct(ctx context.Context, userID, productID uint64) ([]models.Order, error) {
	return os.Orders.GetOrdersByUserAndProduct(ctx, userID, productID)
}

// GetOrderByOrderItem returns user order owning order line
func (os *OrderService) GetOrderByOrderItem(ctx context.Context, orderItemID, userID uint64) (*models.Order, error) {
	line, err := os.Orders.GetOrderItem(ctx, orderItemID)
	if err != nil {
		return nil, fmt.Errorf("%w: orderItemId=%d", err, orderItemID)
	}

	return os.GetOrder(ctx, line.OrderID, userID)
}

// ScheduleOrderItem sets delivery and installation dates of order line and returns the order
func (os *OrderService) ScheduleOrderItem(ctx context.Context, orderItemID uint64, schedule models.LineSchedule) (order *models.Order, err error) {
	ctx, span := tracer.Start(ctx, "OrderService.ScheduleOrderItem")
	span.SetAttributes(attribute.Int64("order_item.id", int64(orderItemID)))
	defer func() { finishSpan(span, err) }()

	err = os.Tx.WithTx(ctx, func(ctx context.Context) error {
		line, err := os.Orders.GetOrderItem(ctx, orderItemID)
		if err != nil {
			return fmt.Errorf("%w: orderItemId=%d", err, orderItemID)
		}

		if err := os.Orders.UpdateOrderItemSchedule(ctx, line.ID, schedule); err != nil {
			return err
		}

		order, err = os.Orders.GetOrder(ctx, line.OrderID)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info("order item scheduled", zap.Uint64("order_item_id", orderItemID))

	return order, nil
}
