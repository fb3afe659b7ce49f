package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/go-cmp/cmp"
	"github.com/rookgm/fmmall/internal/models"
	"github.com/rookgm/fmmall/internal/service/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderMocks struct {
	orders         *mocks.MockOrderRepository
	inventory      *mocks.MockInventoryLedger
	users          *mocks.MockUserRepository
	addresses      *mocks.MockAddressReader
	paymentMethods *mocks.MockPaymentMethodReader
	events         *mocks.MockEventWriter
}

func newOrderService(t *testing.T) (*OrderService, *orderMocks) {
	ctrl := gomock.NewController(t)

	m := &orderMocks{
		orders:         mocks.NewMockOrderRepository(ctrl),
		inventory:      mocks.NewMockInventoryLedger(ctrl),
		users:          mocks.NewMockUserRepository(ctrl),
		addresses:      mocks.NewMockAddressReader(ctrl),
		paymentMethods: mocks.NewMockPaymentMethodReader(ctrl),
		events:         mocks.NewMockEventWriter(ctrl),
	}

	svc := NewOrderService(OrderDeps{
		Tx:             &txStub{},
		Orders:         m.orders,
		Inventory:      m.inventory,
		Users:          m.users,
		Addresses:      m.addresses,
		PaymentMethods: m.paymentMethods,
		Events:         m.events,
		Metrics:        newTestMetrics(),
	})

	return svc, m
}

func inlineOrderRequest(items ...models.OrderItemRequest) *models.CreateOrderRequest {
	return &models.CreateOrderRequest{
		ReceiverName:      "Kim",
		ReceiverPhone:     "010-1234-5678",
		Zipcode:           "04524",
		Address1:          "Seoul",
		PaymentMethodType: "CARD",
		Items:             items,
	}
}

func TestOrderService_CreateOrder(t *testing.T) {
	user := &models.User{ID: 1, Login: "kim", Role: models.RoleUser}
	tv := &models.Product{ID: 1, Name: "TV", Price: 100, StockQuantity: 10}
	sofa := &models.Product{ID: 2, Name: "Sofa", Price: 300, StockQuantity: 1}
	otherAddressID := uint64(9)

	tests := []struct {
		name      string
		req       *models.CreateOrderRequest
		setup     func(m *orderMocks)
		wantTotal int64
		wantErr   error
	}{
		{
			name: "single_line_inline_address",
			req:  inlineOrderRequest(models.OrderItemRequest{ProductID: 1, Quantity: 5}),
			setup: func(m *orderMocks) {
				m.users.EXPECT().GetUserByID(inTx(), uint64(1)).Return(user, nil)
				m.inventory.EXPECT().GetProductForUpdate(inTx(), uint64(1)).Return(tv, nil)
				m.inventory.EXPECT().DecrementStock(inTx(), uint64(1), 5).Return(nil)
				m.orders.EXPECT().CreateOrder(inTx(), gomock.Any()).DoAndReturn(func(_ context.Context, o *models.Order) (*models.Order, error) {
					o.ID = 100
					for i := range o.Lines {
						o.Lines[i].ID = uint64(i + 1)
						o.Lines[i].OrderID = o.ID
					}
					return o, nil
				})
				m.orders.EXPECT().CreatePayment(inTx(), &models.Payment{OrderID: 100, PaymentMethodType: models.PaymentMethodCard}).
					DoAndReturn(func(_ context.Context, p *models.Payment) (*models.Payment, error) {
						p.ID = 7
						return p, nil
					})
				m.events.EXPECT().InsertEvent(inTx(), gomock.Any()).Return(nil)
			},
			wantTotal: 500,
		},
		{
			name: "default_address_and_payment_method",
			req: &models.CreateOrderRequest{
				Items: []models.OrderItemRequest{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 1}},
			},
			setup: func(m *orderMocks) {
				m.users.EXPECT().GetUserByID(inTx(), uint64(1)).Return(user, nil)
				m.addresses.EXPECT().GetDefaultAddress(inTx(), uint64(1)).Return(&models.Address{
					ID: 3, UserID: 1, ReceiverName: "Kim", Zipcode: "04524", Address1: "Seoul", IsDefault: true,
				}, nil)
				m.inventory.EXPECT().GetProductForUpdate(inTx(), uint64(1)).Return(tv, nil)
				m.inventory.EXPECT().DecrementStock(inTx(), uint64(1), 2).Return(nil)
				m.inventory.EXPECT().GetProductForUpdate(inTx(), uint64(2)).Return(sofa, nil)
				m.inventory.EXPECT().DecrementStock(inTx(), uint64(2), 1).Return(nil)
				m.orders.EXPECT().CreateOrder(inTx(), gomock.Any()).DoAndReturn(func(_ context.Context, o *models.Order) (*models.Order, error) {
					o.ID = 101
					return o, nil
				})
				m.paymentMethods.EXPECT().GetDefaultPaymentMethod(inTx(), uint64(1)).Return(&models.PaymentMethod{
					ID: 4, UserID: 1, Type: models.PaymentMethodEasyPay, IsDefault: true,
				}, nil)
				m.orders.EXPECT().CreatePayment(inTx(), gomock.Any()).DoAndReturn(func(_ context.Context, p *models.Payment) (*models.Payment, error) {
					p.ID = 8
					return p, nil
				})
				m.events.EXPECT().InsertEvent(inTx(), gomock.Any()).Return(nil)
			},
			wantTotal: 500,
		},
		{
			name: "user_not_found",
			req:  inlineOrderRequest(models.OrderItemRequest{ProductID: 1, Quantity: 1}),
			setup: func(m *orderMocks) {
				m.users.EXPECT().GetUserByID(inTx(), uint64(1)).Return(nil, models.ErrUserNotFound)
			},
			wantErr: models.ErrNotFound,
		},
		{
			name: "empty_items",
			req:  inlineOrderRequest(),
			setup: func(m *orderMocks) {
				m.users.EXPECT().GetUserByID(inTx(), uint64(1)).Return(user, nil)
			},
			wantErr: models.ErrEmptyItems,
		},
		{
			name: "address_of_another_user",
			req: &models.CreateOrderRequest{
				AddressID: &otherAddressID,
				Items:     []models.OrderItemRequest{{ProductID: 1, Quantity: 1}},
			},
			setup: func(m *orderMocks) {
				m.users.EXPECT().GetUserByID(inTx(), uint64(1)).Return(user, nil)
				m.addresses.EXPECT().GetAddress(inTx(), otherAddressID).Return(&models.Address{ID: otherAddressID, UserID: 2}, nil)
			},
			wantErr: models.ErrForbidden,
		},
		{
			name: "no_default_address",
			req:  &models.CreateOrderRequest{Items: []models.OrderItemRequest{{ProductID: 1, Quantity: 1}}},
			setup: func(m *orderMocks) {
				m.users.EXPECT().GetUserByID(inTx(), uint64(1)).Return(user, nil)
				m.addresses.EXPECT().GetDefaultAddress(inTx(), uint64(1)).Return(nil, models.ErrAddressNotFound)
			},
			wantErr: models.ErrNoDefaultAddress,
		},
		{
			name: "product_not_found",
			req:  inlineOrderRequest(models.OrderItemRequest{ProductID: 5, Quantity: 1}),
			setup: func(m *orderMocks) {
				m.users.EXPECT().GetUserByID(inTx(), uint64(1)).Return(user, nil)
				m.inventory.EXPECT().GetProductForUpdate(inTx(), uint64(5)).Return(nil, models.ErrProductNotFound)
			},
			wantErr: models.ErrProductNotFound,
		},
		{
			name: "zero_quantity",
			req:  inlineOrderRequest(models.OrderItemRequest{ProductID: 1, Quantity: 0}),
			setup: func(m *orderMocks) {
				m.users.EXPECT().GetUserByID(inTx(), uint64(1)).Return(user, nil)
				m.inventory.EXPECT().GetProductForUpdate(inTx(), uint64(1)).Return(tv, nil)
			},
			wantErr: models.ErrInvalidQuantity,
		},
		{
			name: "insufficient_stock_on_second_line",
			req: inlineOrderRequest(
				models.OrderItemRequest{ProductID: 1, Quantity: 2},
				models.OrderItemRequest{ProductID: 2, Quantity: 2},
			),
			setup: func(m *orderMocks) {
				m.users.EXPECT().GetUserByID(inTx(), uint64(1)).Return(user, nil)
				m.inventory.EXPECT().GetProductForUpdate(inTx(), uint64(1)).Return(tv, nil)
				m.inventory.EXPECT().DecrementStock(inTx(), uint64(1), 2).Return(nil)
				m.inventory.EXPECT().GetProductForUpdate(inTx(), uint64(2)).Return(sofa, nil)
			},
			wantErr: models.ErrInsufficientStock,
		},
		{
			name: "invalid_payment_type",
			req: &models.CreateOrderRequest{
				Zipcode:           "04524",
				Address1:          "Seoul",
				PaymentMethodType: "CASH",
				Items:             []models.OrderItemRequest{{ProductID: 1, Quantity: 1}},
			},
			setup: func(m *orderMocks) {
				m.users.EXPECT().GetUserByID(inTx(), uint64(1)).Return(user, nil)
				m.inventory.EXPECT().GetProductForUpdate(inTx(), uint64(1)).Return(tv, nil)
				m.inventory.EXPECT().DecrementStock(inTx(), uint64(1), 1).Return(nil)
				m.orders.EXPECT().CreateOrder(inTx(), gomock.Any()).DoAndReturn(func(_ context.Context, o *models.Order) (*models.Order, error) {
					return o, nil
				})
			},
			wantErr: models.ErrInvalidPaymentType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newOrderService(t)
			tt.setup(m)

			order, err := svc.CreateOrder(context.Background(), 1, tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, order)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, order.TotalPrice)
			assert.Equal(t, order.CalculateTotalPrice(), order.TotalPrice)
			require.NotNil(t, order.Payment)
			assert.Empty(t, order.Refunds)
		})
	}
}

func TestOrderService_CreateOrderInsufficientStockDetails(t *testing.T) {
	svc, m := newOrderService(t)

	m.users.EXPECT().GetUserByID(inTx(), uint64(1)).Return(&models.User{ID: 1}, nil)
	m.inventory.EXPECT().GetProductForUpdate(inTx(), uint64(3)).Return(&models.Product{ID: 3, Price: 10, StockQuantity: 4}, nil)

	_, err := svc.CreateOrder(context.Background(), 1, inlineOrderRequest(models.OrderItemRequest{ProductID: 3, Quantity: 6}))

	var stockErr *models.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, uint64(3), stockErr.ProductID)
	assert.Equal(t, 4, stockErr.Stock)
	assert.Equal(t, 6, stockErr.Requested)
}

func TestOrderService_CancelOrder(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	today := now
	tomorrow := now.AddDate(0, 0, 1)

	newOrder := func() *models.Order {
		return &models.Order{
			ID:     100,
			UserID: 1,
			Lines: []models.OrderLine{
				{ID: 1, OrderID: 100, ProductID: 1, UnitPrice: 100, Quantity: 2},
				{ID: 2, OrderID: 100, ProductID: 2, UnitPrice: 300, Quantity: 1, DeliveryDate: &tomorrow},
			},
			Payment: &models.Payment{ID: 7, OrderID: 100, PaymentMethodType: models.PaymentMethodCard},
			Refunds: []models.RefundSummary{},
		}
	}

	tests := []struct {
		name    string
		userID  uint64
		setup   func(m *orderMocks)
		wantErr error
	}{
		{
			name:   "cancel_restores_stock",
			userID: 1,
			setup: func(m *orderMocks) {
				m.orders.EXPECT().LockOrder(inTx(), uint64(100)).Return(nil)
				m.orders.EXPECT().GetOrder(inTx(), uint64(100)).Return(newOrder(), nil)
				m.inventory.EXPECT().IncrementStock(inTx(), uint64(1), 2).Return(nil)
				m.inventory.EXPECT().IncrementStock(inTx(), uint64(2), 1).Return(nil)
				m.orders.EXPECT().DeletePayment(inTx(), uint64(7)).Return(nil)
				m.orders.EXPECT().DeleteOrder(inTx(), uint64(100)).Return(nil)
				m.events.EXPECT().InsertEvent(inTx(), gomock.Any()).Return(nil)
			},
		},
		{
			name:   "order_not_found",
			userID: 1,
			setup: func(m *orderMocks) {
				m.orders.EXPECT().LockOrder(inTx(), uint64(100)).Return(models.ErrOrderNotFound)
			},
			wantErr: models.ErrNotFound,
		},
		{
			name:   "not_owner",
			userID: 2,
			setup: func(m *orderMocks) {
				m.orders.EXPECT().LockOrder(inTx(), uint64(100)).Return(nil)
				m.orders.EXPECT().GetOrder(inTx(), uint64(100)).Return(newOrder(), nil)
			},
			wantErr: models.ErrForbidden,
		},
		{
			name:   "refund_history",
			userID: 1,
			setup: func(m *orderMocks) {
				o := newOrder()
				o.Refunds = []models.RefundSummary{{ID: 5, RefundType: models.RefundTypePartial}}
				m.orders.EXPECT().LockOrder(inTx(), uint64(100)).Return(nil)
				m.orders.EXPECT().GetOrder(inTx(), uint64(100)).Return(o, nil)
			},
			wantErr: models.ErrRefundHistoryExists,
		},
		{
			name:   "shipping_started",
			userID: 1,
			setup: func(m *orderMocks) {
				o := newOrder()
				o.Lines[0].DeliveryDate = &today
				m.orders.EXPECT().LockOrder(inTx(), uint64(100)).Return(nil)
				m.orders.EXPECT().GetOrder(inTx(), uint64(100)).Return(o, nil)
			},
			wantErr: models.ErrShippingStarted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newOrderService(t)
			svc.now = func() time.Time { return now }
			tt.setup(m)

			err := svc.CancelOrder(context.Background(), 100, tt.userID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestOrderService_GetOrders(t *testing.T) {
	created := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	svc, m := newOrderService(t)

	m.orders.EXPECT().GetOrdersByUserID(gomock.Any(), uint64(1)).Return([]models.Order{
		{
			ID:         100,
			UserID:     1,
			TotalPrice: 500,
			CreatedAt:  created,
			Lines: []models.OrderLine{
				{ID: 1, ProductName: "TV", UnitPrice: 100, Quantity: 2},
				{ID: 2, ProductName: "Lamp", UnitPrice: 100, Quantity: 3},
			},
		},
	}, nil)

	got, err := svc.GetOrders(context.Background(), 1)
	require.NoError(t, err)

	want := []models.OrderSummary{{
		ID:            100,
		TotalPrice:    500,
		CreatedAt:     created,
		TotalQuantity: 5,
		ProductNames:  []string{"TV", "Lamp"},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestOrderService_GetOrder(t *testing.T) {
	tests := []struct {
		name    string
		userID  uint64
		wantErr error
	}{
		{name: "owner", userID: 1},
		{name: "another_user", userID: 2, wantErr: models.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newOrderService(t)
			m.orders.EXPECT().GetOrder(gomock.Any(), uint64(100)).Return(&models.Order{ID: 100, UserID: 1}, nil)

			order, err := svc.GetOrder(context.Background(), 100, tt.userID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, order)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, uint64(100), order.ID)
		})
	}
}

func TestOrderService_ScheduleOrderItem(t *testing.T) {
	svc, m := newOrderService(t)
	delivery := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	schedule := models.LineSchedule{DeliveryDate: &delivery}

	m.orders.EXPECT().GetOrderItem(inTx(), uint64(1)).Return(&models.OrderLine{ID: 1, OrderID: 100}, nil)
	m.orders.EXPECT().UpdateOrderItemSchedule(inTx(), uint64(1), schedule).Return(nil)
	m.orders.EXPECT().GetOrder(inTx(), uint64(100)).Return(&models.Order{
		ID:    100,
		Lines: []models.OrderLine{{ID: 1, OrderID: 100, DeliveryDate: &delivery}},
	}, nil)

	order, err := svc.ScheduleOrderItem(context.Background(), 1, schedule)
	require.NoError(t, err)
	assert.Equal(t, &delivery, order.Lines[0].DeliveryDate)
}

// stagedLedger keeps stock changes of running transaction apart until commit
type stagedLedger struct {
	stock   map[uint64]int
	pending map[uint64]int
	prices  map[uint64]int64
}

func newStagedLedger(stock map[uint64]int, prices map[uint64]int64) *stagedLedger {
	return &stagedLedger{stock: stock, pending: map[uint64]int{}, prices: prices}
}

func (l *stagedLedger) GetProductForUpdate(ctx context.Context, id uint64) (*models.Product, error) {
	if !inTx().Matches(ctx) {
		return nil, errors.New("product read outside transaction")
	}
	stock, ok := l.stock[id]
	if !ok {
		return nil, models.ErrProductNotFound
	}
	return &models.Product{ID: id, Price: l.prices[id], StockQuantity: stock + l.pending[id]}, nil
}

func (l *stagedLedger) DecrementStock(ctx context.Context, productID uint64, quantity int) error {
	return l.IncrementStock(ctx, productID, -quantity)
}

func (l *stagedLedger) IncrementStock(ctx context.Context, productID uint64, quantity int) error {
	if !inTx().Matches(ctx) {
		return errors.New("stock changed outside transaction")
	}
	l.pending[productID] += quantity
	return nil
}

func (l *stagedLedger) commit() {
	for id, delta := range l.pending {
		l.stock[id] += delta
	}
	l.pending = map[uint64]int{}
}

func (l *stagedLedger) rollback() {
	l.pending = map[uint64]int{}
}

func TestOrderService_CreateOrderStockAtomicity(t *testing.T) {
	tests := []struct {
		name      string
		items     []models.OrderItemRequest
		wantErr   error
		wantStock map[uint64]int
	}{
		{
			name:      "all_lines_reserved",
			items:     []models.OrderItemRequest{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 1}},
			wantStock: map[uint64]int{1: 8, 2: 0},
		},
		{
			name:      "second_line_short_keeps_first_line_stock",
			items:     []models.OrderItemRequest{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 2}},
			wantErr:   models.ErrInsufficientStock,
			wantStock: map[uint64]int{1: 10, 2: 1},
		},
		{
			name:      "unknown_product_keeps_stock",
			items:     []models.OrderItemRequest{{ProductID: 1, Quantity: 3}, {ProductID: 9, Quantity: 1}},
			wantErr:   models.ErrProductNotFound,
			wantStock: map[uint64]int{1: 10, 2: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			ledger := newStagedLedger(map[uint64]int{1: 10, 2: 1}, map[uint64]int64{1: 100, 2: 300})
			tx := &txStub{onCommit: ledger.commit, onRollback: ledger.rollback}

			users := mocks.NewMockUserRepository(ctrl)
			users.EXPECT().GetUserByID(inTx(), uint64(1)).Return(&models.User{ID: 1}, nil)

			orders := mocks.NewMockOrderRepository(ctrl)
			events := mocks.NewMockEventWriter(ctrl)
			if tt.wantErr == nil {
				orders.EXPECT().CreateOrder(inTx(), gomock.Any()).DoAndReturn(func(_ context.Context, o *models.Order) (*models.Order, error) {
					o.ID = 100
					return o, nil
				})
				orders.EXPECT().CreatePayment(inTx(), gomock.Any()).DoAndReturn(func(_ context.Context, p *models.Payment) (*models.Payment, error) {
					p.ID = 7
					return p, nil
				})
				events.EXPECT().InsertEvent(inTx(), gomock.Any()).Return(nil)
			}

			svc := NewOrderService(OrderDeps{
				Tx:        tx,
				Orders:    orders,
				Inventory: ledger,
				Users:     users,
				Events:    events,
				Metrics:   newTestMetrics(),
			})

			order, err := svc.CreateOrder(context.Background(), 1, inlineOrderRequest(tt.items...))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, order)
				assert.Equal(t, 1, tx.rollbacks)
				assert.Equal(t, 0, tx.commits)
			} else {
				require.NoError(t, err)
				assert.Equal(t, int64(500), order.TotalPrice)
				assert.Equal(t, 1, tx.commits)
			}

			if diff := cmp.Diff(tt.wantStock, ledger.stock); diff != "" {
				t.Errorf("stock mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOrderService_CancelOrderRestocksInTransaction(t *testing.T) {
	ctrl := gomock.NewController(t)
	ledger := newStagedLedger(map[uint64]int{1: 8}, map[uint64]int64{1: 100})
	tx := &txStub{onCommit: ledger.commit, onRollback: ledger.rollback}

	orders := mocks.NewMockOrderRepository(ctrl)
	events := mocks.NewMockEventWriter(ctrl)
	orders.EXPECT().LockOrder(inTx(), uint64(100)).Return(nil)
	orders.EXPECT().GetOrder(inTx(), uint64(100)).Return(&models.Order{
		ID:      100,
		UserID:  1,
		Lines:   []models.OrderLine{{ID: 1, OrderID: 100, ProductID: 1, UnitPrice: 100, Quantity: 2}},
		Refunds: []models.RefundSummary{},
	}, nil)
	orders.EXPECT().DeleteOrder(inTx(), uint64(100)).Return(errors.New("connection reset"))

	svc := NewOrderService(OrderDeps{
		Tx:        tx,
		Orders:    orders,
		Inventory: ledger,
		Events:    events,
		Metrics:   newTestMetrics(),
	})

	err := svc.CancelOrder(context.Background(), 100, 1)
	require.Error(t, err)
	assert.Equal(t, 1, tx.rollbacks)
	assert.Equal(t, map[uint64]int{1: 8}, ledger.stock)
}
