package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/rookgm/fmmall/internal/models"
)

type OrderService interface {
	// CreateOrder reserves stock and creates order with payment
	CreateOrder(ctx context.Context, userID uint64, req *models.CreateOrderRequest) (*models.Order, error)
	// CancelOrder restores stock and deletes order
	CancelOrder(ctx context.Context, orderID, userID uint64) error
	// GetOrders returns summaries of user orders
	GetOrders(ctx context.Context, userID uint64) ([]models.OrderSummary, error)
	// GetOrder returns order of user
	GetOrder(ctx context.Context, orderID, userID uint64) (*models.Order, error)
	// GetOrdersByProduct returns user orders containing product
	GetOrdersByProduct(ctx context.Context, userID, productID uint64) ([]models.Order, error)
	// GetOrderByOrderItem returns user order owning order line
	GetOrderByOrderItem(ctx context.Context, orderItemID, userID uint64) (*models.Order, error)
	// ScheduleOrderItem sets delivery and installation dates of order line
	ScheduleOrderItem(ctx context.Context, orderItemID uint64, schedule models.LineSchedule) (*models.Order, error)
}

// OrderHandler represents HTTP handler for order-related requests
type OrderHandler struct {
	svc OrderService
}

// NewOrderHandler creates new OrderHandler instance
func NewOrderHandler(svc OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

type orderItemReq struct {
	ProductID uint64 `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type createOrderReq struct {
	ReceiverName      string         `json:"receiverName"`
	ReceiverPhone     string         `json:"receiverPhone"`
	Zipcode           string         `json:"zipcode"`
	Address1          string         `json:"address1"`
	Address2          string         `json:"address2"`
	AddressID         *uint64        `json:"addressId"`
	PaymentMethodType string         `json:"paymentMethodType"`
	PaymentMethodID   *uint64        `json:"paymentMethodId"`
	Items             []orderItemReq `json:"items"`
}

func (req createOrderReq) toModel() *models.CreateOrderRequest {
	m := &models.CreateOrderRequest{
		ReceiverName:      req.ReceiverName,
		ReceiverPhone:     req.ReceiverPhone,
		Zipcode:           req.Zipcode,
		Address1:          req.Address1,
		Address2:          req.Address2,
		AddressID:         req.AddressID,
		PaymentMethodType: req.PaymentMethodType,
		PaymentMethodID:   req.PaymentMethodID,
		Items:             make([]models.OrderItemRequest, 0, len(req.Items)),
	}
	for _, item := range req.Items {
		m.Items = append(m.Items, models.OrderItemRequest{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}
	return m
}

type scheduleReq struct {
	DeliveryDate     *string `json:"deliveryDate"`
	InstallationDate *string `json:"installationDate"`
}

// CreateOrder creates user order
// 201 — order created;
// 400 — bad request, empty items or invalid quantity;
// 401 — user is not authenticated;
// 403 — address or payment method belongs to another user;
// 404 — user, product, address or payment method not found;
// 409 — insufficient stock;
// 500 — internal error.
func (oh *OrderHandler) CreateOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, ok := getAuthPayload(r.Context(), authPayloadKey)
		if !ok {
			writeErrorMessage(w, r, http.StatusUnauthorized, "unauthorized")
			return
		}

		var req createOrderReq
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			writeErrorMessage(w, r, http.StatusBadRequest, "bad request")
			return
		}
		defer r.Body.Close()

		order, err := oh.svc.CreateOrder(r.Context(), payload.UserID, req.toModel())
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, r, http.StatusCreated, newOrderResp(order))
	}
}

// ListUserOrders returns summaries of user orders
// 200 — success;
// 401 — user is not authenticated;
// 500 — internal error.
func (oh *OrderHandler) ListUserOrders() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, ok := getAuthPayload(r.Context(), authPayloadKey)
		if !ok {
			writeErrorMessage(w, r, http.StatusUnauthorized, "unauthorized")
			return
		}

		orders, err := oh.svc.GetOrders(r.Context(), payload.UserID)
		if err != nil {
			writeError(w, r, err)
			return
		}

		resp := make([]ListOrdersResp, 0, len(orders))
		for _, o := range orders {
			resp = append(resp, ListOrdersResp{
				ID:            o.ID,
				TotalPrice:    o.TotalPrice,
				CreatedAt:     o.CreatedAt.Format(time.RFC3339),
				TotalQuantity: o.TotalQuantity,
				ProductNames:  o.ProductNames,
			})
		}

		writeJSON(w, r, http.StatusOK, resp)
	}
}

// GetUserOrder returns order detail
// 200 — success;
// 400 — invalid order id;
// 401 — user is not authenticated;
// 403 — order belongs to another user;
// 404 — order not found;
// 500 — internal error.
func (oh *OrderHandler) GetUserOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, ok := getAuthPayload(r.Context(), authPayloadKey)
		if !ok {
			writeErrorMessage(w, r, http.StatusUnauthorized, "unauthorized")
			return
		}

		orderID, ok := urlParamID(r, "orderId")
		if !ok {
			writeErrorMessage(w, r, http.StatusBadRequest, "invalid order id")
			return
		}

		order, err := oh.svc.GetOrder(r.Context(), orderID, payload.UserID)
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, r, http.StatusOK, newOrderResp(order))
	}
}

// ListOrdersByProduct returns user orders containing product
func (oh *OrderHandler) ListOrdersByProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, ok := getAuthPayload(r.Context(), authPayloadKey)
		if !ok {
			writeErrorMessage(w, r, http.StatusUnauthorized, "unauthorized")
			return
		}

		productID, ok := urlParamID(r, "productId")
		if !ok {
			writeErrorMessage(w, r, http.StatusBadRequest, "invalid product id")
			return
		}

		orders, err := oh.svc.GetOrdersByProduct(r.Context(), payload.UserID, productID)
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, r, http.StatusOK, newOrderResps(orders))
	}
}

// GetOrderByOrderItem returns order owning order line
func (oh *OrderHandler) GetOrderByOrderItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, ok := getAuthPayload(r.Context(), authPayloadKey)
		if !ok {
			writeErrorMessage(w, r, http.StatusUnauthorized, "unauthorized")
			return
		}

		orderItemID, ok := urlParamID(r, "orderItemId")
		if !ok {
			writeErrorMessage(w, r, http.StatusBadRequest, "invalid order item id")
			return
		}

		order, err := oh.svc.GetOrderByOrderItem(r.Context(), orderItemID, payload.UserID)
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, r, http.StatusOK, newOrderResp(order))
	}
}

// CancelUserOrder cancels order
// 204 — order cancelled;
// 400 — invalid order id;
// 401 — user is not authenticated;
// 403 — order belongs to another user;
// 404 — order not found;
// 409 — order has refunds or shipping already started;
// 500 — internal error.
func (oh *OrderHandler) CancelUserOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, ok := getAuthPayload(r.Context(), authPayloadKey)
		if !ok {
			writeErrorMessage(w, r, http.StatusUnauthorized, "unauthorized")
			return
		}

		orderID, ok := urlParamID(r, "orderId")
		if !ok {
			writeErrorMessage(w, r, http.StatusBadRequest, "invalid order id")
			return
		}

		if err := oh.svc.CancelOrder(r.Context(), orderID, payload.UserID); err != nil {
			writeError(w, r, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// ScheduleOrderItem sets delivery and installation dates of order line, admin only
func (oh *OrderHandler) ScheduleOrderItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderItemID, ok := urlParamID(r, "orderItemId")
		if !ok {
			writeErrorMessage(w, r, http.StatusBadRequest, "invalid order item id")
			return
		}

		var req scheduleReq
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			writeErrorMessage(w, r, http.StatusBadRequest, "bad request")
			return
		}
		defer r.Body.Close()

		delivery, err := parseDate(req.DeliveryDate)
		if err != nil {
			writeErrorMessage(w, r, http.StatusBadRequest, "invalid delivery date")
			return
		}
		installation, err := parseDate(req.InstallationDate)
		if err != nil {
			writeErrorMessage(w, r, http.StatusBadRequest, "invalid installation date")
			return
		}

		order, err := oh.svc.ScheduleOrderItem(r.Context(), orderItemID, models.LineSchedule{
			DeliveryDate:     delivery,
			InstallationDate: installation,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, r, http.StatusOK, newOrderResp(order))
	}
}
