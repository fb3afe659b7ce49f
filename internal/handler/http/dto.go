package handler

import (
	"time"

	"github.com/rookgm/fmmall/internal/models"
)

const dateLayout = "2006-01-02"

type OrderItemResp struct {
	ID               uint64  `json:"orderItemId"`
	ProductID        uint64  `json:"productId"`
	ProductName      string  `json:"productName"`
	UnitPrice        int64   `json:"unitPrice"`
	Quantity         int     `json:"quantity"`
	DeliveryDate     *string `json:"deliveryDate"`
	InstallationDate *string `json:"installationDate"`
}

type PaymentResp struct {
	ID                uint64 `json:"paymentId"`
	PaymentMethodType string `json:"paymentMethodType"`
	PaidAt            string `json:"paidAt"`
}

type RefundSummaryResp struct {
	ID          uint64 `json:"refundId"`
	RefundType  string `json:"refundType"`
	TotalAmount int64  `json:"totalAmount"`
	Completed   string `json:"isCompleted"`
}

type OrderResp struct {
	ID            uint64              `json:"orderId"`
	ReceiverName  string              `json:"receiverName"`
	ReceiverPhone string              `json:"receiverPhone"`
	Zipcode       string              `json:"zipcode"`
	Address1      string              `json:"address1"`
	Address2      string              `json:"address2"`
	TotalPrice    int64               `json:"totalPrice"`
	CreatedAt     string              `json:"createdAt"`
	Items         []OrderItemResp     `json:"items"`
	Payment       *PaymentResp        `json:"payment"`
	Refunds       []RefundSummaryResp `json:"refunds"`
}

type ListOrdersResp struct {
	ID            uint64   `json:"orderId"`
	TotalPrice    int64    `json:"totalPrice"`
	CreatedAt     string   `json:"createdAt"`
	TotalQuantity int      `json:"totalQuantity"`
	ProductNames  []string `json:"productNames"`
}

type RefundItemResp struct {
	ID             uint64 `json:"refundItemId"`
	OrderItemID    uint64 `json:"orderItemId"`
	RefundQuantity int    `json:"refundQuantity"`
	RefundPrice    int64  `json:"refundPrice"`
	RefundStatus   string `json:"refundStatus"`
}

type RefundResp struct {
	ID           uint64           `json:"refundId"`
	OrderID      uint64           `json:"orderId"`
	PaymentID    uint64           `json:"paymentId"`
	ReasonCode   string           `json:"reasonCode"`
	ReasonDetail string           `json:"reasonDetail"`
	RefundType   string           `json:"refundType"`
	TotalAmount  int64            `json:"totalAmount"`
	Completed    string           `json:"isCompleted"`
	CreatedAt    string           `json:"createdAt"`
	Items        []RefundItemResp `json:"items"`
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

func parseDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func newOrderResp(order *models.Order) OrderResp {
	resp := OrderResp{
		ID:            order.ID,
		ReceiverName:  order.ReceiverName,
		ReceiverPhone: order.ReceiverPhone,
		Zipcode:       order.Zipcode,
		Address1:      order.Address1,
		Address2:      order.Address2,
		TotalPrice:    order.TotalPrice,
		CreatedAt:     order.CreatedAt.Format(time.RFC3339),
		Items:         make([]OrderItemResp, 0, len(order.Lines)),
		Refunds:       make([]RefundSummaryResp, 0, len(order.Refunds)),
	}

	for _, l := range order.Lines {
		resp.Items = append(resp.Items, OrderItemResp{
			ID:               l.ID,
			ProductID:        l.ProductID,
			ProductName:      l.ProductName,
			UnitPrice:        l.UnitPrice,
			Quantity:         l.Quantity,
			DeliveryDate:     formatDate(l.DeliveryDate),
			InstallationDate: formatDate(l.InstallationDate),
		})
	}

	if order.Payment != nil {
		resp.Payment = &PaymentResp{
			ID:                order.Payment.ID,
			PaymentMethodType: string(order.Payment.PaymentMethodType),
			PaidAt:            order.Payment.PaidAt.Format(time.RFC3339),
		}
	}

	for _, rs := range order.Refunds {
		resp.Refunds = append(resp.Refunds, RefundSummaryResp{
			ID:          rs.ID,
			RefundType:  string(rs.RefundType),
			TotalAmount: rs.TotalAmount,
			Completed:   string(rs.Completed),
		})
	}

	return resp
}

func newOrderResps(orders []models.Order) []OrderResp {
	resp := make([]OrderResp, 0, len(orders))
	for i := range orders {
		resp = append(resp, newOrderResp(&orders[i]))
	}
	return resp
}

func newRefundResp(refund *models.Refund) RefundResp {
	resp := RefundResp{
		ID:           refund.ID,
		OrderID:      refund.OrderID,
		PaymentID:    refund.PaymentID,
		ReasonCode:   string(refund.ReasonCode),
		ReasonDetail: refund.ReasonDetail,
		RefundType:   string(refund.RefundType),
		TotalAmount:  refund.TotalAmount,
		Completed:    string(refund.Completed),
		CreatedAt:    refund.CreatedAt.Format(time.RFC3339),
		Items:        make([]RefundItemResp, 0, len(refund.Lines)),
	}

	for _, l := range refund.Lines {
		resp.Items = append(resp.Items, RefundItemResp{
			ID:             l.ID,
			OrderItemID:    l.OrderItemID,
			RefundQuantity: l.Quantity,
			RefundPrice:    l.Amount,
			RefundStatus:   string(l.Status),
		})
	}

	return resp
}

func newRefundResps(refunds []models.Refund) []RefundResp {
	resp := make([]RefundResp, 0, len(refunds))
	for i := range refunds {
		resp = append(resp, newRefundResp(&refunds[i]))
	}
	return resp
}
