package models

import (
	"fmt"
	"time"
)

// OrderLine is one product and quantity entry of an order. Quantity and UnitPrice are fixed at order time.
type OrderLine struct {
	ID               uint64
	OrderID          uint64
	ProductID        uint64
	ProductName      string
	UnitPrice        int64
	Quantity         int
	DeliveryDate     *time.Time
	InstallationDate *time.Time
}

// LineTotal returns unit price multiplied by quantity
func (l OrderLine) LineTotal() int64 {
	return l.UnitPrice * int64(l.Quantity)
}

// Order is order aggregate. Lines, Payment and Refunds are owned by the order.
type Order struct {
	ID            uint64
	UserID        uint64
	ReceiverName  string
	ReceiverPhone string
	Zipcode       string
	Address1      string
	Address2      string
	TotalPrice    int64
	CreatedAt     time.Time
	Lines         []OrderLine
	Payment       *Payment
	Refunds       []RefundSummary
}

// OrderSummary is short order representation for order lists
type OrderSummary struct {
	ID            uint64
	TotalPrice    int64
	CreatedAt     time.Time
	TotalQuantity int
	ProductNames  []string
}

// ShipTo copies receiver and address fields to order
func (o *Order) ShipTo(addr Address) {
	o.ReceiverName = addr.ReceiverName
	o.ReceiverPhone = addr.ReceiverPhone
	o.Zipcode = addr.Zipcode
	o.Address1 = addr.Address1
	o.Address2 = addr.Address2
}

// AddLine appends new line for product, snapshotting product price.
func (o *Order) AddLine(product Product, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("%w: productId=%d", ErrInvalidQuantity, product.ID)
	}

	o.Lines = append(o.Lines, OrderLine{
		OrderID:     o.ID,
		ProductID:   product.ID,
		ProductName: product.Name,
		UnitPrice:   product.Price,
		Quantity:    quantity,
	})
	o.TotalPrice = o.CalculateTotalPrice()

	return nil
}

// CalculateTotalPrice sums line totals
func (o *Order) CalculateTotalPrice() int64 {
	var total int64
	for _, l := range o.Lines {
		total += l.LineTotal()
	}
	return total
}

// Line returns order line by id
func (o *Order) Line(id uint64) (*OrderLine, bool) {
	for i := range o.Lines {
		if o.Lines[i].ID == id {
			return &o.Lines[i], true
		}
	}
	return nil, false
}

// CheckCancelable reports whether the order may be cancelled on the given day.
// An order with any refund can not be cancelled, and every line must either have
// no delivery date or a delivery date after today.
func (o *Order) CheckCancelable(now time.Time) error {
	if len(o.Refunds) > 0 {
		return fmt.Errorf("%w: orderId=%d", ErrRefundHistoryExists, o.ID)
	}

	today := dateOf(now)
	for _, l := range o.Lines {
		if l.DeliveryDate == nil {
			continue
		}
		if !dateOf(*l.DeliveryDate).After(today) {
			return fmt.Errorf("%w: orderItemId=%d", ErrShippingStarted, l.ID)
		}
	}

	return nil
}

// Summary returns order summary
func (o *Order) Summary() OrderSummary {
	s := OrderSummary{
		ID:           o.ID,
		TotalPrice:   o.TotalPrice,
		CreatedAt:    o.CreatedAt,
		ProductNames: []string{},
	}

	seen := make(map[string]struct{}, len(o.Lines))
	for _, l := range o.Lines {
		s.TotalQuantity += l.Quantity
		if _, ok := seen[l.ProductName]; ok {
			continue
		}
		seen[l.ProductName] = struct{}{}
		s.ProductNames = append(s.ProductNames, l.ProductName)
	}

	return s
}

// dateOf returns UTC calendar date of t
func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// OrderItemRequest is requested product and quantity
type OrderItemRequest struct {
	ProductID uint64
	Quantity  int
}

// CreateOrderRequest is order creation input.
// Shipping is taken from inline fields, from AddressID or from user default address.
// Payment method is taken from PaymentMethodID, from PaymentMethodType or from user default payment method.
type CreateOrderRequest struct {
	ReceiverName      string
	ReceiverPhone     string
	Zipcode           string
	Address1          string
	Address2          string
	AddressID         *uint64
	PaymentMethodType string
	PaymentMethodID   *uint64
	Items             []OrderItemRequest
}

// HasInlineAddress reports whether shipping fields are given in request
func (r *CreateOrderRequest) HasInlineAddress() bool {
	return r.Zipcode != "" && r.Address1 != ""
}

// InlineAddress returns shipping fields of request as address
func (r *CreateOrderRequest) InlineAddress() Address {
	return Address{
		ReceiverName:  r.ReceiverName,
		ReceiverPhone: r.ReceiverPhone,
		Zipcode:       r.Zipcode,
		Address1:      r.Address1,
		Address2:      r.Address2,
	}
}

// LineSchedule is delivery and installation dates of order line
type LineSchedule struct {
	DeliveryDate     *time.Time
	InstallationDate *time.Time
}
