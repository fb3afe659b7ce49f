package models

import "time"

// PaymentMethodType is kind of payment instrument
type PaymentMethodType string

const (
	PaymentMethodCard         PaymentMethodType = "CARD"
	PaymentMethodBankTransfer PaymentMethodType = "BANK_TRANSFER"
	PaymentMethodEasyPay      PaymentMethodType = "EASY_PAY"
)

// ParsePaymentMethodType converts string to PaymentMethodType
func ParsePaymentMethodType(s string) (PaymentMethodType, error) {
	switch t := PaymentMethodType(s); t {
	case PaymentMethodCard, PaymentMethodBankTransfer, PaymentMethodEasyPay:
		return t, nil
	}
	return "", ErrInvalidPaymentType
}

// PaymentMethod is user payment instrument
type PaymentMethod struct {
	ID         uint64
	UserID     uint64
	Type       PaymentMethodType
	CardLast4  string
	IsDefault  bool
	RegisterAt time.Time
}

// Payment is the charge of an order
type Payment struct {
	ID                uint64
	OrderID           uint64
	PaymentMethodType PaymentMethodType
	PaidAt            time.Time
}
