package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/phedde/luhn-algorithm"
	"github.com/rookgm/fmmall/internal/models"
)

// PaymentMethodRepository is interface for interacting with payment methods
type PaymentMethodRepository interface {
	// CreatePaymentMethod inserts new payment method
	CreatePaymentMethod(ctx context.Context, pm *models.PaymentMethod) (*models.PaymentMethod, error)
	// GetPaymentMethodsByUserID returns user payment methods
	GetPaymentMethodsByUserID(ctx context.Context, userID uint64) ([]models.PaymentMethod, error)
}

// PaymentMethodService implements PaymentMethodService interface
type PaymentMethodService struct {
	tx   Transactor
	repo PaymentMethodRepository
}

// NewPaymentMethodService creates new PaymentMethodService instance
func NewPaymentMethodService(tx Transactor, repo PaymentMethodRepository) *PaymentMethodService {
	return &PaymentMethodService{
		tx:   tx,
		repo: repo,
	}
}

// RegisterPaymentMethodRequest is payment method registration input
type RegisterPaymentMethodRequest struct {
	UserID     uint64
	Type       string
	CardNumber string
	IsDefault  bool
}

// RegisterPaymentMethod adds payment method of user. The first method becomes default.
// Card numbers are checked with Luhn algorithm and only last four digits are stored.
func (ps *PaymentMethodService) RegisterPaymentMethod(ctx context.Context, req *RegisterPaymentMethodRequest) (created *models.PaymentMethod, err error) {
	methodType, err := models.ParsePaymentMethodType(req.Type)
	if err != nil {
		return nil, err
	}

	pm := &models.PaymentMethod{
		UserID:    req.UserID,
		Type:      methodType,
		IsDefault: req.IsDefault,
	}

	if methodType == models.PaymentMethodCard {
		last4, err := checkCardNumber(req.CardNumber)
		if err != nil {
			return nil, err
		}
		pm.CardLast4 = last4
	}

	err = ps.tx.WithTx(ctx, func(ctx context.Context) error {
		methods, err := ps.repo.GetPaymentMethodsByUserID(ctx, pm.UserID)
		if err != nil {
			return err
		}
		if len(methods) == 0 {
			pm.IsDefault = true
		}

		created, err = ps.repo.CreatePaymentMethod(ctx, pm)
		return err
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// GetPaymentMethods returns user payment methods
func (ps *PaymentMethodService) GetPaymentMethods(ctx context.Context, userID uint64) ([]models.PaymentMethod, error) {
	return ps.repo.GetPaymentMethodsByUserID(ctx, userID)
}

// checkCardNumber validates card number and returns its last four digits
func checkCardNumber(number string) (string, error) {
	digits := strings.ReplaceAll(strings.ReplaceAll(number, " ", ""), "-", "")
	if len(digits) < 12 || len(digits) > 18 {
		return "", models.ErrInvalidCardNumber
	}

	num, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return "", models.ErrInvalidCardNumber
	}

	// check card number using Luhn algorithm
	if ok := luhn.IsValid(num); !ok {
		return "", models.ErrInvalidCardNumber
	}

	return digits[len(digits)-4:], nil
}
