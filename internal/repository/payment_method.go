package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/rookgm/fmmall/internal/models"
	"github.com/rookgm/fmmall/internal/repository/postgres"
)

const (
	insertPaymentMethodQuery = `
						INSERT INTO payment_methods (user_id, type, card_last4, is_default)
						VALUES ($1, $2, $3, $4)
						RETURNING id, register_at
`
	clearDefaultPaymentMethodQuery = `
						UPDATE payment_methods SET is_default = FALSE
						WHERE user_id = $1 AND is_default
`
	selectPaymentMethodQuery = `
						SELECT id, user_id, type, card_last4, is_default, register_at FROM payment_methods
						WHERE id = $1
`
	selectDefaultPaymentMethodQuery = `
						SELECT id, user_id, type, card_last4, is_default, register_at FROM payment_methods
						WHERE user_id = $1 AND is_default
`
	selectPaymentMethodsByUserIDQuery = `
						SELECT id, user_id, type, card_last4, is_default, register_at FROM payment_methods
						WHERE user_id = $1
						ORDER BY id
`
)

// PaymentMethodRepository implements PaymentMethodRepository interface
type PaymentMethodRepository struct {
	db *postgres.DB
}

// NewPaymentMethodRepository creates new PaymentMethodRepository instance
func NewPaymentMethodRepository(db *postgres.DB) *PaymentMethodRepository {
	return &PaymentMethodRepository{db: db}
}

// CreatePaymentMethod inserts new payment method. New default method replaces previous one.
func (pr *PaymentMethodRepository) CreatePaymentMethod(ctx context.Context, pm *models.PaymentMethod) (*models.PaymentMethod, error) {
	if pm.IsDefault {
		if _, err := pr.db.Exec(ctx, clearDefaultPaymentMethodQuery, pm.UserID); err != nil {
			return nil, err
		}
	}

	err := pr.db.QueryRow(ctx, insertPaymentMethodQuery, pm.UserID, pm.Type, pm.CardLast4, pm.IsDefault).Scan(&pm.ID, &pm.RegisterAt)
	if err != nil {
		return nil, err
	}

	return pm, nil
}

// GetPaymentMethod returns payment method by id
func (pr *PaymentMethodRepository) GetPaymentMethod(ctx context.Context, id uint64) (*models.PaymentMethod, error) {
	return pr.getPaymentMethod(ctx, selectPaymentMethodQuery, id)
}

// GetDefaultPaymentMethod returns user default payment method
func (pr *PaymentMethodRepository) GetDefaultPaymentMethod(ctx context.Context, userID uint64) (*models.PaymentMethod, error) {
	return pr.getPaymentMethod(ctx, selectDefaultPaymentMethodQuery, userID)
}

func (pr *PaymentMethodRepository) getPaymentMethod(ctx context.Context, query string, arg uint64) (*models.PaymentMethod, error) {
	pm := models.PaymentMethod{}
	err := pr.db.QueryRow(ctx, query, arg).Scan(&pm.ID, &pm.UserID, &pm.Type, &pm.CardLast4, &pm.IsDefault, &pm.RegisterAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrPaymentMethodNotFound
		}
		return nil, err
	}

	return &pm, nil
}

// GetPaymentMethodsByUserID returns user payment methods
func (pr *PaymentMethodRepository) GetPaymentMethodsByUserID(ctx context.Context, userID uint64) ([]models.PaymentMethod, error) {
	rows, err := pr.db.Query(ctx, selectPaymentMethodsByUserIDQuery, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	methods := []models.PaymentMethod{}

	for rows.Next() {
		pm := models.PaymentMethod{}
		if err := rows.Scan(&pm.ID, &pm.UserID, &pm.Type, &pm.CardLast4, &pm.IsDefault, &pm.RegisterAt); err != nil {
			return nil, err
		}
		methods = append(methods, pm)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return methods, nil
}
