package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/rookgm/fmmall/internal/models"
	"github.com/rookgm/fmmall/internal/repository/postgres"
)

const (
	insertAddressQuery = `
						INSERT INTO addresses (user_id, receiver_name, receiver_phone, zipcode, address1, address2, is_default)
						VALUES ($1, $2, $3, $4, $5, $6, $7)
						RETURNING id
`
	clearDefaultAddressQuery = `
						UPDATE addresses SET is_default = FALSE
						WHERE user_id = $1 AND is_default
`
	selectAddressQuery = `
						SELECT id, user_id, receiver_name, receiver_phone, zipcode, address1, address2, is_default FROM addresses
						WHERE id = $1
`
	selectDefaultAddressQuery = `
						SELECT id, user_id, receiver_name, receiver_phone, zipcode, address1, address2, is_default FROM addresses
						WHERE user_id = $1 AND is_default
`
	selectAddressesByUserIDQuery = `
						SELECT id, user_id, receiver_name, receiver_phone, zipcode, address1, address2, is_default FROM addresses
						WHERE user_id = $1
						ORDER BY id
`
)

// AddressRepository implements AddressRepository interface
type AddressRepository struct {
	db *postgres.DB
}

// NewAddressRepository creates new AddressRepository instance
func NewAddressRepository(db *postgres.DB) *AddressRepository {
	return &AddressRepository{db: db}
}

// CreateAddress inserts new address. New default address replaces previous one.
func (ar *AddressRepository) CreateAddress(ctx context.Context, addr *models.Address) (*models.Address, error) {
	if addr.IsDefault {
		if _, err := ar.db.Exec(ctx, clearDefaultAddressQuery, addr.UserID); err != nil {
			return nil, err
		}
	}

	err := ar.db.QueryRow(ctx, insertAddressQuery, addr.UserID, addr.ReceiverName, addr.ReceiverPhone,
		addr.Zipcode, addr.Address1, addr.Address2, addr.IsDefault).Scan(&addr.ID)
	if err != nil {
		return nil, err
	}

	return addr, nil
}

// GetAddress returns address by id
func (ar *AddressRepository) GetAddress(ctx context.Context, id uint64) (*models.Address, error) {
	return ar.getAddress(ctx, selectAddressQuery, id)
}

// GetDefaultAddress returns user default address
func (ar *AddressRepository) GetDefaultAddress(ctx context.Context, userID uint64) (*models.Address, error) {
	return ar.getAddress(ctx, selectDefaultAddressQuery, userID)
}

func (ar *AddressRepository) getAddress(ctx context.Context, query string, arg uint64) (*models.Address, error) {
	addr := models.Address{}
	err := ar.db.QueryRow(ctx, query, arg).Scan(&addr.ID, &addr.UserID, &addr.ReceiverName, &addr.ReceiverPhone,
		&addr.Zipcode, &addr.Address1, &addr.Address2, &addr.IsDefault)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrAddressNotFound
		}
		return nil, err
	}

	return &addr, nil
}

// GetAddressesByUserID returns user addresses
func (ar *AddressRepository) GetAddressesByUserID(ctx context.Context, userID uint64) ([]models.Address, error) {
	rows, err := ar.db.Query(ctx, selectAddressesByUserIDQuery, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	addresses := []models.Address{}

	for rows.Next() {
		addr := models.Address{}
		err = rows.Scan(&addr.ID, &addr.UserID, &addr.ReceiverName, &addr.ReceiverPhone,
			&addr.Zipcode, &addr.Address1, &addr.Address2, &addr.IsDefault)
		if err != nil {
			return nil, err
		}
		addresses = append(addresses, addr)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return addresses, nil
}
