package service

import (
	"context"
	"fmt"

	"github.com/rookgm/fmmall/internal/models"
)

// AddressRepository is interface for interacting with address book
type AddressRepository interface {
	// CreateAddress inserts new address
	CreateAddress(ctx context.Context, addr *models.Address) (*models.Address, error)
	// GetAddressesByUserID returns user addresses
	GetAddressesByUserID(ctx context.Context, userID uint64) ([]models.Address, error)
}

// AddressService implements AddressService interface
type AddressService struct {
	tx   Transactor
	repo AddressRepository
}

// NewAddressService creates new AddressService instance
func NewAddressService(tx Transactor, repo AddressRepository) *AddressService {
	return &AddressService{
		tx:   tx,
		repo: repo,
	}
}

// CreateAddress adds address to user address book. The first address becomes default.
func (as *AddressService) CreateAddress(ctx context.Context, addr *models.Address) (created *models.Address, err error) {
	if addr.ReceiverName == "" || addr.ReceiverPhone == "" || addr.Zipcode == "" || addr.Address1 == "" {
		return nil, fmt.Errorf("%w: receiver name, phone, zipcode and address1 are required", models.ErrInvalidRequest)
	}

	err = as.tx.WithTx(ctx, func(ctx context.Context) error {
		addresses, err := as.repo.GetAddressesByUserID(ctx, addr.UserID)
		if err != nil {
			return err
		}
		if len(addresses) == 0 {
			addr.IsDefault = true
		}

		created, err = as.repo.CreateAddress(ctx, addr)
		return err
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// GetAddresses returns user addresses
func (as *AddressService) GetAddresses(ctx context.Context, userID uint64) ([]models.Address, error) {
	return as.repo.GetAddressesByUserID(ctx, userID)
}
