package service

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/rookgm/fmmall/internal/models"
	"github.com/rookgm/fmmall/internal/service/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductService_CreateProduct(t *testing.T) {
	tests := []struct {
		name    string
		product *models.Product
		calls   int
		wantErr error
	}{
		{name: "valid", product: &models.Product{Name: "TV", Price: 100, StockQuantity: 10}, calls: 1},
		{name: "empty_name", product: &models.Product{Price: 100, StockQuantity: 10}, wantErr: models.ErrInvalidRequest},
		{name: "negative_stock", product: &models.Product{Name: "TV", Price: 100, StockQuantity: -1}, wantErr: models.ErrInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := mocks.NewMockProductRepository(ctrl)
			repo.EXPECT().CreateProduct(gomock.Any(), tt.product).Return(tt.product, nil).Times(tt.calls)

			_, err := NewProductService(repo).CreateProduct(context.Background(), tt.product)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestProductService_GetProductNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockProductRepository(ctrl)
	repo.EXPECT().GetProduct(gomock.Any(), uint64(3)).Return(nil, models.ErrProductNotFound)

	_, err := NewProductService(repo).GetProduct(context.Background(), 3)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestAddressService_CreateAddress(t *testing.T) {
	tests := []struct {
		name        string
		existing    []models.Address
		isDefault   bool
		wantDefault bool
	}{
		{name: "first_address_becomes_default", existing: nil, wantDefault: true},
		{name: "second_address_keeps_flag", existing: []models.Address{{ID: 1, IsDefault: true}}, wantDefault: false},
		{name: "explicit_default", existing: []models.Address{{ID: 1, IsDefault: true}}, isDefault: true, wantDefault: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := mocks.NewMockAddressRepository(ctrl)
			repo.EXPECT().GetAddressesByUserID(gomock.Any(), uint64(1)).Return(tt.existing, nil)
			repo.EXPECT().CreateAddress(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, a *models.Address) (*models.Address, error) {
				a.ID = 2
				return a, nil
			})

			addr, err := NewAddressService(&txStub{}, repo).CreateAddress(context.Background(), &models.Address{
				UserID:        1,
				ReceiverName:  "Kim",
				ReceiverPhone: "010-1234-5678",
				Zipcode:       "04524",
				Address1:      "Seoul",
				IsDefault:     tt.isDefault,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantDefault, addr.IsDefault)
		})
	}
}

func TestAddressService_CreateAddressValidation(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockAddressRepository(ctrl)

	_, err := NewAddressService(&txStub{}, repo).CreateAddress(context.Background(), &models.Address{UserID: 1, ReceiverName: "Kim"})
	assert.ErrorIs(t, err, models.ErrInvalidRequest)
}

func TestPaymentMethodService_RegisterPaymentMethod(t *testing.T) {
	tests := []struct {
		name      string
		req       *RegisterPaymentMethodRequest
		existing  []models.PaymentMethod
		store     bool
		wantLast4 string
		wantErr   error
	}{
		{
			name:      "valid_card",
			req:       &RegisterPaymentMethodRequest{UserID: 1, Type: "CARD", CardNumber: "4561 2612 1234 5467"},
			store:     true,
			wantLast4: "5467",
		},
		{
			name:    "card_fails_luhn",
			req:     &RegisterPaymentMethodRequest{UserID: 1, Type: "CARD", CardNumber: "4561261212345464"},
			wantErr: models.ErrInvalidCardNumber,
		},
		{
			name:    "card_with_letters",
			req:     &RegisterPaymentMethodRequest{UserID: 1, Type: "CARD", CardNumber: "4561-2612-1234-54AB"},
			wantErr: models.ErrInvalidCardNumber,
		},
		{
			name:     "bank_transfer_without_card",
			req:      &RegisterPaymentMethodRequest{UserID: 1, Type: "BANK_TRANSFER"},
			existing: []models.PaymentMethod{{ID: 1, IsDefault: true}},
			store:    true,
		},
		{
			name:    "unknown_type",
			req:     &RegisterPaymentMethodRequest{UserID: 1, Type: "CASH"},
			wantErr: models.ErrInvalidPaymentType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := mocks.NewMockPaymentMethodRepository(ctrl)
			if tt.store {
				repo.EXPECT().GetPaymentMethodsByUserID(gomock.Any(), uint64(1)).Return(tt.existing, nil)
				repo.EXPECT().CreatePaymentMethod(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, pm *models.PaymentMethod) (*models.PaymentMethod, error) {
					pm.ID = 2
					return pm, nil
				})
			}

			pm, err := NewPaymentMethodService(&txStub{}, repo).RegisterPaymentMethod(context.Background(), tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, models.ErrInvalidRequest)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantLast4, pm.CardLast4)
			assert.Equal(t, len(tt.existing) == 0, pm.IsDefault)
		})
	}
}
