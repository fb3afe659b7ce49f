package service

import (
	"context"
	"fmt"

	"github.com/rookgm/fmmall/internal/models"
)

// ProductRepository is interface for interacting with catalog data
type ProductRepository interface {
	// CreateProduct inserts new product
	CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	// GetProduct returns product by id
	GetProduct(ctx context.Context, id uint64) (*models.Product, error)
}

// ProductService implements ProductService interface
type ProductService struct {
	repo ProductRepository
}

// NewProductService creates new ProductService instance
func NewProductService(repo ProductRepository) *ProductService {
	return &ProductService{repo: repo}
}

// CreateProduct adds product to catalog
func (ps *ProductService) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if product.Name == "" || product.Price < 0 || product.StockQuantity < 0 {
		return nil, fmt.Errorf("%w: product requires name, non-negative price and stock", models.ErrInvalidRequest)
	}

	return ps.repo.CreateProduct(ctx, product)
}

// GetProduct returns product by id
func (ps *ProductService) GetProduct(ctx context.Context, id uint64) (*models.Product, error) {
	product, err := ps.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: productId=%d", err, id)
	}
	return product, nil
}
