package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/rookgm/fmmall/internal/models"
	"github.com/rookgm/fmmall/internal/repository/postgres"
)

const (
	insertProductQuery = `
						INSERT INTO products (name, price, stock_quantity)
						VALUES ($1, $2, $3)
						RETURNING id, created_at
`
	selectProductQuery = `
						SELECT id, name, price, stock_quantity, created_at FROM products
						WHERE id = $1
`
	selectProductForUpdateQuery = selectProductQuery + ` FOR UPDATE`

	decrementStockQuery = `
						UPDATE products
						SET stock_quantity = stock_quantity - $1
						WHERE id = $2 AND stock_quantity >= $1
`
	incrementStockQuery = `
						UPDATE products
						SET stock_quantity = stock_quantity + $1
						WHERE id = $2
`
)

// ProductRepository implements ProductRepository interface. It is the inventory ledger.
type ProductRepository struct {
	db *postgres.DB
}

// NewProductRepository creates new ProductRepository instance
func NewProductRepository(db *postgres.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// CreateProduct inserts new product
func (pr *ProductRepository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	err := pr.db.QueryRow(ctx, insertProductQuery, product.Name, product.Price, product.StockQuantity).Scan(&product.ID, &product.CreatedAt)
	if err != nil {
		return nil, err
	}

	return product, nil
}

// GetProduct returns product by id
func (pr *ProductRepository) GetProduct(ctx context.Context, id uint64) (*models.Product, error) {
	return pr.getProduct(ctx, selectProductQuery, id)
}

// GetProductForUpdate returns product by id and locks its row until the end of transaction
func (pr *ProductRepository) GetProductForUpdate(ctx context.Context, id uint64) (*models.Product, error) {
	return pr.getProduct(ctx, selectProductForUpdateQuery, id)
}

func (pr *ProductRepository) getProduct(ctx context.Context, query string, id uint64) (*models.Product, error) {
	product := models.Product{}
	err := pr.db.QueryRow(ctx, query, id).Scan(&product.ID, &product.Name, &product.Price, &product.StockQuantity, &product.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrProductNotFound
		}
		return nil, err
	}

	return &product, nil
}

// DecrementStock decreases product stock by quantity
func (pr *ProductRepository) DecrementStock(ctx context.Context, productID uint64, quantity int) error {
	cmd, err := pr.db.Exec(ctx, decrementStockQuery, quantity, productID)
	if err != nil {
		return err
	}

	if cmd.RowsAffected() == 0 {
		return models.ErrInsufficientStock
	}

	return nil
}

// IncrementStock increases product stock by quantity
func (pr *ProductRepository) IncrementStock(ctx context.Context, productID uint64, quantity int) error {
	cmd, err := pr.db.Exec(ctx, incrementStockQuery, quantity, productID)
	if err != nil {
		return err
	}

	if cmd.RowsAffected() == 0 {
		return models.ErrProductNotFound
	}

	return nil
}
