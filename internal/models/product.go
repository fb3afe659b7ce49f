package models

import "time"

// Product is catalog entity. StockQuantity is the inventory ledger of the product.
type Product struct {
	ID            uint64
	Name          string
	Price         int64
	StockQuantity int
	CreatedAt     time.Time
}
