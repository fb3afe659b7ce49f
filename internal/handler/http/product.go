package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/rookgm/fmmall/internal/models"
)

type ProductService interface {
	// CreateProduct adds product to catalog
	CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	// GetProduct returns product by id
	GetProduct(ctx context.Context, id uint64) (*models.Product, error)
}

// ProductHandler represents HTTP handler for catalog requests
type ProductHandler struct {
	svc ProductService
}

// NewProductHandler creates new ProductHandler instance
func NewProductHandler(svc ProductService) *ProductHandler {
	return &ProductHandler{svc: svc}
}

type productReq struct {
	Name          string `json:"name"`
	Price         int64  `json:"price"`
	StockQuantity int    `json:"stockQuantity"`
}

type ProductResp struct {
	ID            uint64 `json:"productId"`
	Name          string `json:"name"`
	Price         int64  `json:"price"`
	StockQuantity int    `json:"stockQuantity"`
	CreatedAt     string `json:"createdAt"`
}

func newProductResp(p *models.Product) ProductResp {
	return ProductResp{
		ID:            p.ID,
		Name:          p.Name,
		Price:         p.Price,
		StockQuantity: p.StockQuantity,
		CreatedAt:     p.CreatedAt.Format(time.RFC3339),
	}
}

// CreateProduct adds product, admin only
func (ph *ProductHandler) CreateProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req productReq
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			writeErrorMessage(w, r, http.StatusBadRequest, "bad request")
			return
		}
		defer r.Body.Close()

		product, err := ph.svc.CreateProduct(r.Context(), &models.Product{
			Name:          req.Name,
			Price:         req.Price,
			StockQuantity: req.StockQuantity,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, r, http.StatusCreated, newProductResp(product))
	}
}

// GetProduct returns product
func (ph *ProductHandler) GetProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, ok := urlParamID(r, "productId")
		if !ok {
			writeErrorMessage(w, r, http.StatusBadRequest, "invalid product id")
			return
		}

		product, err := ph.svc.GetProduct(r.Context(), productID)
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, r, http.StatusOK, newProductResp(product))
	}
}
