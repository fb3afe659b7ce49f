package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/rookgm/fmmall/internal/models"
	"github.com/rookgm/fmmall/internal/service"
)

type PaymentMethodService interface {
	// RegisterPaymentMethod adds payment method of user
	RegisterPaymentMethod(ctx context.Context, req *service.RegisterPaymentMethodRequest) (*models.PaymentMethod, error)
	// GetPaymentMethods returns user payment methods
	GetPaymentMethods(ctx context.Context, userID uint64) ([]models.PaymentMethod, error)
}

// PaymentMethodHandler represents HTTP handler for payment method requests
type PaymentMethodHandler struct {
	svc PaymentMethodService
}

// NewPaymentMethodHandler creates new PaymentMethodHandler instance
func NewPaymentMethodHandler(svc PaymentMethodService) *PaymentMethodHandler {
	return &PaymentMethodHandler{svc: svc}
}

type paymentMethodReq struct {
	Type       string `json:"paymentMethodType"`
	CardNumber string `json:"cardNumber"`
	IsDefault  bool   `json:"isDefault"`
}

type PaymentMethodResp struct {
	ID         uint64 `json:"paymentMethodId"`
	Type       string `json:"paymentMethodType"`
	CardLast4  string `json:"cardLast4,omitempty"`
	IsDefault  bool   `json:"isDefault"`
	RegisterAt string `json:"registerAt"`
}

func newPaymentMethodResp(pm *models.PaymentMethod) PaymentMethodResp {
	return PaymentMethodResp{
		ID:         pm.ID,
		Type:       string(pm.Type),
		CardLast4:  pm.CardLast4,
		IsDefault:  pm.IsDefault,
		RegisterAt: pm.RegisterAt.Format(time.RFC3339),
	}
}

// RegisterPaymentMethod adds user payment method
// 201 — payment method registered;
// 400 — unknown type or invalid card number;
// 401 — user is not authenticated;
// 500 — internal error.
func (ph *PaymentMethodHandler) RegisterPaymentMethod() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, ok := getAuthPayload(r.Context(), authPayloadKey)
		if !ok {
			writeErrorMessage(w, r, http.StatusUnauthorized, "unauthorized")
			return
		}

		var req paymentMethodReq
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			writeErrorMessage(w, r, http.StatusBadRequest, "bad request")
			return
		}
		defer r.Body.Close()

		pm, err := ph.svc.RegisterPaymentMethod(r.Context(), &service.RegisterPaymentMethodRequest{
			UserID:     payload.UserID,
			Type:       req.Type,
			CardNumber: req.CardNumber,
			IsDefault:  req.IsDefault,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, r, http.StatusCreated, newPaymentMethodResp(pm))
	}
}

// ListUserPaymentMethods returns user payment methods
func (ph *PaymentMethodHandler) ListUserPaymentMethods() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, ok := getAuthPayload(r.Context(), authPayloadKey)
		if !ok {
			writeErrorMessage(w, r, http.StatusUnauthorized, "unauthorized")
			return
		}

		methods, err := ph.svc.GetPaymentMethods(r.Context(), payload.UserID)
		if err != nil {
			writeError(w, r, err)
			return
		}

		resp := make([]PaymentMethodResp, 0, len(methods))
		for i := range methods {
			resp = append(resp, newPaymentMethodResp(&methods[i]))
		}

		writeJSON(w, r, http.StatusOK, resp)
	}
}
