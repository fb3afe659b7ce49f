package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/render"
	"github.com/rookgm/fmmall/internal/models"
)

type RefundService interface {
	// CreateRefund creates refund request of user order
	CreateRefund(ctx context.Context, userID uint64, req *models.CreateRefundRequest) (*models.Refund, error)
	// ApproveRefund approves requested refund
	ApproveRefund(ctx context.Context, refundID uint64) (*models.Refund, error)
	// RejectRefund rejects requested refund
	RejectRefund(ctx context.Context, refundID uint64) (*models.Refund, error)
	// CompleteRefund completes approved refund
	CompleteRefund(ctx context.Context, refundID uint64) (*models.Refund, error)
	// GetRefunds returns refunds of user
	GetRefunds(ctx context.Context, userID uint64) ([]models.Refund, error)
	// GetRefundsByProduct returns refunds of user orders containing product
	GetRefundsByProduct(ctx context.Context, userID, productID uint64) ([]models.Refund, error)
	// GetRefund returns refund visible to caller
	GetRefund(ctx context.Context, refundID uint64, caller *models.TokenPayload) (*models.Refund, error)
}

// RefundHandler represents HTTP handler for refund-related requests
type RefundHandler struct {
	svc RefundService
}

// NewRefundHandler creates new RefundHandler instance
func NewRefundHandler(svc RefundService) *RefundHandler {
	return &RefundHandler{svc: svc}
}

type refundItemReq struct {
	OrderItemID    uint64 `json:"orderItemId"`
	RefundQuantity int    `json:"refundQuantity"`
}

type createRefundReq struct {
	OrderID      uint64          `json:"orderId"`
	PaymentID    uint64          `json:"paymentId"`
	ReasonCode   string          `json:"reasonCode"`
	ReasonDetail string          `json:"reasonDetail"`
	RefundType   string          `json:"refundType"`
	Items        []refundItemReq `json:"items"`
}

func (req createRefundReq) toModel() *models.CreateRefundRequest {
	m := &models.CreateRefundRequest{
		OrderID:      req.OrderID,
		PaymentID:    req.PaymentID,
		ReasonCode:   req.ReasonCode,
		ReasonDetail: req.ReasonDetail,
		RefundType:   req.RefundType,
		Items:        make([]models.RefundItemRequest, 0, len(req.Items)),
	}
	for _, item := range req.Items {
		m.Items = append(m.Items, models.RefundItemRequest{
			OrderItemID:    item.OrderItemID,
			RefundQuantity: item.RefundQuantity,
		})
	}
	return m
}

// CreateRefund creates refund request
// 201 — refund requested;
// 400 — bad request, unknown reason or type, FULL/PARTIAL mismatch;
// 401 — user is not authenticated;
// 403 — order belongs to another user;
// 404 — order, payment or order item not found;
// 409 — quantity exceeds refundable quantity or payment does not belong to order;
// 500 — internal error.
func (rh *RefundHandler) CreateRefund() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, ok := getAuthPayload(r.Context(), authPayloadKey)
		if !ok {
			writeErrorMessage(w, r, http.StatusUnauthorized, "unauthorized")
			return
		}

		var req createRefundReq
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			writeErrorMessage(w, r, http.StatusBadRequest, "bad request")
			return
		}
		defer r.Body.Close()

		refund, err := rh.svc.CreateRefund(r.Context(), payload.UserID, req.toModel())
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, r, http.StatusCreated, newRefundResp(refund))
	}
}

// ListUserRefunds returns refunds of user
func (rh *RefundHandler) ListUserRefunds() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, ok := getAuthPayload(r.Context(), authPayloadKey)
		if !ok {
			writeErrorMessage(w, r, http.StatusUnauthorized, "unauthorized")
			return
		}

		refunds, err := rh.svc.GetRefunds(r.Context(), payload.UserID)
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, r, http.StatusOK, newRefundResps(refunds))
	}
}

// ListRefundsByProduct returns refunds of user orders containing product
func (rh *RefundHandler) ListRefundsByProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, ok := getAuthPayload(r.Context(), authPayloadKey)
		if !ok {
			writeErrorMessage(w, r, http.StatusUnauthorized, "unauthorized")
			return
		}

		productID, ok := urlParamID(r, "productId")
		if !ok {
			writeErrorMessage(w, r, http.StatusBadRequest, "invalid product id")
			return
		}

		refunds, err := rh.svc.GetRefundsByProduct(r.Context(), payload.UserID, productID)
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, r, http.StatusOK, newRefundResps(refunds))
	}
}

// GetRefund returns refund detail to its owner or administrator
func (rh *RefundHandler) GetRefund() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, ok := getAuthPayload(r.Context(), authPayloadKey)
		if !ok {
			writeErrorMessage(w, r, http.StatusUnauthorized, "unauthorized")
			return
		}

		refundID, ok := urlParamID(r, "refundId")
		if !ok {
			writeErrorMessage(w, r, http.StatusBadRequest, "invalid refund id")
			return
		}

		refund, err := rh.svc.GetRefund(r.Context(), refundID, payload)
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, r, http.StatusOK, newRefundResp(refund))
	}
}

// ApproveRefund approves refund, admin only
func (rh *RefundHandler) ApproveRefund() http.HandlerFunc {
	return rh.transition(rh.svc.ApproveRefund)
}

// RejectRefund rejects refund, admin only
func (rh *RefundHandler) RejectRefund() http.HandlerFunc {
	return rh.transition(rh.svc.RejectRefund)
}

// CompleteRefund completes refund, admin only
func (rh *RefundHandler) CompleteRefund() http.HandlerFunc {
	return rh.transition(rh.svc.CompleteRefund)
}

// transition handles admin status change
// 200 — status changed;
// 400 — invalid refund id;
// 404 — refund not found;
// 409 — refund item has wrong status;
// 500 — internal error.
func (rh *RefundHandler) transition(apply func(ctx context.Context, refundID uint64) (*models.Refund, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		refundID, ok := urlParamID(r, "refundId")
		if !ok {
			writeErrorMessage(w, r, http.StatusBadRequest, "invalid refund id")
			return
		}

		refund, err := apply(r.Context(), refundID)
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, r, http.StatusOK, newRefundResp(refund))
	}
}
