package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/render"
	"github.com/rookgm/fmmall/internal/models"
)

type AddressService interface {
	// CreateAddress adds address to user address book
	CreateAddress(ctx context.Context, addr *models.Address) (*models.Address, error)
	// GetAddresses returns user addresses
	GetAddresses(ctx context.Context, userID uint64) ([]models.Address, error)
}

// AddressHandler represents HTTP handler for address book requests
type AddressHandler struct {
	svc AddressService
}

// NewAddressHandler creates new AddressHandler instance
func NewAddressHandler(svc AddressService) *AddressHandler {
	return &AddressHandler{svc: svc}
}

type addressReq struct {
	ReceiverName  string `json:"receiverName"`
	ReceiverPhone string `json:"receiverPhone"`
	Zipcode       string `json:"zipcode"`
	Address1      string `json:"address1"`
	Address2      string `json:"address2"`
	IsDefault     bool   `json:"isDefault"`
}

type AddressResp struct {
	ID            uint64 `json:"addressId"`
	ReceiverName  string `json:"receiverName"`
	ReceiverPhone string `json:"receiverPhone"`
	Zipcode       string `json:"zipcode"`
	Address1      string `json:"address1"`
	Address2      string `json:"address2"`
	IsDefault     bool   `json:"isDefault"`
}

func newAddressResp(a *models.Address) AddressResp {
	return AddressResp{
		ID:            a.ID,
		ReceiverName:  a.ReceiverName,
		ReceiverPhone: a.ReceiverPhone,
		Zipcode:       a.Zipcode,
		Address1:      a.Address1,
		Address2:      a.Address2,
		IsDefault:     a.IsDefault,
	}
}

// CreateAddress adds user address
func (ah *AddressHandler) CreateAddress() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, ok := getAuthPayload(r.Context(), authPayloadKey)
		if !ok {
			writeErrorMessage(w, r, http.StatusUnauthorized, "unauthorized")
			return
		}

		var req addressReq
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			writeErrorMessage(w, r, http.StatusBadRequest, "bad request")
			return
		}
		defer r.Body.Close()

		addr, err := ah.svc.CreateAddress(r.Context(), &models.Address{
			UserID:        payload.UserID,
			ReceiverName:  req.ReceiverName,
			ReceiverPhone: req.ReceiverPhone,
			Zipcode:       req.Zipcode,
			Address1:      req.Address1,
			Address2:      req.Address2,
			IsDefault:     req.IsDefault,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, r, http.StatusCreated, newAddressResp(addr))
	}
}

// ListUserAddresses returns user addresses
func (ah *AddressHandler) ListUserAddresses() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, ok := getAuthPayload(r.Context(), authPayloadKey)
		if !ok {
			writeErrorMessage(w, r, http.StatusUnauthorized, "unauthorized")
			return
		}

		addresses, err := ah.svc.GetAddresses(r.Context(), payload.UserID)
		if err != nil {
			writeError(w, r, err)
			return
		}

		resp := make([]AddressResp, 0, len(addresses))
		for i := range addresses {
			resp = append(resp, newAddressResp(&addresses[i]))
		}

		writeJSON(w, r, http.StatusOK, resp)
	}
}
