package handler

//go:generate mockgen -destination=mocks/mocks.go -package=mocks . AddressService,AuthService,OrderService,PaymentMethodService,ProductService,RefundService,TokenIssuer,TokenService,UserService

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/rookgm/fmmall/internal/logger"
	"github.com/rookgm/fmmall/internal/models"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error string `json:"error"`
}

// statusOf maps error kind to HTTP status code
func statusOf(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes error response. Messages of unexpected errors are not exposed.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Log.Error("request failed", zap.String("uri", r.RequestURI), zap.Error(err))
		msg = "internal error"
	}

	writeErrorMessage(w, r, status, msg)
}

func writeErrorMessage(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, errorResponse{Error: msg})
}

// writeJSON writes v with status code
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

// urlParamID parses numeric url parameter
func urlParamID(r *http.Request, name string) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
