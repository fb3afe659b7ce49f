package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/go-cmp/cmp"
	"github.com/rookgm/fmmall/internal/handler/http/mocks"
	"github.com/rookgm/fmmall/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefundHandler_CreateRefund(t *testing.T) {
	createdAt := time.Date(2024, 5, 12, 9, 30, 0, 0, time.UTC)
	body := `{"orderId":100,"paymentId":7,"reasonCode":"CHANGE_MIND","refundType":"PARTIAL","items":[{"orderItemId":1,"refundQuantity":2}]}`

	tests := []struct {
		name           string
		token          *models.TokenPayload
		body           string
		setup          func(t *testing.T) *mocks.MockRefundService
		wantStatusCode int
		wantBody       *RefundResp
	}{
		{
			name:  "valid_request_return_201",
			token: &models.TokenPayload{UserID: 1},
			body:  body,
			setup: func(t *testing.T) *mocks.MockRefundService {
				svcMock := mocks.NewMockRefundService(gomock.NewController(t))
				svcMock.EXPECT().CreateRefund(gomock.Any(), uint64(1), &models.CreateRefundRequest{
					OrderID:    100,
					PaymentID:  7,
					ReasonCode: "CHANGE_MIND",
					RefundType: "PARTIAL",
					Items:      []models.RefundItemRequest{{OrderItemID: 1, RefundQuantity: 2}},
				}).Return(&models.Refund{
					ID:          3,
					OrderID:     100,
					PaymentID:   7,
					ReasonCode:  models.ReasonChangeMind,
					RefundType:  models.RefundTypePartial,
					TotalAmount: 200,
					Completed:   models.No,
					CreatedAt:   createdAt,
					Lines: []models.RefundLine{
						{ID: 5, RefundID: 3, OrderItemID: 1, Quantity: 2, Amount: 200, Status: models.RefundStatusRequested},
					},
				}, nil)
				return svcMock
			},
			wantStatusCode: http.StatusCreated,
			wantBody: &RefundResp{
				ID:          3,
				OrderID:     100,
				PaymentID:   7,
				ReasonCode:  "CHANGE_MIND",
				RefundType:  "PARTIAL",
				TotalAmount: 200,
				Completed:   "N",
				CreatedAt:   createdAt.Format(time.RFC3339),
				Items: []RefundItemResp{
					{ID: 5, OrderItemID: 1, RefundQuantity: 2, RefundPrice: 200, RefundStatus: "REQUESTED"},
				},
			},
		},
		{
			name:  "bad_json_return_400",
			token: &models.TokenPayload{UserID: 1},
			body:  `{"orderId":`,
			setup: func(t *testing.T) *mocks.MockRefundService {
				svcMock := mocks.NewMockRefundService(gomock.NewController(t))
				svcMock.EXPECT().CreateRefund(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
				return svcMock
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:  "not_full_refund_return_400",
			token: &models.TokenPayload{UserID: 1},
			body:  body,
			setup: func(t *testing.T) *mocks.MockRefundService {
				svcMock := mocks.NewMockRefundService(gomock.NewController(t))
				svcMock.EXPECT().CreateRefund(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, models.ErrNotFullRefund)
				return svcMock
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "unauthorized_request_return_401",
			body: body,
			setup: func(t *testing.T) *mocks.MockRefundService {
				svcMock := mocks.NewMockRefundService(gomock.NewController(t))
				svcMock.EXPECT().CreateRefund(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
				return svcMock
			},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:  "foreign_order_return_403",
			token: &models.TokenPayload{UserID: 2},
			body:  body,
			setup: func(t *testing.T) *mocks.MockRefundService {
				svcMock := mocks.NewMockRefundService(gomock.NewController(t))
				svcMock.EXPECT().CreateRefund(gomock.Any(), uint64(2), gomock.Any()).Return(nil, models.ErrNotOwner)
				return svcMock
			},
			wantStatusCode: http.StatusForbidden,
		},
		{
			name:  "quantity_exceeded_return_409",
			token: &models.TokenPayload{UserID: 1},
			body:  body,
			setup: func(t *testing.T) *mocks.MockRefundService {
				svcMock := mocks.NewMockRefundService(gomock.NewController(t))
				svcMock.EXPECT().CreateRefund(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, models.ErrRefundQuantityExceeded)
				return svcMock
			},
			wantStatusCode: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/Refund/insert", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			ctx := context.WithValue(req.Context(), authPayloadKey, tt.token)

			NewRefundHandler(tt.setup(t)).CreateRefund()(w, req.WithContext(ctx))

			res := w.Result()
			defer res.Body.Close()
			assert.Equal(t, tt.wantStatusCode, res.StatusCode)

			if tt.wantBody != nil {
				var got RefundResp
				require.NoError(t, json.NewDecoder(res.Body).Decode(&got))

				if diff := cmp.Diff(*tt.wantBody, got); diff != "" {
					t.Errorf("mismatch (-want +got):\n%s", diff)
				}
				return
			}

			var errResp errorResponse
			require.NoError(t, json.NewDecoder(res.Body).Decode(&errResp))
			assert.NotEmpty(t, errResp.Error)
		})
	}
}

func TestRefundHandler_Transitions(t *testing.T) {
	refund := func(status models.RefundStatus, completed models.YesNo) *models.Refund {
		return &models.Refund{
			ID:        3,
			Completed: completed,
			Lines:     []models.RefundLine{{ID: 5, RefundID: 3, Status: status}},
		}
	}

	tests := []struct {
		name           string
		refundID       string
		handler        func(rh *RefundHandler) http.HandlerFunc
		setup          func(m *mocks.MockRefundService)
		wantStatusCode int
		wantStatus     string
		wantCompleted  string
	}{
		{
			name:     "approve_return_200",
			refundID: "3",
			handler:  (*RefundHandler).ApproveRefund,
			setup: func(m *mocks.MockRefundService) {
				m.EXPECT().ApproveRefund(gomock.Any(), uint64(3)).Return(refund(models.RefundStatusApproved, models.No), nil)
			},
			wantStatusCode: http.StatusOK,
			wantStatus:     "APPROVED",
			wantCompleted:  "N",
		},
		{
			name:     "reject_return_200",
			refundID: "3",
			handler:  (*RefundHandler).RejectRefund,
			setup: func(m *mocks.MockRefundService) {
				m.EXPECT().RejectRefund(gomock.Any(), uint64(3)).Return(refund(models.RefundStatusRejected, models.No), nil)
			},
			wantStatusCode: http.StatusOK,
			wantStatus:     "REJECTED",
			wantCompleted:  "N",
		},
		{
			name:     "complete_return_200",
			refundID: "3",
			handler:  (*RefundHandler).CompleteRefund,
			setup: func(m *mocks.MockRefundService) {
				m.EXPECT().CompleteRefund(gomock.Any(), uint64(3)).Return(refund(models.RefundStatusCompleted, models.Yes), nil)
			},
			wantStatusCode: http.StatusOK,
			wantStatus:     "COMPLETED",
			wantCompleted:  "Y",
		},
		{
			name:     "complete_requested_return_409",
			refundID: "3",
			handler:  (*RefundHandler).CompleteRefund,
			setup: func(m *mocks.MockRefundService) {
				m.EXPECT().CompleteRefund(gomock.Any(), uint64(3)).Return(nil, models.ErrInvalidRefundStatus)
			},
			wantStatusCode: http.StatusConflict,
		},
		{
			name:     "not_found_return_404",
			refundID: "3",
			handler:  (*RefundHandler).ApproveRefund,
			setup: func(m *mocks.MockRefundService) {
				m.EXPECT().ApproveRefund(gomock.Any(), uint64(3)).Return(nil, models.ErrRefundNotFound)
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:           "invalid_id_return_400",
			refundID:       "zero",
			handler:        (*RefundHandler).ApproveRefund,
			setup:          func(m *mocks.MockRefundService) {},
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svcMock := mocks.NewMockRefundService(gomock.NewController(t))
			tt.setup(svcMock)

			req := httptest.NewRequest(http.MethodPut, "/Refund/admin/"+tt.refundID, nil)
			w := httptest.NewRecorder()
			ctx := withURLParam(req.Context(), "refundId", tt.refundID)

			tt.handler(NewRefundHandler(svcMock))(w, req.WithContext(ctx))

			res := w.Result()
			defer res.Body.Close()
			require.Equal(t, tt.wantStatusCode, res.StatusCode)

			if tt.wantStatus != "" {
				var got RefundResp
				require.NoError(t, json.NewDecoder(res.Body).Decode(&got))
				require.Len(t, got.Items, 1)
				assert.Equal(t, tt.wantStatus, got.Items[0].RefundStatus)
				assert.Equal(t, tt.wantCompleted, got.Completed)
			}
		})
	}
}

func TestRefundHandler_GetRefund(t *testing.T) {
	tests := []struct {
		name           string
		token          *models.TokenPayload
		err            error
		wantStatusCode int
	}{
		{name: "owner_return_200", token: &models.TokenPayload{UserID: 1}, wantStatusCode: http.StatusOK},
		{name: "admin_return_200", token: &models.TokenPayload{UserID: 9, Role: models.RoleAdmin}, wantStatusCode: http.StatusOK},
		{name: "another_user_return_403", token: &models.TokenPayload{UserID: 2}, err: models.ErrNotOwner, wantStatusCode: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svcMock := mocks.NewMockRefundService(gomock.NewController(t))
			if tt.err != nil {
				svcMock.EXPECT().GetRefund(gomock.Any(), uint64(3), tt.token).Return(nil, tt.err)
			} else {
				svcMock.EXPECT().GetRefund(gomock.Any(), uint64(3), tt.token).Return(&models.Refund{ID: 3, OrderID: 100}, nil)
			}

			req := httptest.NewRequest(http.MethodGet, "/Refund/findOne/3", nil)
			w := httptest.NewRecorder()
			ctx := context.WithValue(req.Context(), authPayloadKey, tt.token)
			ctx = withURLParam(ctx, "refundId", "3")

			NewRefundHandler(svcMock).GetRefund()(w, req.WithContext(ctx))

			res := w.Result()
			defer res.Body.Close()
			assert.Equal(t, tt.wantStatusCode, res.StatusCode)
		})
	}
}

func TestRefundHandler_ListUserRefunds(t *testing.T) {
	svcMock := mocks.NewMockRefundService(gomock.NewController(t))
	svcMock.EXPECT().GetRefunds(gomock.Any(), uint64(1)).Return([]models.Refund{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/Refund/findAll", nil)
	w := httptest.NewRecorder()
	ctx := context.WithValue(req.Context(), authPayloadKey, &models.TokenPayload{UserID: 1})

	NewRefundHandler(svcMock).ListUserRefunds()(w, req.WithContext(ctx))

	res := w.Result()
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var got []RefundResp
	require.NoError(t, json.NewDecoder(res.Body).Decode(&got))
	assert.Empty(t, got)
	assert.NotNil(t, got)
}
