package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrofarm/market/internal/api/requestctx"
	"github.com/agrofarm/market/internal/inventory"
	"github.com/agrofarm/market/internal/order"
	"github.com/agrofarm/market/internal/service"
)

// stubOrderService returns canned results per method.
type stubOrderService struct {
	createErr  error
	getErr     error
	advanceErr error
	view       *service.OrderView
}

func (s *stubOrderService) Create(ctx context.Context, actor service.Actor, input service.CreateOrderInput) (*service.OrderView, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	return s.view, nil
}

func (s *stubOrderService) Get(ctx context.Context, actor service.Actor, id int64) (*service.OrderView, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.view, nil
}

func (s *stubOrderService) List(ctx context.Context, actor service.Actor, query service.OrderQuery) (*service.OrderPage, error) {
	return &service.OrderPage{}, nil
}

func (s *stubOrderService) AdvanceStatus(ctx context.Context, actor service.Actor, id int64, next order.Status) (*service.OrderView, error) {
	if s.advanceErr != nil {
		return nil, s.advanceErr
	}
	return s.view, nil
}

func (s *stubOrderService) Cancel(ctx context.Context, actor service.Actor, id int64, reason string) (*service.OrderView, error) {
	return s.view, nil
}

func (s *stubOrderService) Transitions(ctx context.Context, actor service.Actor, id int64) ([]order.Status, error) {
	return order.AllowedNext(order.StatusPending), nil
}

func orderTestRouter(svc service.OrderService) http.Handler {
	h := NewOrderHandler(svc)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := requestctx.WithUserClaims(req.Context(), requestctx.UserClaims{ID: 1})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Post("/orders", h.Create)
	r.Get("/orders/{id}", h.Get)
	r.Post("/orders/{id}/status", h.AdvanceStatus)
	return r
}

func TestCreateOrderOutOfStockResponse(t *testing.T) {
	svc := &stubOrderService{createErr: &inventory.OutOfStockError{ProductID: 7, Requested: 10, Available: 2}}
	router := orderTestRouter(svc)

	body := `{"items":[{"product_id":7,"quantity":10}]}`
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, float64(7), payload["product_id"])
	assert.Equal(t, float64(10), payload["requested"])
	assert.Equal(t, float64(2), payload["available"])
}

func TestCreateOrderEmptyBodyRejected(t *testing.T) {
	router := orderTestRouter(&stubOrderService{createErr: service.ErrEmptyOrder})

	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetOrderNotFound(t *testing.T) {
	router := orderTestRouter(&stubOrderService{getErr: service.ErrNotFound})

	req := httptest.NewRequest(http.MethodGet, "/orders/42", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetOrderInvalidID(t *testing.T) {
	router := orderTestRouter(&stubOrderService{})

	req := httptest.NewRequest(http.MethodGet, "/orders/abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdvanceStatusIllegalTransitionResponse(t *testing.T) {
	svc := &stubOrderService{advanceErr: &order.IllegalTransitionError{
		From:    order.StatusDelivered,
		To:      order.StatusShipped,
		Allowed: nil,
	}}
	router := orderTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/orders/1/status", strings.NewReader(`{"status":"shipped"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "delivered", payload["from"])
	assert.Equal(t, "shipped", payload["to"])
}

func TestInvalidStatusFilterRejected(t *testing.T) {
	h := NewOrderHandler(&stubOrderService{})
	r := chi.NewRouter()
	r.Get("/orders", h.List)

	req := httptest.NewRequest(http.MethodGet, "/orders?status=lost-in-transit", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
