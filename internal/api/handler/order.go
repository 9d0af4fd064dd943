package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/agrofarm/market/internal/order"
	"github.com/agrofarm/market/internal/service"
)

// OrderHandler exposes order placement and lifecycle endpoints.
type OrderHandler struct {
	orders service.OrderService
}

// NewOrderHandler constructs the order endpoints.
func NewOrderHandler(orders service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

type createOrderRequest struct {
	Items []struct {
		ProductID int64 `json:"product_id"`
		Quantity  int64 `json:"quantity"`
	} `json:"items"`
	ShippingAddress string `json:"shipping_address"`
	ContactPhone    string `json:"contact_phone"`
}

type advanceStatusRequest struct {
	Status string `json:"status"`
}

// Create handles POST /api/v1/orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	input := service.CreateOrderInput{
		ShippingAddress: strings.TrimSpace(req.ShippingAddress),
		ContactPhone:    strings.TrimSpace(req.ContactPhone),
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, service.OrderLineInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	created, err := h.orders.Create(r.Context(), actorFrom(r), input)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// List handles GET /api/v1/orders. Admins see all orders; everyone
// else sees their own.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	query := service.OrderQuery{Page: pageParams(r)}
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status := order.Status(raw)
		if !order.Valid(status) {
			writeError(w, http.StatusBadRequest, "invalid status")
			return
		}
		query.Status = &status
	}

	page, err := h.orders.List(r.Context(), actorFrom(r), query)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// Get handles GET /api/v1/orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	view, err := h.orders.Get(r.Context(), actorFrom(r), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// Cancel handles POST /api/v1/orders/{id}/cancel. The body is
// optional; it may carry a free-text reason.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	view, err := h.orders.Cancel(r.Context(), actorFrom(r), id, strings.TrimSpace(req.Reason))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// Transitions handles GET /api/v1/orders/{id}/transitions.
func (h *OrderHandler) Transitions(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	allowed, err := h.orders.Transitions(r.Context(), actorFrom(r), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"allowed_next": allowed})
}

// AdvanceStatus handles POST /api/v1/admin/orders/{id}/status.
func (h *OrderHandler) AdvanceStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req advanceStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	view, err := h.orders.AdvanceStatus(r.Context(), actorFrom(r), id, order.Status(strings.TrimSpace(req.Status)))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}
