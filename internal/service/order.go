package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/agrofarm/market/internal/event"
	"github.com/agrofarm/market/internal/inventory"
	"github.com/agrofarm/market/internal/order"
	"github.com/agrofarm/market/internal/repository"
)

// OrderService coordinates order placement and the status lifecycle.
// Stock reservation, price snapshotting and status changes are atomic
// at the repository level; this layer enforces authorization, the
// transition rules and event emission.
type OrderService interface {
	Create(ctx context.Context, actor Actor, input CreateOrderInput) (*OrderView, error)
	Get(ctx context.Context, actor Actor, id int64) (*OrderView, error)
	List(ctx context.Context, actor Actor, query OrderQuery) (*OrderPage, error)
	// AdvanceStatus moves an order along the lifecycle. Admin only.
	AdvanceStatus(ctx context.Context, actor Actor, id int64, next order.Status) (*OrderView, error)
	// Cancel cancels the order and restores reserved stock. Owner or admin.
	// The reason is carried on the emitted event only.
	Cancel(ctx context.Context, actor Actor, id int64, reason string) (*OrderView, error)
	// Transitions lists the statuses the order may legally move to next.
	Transitions(ctx context.Context, actor Actor, id int64) ([]order.Status, error)
}

// CreateOrderInput is the payload for order placement.
type CreateOrderInput struct {
	Items           []OrderLineInput
	ShippingAddress string
	ContactPhone    string
}

// OrderLineInput is one requested product line.
type OrderLineInput struct {
	ProductID int64
	Quantity  int64
}

// OrderQuery combines order filters with pagination.
type OrderQuery struct {
	Status *order.Status
	Page   repository.PageParams
}

// OrderView is the external shape of an order.
type OrderView struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"user_id"`
	Status          order.Status    `json:"status"`
	TotalAmount     string          `json:"total_amount"`
	ShippingAddress string          `json:"shipping_address"`
	ContactPhone    string          `json:"contact_phone"`
	Items           []OrderItemView `json:"items"`
	AllowedNext     []order.Status  `json:"allowed_next"`
	CreatedAt       int64           `json:"created_at"`
	UpdatedAt       int64           `json:"updated_at"`
}

// OrderItemView is one line of an order.
type OrderItemView struct {
	ProductID int64  `json:"product_id"`
	Quantity  int64  `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Subtotal  string `json:"subtotal"`
}

// OrderPage is one page of order results.
type OrderPage struct {
	Orders []OrderView `json:"orders"`
	Total  int64       `json:"total"`
	Skip   int64       `json:"skip"`
	Limit  int64       `json:"limit"`
}

type orderService struct {
	orders repository.OrderRepository
	events event.Sink
	logger *slog.Logger
}

// NewOrderService wires the order repository and the event sink.
func NewOrderService(orders repository.OrderRepository, events event.Sink, logger *slog.Logger) OrderService {
	if logger == nil {
		logger = slog.Default()
	}
	return &orderService{
		orders: orders,
		events: events,
		logger: logger.With(slog.String("component", "orders")),
	}
}

func (s *orderService) Create(ctx context.Context, actor Actor, input CreateOrderInput) (*OrderView, error) {
	if len(input.Items) == 0 {
		return nil, ErrEmptyOrder
	}
	items := make([]repository.OrderItem, 0, len(input.Items))
	for _, line := range input.Items {
		if line.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		items = append(items, repository.OrderItem{ProductID: line.ProductID, Quantity: line.Quantity})
	}

	created, err := s.orders.CreateWithReservation(ctx, &repository.Order{
		UserID:          actor.UserID,
		ShippingAddress: input.ShippingAddress,
		ContactPhone:    input.ContactPhone,
		Items:           items,
	})
	if err != nil {
		return nil, mapOrderError(err)
	}

	s.emit(ctx, event.OrderCreated, event.OrderPayload{
		OrderID: created.ID,
		UserID:  created.UserID,
		Status:  string(created.Status),
		Total:   created.TotalAmount.String(),
		Items:   len(created.Items),
	})
	view := orderView(created)
	return &view, nil
}

func (s *orderService) Get(ctx context.Context, actor Actor, id int64) (*OrderView, error) {
	o, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	view := orderView(o)
	return &view, nil
}

func (s *orderService) List(ctx context.Context, actor Actor, query OrderQuery) (*OrderPage, error) {
	filter := repository.OrderFilter{Status: query.Status}
	if !actor.IsAdmin {
		filter.UserID = actor.UserID
	}
	page := query.Page.Normalize()

	orders, err := s.orders.List(ctx, filter, page)
	if err != nil {
		return nil, wrapStorage(err)
	}
	total, err := s.orders.CountFiltered(ctx, filter)
	if err != nil {
		return nil, wrapStorage(err)
	}

	views := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, orderView(o))
	}
	return &OrderPage{Orders: views, Total: total, Skip: page.Skip, Limit: page.Limit}, nil
}

func (s *orderService) AdvanceStatus(ctx context.Context, actor Actor, id int64, next order.Status) (*OrderView, error) {
	if !actor.IsAdmin {
		return nil, ErrNotAuthorized
	}
	if !order.Valid(next) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, next)
	}
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, wrapStorage(err)
	}
	if err := order.Validate(o.Status, next); err != nil {
		return nil, err
	}

	prev := o.Status
	if next == order.StatusCancelled {
		err = s.orders.CancelWithRestock(ctx, id, prev)
	} else {
		err = s.orders.UpdateStatusCAS(ctx, id, prev, next)
	}
	if err != nil {
		return nil, s.resolveStaleWrite(ctx, id, next, err)
	}

	s.emit(ctx, event.OrderStatusChanged, event.OrderPayload{
		OrderID:    id,
		UserID:     o.UserID,
		Status:     string(next),
		PrevStatus: string(prev),
	})
	return s.Get(ctx, actor, id)
}

func (s *orderService) Cancel(ctx context.Context, actor Actor, id int64, reason string) (*OrderView, error) {
	o, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := order.Validate(o.Status, order.StatusCancelled); err != nil {
		return nil, err
	}
	if err := s.orders.CancelWithRestock(ctx, id, o.Status); err != nil {
		return nil, s.resolveStaleWrite(ctx, id, order.StatusCancelled, err)
	}

	s.emit(ctx, event.OrderCancelled, event.OrderPayload{
		OrderID:    id,
		UserID:     o.UserID,
		Status:     string(order.StatusCancelled),
		PrevStatus: string(o.Status),
		Reason:     reason,
	})
	return s.Get(ctx, actor, id)
}

func (s *orderService) Transitions(ctx context.Context, actor Actor, id int64) ([]order.Status, error) {
	o, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return order.AllowedNext(o.Status), nil
}

// load fetches an order and enforces owner-or-admin access.
func (s *orderService) load(ctx context.Context, actor Actor, id int64) (*repository.Order, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, wrapStorage(err)
	}
	if !actor.IsAdmin && o.UserID != actor.UserID {
		return nil, ErrNotAuthorized
	}
	return o, nil
}

// resolveStaleWrite turns a lost compare-and-set race into a transition
// error computed from the fresh status, so callers see the same shape
// of failure whether they lost the race or were wrong from the start.
func (s *orderService) resolveStaleWrite(ctx context.Context, id int64, next order.Status, err error) error {
	if !errors.Is(err, repository.ErrConflict) {
		return mapOrderError(err)
	}
	fresh, findErr := s.orders.FindByID(ctx, id)
	if findErr != nil {
		return wrapStorage(findErr)
	}
	if verr := order.Validate(fresh.Status, next); verr != nil {
		return verr
	}
	return mapOrderError(err)
}

func (s *orderService) emit(ctx context.Context, name string, payload event.OrderPayload) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, name, payload); err != nil {
		s.logger.WarnContext(ctx, "event publish failed",
			slog.String("event", name),
			slog.Int64("order_id", payload.OrderID),
			slog.String("error", err.Error()))
	}
}

// mapOrderError translates repository and ledger errors into the
// service taxonomy. Typed errors (*inventory.OutOfStockError,
// *order.IllegalTransitionError) pass through so handlers can render
// their details.
func mapOrderError(err error) error {
	var oos *inventory.OutOfStockError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &oos):
		return err
	case errors.Is(err, inventory.ErrUnknownProduct):
		return ErrNotFound
	case errors.Is(err, repository.ErrConflict):
		return err
	default:
		return wrapStorage(err)
	}
}

func orderView(o *repository.Order) OrderView {
	items := make([]OrderItemView, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemView{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.String(),
			Subtotal:  item.Subtotal().String(),
		})
	}
	return OrderView{
		ID:              o.ID,
		UserID:          o.UserID,
		Status:          o.Status,
		TotalAmount:     o.TotalAmount.String(),
		ShippingAddress: o.ShippingAddress,
		ContactPhone:    o.ContactPhone,
		Items:           items,
		AllowedNext:     order.AllowedNext(o.Status),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}
