package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrofarm/market/internal/event"
	"github.com/agrofarm/market/internal/order"
	"github.com/agrofarm/market/internal/repository"
)

// fakeOrderRepo is an in-memory OrderRepository for exercising the
// coordinator logic without a database.
type fakeOrderRepo struct {
	orders    map[int64]*repository.Order
	nextID    int64
	restocked []int64
	casErr    error
	cancelErr error

	// laterStatus, when set, is the status returned from the second read
	// onward. Simulates a concurrent writer between read and write.
	laterStatus order.Status
	reads       int
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[int64]*repository.Order), nextID: 1}
}

func (f *fakeOrderRepo) CreateWithReservation(ctx context.Context, o *repository.Order) (*repository.Order, error) {
	o.ID = f.nextID
	f.nextID++
	o.Status = order.StatusPending
	total := decimal.Zero
	for i := range o.Items {
		o.Items[i].UnitPrice = decimal.RequireFromString("2.50")
		total = total.Add(o.Items[i].Subtotal())
	}
	o.TotalAmount = total
	o.CreatedAt = time.Now().Unix()
	o.UpdatedAt = o.CreatedAt
	f.orders[o.ID] = o
	return o, nil
}

func (f *fakeOrderRepo) FindByID(ctx context.Context, id int64) (*repository.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	f.reads++
	clone := *o
	if f.laterStatus != "" && f.reads > 1 {
		clone.Status = f.laterStatus
	}
	return &clone, nil
}

func (f *fakeOrderRepo) List(ctx context.Context, filter repository.OrderFilter, page repository.PageParams) ([]*repository.Order, error) {
	var out []*repository.Order
	for _, o := range f.orders {
		if filter.UserID != 0 && o.UserID != filter.UserID {
			continue
		}
		if filter.Status != nil && o.Status != *filter.Status {
			continue
		}
		clone := *o
		out = append(out, &clone)
	}
	return out, nil
}

func (f *fakeOrderRepo) CountFiltered(ctx context.Context, filter repository.OrderFilter) (int64, error) {
	list, _ := f.List(ctx, filter, repository.PageParams{})
	return int64(len(list)), nil
}

func (f *fakeOrderRepo) UpdateStatusCAS(ctx context.Context, id int64, current, next order.Status) error {
	if f.casErr != nil {
		return f.casErr
	}
	o, ok := f.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	if o.Status != current {
		return repository.ErrConflict
	}
	o.Status = next
	o.UpdatedAt = time.Now().Unix()
	return nil
}

func (f *fakeOrderRepo) CancelWithRestock(ctx context.Context, id int64, current order.Status) error {
	if f.cancelErr != nil {
		return f.cancelErr
	}
	o, ok := f.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	if o.Status != current {
		return repository.ErrConflict
	}
	o.Status = order.StatusCancelled
	o.UpdatedAt = time.Now().Unix()
	f.restocked = append(f.restocked, id)
	return nil
}

func (f *fakeOrderRepo) ListStatusOlderThan(ctx context.Context, status order.Status, beforeUnix int64) ([]*repository.Order, error) {
	var out []*repository.Order
	for _, o := range f.orders {
		if o.Status == status && o.UpdatedAt < beforeUnix {
			clone := *o
			out = append(out, &clone)
		}
	}
	return out, nil
}

// recordingSink captures published events.
type recordingSink struct {
	names    []string
	payloads []event.OrderPayload
}

func (s *recordingSink) Publish(ctx context.Context, name string, payload event.OrderPayload) error {
	s.names = append(s.names, name)
	s.payloads = append(s.payloads, payload)
	return nil
}

func newOrderFixture(t *testing.T) (OrderService, *fakeOrderRepo, *recordingSink) {
	t.Helper()
	repo := newFakeOrderRepo()
	sink := &recordingSink{}
	return NewOrderService(repo, sink, nil), repo, sink
}

var (
	buyer = Actor{UserID: 1}
	other = Actor{UserID: 2}
	admin = Actor{UserID: 9, IsAdmin: true}
)

func placeOrder(t *testing.T, svc OrderService) *OrderView {
	t.Helper()
	view, err := svc.Create(context.Background(), buyer, CreateOrderInput{
		Items: []OrderLineInput{{ProductID: 10, Quantity: 2}},
	})
	require.NoError(t, err)
	return view
}

func TestCreateRejectsEmptyOrder(t *testing.T) {
	svc, _, _ := newOrderFixture(t)
	_, err := svc.Create(context.Background(), buyer, CreateOrderInput{})
	assert.ErrorIs(t, err, ErrEmptyOrder)
}

func TestCreateRejectsNonPositiveQuantity(t *testing.T) {
	svc, _, _ := newOrderFixture(t)
	_, err := svc.Create(context.Background(), buyer, CreateOrderInput{
		Items: []OrderLineInput{{ProductID: 10, Quantity: 0}},
	})
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestCreateEmitsEvent(t *testing.T) {
	svc, _, sink := newOrderFixture(t)
	view := placeOrder(t, svc)

	assert.Equal(t, order.StatusPending, view.Status)
	assert.Equal(t, "5.00", view.TotalAmount)
	assert.Equal(t, []string{event.OrderCreated}, sink.names)
}

func TestGetEnforcesOwnership(t *testing.T) {
	svc, _, _ := newOrderFixture(t)
	view := placeOrder(t, svc)
	ctx := context.Background()

	_, err := svc.Get(ctx, other, view.ID)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	got, err := svc.Get(ctx, admin, view.ID)
	require.NoError(t, err)
	assert.Equal(t, view.ID, got.ID)
}

func TestAdvanceStatusRequiresAdmin(t *testing.T) {
	svc, _, _ := newOrderFixture(t)
	view := placeOrder(t, svc)

	_, err := svc.AdvanceStatus(context.Background(), buyer, view.ID, order.StatusConfirmed)
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestAdvanceStatusRejectsUnknownStatus(t *testing.T) {
	svc, _, _ := newOrderFixture(t)
	view := placeOrder(t, svc)

	_, err := svc.AdvanceStatus(context.Background(), admin, view.ID, order.Status("teleported"))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAdvanceStatusFullLifecycle(t *testing.T) {
	svc, _, _ := newOrderFixture(t)
	view := placeOrder(t, svc)
	ctx := context.Background()

	for _, next := range []order.Status{
		order.StatusConfirmed,
		order.StatusProcessing,
		order.StatusShipped,
		order.StatusDelivered,
	} {
		got, err := svc.AdvanceStatus(ctx, admin, view.ID, next)
		require.NoError(t, err, "advance to %s", next)
		assert.Equal(t, next, got.Status)
	}

	// Delivered is terminal.
	_, err := svc.AdvanceStatus(ctx, admin, view.ID, order.StatusShipped)
	var illegal *order.IllegalTransitionError
	require.True(t, errors.As(err, &illegal))
	assert.Equal(t, order.StatusDelivered, illegal.From)
}

func TestAdvanceToCancelledRestocks(t *testing.T) {
	svc, repo, _ := newOrderFixture(t)
	view := placeOrder(t, svc)

	got, err := svc.AdvanceStatus(context.Background(), admin, view.ID, order.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, got.Status)
	assert.Equal(t, []int64{view.ID}, repo.restocked, "cancellation must go through the restocking path")
}

func TestCancelByOwnerRestocks(t *testing.T) {
	svc, repo, sink := newOrderFixture(t)
	view := placeOrder(t, svc)

	got, err := svc.Cancel(context.Background(), buyer, view.ID, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, got.Status)
	assert.Equal(t, []int64{view.ID}, repo.restocked)
	assert.Contains(t, sink.names, event.OrderCancelled)
	assert.Equal(t, "changed my mind", sink.payloads[len(sink.payloads)-1].Reason)
}

func TestCancelDeliveredOrderFails(t *testing.T) {
	svc, repo, _ := newOrderFixture(t)
	view := placeOrder(t, svc)
	repo.orders[view.ID].Status = order.StatusDelivered

	_, err := svc.Cancel(context.Background(), buyer, view.ID, "")
	var illegal *order.IllegalTransitionError
	require.True(t, errors.As(err, &illegal))
	assert.Equal(t, order.StatusDelivered, illegal.From)
	assert.Empty(t, repo.restocked)
}

func TestLostRaceSurfacesFreshTransitionError(t *testing.T) {
	svc, repo, _ := newOrderFixture(t)
	view := placeOrder(t, svc)

	// A concurrent writer moves the order to delivered between this
	// caller's read and write.
	repo.casErr = repository.ErrConflict
	repo.laterStatus = order.StatusDelivered
	repo.reads = 0

	_, err := svc.AdvanceStatus(context.Background(), admin, view.ID, order.StatusConfirmed)
	var illegal *order.IllegalTransitionError
	require.True(t, errors.As(err, &illegal))
	assert.Equal(t, order.StatusDelivered, illegal.From)
	assert.Equal(t, order.StatusConfirmed, illegal.To)
}

func TestListScopesToOwnerUnlessAdmin(t *testing.T) {
	svc, _, _ := newOrderFixture(t)
	ctx := context.Background()
	placeOrder(t, svc)
	_, err := svc.Create(ctx, other, CreateOrderInput{
		Items: []OrderLineInput{{ProductID: 11, Quantity: 1}},
	})
	require.NoError(t, err)

	mine, err := svc.List(ctx, buyer, OrderQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), mine.Total)

	all, err := svc.List(ctx, admin, OrderQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.Total)
}

func TestTransitionsReflectCurrentStatus(t *testing.T) {
	svc, _, _ := newOrderFixture(t)
	view := placeOrder(t, svc)

	allowed, err := svc.Transitions(context.Background(), buyer, view.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []order.Status{order.StatusConfirmed, order.StatusCancelled}, allowed)
}
