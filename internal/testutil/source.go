package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/cafesync/internal/domain"
)

// FakeSource is a scripted remote source.
//
// Responses are consumed in the order queued. Once a queue is empty, the
// last response is repeated, or an empty result if none was ever queued.
//
// Thread-safety: all methods are safe for concurrent use.
type FakeSource struct {
	mu           sync.Mutex
	orders       []ordersResponse
	reservations []reservationsResponse
	lastOrders   ordersResponse
	lastRes      reservationsResponse
	orderCalls   int
	resCalls     int
	lastLimit    int
	gate         chan struct{}
	entered      chan struct{}
}

type ordersResponse struct {
	orders []domain.Order
	err    error
}

type reservationsResponse struct {
	reservations []domain.Reservation
	err          error
}

// NewFakeSource creates an empty FakeSource.
func NewFakeSource() *FakeSource {
	return &FakeSource{entered: make(chan struct{}, 64)}
}

// QueueOrders appends an orders response.
func (f *FakeSource) QueueOrders(orders []domain.Order, err error) *FakeSource {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = append(f.orders, ordersResponse{orders: orders, err: err})
	return f
}

// QueueReservations appends a reservations response.
func (f *FakeSource) QueueReservations(reservations []domain.Reservation, err error) *FakeSource {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reservations = append(f.reservations, reservationsResponse{reservations: reservations, err: err})
	return f
}

// Hold makes subsequent order fetches block until release is called or
// the fetch context ends. Entered receives once per blocked fetch.
func (f *FakeSource) Hold() (release func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	gate := make(chan struct{})
	f.gate = gate
	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			if f.gate == gate {
				f.gate = nil
			}
			f.mu.Unlock()
			close(gate)
		})
	}
}

// Entered signals each time a held fetch starts waiting.
func (f *FakeSource) Entered() <-chan struct{} {
	return f.entered
}

func (f *FakeSource) FetchRecentOrders(ctx context.Context, limit int) ([]domain.Order, error) {
	f.mu.Lock()
	f.orderCalls++
	f.lastLimit = limit
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case f.entered <- struct{}{}:
		default:
		}
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.orders) > 0 {
		f.lastOrders = f.orders[0]
		f.orders = f.orders[1:]
	}
	resp := f.lastOrders
	if resp.err != nil {
		return nil, resp.err
	}
	out := resp.orders
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return append([]domain.Order(nil), out...), nil
}

func (f *FakeSource) FetchRecentReservations(_ context.Context, limit int) ([]domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resCalls++
	if len(f.reservations) > 0 {
		f.lastRes = f.reservations[0]
		f.reservations = f.reservations[1:]
	}
	resp := f.lastRes
	if resp.err != nil {
		return nil, resp.err
	}
	out := resp.reservations
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return append([]domain.Reservation(nil), out...), nil
}

// OrderCalls returns how many order fetches have started.
func (f *FakeSource) OrderCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orderCalls
}

// ReservationCalls returns how many reservation fetches have started.
func (f *FakeSource) ReservationCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resCalls
}

// LastLimit returns the limit passed to the most recent order fetch.
func (f *FakeSource) LastLimit() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastLimit
}

// Orders builds orders with the given ids, in the given order. Order
// numbers are "ORD-<id>" and totals are id * 1000 rupiah.
func Orders(ids ...int64) []domain.Order {
	out := make([]domain.Order, len(ids))
	for i, id := range ids {
		out[i] = domain.Order{
			ID:           id,
			OrderNumber:  fmt.Sprintf("ORD-%d", id),
			CustomerName: fmt.Sprintf("Pelanggan %d", id),
			TotalAmount:  id * 1000,
			Status:       domain.OrderPending,
		}
	}
	return out
}

// Reservations builds reservations with the given ids.
func Reservations(ids ...int64) []domain.Reservation {
	out := make([]domain.Reservation, len(ids))
	for i, id := range ids {
		out[i] = domain.Reservation{
			ID:              id,
			CustomerName:    fmt.Sprintf("Tamu %d", id),
			ReservationDate: "2024-05-02",
			ReservationTime: "19:00",
			NumberOfGuests:  2,
			Status:          "pending",
		}
	}
	return out
}

// Pending builds a valid mailbox entry with n line items of 10.000 each.
func Pending(customer string, n int) domain.PendingOrder {
	items := make([]domain.LineItem, n)
	for i := range items {
		items[i] = domain.LineItem{
			MenuItemID: int64(i + 1),
			Name:       fmt.Sprintf("Menu %d", i+1),
			Quantity:   1,
			UnitPrice:  10000,
		}
	}
	return domain.PendingOrder{
		CustomerName: customer,
		Items:        items,
		TotalAmount:  int64(n) * 10000,
	}
}
