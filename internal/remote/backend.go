package remote

import (
	"context"
	"errors"

	"github.com/roach88/cafesync/internal/domain"
)

// ErrUnavailable marks failures where the backend could not be reached or
// answered with a server-side error. Callers may retry these.
var ErrUnavailable = errors.New("backend unavailable")

// IsUnavailable reports whether err is a retryable backend failure.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// Backend is the authoritative café data source.
//
// Every mutation returns the record as stored by the backend. Lookups of a
// missing id return an error wrapping domain.ErrNotFound.
type Backend interface {
	// FetchRecentOrders returns up to limit orders, newest first.
	FetchRecentOrders(ctx context.Context, limit int) ([]domain.Order, error)
	// FetchRecentReservations returns up to limit reservations, newest first.
	FetchRecentReservations(ctx context.Context, limit int) ([]domain.Reservation, error)

	ListMenuItems(ctx context.Context, f domain.MenuFilter) ([]domain.MenuItem, error)
	CreateMenuItem(ctx context.Context, item domain.MenuItem) (domain.MenuItem, error)
	UpdateMenuItem(ctx context.Context, id int64, u domain.MenuItemUpdate) (domain.MenuItem, error)
	DeleteMenuItem(ctx context.Context, id int64) error

	ListOrders(ctx context.Context, f domain.OrderFilter) ([]domain.Order, error)
	// GetOrder returns the order with its line items.
	GetOrder(ctx context.Context, id int64) (domain.Order, error)
	// CreateOrder inserts a pending order and then its line items.
	CreateOrder(ctx context.Context, o domain.NewOrder) (domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status domain.OrderStatus) (domain.Order, error)
	// OrdersBetween returns orders whose order_date lies in [from, to],
	// oldest first. Dates are YYYY-MM-DD.
	OrdersBetween(ctx context.Context, from, to string) ([]domain.Order, error)

	ListReservations(ctx context.Context, f domain.ReservationFilter) ([]domain.Reservation, error)
	CreateReservation(ctx context.Context, r domain.NewReservation) (domain.Reservation, error)

	ListCustomers(ctx context.Context) ([]domain.Customer, error)
	CreateCustomer(ctx context.Context, c domain.Customer) (domain.Customer, error)

	ListTables(ctx context.Context, f domain.TableFilter) ([]domain.Table, error)
	UpdateTableStatus(ctx context.Context, id int64, status domain.TableStatus) (domain.Table, error)

	// Ping runs the cheapest possible read to confirm the backend answers.
	Ping(ctx context.Context) error
	Close() error
}
