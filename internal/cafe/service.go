// Package cafe is the staff-facing service over the café backend. It
// validates input before anything reaches the backend and hands back the
// records as the backend stored them.
package cafe

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/cafesync/internal/clock"
	"github.com/roach88/cafesync/internal/domain"
	"github.com/roach88/cafesync/internal/format"
	"github.com/roach88/cafesync/internal/remote"
)

// Service wraps a remote.Backend.
type Service struct {
	backend remote.Backend
	clock   clock.Clock
	logger  *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock used for report defaults.
func WithClock(clk clock.Clock) Option {
	return func(s *Service) { s.clock = clk }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a service over backend.
func NewService(backend remote.Backend, opts ...Option) *Service {
	s := &Service{backend: backend, clock: clock.System(), logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Backend returns the wrapped backend.
func (s *Service) Backend() remote.Backend {
	return s.backend
}

func checkID(id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: %d", domain.ErrInvalidID, id)
	}
	return nil
}

func checkContact(email, phone string) error {
	if email != "" && !format.ValidEmail(email) {
		return fmt.Errorf("%w: %q", domain.ErrInvalidEmail, email)
	}
	if phone != "" && !format.ValidPhone(phone) {
		return fmt.Errorf("%w: %q, want 10 to 13 digits", domain.ErrInvalidPhone, phone)
	}
	return nil
}

func (s *Service) Menu(ctx context.Context, f domain.MenuFilter) ([]domain.MenuItem, error) {
	return s.backend.ListMenuItems(ctx, f)
}

func (s *Service) AddMenuItem(ctx context.Context, item domain.MenuItem) (domain.MenuItem, error) {
	item.Name = strings.TrimSpace(item.Name)
	if err := item.Validate(); err != nil {
		return domain.MenuItem{}, err
	}
	return s.backend.CreateMenuItem(ctx, item)
}

func (s *Service) UpdateMenuItem(ctx context.Context, id int64, u domain.MenuItemUpdate) (domain.MenuItem, error) {
	if err := checkID(id); err != nil {
		return domain.MenuItem{}, err
	}
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return domain.MenuItem{}, domain.ErrMissingName
	}
	if u.Price != nil && *u.Price < 0 {
		return domain.MenuItem{}, fmt.Errorf("%w: %d", domain.ErrInvalidPrice, *u.Price)
	}
	return s.backend.UpdateMenuItem(ctx, id, u)
}

func (s *Service) DeleteMenuItem(ctx context.Context, id int64) error {
	if err := checkID(id); err != nil {
		return err
	}
	return s.backend.DeleteMenuItem(ctx, id)
}

func (s *Service) Orders(ctx context.Context, f domain.OrderFilter) ([]domain.Order, error) {
	if f.Limit < 0 {
		return nil, fmt.Errorf("%w: negative limit %d", domain.ErrInvalidAmount, f.Limit)
	}
	return s.backend.ListOrders(ctx, f)
}

func (s *Service) Order(ctx context.Context, id int64) (domain.Order, error) {
	if err := checkID(id); err != nil {
		return domain.Order{}, err
	}
	return s.backend.GetOrder(ctx, id)
}

// CreateOrder validates the order and, when no total is given, prices it
// from its line items.
func (s *Service) CreateOrder(ctx context.Context, n domain.NewOrder) (domain.Order, error) {
	if err := n.Validate(); err != nil {
		return domain.Order{}, err
	}
	if err := checkContact("", n.CustomerPhone); err != nil {
		return domain.Order{}, err
	}
	if n.Total == 0 {
		n.Total = domain.LineItemsTotal(n.Items)
	}
	o, err := s.backend.CreateOrder(ctx, n)
	if err != nil {
		return domain.Order{}, err
	}
	s.logger.Info("order created", "order", o.DisplayNumber(), "total", o.TotalAmount)
	return o, nil
}

// UpdateOrderStatus moves an order along its lifecycle. Setting the
// current status again returns the order unchanged; any other move must
// be an allowed transition.
func (s *Service) UpdateOrderStatus(ctx context.Context, id int64, status string) (domain.Order, error) {
	next, err := domain.ParseOrderStatus(status)
	if err != nil {
		return domain.Order{}, err
	}
	current, err := s.Order(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	if current.Status == next {
		return current, nil
	}
	if !current.Status.CanTransitionTo(next) {
		return domain.Order{}, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, current.Status, next)
	}
	return s.backend.UpdateOrderStatus(ctx, id, next)
}

func (s *Service) Reservations(ctx context.Context, f domain.ReservationFilter) ([]domain.Reservation, error) {
	return s.backend.ListReservations(ctx, f)
}

func (s *Service) CreateReservation(ctx context.Context, n domain.NewReservation) (domain.Reservation, error) {
	if err := n.Validate(); err != nil {
		return domain.Reservation{}, err
	}
	if err := checkContact("", n.CustomerPhone); err != nil {
		return domain.Reservation{}, err
	}
	return s.backend.CreateReservation(ctx, n)
}

func (s *Service) Customers(ctx context.Context) ([]domain.Customer, error) {
	return s.backend.ListCustomers(ctx)
}

func (s *Service) AddCustomer(ctx context.Context, c domain.Customer) (domain.Customer, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return domain.Customer{}, domain.ErrMissingName
	}
	if err := checkContact(c.Email, c.Phone); err != nil {
		return domain.Customer{}, err
	}
	return s.backend.CreateCustomer(ctx, c)
}

func (s *Service) Tables(ctx context.Context, f domain.TableFilter) ([]domain.Table, error) {
	return s.backend.ListTables(ctx, f)
}

func (s *Service) UpdateTableStatus(ctx context.Context, id int64, status string) (domain.Table, error) {
	if err := checkID(id); err != nil {
		return domain.Table{}, err
	}
	next, err := domain.ParseTableStatus(status)
	if err != nil {
		return domain.Table{}, err
	}
	return s.backend.UpdateTableStatus(ctx, id, next)
}

// Ping checks that the backend answers.
func (s *Service) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}
