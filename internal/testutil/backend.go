package testutil

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/roach88/cafesync/internal/clock"
	"github.com/roach88/cafesync/internal/domain"
	"github.com/roach88/cafesync/internal/remote"
)

var _ remote.Backend = (*MemoryBackend)(nil)

// MemoryBackend is an in-memory remote.Backend. Ids are assigned from a
// single counter shared by every table.
//
// Thread-safety: all methods are safe for concurrent use.
type MemoryBackend struct {
	mu           sync.Mutex
	clock        clock.Clock
	nextID       int64
	err          error
	menu         []domain.MenuItem
	orders       []domain.Order
	reservations []domain.Reservation
	customers    []domain.Customer
	tables       []domain.Table
}

// NewMemoryBackend creates an empty backend stamping records with clk.
func NewMemoryBackend(clk clock.Clock) *MemoryBackend {
	return &MemoryBackend{clock: clk}
}

// FailWith makes every call return err until cleared with nil.
func (m *MemoryBackend) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SeedOrders stores orders as given, ids included.
func (m *MemoryBackend) SeedOrders(orders ...domain.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range orders {
		m.orders = append(m.orders, o)
		m.nextID = max(m.nextID, o.ID)
	}
}

// SeedTables stores tables as given, ids included.
func (m *MemoryBackend) SeedTables(tables ...domain.Table) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range tables {
		m.tables = append(m.tables, t)
		m.nextID = max(m.nextID, t.ID)
	}
}

func (m *MemoryBackend) id() int64 {
	m.nextID++
	return m.nextID
}

func newestOrdersFirst(a, b domain.Order) int {
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	return int(b.ID - a.ID)
}

func (m *MemoryBackend) FetchRecentOrders(_ context.Context, limit int) ([]domain.Order, error) {
	return m.ListOrders(context.Background(), domain.OrderFilter{Limit: limit})
}

func (m *MemoryBackend) FetchRecentReservations(_ context.Context, limit int) ([]domain.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := slices.Clone(m.reservations)
	slices.SortStableFunc(out, func(a, b domain.Reservation) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return int(b.ID - a.ID)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryBackend) ListMenuItems(_ context.Context, f domain.MenuFilter) ([]domain.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.MenuItem
	for _, item := range m.menu {
		if f.CategoryID != 0 && item.CategoryID != f.CategoryID {
			continue
		}
		if f.IsAvailable != nil && item.IsAvailable != *f.IsAvailable {
			continue
		}
		if f.Featured && !item.IsFeatured {
			continue
		}
		out = append(out, item)
	}
	slices.SortStableFunc(out, func(a, b domain.MenuItem) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (m *MemoryBackend) CreateMenuItem(_ context.Context, item domain.MenuItem) (domain.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domain.MenuItem{}, m.err
	}
	item.ID = m.id()
	item.CreatedAt = m.clock.Now()
	m.menu = append(m.menu, item)
	return item, nil
}

func (m *MemoryBackend) UpdateMenuItem(_ context.Context, id int64, u domain.MenuItemUpdate) (domain.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domain.MenuItem{}, m.err
	}
	for i := range m.menu {
		if m.menu[i].ID != id {
			continue
		}
		item := &m.menu[i]
		if u.Name != nil {
			item.Name = *u.Name
		}
		if u.Description != nil {
			item.Description = *u.Description
		}
		if u.Price != nil {
			item.Price = *u.Price
		}
		if u.CategoryID != nil {
			item.CategoryID = *u.CategoryID
		}
		if u.ImageURL != nil {
			item.ImageURL = *u.ImageURL
		}
		if u.IsAvailable != nil {
			item.IsAvailable = *u.IsAvailable
		}
		if u.IsFeatured != nil {
			item.IsFeatured = *u.IsFeatured
		}
		return *item, nil
	}
	return domain.MenuItem{}, fmt.Errorf("menu item %d: %w", id, domain.ErrNotFound)
}

func (m *MemoryBackend) DeleteMenuItem(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for i, item := range m.menu {
		if item.ID == id {
			m.menu = slices.Delete(m.menu, i, i+1)
			return nil
		}
	}
	return fmt.Errorf("menu item %d: %w", id, domain.ErrNotFound)
}

func (m *MemoryBackend) ListOrders(_ context.Context, f domain.OrderFilter) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Order
	for _, o := range m.orders {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.Date != "" && o.OrderDate != f.Date {
			continue
		}
		o.Items = nil
		out = append(out, o)
	}
	slices.SortStableFunc(out, newestOrdersFirst)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *MemoryBackend) GetOrder(_ context.Context, id int64) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domain.Order{}, m.err
	}
	for _, o := range m.orders {
		if o.ID == id {
			o.Items = slices.Clone(o.Items)
			return o, nil
		}
	}
	return domain.Order{}, fmt.Errorf("order %d: %w", id, domain.ErrNotFound)
}

func (m *MemoryBackend) CreateOrder(_ context.Context, n domain.NewOrder) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domain.Order{}, m.err
	}
	now := m.clock.Now()
	orderType := n.OrderType
	if orderType == "" {
		orderType = remote.DefaultOrderType
	}
	o := domain.Order{
		ID:            m.id(),
		CustomerName:  n.CustomerName,
		CustomerPhone: n.CustomerPhone,
		TotalAmount:   n.Total,
		Status:        domain.OrderPending,
		OrderType:     orderType,
		Notes:         n.Notes,
		OrderDate:     now.Format("2006-01-02"),
		Items:         slices.Clone(n.Items),
		CreatedAt:     now,
	}
	o.OrderNumber = fmt.Sprintf("ORD-%d", o.ID)
	m.orders = append(m.orders, o)
	return o, nil
}

func (m *MemoryBackend) UpdateOrderStatus(_ context.Context, id int64, status domain.OrderStatus) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domain.Order{}, m.err
	}
	for i := range m.orders {
		if m.orders[i].ID == id {
			now := m.clock.Now()
			m.orders[i].Status = status
			m.orders[i].UpdatedAt = &now
			return m.orders[i], nil
		}
	}
	return domain.Order{}, fmt.Errorf("order %d: %w", id, domain.ErrNotFound)
}

func (m *MemoryBackend) OrdersBetween(_ context.Context, from, to string) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Order
	for _, o := range m.orders {
		if o.OrderDate >= from && o.OrderDate <= to {
			out = append(out, o)
		}
	}
	slices.SortStableFunc(out, func(a, b domain.Order) int {
		if c := strings.Compare(a.OrderDate, b.OrderDate); c != 0 {
			return c
		}
		return int(a.ID - b.ID)
	})
	return out, nil
}

func (m *MemoryBackend) ListReservations(_ context.Context, f domain.ReservationFilter) ([]domain.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	today := m.clock.Now().Format("2006-01-02")
	var out []domain.Reservation
	for _, r := range m.reservations {
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		if f.Date != "" && r.ReservationDate != f.Date {
			continue
		}
		if f.Upcoming && r.ReservationDate < today {
			continue
		}
		out = append(out, r)
	}
	slices.SortStableFunc(out, func(a, b domain.Reservation) int {
		return strings.Compare(a.ReservationDate+" "+a.ReservationTime, b.ReservationDate+" "+b.ReservationTime)
	})
	return out, nil
}

func (m *MemoryBackend) CreateReservation(_ context.Context, n domain.NewReservation) (domain.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domain.Reservation{}, m.err
	}
	r := domain.Reservation{
		ID:              m.id(),
		CustomerName:    n.CustomerName,
		CustomerPhone:   n.CustomerPhone,
		ReservationDate: n.Date,
		ReservationTime: n.Time,
		NumberOfGuests:  n.Guests,
		TableID:         n.TableID,
		Status:          "pending",
		SpecialRequests: n.Notes,
		CreatedAt:       m.clock.Now(),
	}
	m.reservations = append(m.reservations, r)
	return r, nil
}

func (m *MemoryBackend) ListCustomers(_ context.Context) ([]domain.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := slices.Clone(m.customers)
	slices.SortStableFunc(out, func(a, b domain.Customer) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (m *MemoryBackend) CreateCustomer(_ context.Context, c domain.Customer) (domain.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domain.Customer{}, m.err
	}
	c.ID = m.id()
	if c.CustomerType == "" {
		c.CustomerType = remote.DefaultCustomerType
	}
	c.CreatedAt = m.clock.Now()
	m.customers = append(m.customers, c)
	return c, nil
}

func (m *MemoryBackend) ListTables(_ context.Context, f domain.TableFilter) ([]domain.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Table
	for _, t := range m.tables {
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.Location != "" && t.Location != f.Location {
			continue
		}
		out = append(out, t)
	}
	slices.SortStableFunc(out, func(a, b domain.Table) int { return strings.Compare(a.TableNumber, b.TableNumber) })
	return out, nil
}

func (m *MemoryBackend) UpdateTableStatus(_ context.Context, id int64, status domain.TableStatus) (domain.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domain.Table{}, m.err
	}
	for i := range m.tables {
		if m.tables[i].ID == id {
			now := m.clock.Now()
			m.tables[i].Status = status
			m.tables[i].UpdatedAt = &now
			return m.tables[i], nil
		}
	}
	return domain.Table{}, fmt.Errorf("table %d: %w", id, domain.ErrNotFound)
}

func (m *MemoryBackend) Ping(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

func (m *MemoryBackend) Close() error { return nil }
