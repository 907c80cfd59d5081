package sqlrepo

import (
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/cafesync/internal/domain"
)

type scanner interface {
	Scan(dest ...any) error
}

// dateText reads a DATE column as YYYY-MM-DD whether the driver returns a
// time or a string.
type dateText string

func (d *dateText) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = ""
	case time.Time:
		*d = dateText(v.Format("2006-01-02"))
	case string:
		*d = dateText(truncate(v, 10))
	case []byte:
		*d = dateText(truncate(string(v), 10))
	default:
		return fmt.Errorf("date column: unsupported type %T", src)
	}
	return nil
}

// clockText reads a TIME column as HH:MM.
type clockText string

func (c *clockText) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*c = ""
	case time.Time:
		*c = clockText(v.Format("15:04"))
	case string:
		*c = clockText(truncate(v, 5))
	case []byte:
		*c = clockText(truncate(string(v), 5))
	default:
		return fmt.Errorf("time column: unsupported type %T", src)
	}
	return nil
}

// money reads an integer or NUMERIC rupiah amount, rounding fractions.
type money int64

func (m *money) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*m = 0
	case int64:
		*m = money(v)
	case float64:
		*m = money(math.Round(v))
	case []byte:
		return m.parse(string(v))
	case string:
		return m.parse(v)
	default:
		return fmt.Errorf("amount column: unsupported type %T", src)
	}
	return nil
}

func (m *money) parse(s string) error {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fmt.Errorf("amount column: %w", err)
	}
	*m = money(math.Round(f))
	return nil
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func scanOrder(s scanner) (domain.Order, error) {
	var (
		o                                  domain.Order
		number, phone, otype, method, note sql.NullString
		total                              money
		status                             string
		date                               dateText
		created, updated                   sql.NullTime
	)
	err := s.Scan(&o.ID, &number, &o.CustomerName, &phone, &total, &status,
		&otype, &method, &note, &date, &created, &updated)
	if err != nil {
		return domain.Order{}, err
	}
	o.OrderNumber = number.String
	o.CustomerPhone = phone.String
	o.TotalAmount = int64(total)
	o.Status = domain.OrderStatus(status)
	o.OrderType = otype.String
	o.PaymentMethod = method.String
	o.Notes = note.String
	o.OrderDate = string(date)
	o.CreatedAt = created.Time
	o.UpdatedAt = nullTimePtr(updated)
	return o, nil
}

type orderItem struct {
	orderID int64
	item    domain.LineItem
}

func scanOrderItem(s scanner) (orderItem, error) {
	var (
		id, orderID int64
		menuItemID  sql.NullInt64
		li          domain.LineItem
		price       money
	)
	if err := s.Scan(&id, &orderID, &menuItemID, &li.Name, &li.Quantity, &price); err != nil {
		return orderItem{}, err
	}
	li.MenuItemID = menuItemID.Int64
	li.UnitPrice = int64(price)
	return orderItem{orderID: orderID, item: li}, nil
}

func scanMenuItem(s scanner) (domain.MenuItem, error) {
	var (
		m           domain.MenuItem
		desc, image sql.NullString
		price       money
		category    sql.NullInt64
		created     sql.NullTime
	)
	err := s.Scan(&m.ID, &m.Name, &desc, &price, &category, &image,
		&m.IsAvailable, &m.IsFeatured, &created)
	if err != nil {
		return domain.MenuItem{}, err
	}
	m.Description = desc.String
	m.Price = int64(price)
	m.CategoryID = category.Int64
	m.ImageURL = image.String
	m.CreatedAt = created.Time
	return m, nil
}

func scanReservation(s scanner) (domain.Reservation, error) {
	var (
		r            domain.Reservation
		phone, notes sql.NullString
		date         dateText
		at           clockText
		table        sql.NullInt64
		created      sql.NullTime
	)
	err := s.Scan(&r.ID, &r.CustomerName, &phone, &date, &at,
		&r.NumberOfGuests, &table, &r.Status, &notes, &created)
	if err != nil {
		return domain.Reservation{}, err
	}
	r.CustomerPhone = phone.String
	r.ReservationDate = string(date)
	r.ReservationTime = string(at)
	r.TableID = table.Int64
	r.SpecialRequests = notes.String
	r.CreatedAt = created.Time
	return r, nil
}

func scanCustomer(s scanner) (domain.Customer, error) {
	var (
		c                            domain.Customer
		email, phone, address, ctype sql.NullString
		created                      sql.NullTime
	)
	if err := s.Scan(&c.ID, &c.Name, &email, &phone, &address, &ctype, &created); err != nil {
		return domain.Customer{}, err
	}
	c.Email = email.String
	c.Phone = phone.String
	c.Address = address.String
	c.CustomerType = ctype.String
	c.CreatedAt = created.Time
	return c, nil
}

func scanTable(s scanner) (domain.Table, error) {
	var (
		t        domain.Table
		location sql.NullString
		status   string
		updated  sql.NullTime
	)
	if err := s.Scan(&t.ID, &t.TableNumber, &t.Capacity, &location, &status, &updated); err != nil {
		return domain.Table{}, err
	}
	t.Location = location.String
	t.Status = domain.TableStatus(status)
	t.UpdatedAt = nullTimePtr(updated)
	return t, nil
}

type category struct {
	id   int64
	name string
}

func scanCategory(s scanner) (category, error) {
	var c category
	err := s.Scan(&c.id, &c.name)
	return c, err
}
