package remote

import (
	"sort"
	"strings"
	"time"

	"github.com/roach88/cafesync/internal/domain"
)

// Row is an ordered column/value set for an insert or update.
type Row struct {
	Columns []string
	Values  []any
}

// Set appends a column. A zero id or empty optional string is written as
// NULL by passing nil.
func (r *Row) Set(column string, value any) {
	r.Columns = append(r.Columns, column)
	r.Values = append(r.Values, value)
}

// Map returns the row as a JSON object body.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.Columns))
	for i, c := range r.Columns {
		m[c] = r.Values[i]
	}
	return m
}

func optionalID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

func optionalText(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

// DefaultOrderType is used when a new order names none.
const DefaultOrderType = "dine-in"

// DefaultCustomerType is used when a new customer names none.
const DefaultCustomerType = "regular"

// OrderRow is the insert for a new order. Orders always start pending.
func OrderRow(o domain.NewOrder) Row {
	orderType := o.OrderType
	if orderType == "" {
		orderType = DefaultOrderType
	}
	var r Row
	r.Set("customer_name", o.CustomerName)
	r.Set("customer_phone", optionalText(o.CustomerPhone))
	r.Set("total_amount", o.Total)
	r.Set("status", string(domain.OrderPending))
	r.Set("notes", optionalText(o.Notes))
	r.Set("order_type", orderType)
	return r
}

// OrderItemRows are the line item inserts for a created order.
func OrderItemRows(orderID int64, items []domain.LineItem) []Row {
	rows := make([]Row, len(items))
	for i, li := range items {
		rows[i].Set("order_id", orderID)
		rows[i].Set("menu_item_id", optionalID(li.MenuItemID))
		rows[i].Set("menu_item_name", li.Name)
		rows[i].Set("quantity", li.Quantity)
		rows[i].Set("unit_price", li.UnitPrice)
	}
	return rows
}

// MenuItemRow is the insert for a new menu item.
func MenuItemRow(m domain.MenuItem) Row {
	var r Row
	r.Set("name", m.Name)
	r.Set("description", optionalText(m.Description))
	r.Set("price", m.Price)
	r.Set("category_id", optionalID(m.CategoryID))
	r.Set("image_url", optionalText(m.ImageURL))
	r.Set("is_available", m.IsAvailable)
	r.Set("is_featured", m.IsFeatured)
	return r
}

// MenuUpdateRow is the partial update in column order.
func MenuUpdateRow(u domain.MenuItemUpdate) Row {
	fields := u.Fields()
	cols := make([]string, 0, len(fields))
	for c := range fields {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	var r Row
	for _, c := range cols {
		r.Set(c, fields[c])
	}
	return r
}

// ReservationRow is the insert for a new reservation. Reservations always
// start pending.
func ReservationRow(n domain.NewReservation) Row {
	var r Row
	r.Set("customer_name", n.CustomerName)
	r.Set("customer_phone", optionalText(n.CustomerPhone))
	r.Set("reservation_date", n.Date)
	r.Set("reservation_time", n.Time)
	r.Set("number_of_guests", n.Guests)
	r.Set("table_id", optionalID(n.TableID))
	r.Set("status", "pending")
	r.Set("special_requests", optionalText(n.Notes))
	return r
}

// CustomerRow is the insert for a new customer.
func CustomerRow(c domain.Customer) Row {
	customerType := c.CustomerType
	if customerType == "" {
		customerType = DefaultCustomerType
	}
	var r Row
	r.Set("name", c.Name)
	r.Set("email", optionalText(c.Email))
	r.Set("phone", optionalText(c.Phone))
	r.Set("address", optionalText(c.Address))
	r.Set("customer_type", customerType)
	return r
}

// StatusRow sets a status and stamps updated_at.
func StatusRow(status string, now time.Time) Row {
	var r Row
	r.Set("status", status)
	r.Set("updated_at", now.UTC())
	return r
}
