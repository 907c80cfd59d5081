package remote

import (
	"github.com/roach88/cafesync/internal/domain"
	"github.com/roach88/cafesync/internal/query"
)

// Table names in the café schema.
const (
	TableMenuItems    = "menu_items"
	TableCategories   = "categories"
	TableOrders       = "orders"
	TableOrderItems   = "order_items"
	TableReservations = "reservations"
	TableCustomers    = "customers"
	TableTables       = "tables"
)

// Column lists read by both backends. The SQL backend scans in this order.
var (
	OrderColumns = []string{
		"id", "order_number", "customer_name", "customer_phone", "total_amount",
		"status", "order_type", "payment_method", "notes", "order_date",
		"created_at", "updated_at",
	}
	OrderItemColumns = []string{
		"id", "order_id", "menu_item_id", "menu_item_name", "quantity", "unit_price",
	}
	MenuColumns = []string{
		"id", "name", "description", "price", "category_id", "image_url",
		"is_available", "is_featured", "created_at",
	}
	ReservationColumns = []string{
		"id", "customer_name", "customer_phone", "reservation_date", "reservation_time",
		"number_of_guests", "table_id", "status", "special_requests", "created_at",
	}
	CustomerColumns = []string{
		"id", "name", "email", "phone", "address", "customer_type", "created_at",
	}
	TableColumns = []string{
		"id", "table_number", "capacity", "location", "status", "updated_at",
	}
)

// ByID reads a single row.
func ByID(table string, columns []string, id int64) *query.Query {
	return query.From(table).Select(columns...).Where("id", query.Eq, id)
}

// RecentOrders is the sync loop's order poll: newest first.
func RecentOrders(limit int) *query.Query {
	return query.From(TableOrders).Select(OrderColumns...).
		OrderBy("created_at", true).Take(limit)
}

// RecentReservations is the sync loop's reservation poll: newest first.
func RecentReservations(limit int) *query.Query {
	return query.From(TableReservations).Select(ReservationColumns...).
		OrderBy("created_at", true).Take(limit)
}

// MenuItems lists menu entries by name, with their category name embedded
// where the backend supports it.
func MenuItems(f domain.MenuFilter) *query.Query {
	q := query.From(TableMenuItems).Select(MenuColumns...).Include(TableCategories, "name")
	if f.CategoryID != 0 {
		q.Where("category_id", query.Eq, f.CategoryID)
	}
	if f.IsAvailable != nil {
		q.Where("is_available", query.Eq, *f.IsAvailable)
	}
	if f.Featured {
		q.Where("is_featured", query.Eq, true)
	}
	return q.OrderBy("name", false)
}

// Orders lists orders newest first.
func Orders(f domain.OrderFilter) *query.Query {
	q := query.From(TableOrders).Select(OrderColumns...)
	if f.Status != "" {
		q.Where("status", query.Eq, string(f.Status))
	}
	if f.Date != "" {
		q.Where("order_date", query.Eq, f.Date)
	}
	if f.Limit > 0 {
		q.Take(f.Limit)
	}
	return q.OrderBy("created_at", true)
}

// OrderItems lists the line items of one order.
func OrderItems(orderID int64) *query.Query {
	return query.From(TableOrderItems).Select(OrderItemColumns...).
		Where("order_id", query.Eq, orderID).OrderBy("id", false)
}

// OrdersBetween lists orders with order_date in [from, to], oldest first.
func OrdersBetween(from, to string) *query.Query {
	return query.From(TableOrders).Select(OrderColumns...).
		Where("order_date", query.Gte, from).
		Where("order_date", query.Lte, to).
		OrderBy("order_date", false)
}

// Reservations lists reservations by date and time. today (YYYY-MM-DD) is
// the lower bound for upcoming listings.
func Reservations(f domain.ReservationFilter, today string) *query.Query {
	q := query.From(TableReservations).Select(ReservationColumns...)
	if f.Status != "" {
		q.Where("status", query.Eq, f.Status)
	}
	if f.Date != "" {
		q.Where("reservation_date", query.Eq, f.Date)
	}
	if f.Upcoming {
		q.Where("reservation_date", query.Gte, today)
	}
	return q.OrderBy("reservation_date", false).OrderBy("reservation_time", false)
}

// Customers lists customers by name.
func Customers() *query.Query {
	return query.From(TableCustomers).Select(CustomerColumns...).OrderBy("name", false)
}

// Tables lists dining tables by number.
func Tables(f domain.TableFilter) *query.Query {
	q := query.From(TableTables).Select(TableColumns...)
	if f.Status != "" {
		q.Where("status", query.Eq, string(f.Status))
	}
	if f.Location != "" {
		q.Where("location", query.Eq, f.Location)
	}
	return q.OrderBy("table_number", false)
}

// Ping selects a single order id.
func Ping() *query.Query {
	return query.From(TableOrders).Select("id").Take(1)
}
