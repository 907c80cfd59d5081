package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/roach88/cafesync/internal/domain"
	"github.com/roach88/cafesync/internal/remote"
)

var _ remote.Backend = (*Client)(nil)

type menuRow struct {
	domain.MenuItem
	Price    money `json:"price"`
	Category *struct {
		Name string `json:"name"`
	} `json:"categories,omitempty"`
}

func (r menuRow) item() domain.MenuItem {
	m := r.MenuItem
	m.Price = int64(r.Price)
	if r.Category != nil {
		m.CategoryName = r.Category.Name
	}
	return m
}

type orderItemRow struct {
	ID           int64  `json:"id"`
	OrderID      int64  `json:"order_id"`
	MenuItemID   *int64 `json:"menu_item_id"`
	MenuItemName string `json:"menu_item_name"`
	Quantity     int    `json:"quantity"`
	UnitPrice    money  `json:"unit_price"`
}

func (r orderItemRow) lineItem() domain.LineItem {
	li := domain.LineItem{Name: r.MenuItemName, Quantity: r.Quantity, UnitPrice: int64(r.UnitPrice)}
	if r.MenuItemID != nil {
		li.MenuItemID = *r.MenuItemID
	}
	return li
}

func (c *Client) today() string {
	return c.clock.Now().Format("2006-01-02")
}

func (c *Client) FetchRecentOrders(ctx context.Context, limit int) ([]domain.Order, error) {
	var rows []orderRow
	if err := c.selectRows(ctx, remote.RecentOrders(limit), &rows); err != nil {
		return nil, fmt.Errorf("fetch recent orders: %w", err)
	}
	return ordersFrom(rows), nil
}

func (c *Client) FetchRecentReservations(ctx context.Context, limit int) ([]domain.Reservation, error) {
	var res []domain.Reservation
	if err := c.selectRows(ctx, remote.RecentReservations(limit), &res); err != nil {
		return nil, fmt.Errorf("fetch recent reservations: %w", err)
	}
	return res, nil
}

func (c *Client) ListMenuItems(ctx context.Context, f domain.MenuFilter) ([]domain.MenuItem, error) {
	var rows []menuRow
	if err := c.selectRows(ctx, remote.MenuItems(f), &rows); err != nil {
		return nil, fmt.Errorf("list menu items: %w", err)
	}
	items := make([]domain.MenuItem, len(rows))
	for i, r := range rows {
		items[i] = r.item()
	}
	return items, nil
}

func (c *Client) CreateMenuItem(ctx context.Context, item domain.MenuItem) (domain.MenuItem, error) {
	var row menuRow
	if err := c.insert(ctx, remote.TableMenuItems, remote.MenuItemRow(item).Map(), true, &row); err != nil {
		return domain.MenuItem{}, fmt.Errorf("create menu item: %w", err)
	}
	return row.item(), nil
}

func (c *Client) UpdateMenuItem(ctx context.Context, id int64, u domain.MenuItemUpdate) (domain.MenuItem, error) {
	var row menuRow
	if err := c.patch(ctx, remote.TableMenuItems, id, remote.MenuUpdateRow(u).Map(), &row); err != nil {
		return domain.MenuItem{}, fmt.Errorf("update menu item %d: %w", id, err)
	}
	return row.item(), nil
}

func (c *Client) DeleteMenuItem(ctx context.Context, id int64) error {
	var deleted []struct {
		ID int64 `json:"id"`
	}
	err := c.do(ctx, request{
		method: http.MethodDelete,
		path:   "/rest/v1/" + remote.TableMenuItems,
		params: idParam(id),
		prefer: "return=representation",
	}, &deleted)
	if err != nil {
		return fmt.Errorf("delete menu item %d: %w", id, err)
	}
	if len(deleted) == 0 {
		return fmt.Errorf("delete menu item %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (c *Client) ListOrders(ctx context.Context, f domain.OrderFilter) ([]domain.Order, error) {
	var rows []orderRow
	if err := c.selectRows(ctx, remote.Orders(f), &rows); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return ordersFrom(rows), nil
}

func (c *Client) GetOrder(ctx context.Context, id int64) (domain.Order, error) {
	var row orderRow
	if err := c.selectOne(ctx, remote.ByID(remote.TableOrders, remote.OrderColumns, id), &row); err != nil {
		return domain.Order{}, fmt.Errorf("get order %d: %w", id, err)
	}
	o := row.order()
	var rows []orderItemRow
	if err := c.selectRows(ctx, remote.OrderItems(id), &rows); err != nil {
		return domain.Order{}, fmt.Errorf("get order %d items: %w", id, err)
	}
	for _, r := range rows {
		o.Items = append(o.Items, r.lineItem())
	}
	return o, nil
}

// CreateOrder inserts the order, then its items. An item failure leaves
// the order in place and is returned with the order id.
func (c *Client) CreateOrder(ctx context.Context, n domain.NewOrder) (domain.Order, error) {
	var row orderRow
	if err := c.insert(ctx, remote.TableOrders, remote.OrderRow(n).Map(), true, &row); err != nil {
		return domain.Order{}, fmt.Errorf("create order: %w", err)
	}
	o := row.order()
	if len(n.Items) == 0 {
		return o, nil
	}

	rows := remote.OrderItemRows(o.ID, n.Items)
	body := make([]map[string]any, len(rows))
	for i, r := range rows {
		body[i] = r.Map()
	}
	var stored []orderItemRow
	if err := c.insert(ctx, remote.TableOrderItems, body, false, &stored); err != nil {
		return o, fmt.Errorf("create order %d items: %w", o.ID, err)
	}
	for _, r := range stored {
		o.Items = append(o.Items, r.lineItem())
	}
	return o, nil
}

func (c *Client) UpdateOrderStatus(ctx context.Context, id int64, status domain.OrderStatus) (domain.Order, error) {
	var stored orderRow
	row := remote.StatusRow(string(status), c.clock.Now())
	if err := c.patch(ctx, remote.TableOrders, id, row.Map(), &stored); err != nil {
		return domain.Order{}, fmt.Errorf("update order %d status: %w", id, err)
	}
	return stored.order(), nil
}

func (c *Client) OrdersBetween(ctx context.Context, from, to string) ([]domain.Order, error) {
	var rows []orderRow
	if err := c.selectRows(ctx, remote.OrdersBetween(from, to), &rows); err != nil {
		return nil, fmt.Errorf("orders between %s and %s: %w", from, to, err)
	}
	return ordersFrom(rows), nil
}

func (c *Client) ListReservations(ctx context.Context, f domain.ReservationFilter) ([]domain.Reservation, error) {
	var res []domain.Reservation
	if err := c.selectRows(ctx, remote.Reservations(f, c.today()), &res); err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return res, nil
}

func (c *Client) CreateReservation(ctx context.Context, n domain.NewReservation) (domain.Reservation, error) {
	var r domain.Reservation
	if err := c.insert(ctx, remote.TableReservations, remote.ReservationRow(n).Map(), true, &r); err != nil {
		return domain.Reservation{}, fmt.Errorf("create reservation: %w", err)
	}
	return r, nil
}

func (c *Client) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	var customers []domain.Customer
	if err := c.selectRows(ctx, remote.Customers(), &customers); err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return customers, nil
}

func (c *Client) CreateCustomer(ctx context.Context, cust domain.Customer) (domain.Customer, error) {
	var stored domain.Customer
	if err := c.insert(ctx, remote.TableCustomers, remote.CustomerRow(cust).Map(), true, &stored); err != nil {
		return domain.Customer{}, fmt.Errorf("create customer: %w", err)
	}
	return stored, nil
}

func (c *Client) ListTables(ctx context.Context, f domain.TableFilter) ([]domain.Table, error) {
	var tables []domain.Table
	if err := c.selectRows(ctx, remote.Tables(f), &tables); err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return tables, nil
}

func (c *Client) UpdateTableStatus(ctx context.Context, id int64, status domain.TableStatus) (domain.Table, error) {
	var t domain.Table
	row := remote.StatusRow(string(status), c.clock.Now())
	if err := c.patch(ctx, remote.TableTables, id, row.Map(), &t); err != nil {
		return domain.Table{}, fmt.Errorf("update table %d status: %w", id, err)
	}
	return t, nil
}

func (c *Client) Ping(ctx context.Context) error {
	var rows []struct {
		ID int64 `json:"id"`
	}
	if err := c.selectRows(ctx, remote.Ping(), &rows); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}
