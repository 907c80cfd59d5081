package sqlrepo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/cafesync/internal/domain"
	"github.com/roach88/cafesync/internal/query"
	"github.com/roach88/cafesync/internal/remote"
)

func (r *Repository) FetchRecentOrders(ctx context.Context, limit int) ([]domain.Order, error) {
	orders, err := selectAll(ctx, r, r.db, remote.RecentOrders(limit), scanOrder)
	if err != nil {
		return nil, fmt.Errorf("fetch recent orders: %w", err)
	}
	return orders, nil
}

func (r *Repository) FetchRecentReservations(ctx context.Context, limit int) ([]domain.Reservation, error) {
	res, err := selectAll(ctx, r, r.db, remote.RecentReservations(limit), scanReservation)
	if err != nil {
		return nil, fmt.Errorf("fetch recent reservations: %w", err)
	}
	return res, nil
}

func (r *Repository) ListMenuItems(ctx context.Context, f domain.MenuFilter) ([]domain.MenuItem, error) {
	items, err := selectAll(ctx, r, r.db, remote.MenuItems(f), scanMenuItem)
	if err != nil {
		return nil, fmt.Errorf("list menu items: %w", err)
	}
	if err := r.nameCategories(ctx, items); err != nil {
		return nil, fmt.Errorf("list menu items: %w", err)
	}
	return items, nil
}

// nameCategories fills CategoryName, which PostgREST would embed.
func (r *Repository) nameCategories(ctx context.Context, items []domain.MenuItem) error {
	needed := false
	for _, m := range items {
		if m.CategoryID != 0 {
			needed = true
			break
		}
	}
	if !needed {
		return nil
	}
	cats, err := selectAll(ctx, r, r.db, query.From(remote.TableCategories).Select("id", "name"), scanCategory)
	if err != nil {
		return err
	}
	names := make(map[int64]string, len(cats))
	for _, c := range cats {
		names[c.id] = c.name
	}
	for i := range items {
		items[i].CategoryName = names[items[i].CategoryID]
	}
	return nil
}

func (r *Repository) getMenuItem(ctx context.Context, id int64) (domain.MenuItem, error) {
	m, err := selectOne(ctx, r, r.db, remote.ByID(remote.TableMenuItems, remote.MenuColumns, id), scanMenuItem)
	if err != nil {
		return domain.MenuItem{}, err
	}
	items := []domain.MenuItem{m}
	if err := r.nameCategories(ctx, items); err != nil {
		return domain.MenuItem{}, err
	}
	return items[0], nil
}

func (r *Repository) CreateMenuItem(ctx context.Context, item domain.MenuItem) (domain.MenuItem, error) {
	row := remote.MenuItemRow(item)
	row.Set("created_at", r.now())
	id, err := r.insert(ctx, r.db, remote.TableMenuItems, row)
	if err != nil {
		return domain.MenuItem{}, fmt.Errorf("create menu item: %w", err)
	}
	return r.getMenuItem(ctx, id)
}

func (r *Repository) UpdateMenuItem(ctx context.Context, id int64, u domain.MenuItemUpdate) (domain.MenuItem, error) {
	row := remote.MenuUpdateRow(u)
	if len(row.Columns) == 0 {
		m, err := r.getMenuItem(ctx, id)
		if err != nil {
			return domain.MenuItem{}, fmt.Errorf("update menu item %d: %w", id, err)
		}
		return m, nil
	}
	if err := r.update(ctx, remote.TableMenuItems, id, row); err != nil {
		return domain.MenuItem{}, fmt.Errorf("update menu item %d: %w", id, err)
	}
	return r.getMenuItem(ctx, id)
}

func (r *Repository) DeleteMenuItem(ctx context.Context, id int64) error {
	stmt, err := query.DeleteSQL(r.dialect, remote.TableMenuItems)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, stmt, id)
	if err != nil {
		return fmt.Errorf("delete menu item %d: %w", id, classify(err))
	}
	return requireAffected(res, remote.TableMenuItems, id)
}

func (r *Repository) ListOrders(ctx context.Context, f domain.OrderFilter) ([]domain.Order, error) {
	orders, err := selectAll(ctx, r, r.db, remote.Orders(f), scanOrder)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (r *Repository) GetOrder(ctx context.Context, id int64) (domain.Order, error) {
	o, err := r.getOrder(ctx, r.db, id)
	if err != nil {
		return domain.Order{}, fmt.Errorf("get order %d: %w", id, err)
	}
	return o, nil
}

func (r *Repository) getOrder(ctx context.Context, db dbtx, id int64) (domain.Order, error) {
	o, err := selectOne(ctx, r, db, remote.ByID(remote.TableOrders, remote.OrderColumns, id), scanOrder)
	if err != nil {
		return domain.Order{}, err
	}
	items, err := selectAll(ctx, r, db, remote.OrderItems(id), scanOrderItem)
	if err != nil {
		return domain.Order{}, err
	}
	for _, it := range items {
		o.Items = append(o.Items, it.item)
	}
	return o, nil
}

// CreateOrder inserts the order and its items in one transaction.
func (r *Repository) CreateOrder(ctx context.Context, n domain.NewOrder) (domain.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Order{}, fmt.Errorf("create order: %w", classify(err))
	}
	defer tx.Rollback()

	row := remote.OrderRow(n)
	row.Set("order_date", r.today())
	row.Set("created_at", r.now())
	id, err := r.insert(ctx, tx, remote.TableOrders, row)
	if err != nil {
		return domain.Order{}, fmt.Errorf("create order: %w", err)
	}
	for i, item := range remote.OrderItemRows(id, n.Items) {
		if _, err := r.insert(ctx, tx, remote.TableOrderItems, item); err != nil {
			return domain.Order{}, fmt.Errorf("create order item %d: %w", i, err)
		}
	}

	o, err := r.getOrder(ctx, tx, id)
	if err != nil {
		return domain.Order{}, fmt.Errorf("create order: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return domain.Order{}, fmt.Errorf("create order: commit: %w", classify(err))
	}
	r.logger.Debug("order created", "id", o.ID, "items", len(o.Items))
	return o, nil
}

func (r *Repository) UpdateOrderStatus(ctx context.Context, id int64, status domain.OrderStatus) (domain.Order, error) {
	if err := r.update(ctx, remote.TableOrders, id, remote.StatusRow(string(status), r.now())); err != nil {
		return domain.Order{}, fmt.Errorf("update order %d status: %w", id, err)
	}
	return r.GetOrder(ctx, id)
}

func (r *Repository) OrdersBetween(ctx context.Context, from, to string) ([]domain.Order, error) {
	orders, err := selectAll(ctx, r, r.db, remote.OrdersBetween(from, to), scanOrder)
	if err != nil {
		return nil, fmt.Errorf("orders between %s and %s: %w", from, to, err)
	}
	return orders, nil
}

func (r *Repository) ListReservations(ctx context.Context, f domain.ReservationFilter) ([]domain.Reservation, error) {
	res, err := selectAll(ctx, r, r.db, remote.Reservations(f, r.today()), scanReservation)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return res, nil
}

func (r *Repository) CreateReservation(ctx context.Context, n domain.NewReservation) (domain.Reservation, error) {
	row := remote.ReservationRow(n)
	row.Set("created_at", r.now())
	id, err := r.insert(ctx, r.db, remote.TableReservations, row)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("create reservation: %w", err)
	}
	res, err := selectOne(ctx, r, r.db, remote.ByID(remote.TableReservations, remote.ReservationColumns, id), scanReservation)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("create reservation: %w", err)
	}
	return res, nil
}

func (r *Repository) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	customers, err := selectAll(ctx, r, r.db, remote.Customers(), scanCustomer)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return customers, nil
}

func (r *Repository) CreateCustomer(ctx context.Context, c domain.Customer) (domain.Customer, error) {
	row := remote.CustomerRow(c)
	row.Set("created_at", r.now())
	id, err := r.insert(ctx, r.db, remote.TableCustomers, row)
	if err != nil {
		return domain.Customer{}, fmt.Errorf("create customer: %w", err)
	}
	stored, err := selectOne(ctx, r, r.db, remote.ByID(remote.TableCustomers, remote.CustomerColumns, id), scanCustomer)
	if err != nil {
		return domain.Customer{}, fmt.Errorf("create customer: %w", err)
	}
	return stored, nil
}

func (r *Repository) ListTables(ctx context.Context, f domain.TableFilter) ([]domain.Table, error) {
	tables, err := selectAll(ctx, r, r.db, remote.Tables(f), scanTable)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return tables, nil
}

func (r *Repository) UpdateTableStatus(ctx context.Context, id int64, status domain.TableStatus) (domain.Table, error) {
	if err := r.update(ctx, remote.TableTables, id, remote.StatusRow(string(status), r.now())); err != nil {
		return domain.Table{}, fmt.Errorf("update table %d status: %w", id, err)
	}
	t, err := selectOne(ctx, r, r.db, remote.ByID(remote.TableTables, remote.TableColumns, id), scanTable)
	if err != nil {
		return domain.Table{}, fmt.Errorf("update table %d status: %w", id, err)
	}
	return t, nil
}

func (r *Repository) Ping(ctx context.Context) error {
	_, err := selectAll(ctx, r, r.db, remote.Ping(), func(s scanner) (int64, error) {
		var id int64
		err := s.Scan(&id)
		return id, err
	})
	if err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

var _ dbtx = (*sql.Tx)(nil)
