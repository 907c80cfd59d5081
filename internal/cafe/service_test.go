package cafe

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/roach88/cafesync/internal/clock"
	"github.com/roach88/cafesync/internal/domain"
	"github.com/roach88/cafesync/internal/testutil"
)

var epoch = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *testutil.MemoryBackend, *clock.Fake) {
	t.Helper()
	clk := clock.NewFake(epoch)
	backend := testutil.NewMemoryBackend(clk)
	return NewService(backend, WithClock(clk)), backend, clk
}

func TestCreateOrder_PricesFromItems(t *testing.T) {
	svc, _, _ := newTestService(t)

	o, err := svc.CreateOrder(context.Background(), domain.NewOrder{
		CustomerName: "Budi",
		Items: []domain.LineItem{
			{Name: "Kopi Susu", Quantity: 2, UnitPrice: 18000},
			{Name: "Roti Bakar", Quantity: 1, UnitPrice: 15000},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(51000), o.TotalAmount)
	assert.Equal(t, domain.OrderPending, o.Status)
}

func TestCreateOrder_Validation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateOrder(ctx, domain.NewOrder{})
	assert.ErrorIs(t, err, domain.ErrMissingCustomer)

	_, err = svc.CreateOrder(ctx, domain.NewOrder{
		CustomerName: "Budi",
		Items:        []domain.LineItem{{Name: "Kopi", Quantity: 0, UnitPrice: 1000}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = svc.CreateOrder(ctx, domain.NewOrder{CustomerName: "Budi", CustomerPhone: "12345"})
	assert.ErrorIs(t, err, domain.ErrInvalidPhone)

	_, err = svc.CreateOrder(ctx, domain.NewOrder{CustomerName: "Budi", CustomerPhone: "+62 812-3456-7890"})
	assert.NoError(t, err)
}

func TestUpdateOrderStatus_Transitions(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	o, err := svc.CreateOrder(ctx, domain.NewOrder{CustomerName: "Sari", Total: 20000})
	require.NoError(t, err)

	got, err := svc.UpdateOrderStatus(ctx, o.ID, "Preparing")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPreparing, got.Status)

	same, err := svc.UpdateOrderStatus(ctx, o.ID, "preparing")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPreparing, same.Status)

	_, err = svc.UpdateOrderStatus(ctx, o.ID, "pending")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = svc.UpdateOrderStatus(ctx, o.ID, "lost")
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	_, err = svc.UpdateOrderStatus(ctx, 0, "ready")
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = svc.UpdateOrderStatus(ctx, 999, "ready")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAddCustomer_Validation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddCustomer(ctx, domain.Customer{Name: "  "})
	assert.ErrorIs(t, err, domain.ErrMissingName)

	_, err = svc.AddCustomer(ctx, domain.Customer{Name: "Sari", Email: "sari@"})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)

	c, err := svc.AddCustomer(ctx, domain.Customer{Name: " Sari ", Email: "sari@cafe.id"})
	require.NoError(t, err)
	assert.Equal(t, "Sari", c.Name)
	assert.Equal(t, "regular", c.CustomerType)
}

func TestMenuItems(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddMenuItem(ctx, domain.MenuItem{Name: "Kopi", Price: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)

	item, err := svc.AddMenuItem(ctx, domain.MenuItem{Name: "Kopi", Price: 15000, IsAvailable: true})
	require.NoError(t, err)

	empty := ""
	_, err = svc.UpdateMenuItem(ctx, item.ID, domain.MenuItemUpdate{Name: &empty})
	assert.ErrorIs(t, err, domain.ErrMissingName)

	price := int64(17000)
	updated, err := svc.UpdateMenuItem(ctx, item.ID, domain.MenuItemUpdate{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, int64(17000), updated.Price)

	require.NoError(t, svc.DeleteMenuItem(ctx, item.ID))
	assert.ErrorIs(t, svc.DeleteMenuItem(ctx, item.ID), domain.ErrNotFound)
}

func TestCreateReservation_Validation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateReservation(ctx, domain.NewReservation{CustomerName: "Sari", Date: "2024-05-02", Time: "19:00"})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	r, err := svc.CreateReservation(ctx, domain.NewReservation{
		CustomerName: "Sari", CustomerPhone: "081234567890", Date: "2024-05-02", Time: "19:00", Guests: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, "pending", r.Status)
}

func TestUpdateTableStatus(t *testing.T) {
	svc, backend, _ := newTestService(t)
	backend.SeedTables(domain.Table{ID: 1, TableNumber: "T1", Capacity: 4, Status: domain.TableAvailable})
	ctx := context.Background()

	tbl, err := svc.UpdateTableStatus(ctx, 1, "occupied")
	require.NoError(t, err)
	assert.Equal(t, domain.TableOccupied, tbl.Status)

	_, err = svc.UpdateTableStatus(ctx, 1, "broken")
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestBackendErrorsPassThrough(t *testing.T) {
	svc, backend, _ := newTestService(t)
	boom := errors.New("boom")
	backend.FailWith(boom)

	_, err := svc.Orders(context.Background(), domain.OrderFilter{})
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, svc.Ping(context.Background()), boom)
}

func seedReportOrders(t *testing.T, svc *Service, clk *clock.Fake) {
	t.Helper()
	ctx := context.Background()
	for _, day := range [][]int64{{25000, 15000}, {}, {40000}} {
		for _, total := range day {
			_, err := svc.CreateOrder(ctx, domain.NewOrder{CustomerName: "x", Total: total})
			require.NoError(t, err)
		}
		clk.Advance(24 * time.Hour)
	}
}

func TestSalesReport_GroupsByDay(t *testing.T) {
	svc, _, clk := newTestService(t)
	seedReportOrders(t, svc, clk)

	report, err := svc.SalesReport(context.Background(), "2024-05-01", "2024-05-31")
	require.NoError(t, err)

	assert.Equal(t, 3, report.TotalOrders)
	assert.Equal(t, int64(80000), report.TotalRevenue)
	require.Len(t, report.Days, 2)
	assert.Equal(t, DailySales{Date: "2024-05-01", Orders: 2, Revenue: 40000, OrderIDs: []int64{1, 2}}, report.Days[0])
	assert.Equal(t, DailySales{Date: "2024-05-03", Orders: 1, Revenue: 40000, OrderIDs: []int64{3}}, report.Days[1])
}

func TestSalesReport_Defaults(t *testing.T) {
	svc, _, clk := newTestService(t)
	clk.Advance(9 * 24 * time.Hour)

	report, err := svc.SalesReport(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01", report.From)
	assert.Equal(t, "2024-05-10", report.To)
	assert.Empty(t, report.Days)
	assert.NotNil(t, report.Days)
}

func TestSalesReport_BadRange(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.SalesReport(ctx, "2024-05-10", "2024-05-01")
	assert.ErrorContains(t, err, "before start")

	_, err = svc.SalesReport(ctx, "01/05/2024", "")
	assert.ErrorIs(t, err, domain.ErrInvalidDate)
}

func TestExportSalesReport(t *testing.T) {
	svc, _, clk := newTestService(t)
	seedReportOrders(t, svc, clk)
	report, err := svc.SalesReport(context.Background(), "2024-05-01", "2024-05-31")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, ExportSalesReport(&buf, report))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(salesSheet)
	require.NoError(t, err)
	require.Len(t, rows, 6)

	assert.Equal(t, "Laporan Penjualan 2024-05-01 s/d 2024-05-31", rows[0][0])
	assert.Equal(t, []string{"Tanggal", "Jumlah Pesanan", "Pendapatan", "Pendapatan (Rp)", "ID Pesanan"}, rows[2])
	assert.Equal(t, []string{"Rabu, 1 Mei 2024", "2", "40000", "Rp 40.000", "1, 2"}, rows[3])
	assert.Equal(t, []string{"Jumat, 3 Mei 2024", "1", "40000", "Rp 40.000", "3"}, rows[4])
	assert.Equal(t, []string{"Total", "3", "80000", "Rp 80.000"}, rows[5])
}
