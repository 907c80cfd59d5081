package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cafesync/internal/bus"
	"github.com/roach88/cafesync/internal/cafe"
	"github.com/roach88/cafesync/internal/clock"
	"github.com/roach88/cafesync/internal/domain"
	"github.com/roach88/cafesync/internal/notify"
	"github.com/roach88/cafesync/internal/realtime"
	"github.com/roach88/cafesync/internal/store"
	"github.com/roach88/cafesync/internal/testutil"
)

var epoch = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

type env struct {
	srv     *httptest.Server
	store   *store.Store
	backend *testutil.MemoryBackend
	rec     *notify.Recorder
	signals *signalLog
}

type signalLog struct {
	mu   sync.Mutex
	keys []string
}

func (l *signalLog) add(_ context.Context, key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.keys = append(l.keys, key)
}

func (l *signalLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.keys...)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newEnv(t *testing.T, withService bool) *env {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	clk := clock.NewFake(epoch)
	rec := &notify.Recorder{}
	presenter := notify.NewPresenter(rec,
		notify.WithClock(clk),
		notify.WithIDGenerator(notify.NewSequenceGenerator("n")),
	)
	loop := realtime.New(nil, st, presenter, realtime.WithClock(clk), realtime.WithLogger(quietLogger()))

	b := bus.NewLocalBus()
	t.Cleanup(func() { b.Close() })
	signals := &signalLog{}
	_, err = b.Subscribe(context.Background(), store.KeyMailbox, signals.add)
	require.NoError(t, err)

	e := &env{store: st, rec: rec, signals: signals}
	deps := Deps{Loop: loop, State: st, Bus: b, Logger: quietLogger()}
	if withService {
		e.backend = testutil.NewMemoryBackend(clk)
		deps.Service = cafe.NewService(e.backend, cafe.WithClock(clk), cafe.WithLogger(quietLogger()))
	}
	e.srv = httptest.NewServer(NewServer(deps).Routes())
	t.Cleanup(e.srv.Close)
	return e
}

func (e *env) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, r)
	require.NoError(t, err)
	res, err := e.srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func decode[T any](t *testing.T, res *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(res.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	e := newEnv(t, true)
	res := e.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, res.StatusCode)

	body := decode[map[string]any](t, res)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ok", body["backend"])
}

func TestHealth_DegradedBackend(t *testing.T) {
	e := newEnv(t, true)
	e.backend.FailWith(assert.AnError)

	body := decode[map[string]any](t, e.do(t, http.MethodGet, "/health", ""))
	assert.Equal(t, "degraded", body["status"])
}

func TestStatus(t *testing.T) {
	e := newEnv(t, false)
	res := e.do(t, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, res.StatusCode)

	status := decode[realtime.Status](t, res)
	assert.False(t, status.Running)
	assert.Zero(t, status.OrderCursor)
}

func TestMailboxPush_QueuesAndSignals(t *testing.T) {
	e := newEnv(t, false)
	body := `{"customerName":"Budi","items":[{"name":"Kopi Susu","quantity":2,"unit_price":18000}],"totalAmount":36000,"source":"kiosk"}`

	res := e.do(t, http.MethodPost, "/api/mailbox", body)
	require.Equal(t, http.StatusAccepted, res.StatusCode)
	assert.Equal(t, float64(1), decode[map[string]any](t, res)["queued"])

	entries, err := e.store.ReadMailbox(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.JSONEq(t, body, string(entries[0]))
	assert.Equal(t, []string{store.KeyMailbox}, e.signals.all())
}

func TestMailboxPush_RejectsInvalid(t *testing.T) {
	e := newEnv(t, false)

	res := e.do(t, http.MethodPost, "/api/mailbox", `{"customerName":"","items":[]}`)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res = e.do(t, http.MethodPost, "/api/mailbox", `not json`)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	entries, err := e.store.ReadMailbox(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Empty(t, e.signals.all())
}

func TestNewOrderEvent(t *testing.T) {
	e := newEnv(t, false)

	res := e.do(t, http.MethodPost, "/api/events/new-order",
		`{"order":{"id":7,"order_number":"ORD-7","total_amount":25000,"status":"pending","created_at":"2024-05-01T09:00:00Z"}}`)
	require.Equal(t, http.StatusCreated, res.StatusCode)

	n := decode[map[string]any](t, res)
	assert.Equal(t, "n-1", n["id"])
	require.Len(t, e.rec.Rendered(), 1)
	assert.Equal(t, "#ORD-7 - Rp 25.000", e.rec.Rendered()[0].Message)

	res = e.do(t, http.MethodPost, "/api/events/new-order", `{"message":"Meja 4 minta bill","order":{"table":4}}`)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	require.Len(t, e.rec.Rendered(), 2)
	assert.Equal(t, "Meja 4 minta bill", e.rec.Rendered()[1].Message)
}

func TestHistory(t *testing.T) {
	e := newEnv(t, false)
	ctx := context.Background()
	for _, name := range []string{"a", "b", "c"} {
		_, err := e.store.AppendHistory(ctx, domain.HistoryEntry{
			Order:       domain.PendingOrder{CustomerName: name},
			Fingerprint: "fp-" + name,
			ProcessedAt: epoch,
		}, 50)
		require.NoError(t, err)
	}

	entries := decode[[]domain.HistoryEntry](t, e.do(t, http.MethodGet, "/api/history?limit=2", ""))
	require.Len(t, entries, 2)
	assert.Equal(t, "c", entries[0].Order.CustomerName)

	res := e.do(t, http.MethodGet, "/api/history?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestBackendRoutesNeedService(t *testing.T) {
	e := newEnv(t, false)
	res := e.do(t, http.MethodGet, "/api/orders", "")
	assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)

	res = e.do(t, http.MethodGet, "/api/notifications/ws", "")
	assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
}

func TestOrders_CreateListAndStatus(t *testing.T) {
	e := newEnv(t, true)

	res := e.do(t, http.MethodPost, "/api/orders",
		`{"customer_name":"Sari","items":[{"name":"Teh","quantity":2,"unit_price":8000}]}`)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	created := decode[domain.Order](t, res)
	assert.Equal(t, int64(16000), created.TotalAmount)

	orders := decode[[]domain.Order](t, e.do(t, http.MethodGet, "/api/orders?status=pending&limit=5", ""))
	require.Len(t, orders, 1)

	res = e.do(t, http.MethodPatch, "/api/orders/1/status", `{"status":"confirmed"}`)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, domain.OrderConfirmed, decode[domain.Order](t, res).Status)

	res = e.do(t, http.MethodPatch, "/api/orders/1/status", `{"status":"pending"}`)
	assert.Equal(t, http.StatusConflict, res.StatusCode)

	res = e.do(t, http.MethodPatch, "/api/orders/99/status", `{"status":"ready"}`)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res = e.do(t, http.MethodPatch, "/api/orders/abc/status", `{"status":"ready"}`)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res = e.do(t, http.MethodGet, "/api/orders?status=lost", "")
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res = e.do(t, http.MethodPost, "/api/orders", `{"customer_name":""}`)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestOrders_BackendUnavailable(t *testing.T) {
	e := newEnv(t, true)
	e.backend.FailWith(assert.AnError)

	res := e.do(t, http.MethodGet, "/api/orders", "")
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	body := decode[map[string]any](t, res)
	assert.Equal(t, false, body["success"])
}

func TestSalesReport_JSONAndXLSX(t *testing.T) {
	e := newEnv(t, true)
	e.do(t, http.MethodPost, "/api/orders", `{"customer_name":"Sari","total_amount":30000}`)

	res := e.do(t, http.MethodGet, "/api/reports/sales?from=2024-05-01&to=2024-05-31", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	report := decode[cafe.SalesReport](t, res)
	assert.Equal(t, 1, report.TotalOrders)
	assert.Equal(t, int64(30000), report.TotalRevenue)

	res = e.do(t, http.MethodGet, "/api/reports/sales?from=2024-05-01&to=2024-05-31&format=xlsx", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, res.Header.Get("Content-Disposition"), "laporan-penjualan_2024-05-01_2024-05-31.xlsx")
	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte("PK")), "xlsx is a zip archive")

	res = e.do(t, http.MethodGet, "/api/reports/sales?format=pdf", "")
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res = e.do(t, http.MethodGet, "/api/reports/sales?from=2024-06-01&to=2024-05-01", "")
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestTablesAndReservations(t *testing.T) {
	e := newEnv(t, true)
	e.backend.SeedTables(
		domain.Table{ID: 1, TableNumber: "T1", Capacity: 2, Location: "indoor", Status: domain.TableAvailable},
		domain.Table{ID: 2, TableNumber: "T2", Capacity: 4, Location: "outdoor", Status: domain.TableOccupied},
	)

	tables := decode[[]domain.Table](t, e.do(t, http.MethodGet, "/api/tables?status=occupied", ""))
	require.Len(t, tables, 1)
	assert.Equal(t, "T2", tables[0].TableNumber)

	res := e.do(t, http.MethodGet, "/api/reservations?upcoming=true", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Empty(t, decode[[]domain.Reservation](t, res))
}
