package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/roach88/cafesync/internal/cafe"
	"github.com/roach88/cafesync/internal/domain"
	"github.com/roach88/cafesync/internal/store"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	}
	if s.svc != nil {
		if err := s.svc.Ping(r.Context()); err != nil {
			body["status"] = "degraded"
			body["backend"] = err.Error()
		} else {
			body["backend"] = "ok"
		}
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.loop.Status())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entries, err := s.state.History(r.Context(), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if entries == nil {
		entries = []domain.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleMailboxPush appends a pending order to the mailbox and signals the
// change so the loop polls without waiting for its tick.
func (s *Server) handleMailboxPush(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if err := decodeBody(w, r, &raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	var order domain.PendingOrder
	if err := json.Unmarshal(raw, &order); err != nil {
		writeError(w, http.StatusBadRequest, "body is not a pending order")
		return
	}
	if err := order.Validate(); err != nil {
		s.fail(w, r, err)
		return
	}

	depth, err := s.state.PushMailbox(r.Context(), raw)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if s.bus != nil {
		if err := s.bus.Publish(r.Context(), store.KeyMailbox); err != nil {
			s.logger.Warn("mailbox signal failed, loop will pick the entry up on its next tick", "error", err)
		}
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"success": true, "queued": depth})
}

type newOrderEvent struct {
	Message string          `json:"message"`
	Order   json.RawMessage `json:"order"`
}

func (s *Server) handleNewOrderEvent(w http.ResponseWriter, r *http.Request) {
	var ev newOrderEvent
	if err := decodeBody(w, r, &ev); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	var record any
	if len(ev.Order) > 0 && !bytes.Equal(ev.Order, []byte("null")) {
		var o domain.Order
		if err := json.Unmarshal(ev.Order, &o); err == nil && o.ID != 0 {
			record = o
		} else {
			var generic map[string]any
			if err := json.Unmarshal(ev.Order, &generic); err != nil {
				writeError(w, http.StatusBadRequest, "order must be a JSON object")
				return
			}
			record = generic
		}
	}

	n, err := s.loop.NewOrder(r.Context(), ev.Message, record)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	if s.feed == nil {
		writeError(w, http.StatusServiceUnavailable, "notification feed disabled")
		return
	}
	s.feed.ServeHTTP(w, r)
}

func (s *Server) handleOrdersList(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	f := domain.OrderFilter{Date: r.URL.Query().Get("date"), Limit: limit}
	if st := r.URL.Query().Get("status"); st != "" {
		if f.Status, err = domain.ParseOrderStatus(st); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	orders, err := s.svc.Orders(r.Context(), f)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(orders))
}

func (s *Server) handleOrderCreate(w http.ResponseWriter, r *http.Request) {
	var n domain.NewOrder
	if err := decodeBody(w, r, &n); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	o, err := s.svc.CreateOrder(r.Context(), n)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (s *Server) handleOrderGet(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	o, err := s.svc.Order(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) handleOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	o, err := s.svc.UpdateOrderStatus(r.Context(), id, body.Status)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) handleReservationsList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := domain.ReservationFilter{
		Status:   q.Get("status"),
		Date:     q.Get("date"),
		Upcoming: q.Get("upcoming") == "true",
	}
	res, err := s.svc.Reservations(r.Context(), f)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(res))
}

func (s *Server) handleTablesList(w http.ResponseWriter, r *http.Request) {
	f := domain.TableFilter{Location: r.URL.Query().Get("location")}
	if st := r.URL.Query().Get("status"); st != "" {
		status, err := domain.ParseTableStatus(st)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		f.Status = status
	}
	tables, err := s.svc.Tables(r.Context(), f)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(tables))
}

// handleSalesReport answers JSON by default and an xlsx download with
// ?format=xlsx.
func (s *Server) handleSalesReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	report, err := s.svc.SalesReport(r.Context(), q.Get("from"), q.Get("to"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	switch q.Get("format") {
	case "", "json":
		writeJSON(w, http.StatusOK, report)
	case "xlsx":
		var buf bytes.Buffer
		if err := cafe.ExportSalesReport(&buf, report); err != nil {
			s.fail(w, r, err)
			return
		}
		name := cafe.ExportFileName(report)
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
	default:
		writeError(w, http.StatusBadRequest, "format must be json or xlsx")
	}
}

func idParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidID, raw)
	}
	return id, nil
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return n, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
