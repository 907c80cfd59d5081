// Package api serves the local admin HTTP interface: loop status and
// history, the mailbox and new-order inputs, the live notification feed,
// and the order and report views backed by the café service.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/roach88/cafesync/internal/bus"
	"github.com/roach88/cafesync/internal/cafe"
	"github.com/roach88/cafesync/internal/domain"
	"github.com/roach88/cafesync/internal/realtime"
)

// Loop is the part of the sync loop the API reads and feeds.
type Loop interface {
	Status() realtime.Status
	NewOrder(ctx context.Context, message string, record any) (domain.Notification, error)
}

// State is the local mailbox and history. Implemented by *store.Store.
type State interface {
	PushMailbox(ctx context.Context, entry json.RawMessage) (int, error)
	History(ctx context.Context, limit int) ([]domain.HistoryEntry, error)
}

// Deps are the collaborators behind the routes. Service and Feed may be
// nil; their routes then answer 503.
type Deps struct {
	Loop    Loop
	State   State
	Bus     bus.Bus
	Service *cafe.Service
	Feed    http.Handler
	Logger  *slog.Logger
}

// Server holds the route handlers.
type Server struct {
	loop    Loop
	state   State
	bus     bus.Bus
	svc     *cafe.Service
	feed    http.Handler
	logger  *slog.Logger
	started time.Time
}

// NewServer creates a server from deps.
func NewServer(d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		loop:    d.Loop,
		state:   d.State,
		bus:     d.Bus,
		svc:     d.Service,
		feed:    d.Feed,
		logger:  logger,
		started: time.Now(),
	}
}

// Routes returns the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/history", s.handleHistory)
		r.Post("/mailbox", s.handleMailboxPush)
		r.Post("/events/new-order", s.handleNewOrderEvent)
		r.Get("/notifications/ws", s.handleFeed)

		r.Group(func(r chi.Router) {
			r.Use(s.requireService)
			r.Get("/orders", s.handleOrdersList)
			r.Post("/orders", s.handleOrderCreate)
			r.Get("/orders/{id}", s.handleOrderGet)
			r.Patch("/orders/{id}/status", s.handleOrderStatus)
			r.Get("/reservations", s.handleReservationsList)
			r.Get("/tables", s.handleTablesList)
			r.Get("/reports/sales", s.handleSalesReport)
		})
	})
	return r
}

// Serve runs an HTTP server on addr until ctx ends, then shuts it down.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("admin api listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	}
}

func (s *Server) requireService(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.svc == nil {
			writeError(w, http.StatusServiceUnavailable, "no backend configured")
			return
		}
		next.ServeHTTP(w, r)
	})
}
