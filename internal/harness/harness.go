package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/cafesync/internal/clock"
	"github.com/roach88/cafesync/internal/domain"
	"github.com/roach88/cafesync/internal/notify"
	"github.com/roach88/cafesync/internal/realtime"
	"github.com/roach88/cafesync/internal/store"
	"github.com/roach88/cafesync/internal/testutil"
)

// Harness holds the collaborators of one scenario run.
type Harness struct {
	store  *store.Store
	clock  *clock.Fake
	source *testutil.FakeSource
	sink   *notify.Recorder
	loop   *realtime.Loop
	logger *slog.Logger
}

// Option configures a run.
type Option func(*Harness)

// WithLogger sets the logger handed to the loop. Runs are silent by
// default.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = l
	}
}

// Run executes a scenario against a fresh in-memory store and returns the
// result. An error means the scenario could not be executed at all;
// failed expectations are reported in Result.Errors.
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		clock:  clock.NewFake(scenario.Start),
		source: testutil.NewFakeSource(),
		sink:   &notify.Recorder{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}

	presenterOpts := []notify.Option{
		notify.WithClock(h.clock),
		notify.WithIDGenerator(notify.NewSequenceGenerator("n")),
		notify.WithDisplayDuration(scenario.Config.DisplayDuration),
	}
	presenter := notify.NewPresenter(h.sink, presenterOpts...)

	loopOpts := []realtime.Option{
		realtime.WithClock(h.clock),
		realtime.WithLogger(h.logger),
	}
	if scenario.Config.FetchLimit > 0 {
		loopOpts = append(loopOpts, realtime.WithFetchLimit(scenario.Config.FetchLimit))
	}
	if scenario.Config.HistoryCapacity > 0 {
		loopOpts = append(loopOpts, realtime.WithHistoryCapacity(scenario.Config.HistoryCapacity))
	}
	if scenario.Config.Reservations != nil {
		loopOpts = append(loopOpts, realtime.WithReservations(*scenario.Config.Reservations))
	}
	h.loop = realtime.New(h.source, st, presenter, loopOpts...)

	if err := h.executeSetup(ctx, scenario.Setup); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}

	result := NewResult()
	if err := h.executeFlow(ctx, scenario.Flow, result); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}
	if err := h.collect(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to read final state: %w", err)
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) executeSetup(ctx context.Context, setup Setup) error {
	if setup.OrderCursor > 0 {
		if _, err := h.store.AdvanceCursor(ctx, store.KeyOrderCursor, setup.OrderCursor); err != nil {
			return err
		}
	}
	if setup.ReservationCursor > 0 {
		if _, err := h.store.AdvanceCursor(ctx, store.KeyReservationCursor, setup.ReservationCursor); err != nil {
			return err
		}
	}
	for i, entry := range setup.Mailbox {
		raw, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("mailbox[%d]: %w", i, err)
		}
		if _, err := h.store.PushMailbox(ctx, raw); err != nil {
			return fmt.Errorf("mailbox[%d]: %w", i, err)
		}
	}
	return nil
}

// executeFlow runs each step and checks its expect clause against what the
// loop actually did.
func (h *Harness) executeFlow(ctx context.Context, flow []Step, result *Result) error {
	for i, step := range flow {
		event, err := h.executeStep(ctx, step)
		if err != nil {
			return fmt.Errorf("flow step %d (%s): %w", i, step.Step, err)
		}
		event.Seq = i + 1
		event.Step = step.Step
		result.Trace = append(result.Trace, event)

		if mismatch := matchExpect(event, step.Expect); mismatch != "" {
			result.AddError(fmt.Sprintf("flow[%d] %s: %s", i, step.Step, mismatch))
		}
		h.logger.Debug("flow step completed", "step", i, "kind", step.Step, "error", event.Error)
	}
	return nil
}

func (h *Harness) executeStep(ctx context.Context, step Step) (TraceEvent, error) {
	switch step.Step {
	case StepRemote:
		return h.remote(ctx, step)

	case StepPush:
		raw, err := json.Marshal(step.Entry)
		if err != nil {
			return TraceEvent{}, err
		}
		depth, err := h.store.PushMailbox(ctx, raw)
		if err != nil {
			return TraceEvent{}, err
		}
		return TraceEvent{Result: map[string]any{"depth": depth}}, nil

	case StepMailbox:
		report, err := h.loop.PollMailbox(ctx)
		return TraceEvent{
			Result: map[string]any{"dispatched": report.Dispatched, "malformed": report.Malformed},
			Error:  errorCode(err),
		}, nil

	case StepEvent:
		record, err := eventRecord(step.Order)
		if err != nil {
			return TraceEvent{}, err
		}
		n, err := h.loop.NewOrder(ctx, step.Message, record)
		return TraceEvent{
			Result: map[string]any{"id": n.ID, "message": n.Message},
			Error:  errorCode(err),
		}, nil

	case StepAdvance:
		h.clock.Advance(step.Duration)
		return TraceEvent{Result: map[string]any{"dismissed": len(h.sink.Dismissed())}}, nil

	case StepSetCursor:
		stored, err := h.store.AdvanceCursor(ctx, cursorKey(step.Key), step.Value)
		if err != nil {
			return TraceEvent{}, err
		}
		return TraceEvent{Result: map[string]any{"cursor": stored}}, nil

	case StepCorruptMailbox:
		if err := h.store.PutJSON(ctx, store.KeyMailbox, map[string]string{"corrupt": "not a list"}); err != nil {
			return TraceEvent{}, err
		}
		return TraceEvent{}, nil

	case StepSink:
		if step.Error != "" {
			h.sink.Err = errors.New(step.Error)
		} else {
			h.sink.Err = nil
		}
		return TraceEvent{}, nil
	}
	return TraceEvent{}, fmt.Errorf("unknown step %q", step.Step)
}

// remote queues one scripted fetch result and polls once.
func (h *Harness) remote(ctx context.Context, step Step) (TraceEvent, error) {
	var orders []domain.Order
	if err := convert(step.Orders, &orders); err != nil {
		return TraceEvent{}, fmt.Errorf("orders: %w", err)
	}
	var reservations []domain.Reservation
	if err := convert(step.Reservations, &reservations); err != nil {
		return TraceEvent{}, fmt.Errorf("reservations: %w", err)
	}
	h.source.QueueOrders(orders, optionalError(step.Error))
	h.source.QueueReservations(reservations, optionalError(step.ReservationsError))

	report, err := h.loop.PollRemote(ctx)
	if errors.Is(err, realtime.ErrPollInFlight) {
		return TraceEvent{}, err
	}
	return TraceEvent{
		Result: map[string]any{
			"orders_notified":       report.Orders,
			"reservations_notified": report.Reservations,
			"order_cursor":          report.OrderCursor,
			"reservation_cursor":    report.ReservationCursor,
		},
		Error: errorCode(err),
	}, nil
}

func (h *Harness) collect(ctx context.Context, result *Result) error {
	for _, n := range h.sink.Rendered() {
		result.Notifications = append(result.Notifications, NotificationRecord{
			ID:       n.ID,
			Title:    n.Title,
			Message:  n.Message,
			Category: string(n.Category),
		})
	}
	result.Dismissed = append(result.Dismissed, h.sink.Dismissed()...)

	var err error
	final := &result.Final
	if final.OrderCursor, err = h.store.Cursor(ctx, store.KeyOrderCursor); err != nil {
		return err
	}
	if final.ReservationCursor, err = h.store.Cursor(ctx, store.KeyReservationCursor); err != nil {
		return err
	}
	entries, err := h.store.ReadMailbox(ctx)
	switch {
	case errors.Is(err, store.ErrCorruptMailbox):
		final.MailboxDepth = -1
	case err != nil:
		return err
	default:
		final.MailboxDepth = len(entries)
	}
	if final.History, err = h.store.HistoryLen(ctx); err != nil {
		return err
	}
	dash := h.loop.Status().Dashboard
	final.DashboardOrders = dash.TodayOrders
	final.DashboardRevenue = dash.TodayRevenue
	return nil
}

// eventRecord decodes an event payload as a domain.Order when it carries
// an id, otherwise passes it through as a map.
func eventRecord(order map[string]any) (any, error) {
	if order == nil {
		return nil, nil
	}
	if _, ok := order["id"]; ok {
		var o domain.Order
		if err := convert(order, &o); err != nil {
			return nil, err
		}
		return o, nil
	}
	return order, nil
}

// convert maps YAML-decoded values onto a typed struct through their JSON
// form, so scenario fields use the wire names.
func convert(in, out any) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func optionalError(msg string) error {
	if msg == "" {
		return nil
	}
	return errors.New(msg)
}

// errorCode returns the code of the first sync error in err's tree.
func errorCode(err error) string {
	if err == nil {
		return ""
	}
	var se *realtime.SyncError
	if errors.As(err, &se) {
		return string(se.Code)
	}
	return err.Error()
}

func cursorKey(name string) string {
	if name == CursorReservations {
		return store.KeyReservationCursor
	}
	return store.KeyOrderCursor
}
