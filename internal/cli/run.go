package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/cafesync/internal/api"
	"github.com/roach88/cafesync/internal/bus"
	"github.com/roach88/cafesync/internal/cafe"
	"github.com/roach88/cafesync/internal/config"
	"github.com/roach88/cafesync/internal/notify"
	"github.com/roach88/cafesync/internal/realtime"
	"github.com/roach88/cafesync/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	NoServer bool
	Addr     string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the notification sync loop",
		Long: `Run the notification sync loop in the foreground.

The loop polls the remote data source for new orders and reservations on
one timer, drains the local mailbox on another, and reacts immediately to
mailbox change signals. Notifications are logged and, when enabled, pushed
to dashboard clients over the admin API websocket.

Example:
  cafesync run
  cafesync run --config ./cafesync.yaml --addr 0.0.0.0:8080 -v`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoop(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.NoServer, "no-server", false, "do not start the admin API")
	cmd.Flags().StringVar(&opts.Addr, "addr", "", "admin API listen address (overrides server.host/port)")

	return cmd
}

func runLoop(opts *RunOptions, cmd *cobra.Command) error {
	a, err := openApp(cmd, opts.RootOptions, slog.LevelInfo)
	if err != nil {
		return err
	}
	defer a.Close()
	slog.SetDefault(a.logger)
	cfg := a.cfg

	backend, err := a.Backend()
	if err != nil {
		return err
	}
	var (
		source realtime.Source
		svc    *cafe.Service
	)
	if backend != nil {
		source = backend
		svc, _ = a.Service()
	} else {
		a.logger.Warn("no backend configured, remote polling disabled")
	}

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			a.logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	sinks := notify.MultiSink{notify.LogSink{Logger: a.logger}}
	var feed http.Handler
	if cfg.Notify.Websocket {
		hub := notify.NewHub(a.logger, cfg.Notify.AllowedOrigins...)
		go hub.Run(ctx)
		sinks = append(sinks, hub)
		feed = hub
	}
	presenter := notify.NewPresenter(sinks, a.presenterOptions()...)

	loop := realtime.New(source, a.store, presenter, a.loopOptions()...)

	signals, err := openBus(cfg, a.logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to connect change bus", err)
	}
	defer signals.Close()
	unsubscribe, err := signals.Subscribe(ctx, store.KeyMailbox, func(_ context.Context, key string) {
		loop.StorageChanged(key)
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to subscribe to mailbox changes", err)
	}
	defer unsubscribe()

	serverErr := make(chan error, 1)
	if cfg.Server.Enabled && !opts.NoServer {
		addr := opts.Addr
		if addr == "" {
			addr = cfg.Addr()
		}
		srv := api.NewServer(api.Deps{
			Loop:    loop,
			State:   a.store,
			Bus:     signals,
			Service: svc,
			Feed:    feed,
			Logger:  a.logger,
		})
		go func() {
			serverErr <- srv.Serve(ctx, addr)
		}()
	}

	loopErr := make(chan error, 1)
	go func() {
		loopErr <- loop.Run(ctx)
	}()

	a.logger.Info("cafesync started", "state", cfg.State.Path, "backend", cfg.BackendKind())

	select {
	case err := <-loopErr:
		cancel()
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			return WrapExitError(ExitFailure, "sync loop error", err)
		}
	case err := <-serverErr:
		loop.Stop()
		<-loopErr
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return WrapExitError(ExitFailure, "admin api error", err)
		}
	}

	a.logger.Info("cafesync stopped gracefully")
	return nil
}

// openBus connects to NATS when a URL is configured. Without one, change
// signals stay inside this process.
func openBus(cfg *config.Config, logger *slog.Logger) (bus.Bus, error) {
	if cfg.Bus.NATSURL == "" {
		return bus.NewLocalBus(), nil
	}
	return bus.NewNATSBus(cfg.Bus.NATSURL,
		bus.WithSubjectPrefix(cfg.Bus.SubjectPrefix),
		bus.WithLogger(logger),
	)
}
