package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/cafesync/internal/cafe"
	"github.com/roach88/cafesync/internal/clock"
	"github.com/roach88/cafesync/internal/config"
	"github.com/roach88/cafesync/internal/domain"
	"github.com/roach88/cafesync/internal/notify"
	"github.com/roach88/cafesync/internal/realtime"
	"github.com/roach88/cafesync/internal/remote"
	"github.com/roach88/cafesync/internal/remote/rest"
	"github.com/roach88/cafesync/internal/remote/sqlrepo"
	"github.com/roach88/cafesync/internal/store"
)

// errNoBackend is returned by commands that need the remote data source
// when the configuration selects none.
var errNoBackend = errors.New("no backend configured (set backend.supabase_url or backend.database_url)")

// app is the wiring shared by every command: configuration, logger, local
// state and, opened on first use, the remote backend.
type app struct {
	opts   *RootOptions
	cfg    *config.Config
	logger *slog.Logger
	clock  clock.Clock
	store  *store.Store
	out    *OutputFormatter

	backend     remote.Backend
	backendOpen bool
}

// openApp loads the configuration and opens the state file. Commands that
// stay in the foreground log at Info; one-shot commands log warnings only
// unless --verbose is set.
func openApp(cmd *cobra.Command, opts *RootOptions, level slog.Level) (*app, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}

	logger := newLogger(cmd.ErrOrStderr(), level, opts.Verbose)
	if cfg.ConfigPath != "" {
		logger.Debug("config loaded", "path", cfg.ConfigPath)
	}

	logger.Debug("opening state", "path", cfg.State.Path)
	st, err := store.Open(cfg.State.Path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open state", err)
	}

	clk := opts.Clock
	if clk == nil {
		clk = clock.System()
	}

	return &app{
		opts:   opts,
		cfg:    cfg,
		logger: logger,
		clock:  clk,
		store:  st,
		out: &OutputFormatter{
			Format:    opts.Format,
			Writer:    cmd.OutOrStdout(),
			ErrWriter: cmd.ErrOrStderr(),
			Verbose:   opts.Verbose,
		},
	}, nil
}

func newLogger(w io.Writer, level slog.Level, verbose bool) *slog.Logger {
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// presenterOptions applies the configured display duration and the test
// overrides for clock and ids.
func (a *app) presenterOptions() []notify.Option {
	opts := []notify.Option{
		notify.WithClock(a.clock),
		notify.WithDisplayDuration(a.cfg.Notify.DisplayDuration),
	}
	if a.opts.IDs != nil {
		opts = append(opts, notify.WithIDGenerator(a.opts.IDs))
	}
	return opts
}

// loopOptions applies the configured sync settings.
func (a *app) loopOptions() []realtime.Option {
	return append(a.cfg.LoopOptions(), realtime.WithClock(a.clock), realtime.WithLogger(a.logger))
}

// Backend opens the configured remote backend once. A nil backend with a
// nil error means none is configured.
func (a *app) Backend() (remote.Backend, error) {
	if a.backendOpen {
		return a.backend, nil
	}
	open := a.opts.OpenBackend
	if open == nil {
		open = openBackend
	}
	backend, err := open(a.cfg, a.store, a.logger)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open backend", err)
	}
	a.backend = backend
	a.backendOpen = true
	if backend != nil {
		a.logger.Debug("backend ready", "kind", a.cfg.BackendKind())
	}
	return backend, nil
}

// Service returns the café service over the backend, or errNoBackend.
func (a *app) Service() (*cafe.Service, error) {
	backend, err := a.Backend()
	if err != nil {
		return nil, err
	}
	if backend == nil {
		return nil, WrapExitError(ExitCommandError, "backend required", errNoBackend)
	}
	return cafe.NewService(backend, cafe.WithClock(a.clock), cafe.WithLogger(a.logger)), nil
}

// Close releases the backend and the state file.
func (a *app) Close() {
	if a.backend != nil {
		if err := a.backend.Close(); err != nil {
			a.logger.Error("error closing backend", "error", err)
		}
	}
	if err := a.store.Close(); err != nil {
		a.logger.Error("error closing state", "error", err)
	}
}

// openBackend selects the backend from cfg.
func openBackend(cfg *config.Config, st *store.Store, logger *slog.Logger) (remote.Backend, error) {
	switch cfg.BackendKind() {
	case config.BackendSupabase:
		client, err := rest.New(cfg.Backend.SupabaseURL, cfg.Backend.SupabaseKey,
			rest.WithSessionStore(st),
			rest.WithBucket(cfg.Backend.Bucket),
			rest.WithLogger(logger),
		)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.BackendSQL:
		repo, err := sqlrepo.Open(cfg.Backend.DBDriver, cfg.Backend.DatabaseURL, sqlrepo.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		return repo, nil
	}
	return nil, nil
}

// withService opens the app and the café service and runs fn. Errors from
// fn that are not already ExitErrors exit 1.
func withService(cmd *cobra.Command, opts *RootOptions, message string, fn func(a *app, svc *cafe.Service) error) error {
	a, err := openApp(cmd, opts, slog.LevelWarn)
	if err != nil {
		return err
	}
	defer a.Close()

	svc, err := a.Service()
	if err != nil {
		return err
	}
	if err := fn(a, svc); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return err
		}
		return WrapExitError(ExitFailure, message, err)
	}
	return nil
}

// parseID parses a positive record id argument.
func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(arg, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, WrapExitError(ExitCommandError, "invalid id", fmt.Errorf("%w: %q", domain.ErrInvalidID, arg))
	}
	return id, nil
}
