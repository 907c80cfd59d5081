package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/cafesync/internal/store"
)

// authenticator is implemented by backends with a sign-in flow.
type authenticator interface {
	SignIn(ctx context.Context, email, password string) (store.Session, error)
	SignOut(ctx context.Context) error
}

var errNoAuth = errors.New("backend has no sign-in (requires the supabase backend)")

// SessionInfo is the non-secret part of a stored session.
type SessionInfo struct {
	SignedIn  bool   `json:"signed_in"`
	Email     string `json:"email,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	ExpiresAt string `json:"expires_at,omitempty"`
	Expired   bool   `json:"expired,omitempty"`
}

// NewAuthCommand creates the auth command group.
func NewAuthCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Sign in to the backend as a staff user",
		Long: `Sign in to the backend as a staff user. The session is kept in the local
state file and refreshed automatically; until a session exists, requests
use the anonymous key.`,
	}
	cmd.AddCommand(newAuthLoginCommand(rootOpts))
	cmd.AddCommand(newAuthLogoutCommand(rootOpts))
	cmd.AddCommand(newAuthWhoamiCommand(rootOpts))
	return cmd
}

func newAuthLoginCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		email         string
		passwordStdin bool
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Long: `Sign in with email and password. The password is read from the
CAFESYNC_PASSWORD environment variable, or from the first line of stdin
with --password-stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(email) == "" {
				return NewExitError(ExitCommandError, "--email is required")
			}
			password, err := readPassword(cmd.InOrStdin(), passwordStdin)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read password", err)
			}
			return withAuth(cmd, rootOpts, func(a *app, auth authenticator) error {
				sess, err := auth.SignIn(cmd.Context(), email, password)
				if err != nil {
					return WrapExitError(ExitFailure, "sign in failed", err)
				}
				info := sessionInfo(a, sess, true)
				return a.out.Result(info, func(w io.Writer) error {
					fmt.Fprintf(w, "✓ signed in as %s\n", info.Email)
					return nil
				})
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "staff email")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	return cmd
}

func readPassword(stdin io.Reader, fromStdin bool) (string, error) {
	if !fromStdin {
		if p := os.Getenv("CAFESYNC_PASSWORD"); p != "" {
			return p, nil
		}
		return "", errors.New("set CAFESYNC_PASSWORD or pass --password-stdin")
	}
	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("empty password")
	}
	return line, nil
}

func newAuthLogoutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAuth(cmd, rootOpts, func(a *app, auth authenticator) error {
				if err := auth.SignOut(cmd.Context()); err != nil {
					return WrapExitError(ExitFailure, "sign out failed", err)
				}
				return a.out.Result(SessionInfo{}, func(w io.Writer) error {
					fmt.Fprintln(w, "✓ signed out")
					return nil
				})
			})
		},
	}
}

func newAuthWhoamiCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, rootOpts, slog.LevelWarn)
			if err != nil {
				return err
			}
			defer a.Close()

			sess, ok, err := a.store.LoadSession(cmd.Context())
			if err != nil {
				return WrapExitError(ExitFailure, "failed to read session", err)
			}
			info := sessionInfo(a, sess, ok)
			return a.out.Result(info, func(w io.Writer) error {
				switch {
				case !info.SignedIn:
					fmt.Fprintln(w, "Not signed in.")
				case info.Expired:
					fmt.Fprintf(w, "%s (session expired %s, refreshed on next request)\n", info.Email, info.ExpiresAt)
				default:
					fmt.Fprintf(w, "%s (until %s)\n", info.Email, info.ExpiresAt)
				}
				return nil
			})
		},
	}
}

func sessionInfo(a *app, sess store.Session, ok bool) SessionInfo {
	if !ok {
		return SessionInfo{}
	}
	info := SessionInfo{
		SignedIn: true,
		Email:    sess.Email,
		UserID:   sess.UserID,
		Expired:  sess.Expired(a.clock.Now()),
	}
	if !sess.ExpiresAt.IsZero() {
		info.ExpiresAt = sess.ExpiresAt.Format("2006-01-02 15:04")
	}
	return info
}

func withAuth(cmd *cobra.Command, opts *RootOptions, fn func(a *app, auth authenticator) error) error {
	a, err := openApp(cmd, opts, slog.LevelWarn)
	if err != nil {
		return err
	}
	defer a.Close()

	backend, err := a.Backend()
	if err != nil {
		return err
	}
	if backend == nil {
		return WrapExitError(ExitCommandError, "backend required", errNoBackend)
	}
	auth, ok := backend.(authenticator)
	if !ok {
		return WrapExitError(ExitCommandError, "sign-in unavailable", errNoAuth)
	}
	return fn(a, auth)
}
