package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/cafesync/internal/config"
)

// NewConfigCommand creates the config command group.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the configuration file",
	}
	cmd.AddCommand(newConfigShowCommand(rootOpts))
	cmd.AddCommand(newConfigInitCommand(rootOpts))
	return cmd
}

const redacted = "********"

func newConfigShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets redacted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(rootOpts.ConfigPath)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load config", err)
			}
			if cfg.Backend.SupabaseKey != "" {
				cfg.Backend.SupabaseKey = redacted
			}
			if cfg.Backend.DatabaseURL != "" {
				cfg.Backend.DatabaseURL = redacted
			}

			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return out.Result(cfg, func(w io.Writer) error {
				if cfg.ConfigPath != "" {
					fmt.Fprintf(w, "# from %s\n", cfg.ConfigPath)
				} else {
					fmt.Fprintln(w, "# defaults (no config file found)")
				}
				enc := yaml.NewEncoder(w)
				enc.SetIndent(2)
				if err := enc.Encode(cfg); err != nil {
					return err
				}
				return enc.Close()
			})
		},
	}
}

func newConfigInitCommand(rootOpts *RootOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a default configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.SearchPaths[0]
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return NewExitError(ExitCommandError, fmt.Sprintf("%s already exists (use --force to overwrite)", path))
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return WrapExitError(ExitCommandError, "failed to check config path", err)
			}
			if err := config.Default().Save(path); err != nil {
				return WrapExitError(ExitCommandError, "failed to write config", err)
			}
			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return out.Result(map[string]string{"path": path}, func(w io.Writer) error {
				fmt.Fprintf(w, "✓ wrote %s\n", path)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
