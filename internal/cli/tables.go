package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/cafesync/internal/cafe"
	"github.com/roach88/cafesync/internal/domain"
)

// NewTablesCommand creates the tables command group.
func NewTablesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "Show and change table occupancy",
	}
	cmd.AddCommand(newTablesListCommand(rootOpts))
	cmd.AddCommand(newTablesStatusCommand(rootOpts))
	return cmd
}

func newTablesListCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		filter domain.TableFilter
		status string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if status != "" {
				s, err := domain.ParseTableStatus(status)
				if err != nil {
					return WrapExitError(ExitCommandError, "invalid --status", err)
				}
				filter.Status = s
			}
			return withService(cmd, rootOpts, "failed to list tables", func(a *app, svc *cafe.Service) error {
				tables, err := svc.Tables(cmd.Context(), filter)
				if err != nil {
					return err
				}
				if tables == nil {
					tables = []domain.Table{}
				}
				return a.out.Result(tables, func(w io.Writer) error {
					if len(tables) == 0 {
						fmt.Fprintln(w, "No tables.")
						return nil
					}
					rows := make([][]string, 0, len(tables))
					for _, t := range tables {
						rows = append(rows, []string{
							fmt.Sprint(t.ID), t.TableNumber, fmt.Sprint(t.Capacity), t.Location, string(t.Status),
						})
					}
					return writeTable(w, []string{"ID", "TABLE", "SEATS", "LOCATION", "STATUS"}, rows)
				})
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only tables with this status")
	cmd.Flags().StringVar(&filter.Location, "location", "", "only tables in this location")
	return cmd
}

func newTablesStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <available|occupied|reserved|maintenance>",
		Short: "Set a table's status",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withService(cmd, rootOpts, "failed to update table", func(a *app, svc *cafe.Service) error {
				table, err := svc.UpdateTableStatus(cmd.Context(), id, args[1])
				if err != nil {
					return err
				}
				return a.out.Result(table, func(w io.Writer) error {
					fmt.Fprintf(w, "✓ table %s is now %s\n", table.TableNumber, table.Status)
					return nil
				})
			})
		},
	}
}
