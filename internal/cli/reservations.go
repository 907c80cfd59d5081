package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/cafesync/internal/cafe"
	"github.com/roach88/cafesync/internal/domain"
)

// NewReservationsCommand creates the reservations command group.
func NewReservationsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reservations",
		Short: "List and add table reservations",
	}
	cmd.AddCommand(newReservationsListCommand(rootOpts))
	cmd.AddCommand(newReservationsAddCommand(rootOpts))
	return cmd
}

func newReservationsListCommand(rootOpts *RootOptions) *cobra.Command {
	var filter domain.ReservationFilter
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reservations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, rootOpts, "failed to list reservations", func(a *app, svc *cafe.Service) error {
				reservations, err := svc.Reservations(cmd.Context(), filter)
				if err != nil {
					return err
				}
				if reservations == nil {
					reservations = []domain.Reservation{}
				}
				return a.out.Result(reservations, func(w io.Writer) error {
					return writeReservations(w, reservations)
				})
			})
		},
	}
	cmd.Flags().StringVar(&filter.Status, "status", "", "only reservations with this status")
	cmd.Flags().StringVar(&filter.Date, "date", "", "only reservations on YYYY-MM-DD")
	cmd.Flags().BoolVar(&filter.Upcoming, "upcoming", false, "only reservations from today on")
	return cmd
}

func writeReservations(w io.Writer, reservations []domain.Reservation) error {
	if len(reservations) == 0 {
		fmt.Fprintln(w, "No reservations.")
		return nil
	}
	rows := make([][]string, 0, len(reservations))
	for _, r := range reservations {
		table := "-"
		if r.TableID != 0 {
			table = fmt.Sprint(r.TableID)
		}
		rows = append(rows, []string{
			fmt.Sprint(r.ID),
			r.ReservationDate + " " + r.ReservationTime,
			r.CustomerName,
			fmt.Sprintf("%d tamu", r.NumberOfGuests),
			table,
			r.Status,
		})
	}
	return writeTable(w, []string{"ID", "WHEN", "CUSTOMER", "GUESTS", "TABLE", "STATUS"}, rows)
}

func newReservationsAddCommand(rootOpts *RootOptions) *cobra.Command {
	var n domain.NewReservation
	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Book a table",
		Example: `  cafesync reservations add --customer Andi --date 2024-05-02 --time 19:00 --guests 4`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, rootOpts, "failed to add reservation", func(a *app, svc *cafe.Service) error {
				created, err := svc.CreateReservation(cmd.Context(), n)
				if err != nil {
					return err
				}
				return a.out.Result(created, func(w io.Writer) error {
					fmt.Fprintf(w, "✓ reserved for %s, %d tamu, %s %s (id %d)\n",
						created.CustomerName, created.NumberOfGuests,
						created.ReservationDate, created.ReservationTime, created.ID)
					return nil
				})
			})
		},
	}
	cmd.Flags().StringVar(&n.CustomerName, "customer", "", "customer name")
	cmd.Flags().StringVar(&n.CustomerPhone, "phone", "", "customer phone")
	cmd.Flags().StringVar(&n.Date, "date", "", "reservation date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&n.Time, "time", "", "reservation time (HH:MM)")
	cmd.Flags().IntVar(&n.Guests, "guests", 2, "number of guests")
	cmd.Flags().Int64Var(&n.TableID, "table", 0, "table id")
	cmd.Flags().StringVar(&n.Notes, "notes", "", "special requests")
	return cmd
}
