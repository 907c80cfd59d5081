package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/cafesync/internal/cafe"
	"github.com/roach88/cafesync/internal/domain"
)

// NewCustomersCommand creates the customers command group.
func NewCustomersCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "customers",
		Short: "List and add customers",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List customers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, rootOpts, "failed to list customers", func(a *app, svc *cafe.Service) error {
				customers, err := svc.Customers(cmd.Context())
				if err != nil {
					return err
				}
				if customers == nil {
					customers = []domain.Customer{}
				}
				return a.out.Result(customers, func(w io.Writer) error {
					if len(customers) == 0 {
						fmt.Fprintln(w, "No customers.")
						return nil
					}
					rows := make([][]string, 0, len(customers))
					for _, c := range customers {
						rows = append(rows, []string{fmt.Sprint(c.ID), c.Name, c.Phone, c.Email, c.CustomerType})
					}
					return writeTable(w, []string{"ID", "NAME", "PHONE", "EMAIL", "TYPE"}, rows)
				})
			})
		},
	})
	cmd.AddCommand(newCustomersAddCommand(rootOpts))
	return cmd
}

func newCustomersAddCommand(rootOpts *RootOptions) *cobra.Command {
	var c domain.Customer
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a customer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, rootOpts, "failed to add customer", func(a *app, svc *cafe.Service) error {
				created, err := svc.AddCustomer(cmd.Context(), c)
				if err != nil {
					return err
				}
				return a.out.Result(created, func(w io.Writer) error {
					fmt.Fprintf(w, "✓ added customer %s (id %d)\n", created.Name, created.ID)
					return nil
				})
			})
		},
	}
	cmd.Flags().StringVar(&c.Name, "name", "", "customer name")
	cmd.Flags().StringVar(&c.Email, "email", "", "email address")
	cmd.Flags().StringVar(&c.Phone, "phone", "", "phone number (10 to 13 digits)")
	cmd.Flags().StringVar(&c.Address, "address", "", "address")
	cmd.Flags().StringVar(&c.CustomerType, "type", "regular", "customer type")
	return cmd
}
