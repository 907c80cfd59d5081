package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/cafesync/internal/cafe"
	"github.com/roach88/cafesync/internal/domain"
	"github.com/roach88/cafesync/internal/format"
)

// NewOrdersCommand creates the orders command group.
func NewOrdersCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List, create and progress orders in the backend",
	}
	cmd.AddCommand(newOrdersListCommand(rootOpts))
	cmd.AddCommand(newOrdersShowCommand(rootOpts))
	cmd.AddCommand(newOrdersStatusCommand(rootOpts))
	cmd.AddCommand(newOrdersCreateCommand(rootOpts))
	return cmd
}

func newOrdersListCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		status string
		date   string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List orders, newest first",
		Example: `  cafesync orders list --status pending
  cafesync orders list --date 2024-05-01 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := domain.OrderFilter{Date: date, Limit: limit}
			if status != "" {
				s, err := domain.ParseOrderStatus(status)
				if err != nil {
					return WrapExitError(ExitCommandError, "invalid --status", err)
				}
				filter.Status = s
			}
			return withService(cmd, rootOpts, "failed to list orders", func(a *app, svc *cafe.Service) error {
				orders, err := svc.Orders(cmd.Context(), filter)
				if err != nil {
					return err
				}
				if orders == nil {
					orders = []domain.Order{}
				}
				return a.out.Result(orders, func(w io.Writer) error {
					return writeOrders(w, orders)
				})
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only orders with this status")
	cmd.Flags().StringVar(&date, "date", "", "only orders dated YYYY-MM-DD")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum orders to list (0 for all)")
	return cmd
}

func writeOrders(w io.Writer, orders []domain.Order) error {
	if len(orders) == 0 {
		fmt.Fprintln(w, "No orders.")
		return nil
	}
	rows := make([][]string, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, []string{
			fmt.Sprint(o.ID),
			"#" + o.DisplayNumber(),
			o.CustomerName,
			string(o.Status),
			format.Currency(o.TotalAmount),
			o.OrderDate,
		})
	}
	return writeTable(w, []string{"ID", "NUMBER", "CUSTOMER", "STATUS", "TOTAL", "DATE"}, rows)
}

func newOrdersShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show an order with its line items",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withService(cmd, rootOpts, "failed to get order", func(a *app, svc *cafe.Service) error {
				order, err := svc.Order(cmd.Context(), id)
				if err != nil {
					return err
				}
				return a.out.Result(order, func(w io.Writer) error {
					return writeOrder(w, order)
				})
			})
		},
	}
}

func writeOrder(w io.Writer, o domain.Order) error {
	fmt.Fprintf(w, "Order #%s (id %d)\n", o.DisplayNumber(), o.ID)
	fmt.Fprintf(w, "Customer: %s\n", o.CustomerName)
	fmt.Fprintf(w, "Status:   %s\n", o.Status)
	if !o.CreatedAt.IsZero() {
		fmt.Fprintf(w, "Placed:   %s %s\n", format.Date(o.CreatedAt), format.Time(o.CreatedAt))
	}
	if o.Notes != "" {
		fmt.Fprintf(w, "Notes:    %s\n", o.Notes)
	}
	if len(o.Items) > 0 {
		fmt.Fprintln(w)
		rows := make([][]string, 0, len(o.Items))
		for _, li := range o.Items {
			rows = append(rows, []string{
				li.Name,
				fmt.Sprint(li.Quantity),
				format.Currency(li.UnitPrice),
				format.Currency(li.Subtotal()),
			})
		}
		if err := writeTable(w, []string{"ITEM", "QTY", "PRICE", "SUBTOTAL"}, rows); err != nil {
			return err
		}
	}
	fmt.Fprintf(w, "Total:    %s\n", format.Currency(o.TotalAmount))
	return nil
}

func newOrdersStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Move an order to a new status",
		Long: `Move an order along its lifecycle:

  pending -> confirmed | preparing | cancelled
  confirmed -> preparing | ready | cancelled
  preparing -> ready | cancelled
  ready -> completed | cancelled

Setting the current status again is a no-op.`,
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withService(cmd, rootOpts, "failed to update order", func(a *app, svc *cafe.Service) error {
				order, err := svc.UpdateOrderStatus(cmd.Context(), id, args[1])
				if err != nil {
					return err
				}
				return a.out.Result(order, func(w io.Writer) error {
					fmt.Fprintf(w, "✓ order #%s is now %s\n", order.DisplayNumber(), order.Status)
					return nil
				})
			})
		},
	}
}

func newOrdersCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		n     domain.NewOrder
		items []string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a pending order",
		Example: `  cafesync orders create --customer Budi --item "Kopi Susu:2:18000" --item "Roti Bakar:1:15000"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, raw := range items {
				li, err := parseLineItem(raw)
				if err != nil {
					return WrapExitError(ExitCommandError, "invalid --item", err)
				}
				n.Items = append(n.Items, li)
			}
			return withService(cmd, rootOpts, "failed to create order", func(a *app, svc *cafe.Service) error {
				order, err := svc.CreateOrder(cmd.Context(), n)
				if err != nil {
					return err
				}
				return a.out.Result(order, func(w io.Writer) error {
					fmt.Fprintf(w, "✓ created order #%s for %s (%s)\n",
						order.DisplayNumber(), order.CustomerName, format.Currency(order.TotalAmount))
					return nil
				})
			})
		},
	}
	cmd.Flags().StringVar(&n.CustomerName, "customer", "", "customer name")
	cmd.Flags().StringVar(&n.CustomerPhone, "phone", "", "customer phone")
	cmd.Flags().StringVar(&n.Notes, "notes", "", "order notes")
	cmd.Flags().StringVar(&n.OrderType, "type", "", "order type (dine_in, takeaway, ...)")
	cmd.Flags().Int64Var(&n.Total, "total", 0, "total amount (defaults to the sum of the items)")
	cmd.Flags().StringArrayVar(&items, "item", nil, "line item as name:quantity:unit_price (repeatable)")
	return cmd
}

// parseLineItem parses "name:quantity:unit_price". The name may itself
// contain colons.
func parseLineItem(raw string) (domain.LineItem, error) {
	priceAt := strings.LastIndex(raw, ":")
	if priceAt < 0 {
		return domain.LineItem{}, fmt.Errorf("%q: want name:quantity:unit_price", raw)
	}
	qtyAt := strings.LastIndex(raw[:priceAt], ":")
	if qtyAt < 0 {
		return domain.LineItem{}, fmt.Errorf("%q: want name:quantity:unit_price", raw)
	}
	qty, err := strconv.Atoi(raw[qtyAt+1 : priceAt])
	if err != nil {
		return domain.LineItem{}, fmt.Errorf("%q: quantity: %w", raw, err)
	}
	price, err := strconv.ParseInt(raw[priceAt+1:], 10, 64)
	if err != nil {
		return domain.LineItem{}, fmt.Errorf("%q: unit price: %w", raw, err)
	}
	li := domain.LineItem{Name: strings.TrimSpace(raw[:qtyAt]), Quantity: qty, UnitPrice: price}
	return li, li.Validate()
}
