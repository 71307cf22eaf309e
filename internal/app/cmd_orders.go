package app

import (
	"context"
	"fmt"
	"io"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/xenking/foodhub-client/internal/domain/listquery"
	"github.com/xenking/foodhub-client/internal/domain/order"
	"github.com/xenking/foodhub-client/internal/domain/user"
)

// findPageSize is the page size used when scanning for a single order.
const findPageSize = 50

func (c *cli) ordersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List and manage orders",
	}
	cmd.AddCommand(c.ordersListCommand(), c.ordersAdvanceCommand(), c.ordersCancelCommand())
	return cmd
}

// scope picks the order listing for the signed-in user.
func (c *cli) scope(ctx context.Context, all bool) (order.Scope, error) {
	if all {
		return order.ScopeAll, nil
	}
	s, err := c.app.Auth.RequireSession(ctx)
	if err != nil {
		return 0, err
	}
	if s.User.Role == user.RoleProvider {
		return order.ScopeProvider, nil
	}
	return order.ScopeMine, nil
}

func (c *cli) ordersListCommand() *cobra.Command {
	var (
		all    bool
		status string
		page   int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your orders (received orders for providers)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			scope, err := c.scope(ctx, all)
			if err != nil {
				return err
			}
			q := listquery.Query{Page: page}
			if status != "" {
				q.Filters = map[string][]string{"status": {status}}
			}
			s, err := fetchPage(ctx, c.app, "orders", c.app.API.OrderSource(scope), q)
			if err != nil {
				return err
			}
			return printOrders(cmd.OutOrStdout(), s)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "List every order (admin)")
	cmd.Flags().StringVar(&status, "status", "", "Only orders with this status")
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	return cmd
}

func printOrders(w io.Writer, s listquery.State[order.Order]) error {
	t := newTable(w)
	_, _ = fmt.Fprintln(t, "ID\tSTATUS\tITEMS\tTOTAL\tPLACED\tNEXT")
	for _, o := range s.Items {
		next := "-"
		if n, ok := order.NextStatus(o.Status); ok {
			next = string(n)
		}
		items := 0
		for _, it := range o.Items {
			items += it.Quantity
		}
		_, _ = fmt.Fprintf(t, "%s\t%s\t%d\t$%s\t%s\t%s\n",
			o.ID, o.Status, items, o.TotalAmount.StringFixed(2), o.CreatedAt.Local().Format("2006-01-02 15:04"), next)
	}
	if err := t.Flush(); err != nil {
		return err
	}
	pageFooter(w, s, "orders")
	return nil
}

// findOrder scans the listing for scope until it finds id. The API has no
// single-order endpoint.
func (c *cli) findOrder(ctx context.Context, scope order.Scope, id string) (*order.Order, error) {
	for page := 1; ; page++ {
		res, err := c.app.API.ListOrders(ctx, scope, listquery.Query{Page: page, PageSize: findPageSize})
		if err != nil {
			return nil, err
		}
		for i := range res.Items {
			if res.Items[i].ID == id {
				return &res.Items[i], nil
			}
		}
		total := res.TotalPages
		if total < 1 {
			total = listquery.TotalPages(res.TotalItems, findPageSize)
		}
		if page >= total || len(res.Items) == 0 {
			return nil, errors.Errorf("order %s not found", id)
		}
	}
}

func (c *cli) ordersAdvanceCommand() *cobra.Command {
	var to string
	cmd := &cobra.Command{
		Use:   "advance ORDER_ID",
		Short: "Move a received order to its next status (provider)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			o, err := c.findOrder(ctx, order.ScopeProvider, args[0])
			if err != nil {
				return err
			}
			var updated *order.Order
			if to != "" {
				updated, err = c.app.Orders.UpdateStatus(ctx, *o, order.Status(to))
			} else {
				updated, err = c.app.Orders.Advance(ctx, *o)
			}
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Order %s is now %s\n", updated.ID, updated.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "Target status (defaults to the next one)")
	return cmd
}

func (c *cli) ordersCancelCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel ORDER_ID",
		Short: "Cancel a placed order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			o, err := c.findOrder(ctx, order.ScopeMine, args[0])
			if err != nil {
				return err
			}
			if _, err := c.app.Orders.Cancel(ctx, *o); err != nil {
				return err
			}
			return nil
		},
	}
}
