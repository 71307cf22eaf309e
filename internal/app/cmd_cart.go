package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xenking/foodhub-client/internal/domain/cart"
	"github.com/xenking/foodhub-client/internal/domain/order"
	"github.com/xenking/foodhub-client/internal/notify"
)

func (c *cli) cartCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Manage the cart",
	}
	cmd.AddCommand(
		c.cartAddCommand(),
		c.cartRemoveCommand(),
		c.cartSetCommand(),
		c.cartClearCommand(),
		c.cartShowCommand(),
		c.cartCheckCommand(),
		c.cartExportCommand(),
		c.cartImportCommand(),
	)
	return cmd
}

// addToCart looks the meal up so the line carries current name, price and
// seller.
func (c *cli) addToCart(ctx context.Context, mealID string, qty int) error {
	m, err := c.app.API.GetMeal(ctx, mealID)
	if err != nil {
		return errors.Wrapf(err, "meal %s", mealID)
	}
	if !m.IsAvailable {
		c.app.Notifier.Notify(notify.Failure("Unavailable", m.Name+" is not available right now."))
		return errors.Errorf("meal %s is not available", mealID)
	}
	c.app.Cart.AddItem(ctx, cart.Item{
		ProductID:  m.ID,
		Name:       m.Name,
		UnitPrice:  m.Price,
		Image:      m.Image,
		ProviderID: m.ProviderID,
	}, qty)
	return nil
}

func (c *cli) cartAddCommand() *cobra.Command {
	var qty int
	cmd := &cobra.Command{
		Use:   "add MEAL_ID",
		Short: "Add a meal to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.addToCart(cmd.Context(), args[0], qty)
		},
	}
	cmd.Flags().IntVarP(&qty, "qty", "n", 1, "Quantity")
	return cmd
}

func (c *cli) cartRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove MEAL_ID",
		Short: "Remove a line from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.app.Cart.RemoveItem(cmd.Context(), args[0])
			return printCart(cmd.OutOrStdout(), c.app.Cart.Snapshot())
		},
	}
}

func (c *cli) cartSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set MEAL_ID QUANTITY",
		Short: "Change the quantity of a line; 0 removes it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := strconv.Atoi(args[1])
			if err != nil {
				return errors.Wrap(err, "quantity")
			}
			c.app.Cart.SetQuantity(cmd.Context(), args[0], qty)
			return printCart(cmd.OutOrStdout(), c.app.Cart.Snapshot())
		},
	}
}

func (c *cli) cartClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c.app.Cart.Clear(cmd.Context())
			return printCart(cmd.OutOrStdout(), c.app.Cart.Snapshot())
		},
	}
}

func (c *cli) cartShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printCart(cmd.OutOrStdout(), c.app.Cart.Snapshot())
		},
	}
}

func printCart(w io.Writer, snap cart.Snapshot) error {
	if snap.Empty() {
		_, _ = fmt.Fprintln(w, "Your cart is empty.")
		return nil
	}
	t := newTable(w)
	_, _ = fmt.Fprintln(t, "ID\tNAME\tQTY\tPRICE\tSUBTOTAL")
	for _, l := range snap.Lines {
		_, _ = fmt.Fprintf(t, "%s\t%s\t%d\t$%s\t$%s\n", l.ID, l.Name, l.Quantity, l.UnitPrice.StringFixed(2), l.Subtotal().StringFixed(2))
	}
	_, _ = fmt.Fprintf(t, "\t\t%d\tSubtotal\t$%s\n", snap.Count, snap.Total.StringFixed(2))
	_, _ = fmt.Fprintf(t, "\t\t\tDelivery\t$%s\n", order.DeliveryFee.StringFixed(2))
	_, _ = fmt.Fprintf(t, "\t\t\tTotal\t$%s\n", snap.Total.Add(order.DeliveryFee).StringFixed(2))
	return t.Flush()
}

func (c *cli) cartCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Compare the cart against the live catalogue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := order.Reprice(cmd.Context(), c.app.API, c.app.Cart.Snapshot().Lines, order.DefaultRepriceConcurrency)
			if err != nil {
				return err
			}
			printReprice(cmd.OutOrStdout(), report)
			return nil
		},
	}
}

func printReprice(w io.Writer, r order.RepriceReport) {
	if r.Clean() {
		_, _ = fmt.Fprintln(w, "Cart is up to date.")
		return
	}
	for _, ch := range r.Changed {
		_, _ = fmt.Fprintf(w, "price changed: %s $%s -> $%s\n", ch.Line.Name, ch.Line.UnitPrice.StringFixed(2), ch.NewPrice.StringFixed(2))
	}
	for _, l := range r.Unavailable {
		_, _ = fmt.Fprintf(w, "unavailable: %s\n", l.Name)
	}
	for _, l := range r.Missing {
		_, _ = fmt.Fprintf(w, "no longer sold: %s\n", l.Name)
	}
}

func (c *cli) cartExportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export FILE",
		Short: "Write the cart to a compressed backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Create(args[0])
			if err != nil {
				return errors.Wrap(err, "create backup")
			}
			if err := cart.Export(f, c.app.Cart.Snapshot()); err != nil {
				_ = f.Close()
				return err
			}
			return f.Close()
		},
	}
}

func (c *cli) cartImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Replace the cart with a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return errors.Wrap(err, "open backup")
			}
			defer func() { _ = f.Close() }()

			lines, err := cart.Import(f)
			if err != nil {
				return err
			}
			c.app.Cart.Replace(cmd.Context(), lines)
			return printCart(cmd.OutOrStdout(), c.app.Cart.Snapshot())
		},
	}
}

func (c *cli) checkoutCommand() *cobra.Command {
	var (
		form  order.Form
		force bool
	)
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Place an order for the cart (cash on delivery)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			w := cmd.OutOrStdout()
			if !force && !c.app.Cart.Snapshot().Empty() {
				report, err := order.Reprice(ctx, c.app.API, c.app.Cart.Snapshot().Lines, order.DefaultRepriceConcurrency)
				if err != nil {
					c.app.Log.Warn("Cart check failed; placing order anyway", zap.Error(err))
				} else if !report.Clean() {
					printReprice(w, report)
					return errors.New("cart is out of date; review it or use --force")
				}
			}

			o, err := c.app.Checkout.PlaceOrder(ctx, form)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(w, "Order %s placed, total $%s\n", o.ID, o.TotalAmount.StringFixed(2))
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&form.Name, "name", "", "Full name")
	fl.StringVar(&form.Email, "email", "", "Email address")
	fl.StringVar(&form.Address, "address", "", "Street address")
	fl.StringVar(&form.City, "city", "", "City")
	fl.StringVar(&form.ZipCode, "zip", "", "ZIP code")
	fl.StringVar(&form.Country, "country", "", "Country")
	fl.BoolVar(&force, "force", false, "Skip the catalogue check")
	return cmd
}
