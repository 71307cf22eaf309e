package app

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/xenking/foodhub-client/internal/api"
	"github.com/xenking/foodhub-client/internal/domain/listquery"
	"github.com/xenking/foodhub-client/internal/domain/meal"
	"github.com/xenking/foodhub-client/internal/notify"
)

func (c *cli) providerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "provider",
		Short: "Manage your menu and see your dashboard",
	}
	meals := &cobra.Command{
		Use:   "meals",
		Short: "Manage your meals",
	}
	meals.AddCommand(
		c.providerMealsListCommand(),
		c.providerMealCreateCommand(),
		c.providerMealUpdateCommand(),
		c.providerMealDeleteCommand(),
	)
	cmd.AddCommand(meals, c.providerStatsCommand())
	return cmd
}

func (c *cli) providerMealsListCommand() *cobra.Command {
	var (
		search string
		page   int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your meals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q := listquery.Query{Search: search, Page: page}
			s, err := fetchPage(cmd.Context(), c.app, "my meals", c.app.API.ProviderMealSource(), q)
			if err != nil {
				return err
			}
			return printMeals(cmd.OutOrStdout(), s)
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "Search text")
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	return cmd
}

// mealForm binds meal fields to flags. Only flags that were set override
// the base input on update.
type mealForm struct {
	in    meal.Input
	price string
	file  string
}

func (f *mealForm) register(fl *pflag.FlagSet) {
	fl.StringVar(&f.in.Name, "name", "", "Meal name")
	fl.StringVar(&f.in.Description, "description", "", "Description")
	fl.StringVar(&f.price, "price", "", "Price")
	fl.StringVar(&f.in.CategoryID, "category", "", "Category ID")
	fl.StringVar(&f.in.Image, "image-url", "", "Image URL")
	fl.StringVar(&f.file, "image", "", "Image file to upload")
	fl.BoolVar(&f.in.IsAvailable, "available", true, "Available for order")
	fl.BoolVar(&f.in.IsVegetarian, "vegetarian", false, "Vegetarian")
	fl.BoolVar(&f.in.IsVegan, "vegan", false, "Vegan")
	fl.BoolVar(&f.in.IsGlutenFree, "gluten-free", false, "Gluten-free")
}

// merge overlays the flags that were set onto base.
func (f *mealForm) merge(fl *pflag.FlagSet, base meal.Input) meal.Input {
	out := base
	set := func(name string, apply func()) {
		if fl.Changed(name) {
			apply()
		}
	}
	set("name", func() { out.Name = f.in.Name })
	set("description", func() { out.Description = f.in.Description })
	set("category", func() { out.CategoryID = f.in.CategoryID })
	set("image-url", func() { out.Image = f.in.Image })
	set("available", func() { out.IsAvailable = f.in.IsAvailable })
	set("vegetarian", func() { out.IsVegetarian = f.in.IsVegetarian })
	set("vegan", func() { out.IsVegan = f.in.IsVegan })
	set("gluten-free", func() { out.IsGlutenFree = f.in.IsGlutenFree })
	return out
}

// finish parses the price, uploads the image file and validates.
func (f *mealForm) finish(ctx context.Context, c *cli, fl *pflag.FlagSet, in meal.Input) (meal.Input, error) {
	if fl.Changed("price") {
		p, err := decimal.NewFromString(f.price)
		if err != nil {
			return in, errors.Errorf("invalid price %q", f.price)
		}
		in.Price = p
	}
	if err := in.Validate(); err != nil {
		return in, err
	}
	img, err := c.resolveImage(ctx, f.file, in.Image)
	if err != nil {
		c.app.Notifier.Notify(notify.Failure("Error", err.Error()))
		return in, err
	}
	in.Image = img
	return in, nil
}

func (c *cli) providerMealCreateCommand() *cobra.Command {
	var f mealForm
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add a meal to your menu",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			in, err := f.finish(ctx, c, cmd.Flags(), f.in)
			if err != nil {
				return err
			}
			m, err := c.app.API.CreateMeal(ctx, in)
			if err != nil {
				c.app.Notifier.Notify(notify.Failure("Error", api.UserMessage(err, "Failed to save meal")))
				return err
			}
			c.app.Notifier.Notify(notify.Info("Success", "Meal created successfully"))
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), m.ID)
			return nil
		},
	}
	f.register(cmd.Flags())
	return cmd
}

func (c *cli) providerMealUpdateCommand() *cobra.Command {
	var f mealForm
	cmd := &cobra.Command{
		Use:   "update MEAL_ID",
		Short: "Edit one of your meals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cur, err := c.app.API.GetMeal(ctx, args[0])
			if err != nil {
				return err
			}
			base := meal.Input{
				Name:         cur.Name,
				Description:  cur.Description,
				Price:        cur.Price,
				CategoryID:   cur.CategoryID,
				Image:        cur.Image,
				IsAvailable:  cur.IsAvailable,
				IsVegetarian: cur.IsVegetarian,
				IsVegan:      cur.IsVegan,
				IsGlutenFree: cur.IsGlutenFree,
			}
			in, err := f.finish(ctx, c, cmd.Flags(), f.merge(cmd.Flags(), base))
			if err != nil {
				return err
			}
			if _, err := c.app.API.UpdateMeal(ctx, cur.ID, in); err != nil {
				c.app.Notifier.Notify(notify.Failure("Error", api.UserMessage(err, "Failed to save meal")))
				return err
			}
			c.app.Notifier.Notify(notify.Info("Success", "Meal updated successfully"))
			return nil
		},
	}
	f.register(cmd.Flags())
	return cmd
}

func (c *cli) providerMealDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete MEAL_ID",
		Short: "Remove one of your meals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.API.DeleteMeal(cmd.Context(), args[0]); err != nil {
				c.app.Notifier.Notify(notify.Failure("Error", api.UserMessage(err, "Failed to delete meal")))
				return err
			}
			c.app.Notifier.Notify(notify.Info("Success", "Meal deleted successfully"))
			return nil
		},
	}
}

func (c *cli) providerStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show your dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := c.app.API.ProviderStats(cmd.Context())
			if err != nil {
				return err
			}
			s := d.Stats
			t := newTable(cmd.OutOrStdout())
			_, _ = fmt.Fprintf(t, "Revenue\t$%s\n", s.TotalRevenue.StringFixed(2))
			_, _ = fmt.Fprintf(t, "Pending orders\t%d\n", s.PendingOrders)
			_, _ = fmt.Fprintf(t, "Meals\t%d (%d available)\n", s.TotalMeals, s.AvailableMeals)
			_, _ = fmt.Fprintf(t, "Orders\t%d (%d completed, %d cancelled)\n", s.TotalOrders, s.CompletedOrders, s.CancelledOrders)
			_, _ = fmt.Fprintf(t, "Reviews\t%d (avg %.1f)\n", s.TotalReviews, s.AverageRating)
			_, _ = fmt.Fprintf(t, "Recent orders\t%d\n", len(d.RecentOrders))
			return t.Flush()
		},
	}
}
