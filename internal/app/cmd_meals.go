package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/xenking/foodhub-client/internal/api"
	"github.com/xenking/foodhub-client/internal/domain/listquery"
	"github.com/xenking/foodhub-client/internal/domain/meal"
	"github.com/xenking/foodhub-client/internal/domain/review"
	"github.com/xenking/foodhub-client/internal/notify"
)

func (c *cli) mealsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meals",
		Short: "Browse the catalogue",
	}
	cmd.AddCommand(c.mealsListCommand(), c.mealsShowCommand(), c.mealsBrowseCommand())
	return cmd
}

type mealFlags struct {
	search   string
	category string
	diet     []string
	sort     string
	minPrice string
	maxPrice string
	page     int
}

func (f *mealFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.search, "search", "", "Search text")
	fl.StringVar(&f.category, "category", meal.AllCategories, "Category ID")
	fl.StringSliceVar(&f.diet, "diet", nil, "Dietary tags: Vegetarian, Vegan, Gluten-Free")
	fl.StringVar(&f.sort, "sort", meal.SortNewest, "newest, price-asc or price-desc")
	fl.StringVar(&f.minPrice, "min-price", "", "Minimum price")
	fl.StringVar(&f.maxPrice, "max-price", "", "Maximum price")
	fl.IntVar(&f.page, "page", 1, "Page number")
}

func (f *mealFlags) query() listquery.Query {
	q := listquery.Query{
		Search:  f.search,
		Sort:    f.sort,
		Page:    f.page,
		Filters: map[string][]string{},
	}
	if f.category != "" {
		q.Filters[meal.FilterCategory] = []string{f.category}
	}
	if len(f.diet) > 0 {
		q.Filters[meal.FilterDietary] = f.diet
	}
	if f.minPrice != "" {
		q.Filters[meal.FilterMinPrice] = []string{f.minPrice}
	}
	if f.maxPrice != "" {
		q.Filters[meal.FilterMaxPrice] = []string{f.maxPrice}
	}
	return q
}

func (c *cli) mealsListCommand() *cobra.Command {
	var f mealFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List meals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := fetchPage(cmd.Context(), c.app, "meals", c.app.API.MealSource(), f.query())
			if err != nil {
				return err
			}
			return printMeals(cmd.OutOrStdout(), s)
		},
	}
	f.register(cmd)
	return cmd
}

func printMeals(w io.Writer, s listquery.State[meal.Meal]) error {
	t := newTable(w)
	_, _ = fmt.Fprintln(t, "ID\tNAME\tPRICE\tDIET\tAVAILABLE")
	for _, m := range s.Items {
		_, _ = fmt.Fprintf(t, "%s\t%s\t$%s\t%s\t%s\n", m.ID, m.Name, m.Price.StringFixed(2), dietLabel(m), yesNo(m.IsAvailable))
	}
	if err := t.Flush(); err != nil {
		return err
	}
	pageFooter(w, s, "meals")
	return nil
}

func dietLabel(m meal.Meal) string {
	var tags []string
	if m.IsVegetarian {
		tags = append(tags, meal.DietVegetarian)
	}
	if m.IsVegan {
		tags = append(tags, meal.DietVegan)
	}
	if m.IsGlutenFree {
		tags = append(tags, meal.DietGlutenFree)
	}
	if len(tags) == 0 {
		return "-"
	}
	return strings.Join(tags, ",")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func (c *cli) mealsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show MEAL_ID",
		Short: "Show a meal with its reviews",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			m, err := c.app.API.GetMeal(ctx, args[0])
			if errors.Is(err, meal.ErrNotFound) {
				c.app.Notifier.Notify(notify.Failure("Meal Not Found", "The meal you're looking for doesn't exist."))
				return err
			}
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			t := newTable(w)
			_, _ = fmt.Fprintf(t, "Name\t%s\n", m.Name)
			_, _ = fmt.Fprintf(t, "Price\t$%s\n", m.Price.StringFixed(2))
			if m.Category != nil {
				_, _ = fmt.Fprintf(t, "Category\t%s\n", m.Category.Name)
			}
			_, _ = fmt.Fprintf(t, "Diet\t%s\n", dietLabel(*m))
			_, _ = fmt.Fprintf(t, "Available\t%s\n", yesNo(m.IsAvailable))
			_, _ = fmt.Fprintf(t, "Description\t%s\n", m.Description)
			if err := t.Flush(); err != nil {
				return err
			}

			s, err := fetchPage(ctx, c.app, "reviews", c.app.API.MealReviewSource(m.ID), listquery.Query{Page: 1})
			if err != nil {
				// The meal is still worth showing without its reviews.
				return nil
			}
			printReviewSummary(w, review.Summarize(s.Items))
			printReviews(w, s)
			return nil
		},
	}
}

func (c *cli) mealsBrowseCommand() *cobra.Command {
	var f mealFlags
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse meals interactively",
		Long: `Browse meals interactively. Commands:
  search <text>            replace the search text
  filter <name> [values]   set a filter (categoryId, dietary, minPrice, maxPrice); no values clears it
  sort <key>               newest, price-asc or price-desc
  page <n>                 jump to a page
  next, prev               move one page
  refresh                  reload the current page
  add <meal id> [qty]      add a meal to the cart
  quit                     leave`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctl := listquery.New(c.app.API.MealSource(), c.app.ListOptions("meals", f.query()))
			defer ctl.Close()
			return c.browse(cmd.Context(), ctl, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	f.register(cmd)
	return cmd
}

// browse runs a line-oriented loop over a meal list controller. Each
// command is applied to the controller and the list is printed once it
// settles.
func (c *cli) browse(ctx context.Context, ctl *listquery.Controller[meal.Meal], in io.Reader, out io.Writer) error {
	show := func() error {
		s, err := awaitSettled(ctx, ctl)
		if err != nil {
			return err
		}
		if s.Failed() {
			_, _ = fmt.Fprintf(out, "(showing last results: %s)\n", api.UserMessage(s.Err, "failed to load meals"))
		}
		return printMeals(out, s)
	}

	ctl.Start()
	if err := show(); err != nil {
		return err
	}

	sc := bufio.NewScanner(in)
	for {
		_, _ = fmt.Fprint(out, "> ")
		if !sc.Scan() {
			return sc.Err()
		}
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		cmd, args := fields[0], fields[1:]
		switch cmd {
		case "quit", "exit", "q":
			return nil
		case "search":
			ctl.SetSearch(strings.Join(args, " "))
		case "filter":
			if len(args) == 0 {
				_, _ = fmt.Fprintln(out, "usage: filter <name> [values...]")
				continue
			}
			ctl.SetFilter(args[0], args[1:]...)
		case "sort":
			if len(args) != 1 {
				_, _ = fmt.Fprintln(out, "usage: sort <newest|price-asc|price-desc>")
				continue
			}
			ctl.SetSort(args[0])
		case "page":
			if len(args) != 1 {
				_, _ = fmt.Fprintln(out, "usage: page <n>")
				continue
			}
			n, err := strconv.Atoi(args[0])
			if err != nil {
				_, _ = fmt.Fprintln(out, "usage: page <n>")
				continue
			}
			ctl.SetPage(n)
		case "next":
			ctl.NextPage()
		case "prev":
			ctl.PrevPage()
		case "refresh":
			ctl.Refresh()
		case "add":
			if len(args) == 0 {
				_, _ = fmt.Fprintln(out, "usage: add <meal id> [qty]")
				continue
			}
			qty := 1
			if len(args) > 1 {
				if n, err := strconv.Atoi(args[1]); err == nil {
					qty = n
				}
			}
			if err := c.addToCart(ctx, args[0], qty); err != nil {
				_, _ = fmt.Fprintln(out, err)
			}
			continue
		default:
			_, _ = fmt.Fprintf(out, "unknown command %q\n", cmd)
			continue
		}
		if err := show(); err != nil {
			return err
		}
	}
}
