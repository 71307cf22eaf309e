package app

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/xenking/foodhub-client/internal/api"
	"github.com/xenking/foodhub-client/internal/domain/listquery"
	"github.com/xenking/foodhub-client/internal/domain/meal"
	"github.com/xenking/foodhub-client/internal/domain/user"
	"github.com/xenking/foodhub-client/internal/notify"
)

func (c *cli) adminCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Platform administration",
	}

	users := &cobra.Command{
		Use:   "users",
		Short: "Manage accounts",
	}
	users.AddCommand(
		c.adminUsersListCommand(),
		c.adminUserStatusCommand("suspend", user.StatusSuspended),
		c.adminUserStatusCommand("activate", user.StatusActive),
	)

	categories := &cobra.Command{
		Use:   "categories",
		Short: "Manage meal categories",
	}
	categories.AddCommand(
		c.adminCategoriesListCommand(),
		c.adminCategoryCreateCommand(),
		c.adminCategoryUpdateCommand(),
		c.adminCategoryDeleteCommand(),
	)

	cmd.AddCommand(users, categories, c.adminStatsCommand())
	return cmd
}

func (c *cli) adminUsersListCommand() *cobra.Command {
	var (
		search string
		role   string
		status string
		page   int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q := listquery.Query{Search: search, Page: page, Filters: map[string][]string{}}
			if role != "" {
				q.Filters["role"] = []string{role}
			}
			if status != "" {
				q.Filters["status"] = []string{status}
			}
			s, err := fetchPage(cmd.Context(), c.app, "users", c.app.API.UserSource(), q)
			if err != nil {
				return err
			}
			return printUsers(cmd.OutOrStdout(), s)
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "Search by name or email")
	cmd.Flags().StringVar(&role, "role", "", "CUSTOMER, PROVIDER or ADMIN")
	cmd.Flags().StringVar(&status, "status", "", "ACTIVE or SUSPENDED")
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	return cmd
}

func printUsers(w io.Writer, s listquery.State[user.User]) error {
	t := newTable(w)
	_, _ = fmt.Fprintln(t, "ID\tNAME\tEMAIL\tROLE\tSTATUS")
	for _, u := range s.Items {
		_, _ = fmt.Fprintf(t, "%s\t%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Role, u.Status)
	}
	if err := t.Flush(); err != nil {
		return err
	}
	pageFooter(w, s, "users")
	return nil
}

func (c *cli) adminUserStatusCommand(verb string, status user.Status) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " USER_ID",
		Short: "Set an account to " + string(status),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.app.API.UpdateUserStatus(cmd.Context(), args[0], status); err != nil {
				c.app.Notifier.Notify(notify.Failure("Error", api.UserMessage(err, "Failed to update user status")))
				return err
			}
			c.app.Notifier.Notify(notify.Info("Success", "User status updated successfully"))
			return nil
		},
	}
}

func (c *cli) adminCategoriesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := fetchPage(cmd.Context(), c.app, "categories", c.app.API.CategorySource(), listquery.Query{Page: 1})
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			t := newTable(w)
			_, _ = fmt.Fprintln(t, "ID\tNAME\tDESCRIPTION")
			for _, cat := range s.Items {
				_, _ = fmt.Fprintf(t, "%s\t%s\t%s\n", cat.ID, cat.Name, cat.Description)
			}
			if err := t.Flush(); err != nil {
				return err
			}
			pageFooter(w, s, "categories")
			return nil
		},
	}
}

func (c *cli) adminCategoryCreateCommand() *cobra.Command {
	var in meal.CategoryInput
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add a category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := in.Validate(); err != nil {
				return err
			}
			cat, err := c.app.API.CreateCategory(cmd.Context(), in)
			if err != nil {
				c.app.Notifier.Notify(notify.Failure("Error", api.UserMessage(err, "Failed to save category")))
				return err
			}
			c.app.Notifier.Notify(notify.Info("Success", "Category created successfully"))
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cat.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "Category name")
	cmd.Flags().StringVar(&in.Description, "description", "", "Description")
	return cmd
}

func (c *cli) adminCategoryUpdateCommand() *cobra.Command {
	var in meal.CategoryInput
	cmd := &cobra.Command{
		Use:   "update CATEGORY_ID",
		Short: "Rename a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := in.Validate(); err != nil {
				return err
			}
			if _, err := c.app.API.UpdateCategory(cmd.Context(), args[0], in); err != nil {
				c.app.Notifier.Notify(notify.Failure("Error", api.UserMessage(err, "Failed to save category")))
				return err
			}
			c.app.Notifier.Notify(notify.Info("Success", "Category updated successfully"))
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "Category name")
	cmd.Flags().StringVar(&in.Description, "description", "", "Description")
	return cmd
}

func (c *cli) adminCategoryDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete CATEGORY_ID",
		Short: "Delete a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.API.DeleteCategory(cmd.Context(), args[0]); err != nil {
				c.app.Notifier.Notify(notify.Failure("Error", api.UserMessage(err, "Failed to delete category")))
				return err
			}
			c.app.Notifier.Notify(notify.Info("Success", "Category deleted successfully"))
			return nil
		},
	}
}

func (c *cli) adminStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the platform dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := c.app.API.AdminStats(cmd.Context())
			if err != nil {
				return err
			}
			t := newTable(cmd.OutOrStdout())
			_, _ = fmt.Fprintf(t, "Users\t%d (%d customers, %d providers, %d admins, %d suspended)\n",
				d.Users.Total, d.Users.Customers, d.Users.Providers, d.Users.Admins, d.Users.Suspended)
			_, _ = fmt.Fprintf(t, "Orders\t%d (%d placed, %d preparing, %d ready, %d delivered, %d cancelled)\n",
				d.Orders.Total, d.Orders.Placed, d.Orders.Preparing, d.Orders.Ready, d.Orders.Delivered, d.Orders.Cancelled)
			_, _ = fmt.Fprintf(t, "Revenue\t$%s\n", d.Revenue.Total.StringFixed(2))
			_, _ = fmt.Fprintf(t, "Meals\t%d (%d available)\n", d.Meals.Total, d.Meals.Available)
			_, _ = fmt.Fprintf(t, "Categories\t%d\n", d.Categories.Total)
			_, _ = fmt.Fprintf(t, "Reviews\t%d (avg %.1f)\n", d.Reviews.Total, d.Reviews.AverageRating)
			return t.Flush()
		},
	}
}
