package app

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xenking/foodhub-client/internal/api"
	"github.com/xenking/foodhub-client/internal/domain/listquery"
	"github.com/xenking/foodhub-client/internal/domain/review"
	"github.com/xenking/foodhub-client/internal/notify"
)

func (c *cli) reviewsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reviews",
		Short: "Read and write meal reviews",
	}
	cmd.AddCommand(
		c.reviewsMineCommand(),
		c.reviewsMealCommand(),
		c.reviewCreateCommand(),
		c.reviewUpdateCommand(),
		c.reviewDeleteCommand(),
	)
	return cmd
}

func stars(n int) string {
	n = min(max(n, 0), 5)
	return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
}

func printReviewSummary(w io.Writer, s review.Stats) {
	if s.Count == 0 {
		return
	}
	_, _ = fmt.Fprintf(w, "\nRating %.1f from %d reviews\n", s.Average, s.Count)
	for i := 4; i >= 0; i-- {
		_, _ = fmt.Fprintf(w, "  %d★ %d\n", i+1, s.Distribution[i])
	}
}

func printReviews(w io.Writer, s listquery.State[review.Review]) {
	t := newTable(w)
	_, _ = fmt.Fprintln(t, "ID\tMEAL\tRATING\tBY\tCOMMENT")
	for _, r := range s.Items {
		mealName := r.MealID
		if r.Meal != nil {
			mealName = r.Meal.Name
		}
		by := "-"
		if r.User != nil {
			by = r.User.Name
		}
		_, _ = fmt.Fprintf(t, "%s\t%s\t%s\t%s\t%s\n", r.ID, mealName, stars(r.Rating), by, r.Comment)
	}
	_ = t.Flush()
	pageFooter(w, s, "reviews")
}

func (c *cli) reviewsMineCommand() *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "mine",
		Short: "List your reviews",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := fetchPage(cmd.Context(), c.app, "reviews", c.app.API.MyReviewSource(), listquery.Query{Page: page})
			if err != nil {
				return err
			}
			printReviews(cmd.OutOrStdout(), s)
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	return cmd
}

func (c *cli) reviewsMealCommand() *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "meal MEAL_ID",
		Short: "List the reviews of a meal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := fetchPage(cmd.Context(), c.app, "reviews", c.app.API.MealReviewSource(args[0]), listquery.Query{Page: page})
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			printReviewSummary(w, review.Summarize(s.Items))
			printReviews(w, s)
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	return cmd
}

func (c *cli) reviewCreateCommand() *cobra.Command {
	var f review.Form
	cmd := &cobra.Command{
		Use:   "create MEAL_ID",
		Short: "Review a meal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := f.Validate(); err != nil {
				return err
			}
			if _, err := c.app.API.CreateReview(cmd.Context(), args[0], f); err != nil {
				c.app.Notifier.Notify(notify.Failure("Error", api.UserMessage(err, "Failed to submit review")))
				return err
			}
			c.app.Notifier.Notify(notify.Info("Success", "Review submitted successfully"))
			return nil
		},
	}
	cmd.Flags().IntVar(&f.Rating, "rating", 0, "Rating from 1 to 5")
	cmd.Flags().StringVar(&f.Comment, "comment", "", "Comment")
	return cmd
}

func (c *cli) reviewUpdateCommand() *cobra.Command {
	var f review.Form
	cmd := &cobra.Command{
		Use:   "update REVIEW_ID",
		Short: "Change one of your reviews",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := f.Validate(); err != nil {
				return err
			}
			if _, err := c.app.API.UpdateReview(cmd.Context(), args[0], f); err != nil {
				c.app.Notifier.Notify(notify.Failure("Error", api.UserMessage(err, "Failed to update review")))
				return err
			}
			c.app.Notifier.Notify(notify.Info("Success", "Review updated successfully"))
			return nil
		},
	}
	cmd.Flags().IntVar(&f.Rating, "rating", 0, "Rating from 1 to 5")
	cmd.Flags().StringVar(&f.Comment, "comment", "", "Comment")
	return cmd
}

func (c *cli) reviewDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete REVIEW_ID",
		Short: "Delete one of your reviews",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.API.DeleteReview(cmd.Context(), args[0]); err != nil {
				c.app.Notifier.Notify(notify.Failure("Error", api.UserMessage(err, "Failed to delete review")))
				return err
			}
			c.app.Notifier.Notify(notify.Info("Success", "Review deleted successfully"))
			return nil
		},
	}
}
