package api

import (
	"context"

	"github.com/xenking/foodhub-client/internal/domain/listquery"
	"github.com/xenking/foodhub-client/internal/domain/meal"
	"github.com/xenking/foodhub-client/internal/domain/order"
	"github.com/xenking/foodhub-client/internal/domain/review"
	"github.com/xenking/foodhub-client/internal/domain/user"
)

// MealSource binds the public catalogue to a list controller.
func (c *Client) MealSource() listquery.Source[meal.Meal] {
	return listquery.SourceFunc[meal.Meal](c.ListMeals)
}

// ProviderMealSource binds the provider's own meals.
func (c *Client) ProviderMealSource() listquery.Source[meal.Meal] {
	return listquery.SourceFunc[meal.Meal](c.ListProviderMeals)
}

// CategorySource binds the category list.
func (c *Client) CategorySource() listquery.Source[meal.Category] {
	return listquery.SourceFunc[meal.Category](c.ListCategories)
}

// OrderSource binds the order list for scope.
func (c *Client) OrderSource(scope order.Scope) listquery.Source[order.Order] {
	return listquery.SourceFunc[order.Order](func(ctx context.Context, q listquery.Query) (listquery.Result[order.Order], error) {
		return c.ListOrders(ctx, scope, q)
	})
}

// UserSource binds the admin user list.
func (c *Client) UserSource() listquery.Source[user.User] {
	return listquery.SourceFunc[user.User](c.ListUsers)
}

// MyReviewSource binds the signed-in customer's reviews.
func (c *Client) MyReviewSource() listquery.Source[review.Review] {
	return listquery.SourceFunc[review.Review](c.ListMyReviews)
}

// MealReviewSource binds the reviews of one meal.
func (c *Client) MealReviewSource(mealID string) listquery.Source[review.Review] {
	return listquery.SourceFunc[review.Review](func(ctx context.Context, q listquery.Query) (listquery.Result[review.Review], error) {
		return c.ListMealReviews(ctx, mealID, q)
	})
}
