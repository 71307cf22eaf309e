package api

import (
	"context"
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/foodhub-client/internal/domain/listquery"
	"github.com/xenking/foodhub-client/internal/domain/review"
)

// ListMyReviews returns one page of the signed-in customer's reviews.
func (c *Client) ListMyReviews(ctx context.Context, q listquery.Query) (listquery.Result[review.Review], error) {
	return list[review.Review](ctx, c, "/reviews/my-reviews", ListParams(q), q)
}

// ListMealReviews returns one page of a meal's reviews.
func (c *Client) ListMealReviews(ctx context.Context, mealID string, q listquery.Query) (listquery.Result[review.Review], error) {
	return list[review.Review](ctx, c, "/reviews/meal/"+escape(mealID), ListParams(q), q)
}

// CreateReview rates a meal.
func (c *Client) CreateReview(ctx context.Context, mealID string, f review.Form) (*review.Review, error) {
	return getOne[review.Review](ctx, c, request{
		method: http.MethodPost,
		path:   "/reviews",
		body:   reviewBody(mealID, f),
	})
}

// UpdateReview replaces a review's rating and comment.
func (c *Client) UpdateReview(ctx context.Context, id string, f review.Form) (*review.Review, error) {
	return getOne[review.Review](ctx, c, request{
		method: http.MethodPut,
		path:   "/reviews/" + escape(id),
		body:   reviewBody("", f),
	})
}

// DeleteReview removes a review.
func (c *Client) DeleteReview(ctx context.Context, id string) error {
	return c.exec(ctx, request{method: http.MethodDelete, path: "/reviews/" + escape(id)})
}

func reviewBody(mealID string, f review.Form) func(e *jx.Encoder) {
	return func(e *jx.Encoder) {
		e.ObjStart()
		writeOptionalStr(e, "mealId", mealID)
		e.FieldStart("rating")
		e.Int(f.Rating)
		e.FieldStart("comment")
		e.Str(f.Comment)
		e.ObjEnd()
	}
}
