package api

import (
	"context"
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/foodhub-client/internal/domain/listquery"
	"github.com/xenking/foodhub-client/internal/domain/meal"
)

// ListCategories returns the categories. The API answers without
// pagination, so the result is a single page.
func (c *Client) ListCategories(ctx context.Context, q listquery.Query) (listquery.Result[meal.Category], error) {
	return list[meal.Category](ctx, c, "/categories", ListParams(q), q)
}

// CreateCategory adds a category. Admin only.
func (c *Client) CreateCategory(ctx context.Context, in meal.CategoryInput) (*meal.Category, error) {
	return getOne[meal.Category](ctx, c, request{
		method: http.MethodPost,
		path:   "/categories",
		body:   categoryBody(in),
	})
}

// UpdateCategory replaces a category. Admin only.
func (c *Client) UpdateCategory(ctx context.Context, id string, in meal.CategoryInput) (*meal.Category, error) {
	return getOne[meal.Category](ctx, c, request{
		method: http.MethodPut,
		path:   "/categories/" + escape(id),
		body:   categoryBody(in),
	})
}

// DeleteCategory removes a category. Admin only.
func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	return c.exec(ctx, request{method: http.MethodDelete, path: "/categories/" + escape(id)})
}

func categoryBody(in meal.CategoryInput) func(e *jx.Encoder) {
	return func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("name")
		e.Str(in.Name)
		writeOptionalStr(e, "description", in.Description)
		e.ObjEnd()
	}
}
