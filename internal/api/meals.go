package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/foodhub-client/internal/domain/listquery"
	"github.com/xenking/foodhub-client/internal/domain/meal"
)

var _ meal.Catalog = (*Client)(nil)

// MealParams maps a meal listing query to API query parameters.
func MealParams(q listquery.Query) url.Values {
	v := url.Values{}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if cats := q.Filter(meal.FilterCategory); len(cats) > 0 && cats[0] != "" && cats[0] != meal.AllCategories {
		v.Set("categoryId", cats[0])
	}
	for _, p := range meal.DietaryParams(q.Filter(meal.FilterDietary)) {
		v.Set(p, "true")
	}
	by, order := meal.SortParams(q.Sort)
	v.Set("sortBy", by)
	v.Set("sortOrder", order)
	for _, name := range []string{meal.FilterMinPrice, meal.FilterMaxPrice} {
		if vals := q.Filter(name); len(vals) > 0 && vals[0] != "" {
			v.Set(name, vals[0])
		}
	}
	setPage(v, q)
	return v
}

// ListParams maps a generic listing query: search, each filter by name
// (the value "all" means no constraint), sort, page and limit.
func ListParams(q listquery.Query) url.Values {
	v := url.Values{}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	for _, name := range q.FilterNames() {
		for _, val := range q.Filter(name) {
			if val == "" || val == meal.AllCategories {
				continue
			}
			v.Add(name, val)
		}
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	setPage(v, q)
	return v
}

func setPage(v url.Values, q listquery.Query) {
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("limit", strconv.Itoa(q.PageSize))
	}
}

// ListMeals returns one page of the public catalogue.
func (c *Client) ListMeals(ctx context.Context, q listquery.Query) (listquery.Result[meal.Meal], error) {
	return list[meal.Meal](ctx, c, "/meals", MealParams(q), q)
}

// ListProviderMeals returns one page of the signed-in provider's meals.
func (c *Client) ListProviderMeals(ctx context.Context, q listquery.Query) (listquery.Result[meal.Meal], error) {
	return list[meal.Meal](ctx, c, "/meals/my-meals", ListParams(q), q)
}

// GetMeal returns a single meal. A missing meal is meal.ErrNotFound.
func (c *Client) GetMeal(ctx context.Context, id string) (*meal.Meal, error) {
	m, err := getOne[meal.Meal](ctx, c, request{method: http.MethodGet, path: "/meals/" + escape(id)})
	if IsNotFound(err) {
		return nil, errors.Wrapf(meal.ErrNotFound, "meal %s", id)
	}
	return m, err
}

// CreateMeal adds a meal to the signed-in provider's menu.
func (c *Client) CreateMeal(ctx context.Context, in meal.Input) (*meal.Meal, error) {
	return getOne[meal.Meal](ctx, c, request{
		method: http.MethodPost,
		path:   "/meals",
		body:   mealBody(in),
	})
}

// UpdateMeal replaces a meal.
func (c *Client) UpdateMeal(ctx context.Context, id string, in meal.Input) (*meal.Meal, error) {
	return getOne[meal.Meal](ctx, c, request{
		method: http.MethodPut,
		path:   "/meals/" + escape(id),
		body:   mealBody(in),
	})
}

// DeleteMeal removes a meal.
func (c *Client) DeleteMeal(ctx context.Context, id string) error {
	return c.exec(ctx, request{method: http.MethodDelete, path: "/meals/" + escape(id)})
}

func mealBody(in meal.Input) func(e *jx.Encoder) {
	return func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("name")
		e.Str(in.Name)
		e.FieldStart("description")
		e.Str(in.Description)
		e.FieldStart("price")
		writeDecimal(e, in.Price)
		e.FieldStart("categoryId")
		e.Str(in.CategoryID)
		writeOptionalStr(e, "image", in.Image)
		e.FieldStart("isAvailable")
		e.Bool(in.IsAvailable)
		e.FieldStart("isVegetarian")
		e.Bool(in.IsVegetarian)
		e.FieldStart("isVegan")
		e.Bool(in.IsVegan)
		e.FieldStart("isGlutenFree")
		e.Bool(in.IsGlutenFree)
		e.ObjEnd()
	}
}

// list performs a GET and decodes a list answer.
func list[T any](ctx context.Context, c *Client, path string, v url.Values, q listquery.Query) (listquery.Result[T], error) {
	data, err := c.do(ctx, request{method: http.MethodGet, path: path, query: v})
	if err != nil {
		return listquery.Result[T]{}, err
	}
	res, err := decodeList[T](data, q)
	if err != nil {
		return listquery.Result[T]{}, errors.Wrapf(err, "decode %s", path)
	}
	return res, nil
}
