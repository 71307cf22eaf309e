// Package meal holds the catalogue: meals, categories, and the filters a
// meal listing understands.
package meal

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/foodhub-client/internal/domain/listquery"
	"github.com/xenking/foodhub-client/internal/validate"
)

// ErrNotFound is returned when a requested meal does not exist.
var ErrNotFound = errors.New("meal not found")

// Meal is a dish offered by a provider.
type Meal struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	Image        string          `json:"image,omitempty"`
	CategoryID   string          `json:"categoryId"`
	ProviderID   string          `json:"providerId"`
	IsAvailable  bool            `json:"isAvailable"`
	IsVegetarian bool            `json:"isVegetarian,omitempty"`
	IsVegan      bool            `json:"isVegan,omitempty"`
	IsGlutenFree bool            `json:"isGlutenFree,omitempty"`
	Category     *Category       `json:"category,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// Category groups meals.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
}

// Filter names understood by meal listings.
const (
	FilterCategory = "categoryId"
	FilterDietary  = "dietary"
	FilterMinPrice = "minPrice"
	FilterMaxPrice = "maxPrice"
)

// Dietary tags.
const (
	DietVegetarian = "Vegetarian"
	DietVegan      = "Vegan"
	DietGlutenFree = "Gluten-Free"
)

// AllCategories selects every category.
const AllCategories = "all"

// Sort keys.
const (
	SortNewest    = "newest"
	SortPriceAsc  = "price-asc"
	SortPriceDesc = "price-desc"
)

// SortParams maps a sort key to the API's sortBy and sortOrder. Unknown keys
// sort newest first.
func SortParams(sort string) (by, order string) {
	switch sort {
	case SortPriceAsc:
		return "price", "asc"
	case SortPriceDesc:
		return "price", "desc"
	default:
		return "createdAt", "desc"
	}
}

// DietaryParams maps dietary tags to the API's boolean flags. Unknown tags
// are ignored.
func DietaryParams(tags []string) []string {
	var out []string
	for _, flag := range []struct{ tag, param string }{
		{DietVegetarian, "isVegetarian"},
		{DietVegan, "isVegan"},
		{DietGlutenFree, "isGlutenFree"},
	} {
		for _, t := range tags {
			if t == flag.tag {
				out = append(out, flag.param)
				break
			}
		}
	}
	return out
}

// Input is the payload for creating or updating a meal.
type Input struct {
	Name         string          `json:"name" validate:"min=2" msg:"Name must be at least 2 characters"`
	Description  string          `json:"description" validate:"min=10" msg:"Description must be at least 10 characters"`
	Price        decimal.Decimal `json:"price" validate:"gte=0.1" msg:"Price must be greater than 0"`
	CategoryID   string          `json:"categoryId" validate:"required" msg:"Please select a category"`
	Image        string          `json:"image,omitempty" validate:"omitempty,url" msg:"Please enter a valid image URL"`
	IsAvailable  bool            `json:"isAvailable"`
	IsVegetarian bool            `json:"isVegetarian"`
	IsVegan      bool            `json:"isVegan"`
	IsGlutenFree bool            `json:"isGlutenFree"`
}

// Validate checks the form rules.
func (in Input) Validate() error {
	return validate.Struct(in)
}

// CategoryInput is the payload for creating or updating a category.
type CategoryInput struct {
	Name        string `json:"name" validate:"min=2" msg:"Name must be at least 2 characters"`
	Description string `json:"description,omitempty"`
}

// Validate checks the form rules.
func (in CategoryInput) Validate() error {
	return validate.Struct(in)
}

// Catalog reads meals.
type Catalog interface {
	GetMeal(ctx context.Context, id string) (*Meal, error)
	ListMeals(ctx context.Context, q listquery.Query) (listquery.Result[Meal], error)
}
