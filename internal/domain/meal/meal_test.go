package meal

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/foodhub-client/internal/validate"
)

func TestSortParams(t *testing.T) {
	t.Parallel()

	tests := []struct {
		sort      string
		wantBy    string
		wantOrder string
	}{
		{sort: SortPriceAsc, wantBy: "price", wantOrder: "asc"},
		{sort: SortPriceDesc, wantBy: "price", wantOrder: "desc"},
		{sort: SortNewest, wantBy: "createdAt", wantOrder: "desc"},
		{sort: "", wantBy: "createdAt", wantOrder: "desc"},
		{sort: "rating", wantBy: "createdAt", wantOrder: "desc"},
	}

	for _, tt := range tests {
		t.Run(tt.sort, func(t *testing.T) {
			t.Parallel()
			by, order := SortParams(tt.sort)
			assert.Equal(t, tt.wantBy, by)
			assert.Equal(t, tt.wantOrder, order)
		})
	}
}

func TestDietaryParams(t *testing.T) {
	t.Parallel()

	assert.Empty(t, DietaryParams(nil))
	assert.Equal(t,
		[]string{"isVegetarian", "isGlutenFree"},
		DietaryParams([]string{DietGlutenFree, "Keto", DietVegetarian}),
	)
}

func TestInput_Validate(t *testing.T) {
	t.Parallel()

	valid := Input{
		Name:        "Margherita",
		Description: "Tomato, mozzarella and basil",
		Price:       decimal.RequireFromString("8.50"),
		CategoryID:  "pizza",
	}

	tests := []struct {
		name      string
		mutate    func(*Input)
		wantField string
		wantMsg   string
	}{
		{name: "valid"},
		{
			name:      "short description",
			mutate:    func(in *Input) { in.Description = "tasty" },
			wantField: "description",
			wantMsg:   "Description must be at least 10 characters",
		},
		{
			name:      "price too low",
			mutate:    func(in *Input) { in.Price = decimal.RequireFromString("0.05") },
			wantField: "price",
			wantMsg:   "Price must be greater than 0",
		},
		{
			name:      "no category",
			mutate:    func(in *Input) { in.CategoryID = "" },
			wantField: "categoryId",
			wantMsg:   "Please select a category",
		},
		{
			name:      "bad image url",
			mutate:    func(in *Input) { in.Image = "not a url" },
			wantField: "image",
			wantMsg:   "Please enter a valid image URL",
		},
		{
			name:   "image url",
			mutate: func(in *Input) { in.Image = "https://i.ibb.co/x/pizza.png" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			in := valid
			if tt.mutate != nil {
				tt.mutate(&in)
			}

			err := in.Validate()
			if tt.wantField == "" {
				require.NoError(t, err)
				return
			}

			var verr *validate.Error
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantMsg, verr.Fields[tt.wantField])
		})
	}
}

func TestCategoryInput_Validate(t *testing.T) {
	t.Parallel()

	require.NoError(t, CategoryInput{Name: "Pizza"}.Validate())

	var verr *validate.Error
	require.ErrorAs(t, CategoryInput{Name: "P"}.Validate(), &verr)
	assert.Equal(t, "Name must be at least 2 characters", verr.First())
}
