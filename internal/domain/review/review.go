// Package review holds meal reviews.
package review

import (
	"time"

	"github.com/xenking/foodhub-client/internal/validate"
)

// Review is a customer's rating of a meal.
type Review struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	MealID    string    `json:"mealId"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	User      *Author   `json:"user,omitempty"`
	Meal      *MealRef  `json:"meal,omitempty"`
}

// Author is the reviewer as embedded in a review.
type Author struct {
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// MealRef is the reviewed meal as embedded in a review.
type MealRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// Form is the rating and comment a customer submits.
type Form struct {
	Rating  int    `json:"rating" validate:"gte=1,lte=5" msg:"Please select a rating"`
	Comment string `json:"comment"`
}

// Validate checks the form rules.
func (f Form) Validate() error {
	return validate.Struct(f)
}

// Stats summarizes the ratings of a set of reviews.
type Stats struct {
	Count   int
	Average float64
	// Distribution[i] counts reviews with rating i+1.
	Distribution [5]int
}

// Summarize computes Stats over reviews. Ratings outside 1..5 are ignored.
func Summarize(reviews []Review) Stats {
	var (
		s   Stats
		sum int
	)
	for _, r := range reviews {
		if r.Rating < 1 || r.Rating > 5 {
			continue
		}
		s.Count++
		sum += r.Rating
		s.Distribution[r.Rating-1]++
	}
	if s.Count > 0 {
		s.Average = float64(sum) / float64(s.Count)
	}
	return s
}
