package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "The Forest Hiker", "the-forest-hiker"},
		{"punctuation", "Sea & Sun: Deluxe!", "sea-sun-deluxe"},
		{"collapse runs", "A  --  B", "a-b"},
		{"surrounding space", "  Trimmed  ", "trimmed"},
		{"digits kept", "Top 5 Peaks", "top-5-peaks"},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, Slugify(tc.in))
		})
	}
}

func validTourInput() TourInput {
	return TourInput{
		Name:         "The Forest Hiker",
		Duration:     5,
		MaxGroupSize: 25,
		Difficulty:   "easy",
		Price:        397,
		Summary:      "Breathtaking hike through the Canadian Banff National Park",
	}
}

func TestValidateTour_OK(t *testing.T) {
	t.Parallel()

	assert.Empty(t, validateTour(validTourInput()))
}

func TestValidateTour_NameLength(t *testing.T) {
	t.Parallel()

	input := validTourInput()
	input.Name = "ab"
	problems := validateTour(input)
	assert.Contains(t, problems, "Tour name must be between 3 and 40 characters")

	input.Name = "this tour name is way way way too long to be accepted"
	problems = validateTour(input)
	assert.Contains(t, problems, "Tour name must be between 3 and 40 characters")
}

func TestValidateTour_Difficulty(t *testing.T) {
	t.Parallel()

	input := validTourInput()
	input.Difficulty = "impossible"
	problems := validateTour(input)
	assert.Contains(t, problems, "Difficulty is either easy, medium or difficult")
}

func TestValidateTour_DiscountBelowPrice(t *testing.T) {
	t.Parallel()

	input := validTourInput()
	discount := 500.0
	input.PriceDiscount = &discount
	problems := validateTour(input)
	assert.Contains(t, problems, "Discount price (500.00) must be less than price")

	discount = 300
	assert.Empty(t, validateTour(input))
}

func TestValidateTour_RequiredFields(t *testing.T) {
	t.Parallel()

	problems := validateTour(TourInput{})
	assert.Contains(t, problems, "Please enter a tour duration")
	assert.Contains(t, problems, "Please enter a max group size")
	assert.Contains(t, problems, "Please enter a price")
	assert.Contains(t, problems, "Please enter a tour summary")
}
