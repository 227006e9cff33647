package models

import "time"

type TourDifficulty string

const (
	TourDifficultyEasy      TourDifficulty = "easy"
	TourDifficultyMedium    TourDifficulty = "medium"
	TourDifficultyDifficult TourDifficulty = "difficult"
)

// Location is a named GeoJSON point along a tour route. Day is the tour day
// on which the stop is visited; zero for the start location.
type Location struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
	Address     string    `json:"address,omitempty"`
	Description string    `json:"description,omitempty"`
	Day         int       `json:"day,omitempty"`
}

type Tour struct {
	ID              string
	Name            string
	Slug            string
	Duration        int
	MaxGroupSize    int
	Difficulty      TourDifficulty
	RatingsAverage  float64
	RatingsQuantity int
	Price           float64
	PriceDiscount   *float64
	Summary         string
	Description     string
	ImageCover      string
	Images          []string
	StartDates      []time.Time
	Secret          bool
	StartLocation   *Location
	Locations       []Location
	GuideIDs        []string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TourStats is one row of the per-difficulty aggregate.
type TourStats struct {
	Difficulty TourDifficulty
	NumTours   int
	NumRatings int
	AvgRating  float64
	AvgPrice   float64
	MinPrice   float64
	MaxPrice   float64
}
