package models

import "time"

// Booking records a paid (or comped) spot on a tour. Price is captured at
// purchase time so later tour price changes do not rewrite history.
type Booking struct {
	ID        string
	TourID    string
	UserID    string
	Price     float64
	Paid      bool
	CreatedAt time.Time

	// Filled by list queries that join the tour.
	TourName string
	TourSlug string
}
