package models

import "time"

type Review struct {
	ID        string
	Review    string
	Rating    int
	TourID    string
	UserID    string
	CreatedAt time.Time
	UpdatedAt time.Time

	// Filled by list queries that join the author.
	UserName  string
	UserPhoto *string
}
