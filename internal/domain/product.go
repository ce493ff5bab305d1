package domain

import (
	"time"
)

// Product represents an item in the bakery catalog.
type Product struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Description  string    `json:"description"`
	Category     string    `json:"category,omitempty"`
	Price        int64     `json:"price"`
	Currency     string    `json:"currency"`
	ImageURL     string    `json:"image_url,omitempty"`
	InStock      bool      `json:"in_stock"`
	RatingMean   float64   `json:"rating_mean"`
	RatingsCount int       `json:"ratings_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
