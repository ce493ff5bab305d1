package domain

import (
	"time"
)

// Rating bounds for a review.
const (
	RatingMin = 1
	RatingMax = 5
)

// Review represents a product review submitted by a user. Each user may
// hold at most one review per product.
type Review struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	UserID    string    `json:"user_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// AuthorName is the review author's display name, resolved on list
	// reads. Empty on writes.
	AuthorName string `json:"author_name,omitempty"`
}

// ReviewSummary contains aggregate review statistics for a product.
type ReviewSummary struct {
	RatingMean   float64 `json:"rating_mean"`
	RatingsCount int     `json:"ratings_count"`
}
