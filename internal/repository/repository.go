package repository

import (
	"context"
	"time"

	"github.com/ovenworks/storefront/internal/domain"
)

// ProductFilter defines filter criteria for listing products.
type ProductFilter struct {
	Category *string
	Search   *string
	InStock  *bool
	Page     int
	PerPage  int
}

// ProductRepository defines the interface for product persistence operations.
type ProductRepository interface {
	// Create inserts a new product into the store.
	Create(ctx context.Context, product *domain.Product) error

	// GetByID retrieves a product by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Product, error)

	// GetBySlug retrieves a product by its slug.
	GetBySlug(ctx context.Context, slug string) (*domain.Product, error)

	// List returns products matching the given filter along with the total count.
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, int, error)

	// Update modifies an existing product in the store.
	Update(ctx context.Context, product *domain.Product) error

	// Delete removes a product from the store by its identifier.
	Delete(ctx context.Context, id string) error
}

// ReviewRepository defines the interface for review persistence operations.
// Mutations recompute the owning product's rating aggregate in the same
// transaction, so readers never observe a review without its effect on the
// product's mean.
type ReviewRepository interface {
	// Create inserts a new review and recomputes the product aggregate.
	Create(ctx context.Context, review *domain.Review) error

	// GetByID retrieves a review by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Review, error)

	// ListByProductID returns paginated reviews for a product with the total count.
	ListByProductID(ctx context.Context, productID string, page, perPage int) ([]domain.Review, int, error)

	// Update modifies a review's rating and comment and recomputes the aggregate.
	Update(ctx context.Context, review *domain.Review) error

	// Delete removes a review and recomputes the product aggregate.
	Delete(ctx context.Context, id string) error

	// GetSummary returns the current rating aggregate for a product.
	GetSummary(ctx context.Context, productID string) (*domain.ReviewSummary, error)
}

// OrderFilter defines filter criteria for listing orders.
type OrderFilter struct {
	UserID  *string
	Status  *string
	Page    int
	PerPage int
}

// OrderRepository defines the interface for order persistence operations.
type OrderRepository interface {
	// Create inserts a new order and its items into the store atomically.
	Create(ctx context.Context, order *domain.Order) error

	// GetByID retrieves an order by its unique identifier, including items.
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// List returns orders matching the given filter along with the total count.
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, int, error)

	// UpdateStatus changes the status of an order. It does not touch the
	// delivery tracking history.
	UpdateStatus(ctx context.Context, id string, status string) error

	// AppendTracking appends an entry to the order's delivery status history
	// and optionally updates the estimated delivery time and tracking number.
	// An entry with an empty status appends nothing to the history.
	AppendTracking(ctx context.Context, id string, entry domain.TrackingEntry, estimatedDelivery *time.Time, trackingNumber *string) error

	// Delete removes an order and its items from the store.
	Delete(ctx context.Context, id string) error
}

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user into the store.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by their email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// List returns paginated users along with the total count.
	List(ctx context.Context, page, perPage int) ([]domain.User, int, error)

	// Update modifies an existing user in the store.
	Update(ctx context.Context, user *domain.User) error

	// Delete removes a user from the store by their identifier.
	Delete(ctx context.Context, id string) error
}
