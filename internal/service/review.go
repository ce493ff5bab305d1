package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ovenworks/storefront/internal/domain"
	"github.com/ovenworks/storefront/internal/event"
	"github.com/ovenworks/storefront/internal/repository"
	"github.com/ovenworks/storefront/internal/repository/rediscache"
	apperrors "github.com/ovenworks/storefront/pkg/errors"
)

// ReviewService implements the business logic for product reviews.
//
// The product's rating aggregate is maintained by the repository inside the
// same transaction as the review write, so a review and its effect on the
// mean are never observed separately.
type ReviewService struct {
	repo        repository.ReviewRepository
	productRepo repository.ProductRepository
	cache       *rediscache.CatalogCache
	producer    *event.Producer
	logger      *slog.Logger
}

// NewReviewService creates a new review service. The cache may be nil.
func NewReviewService(
	repo repository.ReviewRepository,
	productRepo repository.ProductRepository,
	cache *rediscache.CatalogCache,
	producer *event.Producer,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		repo:        repo,
		productRepo: productRepo,
		cache:       cache,
		producer:    producer,
		logger:      logger,
	}
}

// CreateReviewInput holds the parameters for submitting a review.
type CreateReviewInput struct {
	ProductID string
	Rating    int
	Comment   string
}

// UpdateReviewInput holds the parameters for editing a review.
type UpdateReviewInput struct {
	Rating  *int
	Comment *string
}

// CreateReview submits a review for a product on behalf of the actor. A user
// may review each product at most once.
func (s *ReviewService) CreateReview(ctx context.Context, actor domain.Actor, input CreateReviewInput) (*domain.Review, error) {
	if input.ProductID == "" {
		return nil, apperrors.InvalidInput("product_id is required")
	}
	if err := validateRating(input.Rating); err != nil {
		return nil, err
	}

	// The product must exist before a review can reference it.
	if _, err := s.productRepo.GetByID(ctx, input.ProductID); err != nil {
		return nil, fmt.Errorf("get product for review: %w", err)
	}

	now := time.Now().UTC()
	review := &domain.Review{
		ID:        uuid.New().String(),
		ProductID: input.ProductID,
		UserID:    actor.ID,
		Rating:    input.Rating,
		Comment:   input.Comment,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	s.invalidateProduct(ctx, input.ProductID)

	if err := s.producer.PublishReviewCreated(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.created event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
		// Do not fail the operation if event publishing fails.
	}

	s.logger.InfoContext(ctx, "review created",
		slog.String("review_id", review.ID),
		slog.String("product_id", review.ProductID),
		slog.Int("rating", review.Rating),
	)

	return review, nil
}

// ListReviews returns paginated reviews for a product. The product must exist.
func (s *ReviewService) ListReviews(ctx context.Context, productID string, page, perPage int) ([]domain.Review, int, error) {
	if _, err := s.productRepo.GetByID(ctx, productID); err != nil {
		return nil, 0, fmt.Errorf("get product for reviews: %w", err)
	}

	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}

	reviews, total, err := s.repo.ListByProductID(ctx, productID, page, perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}

	return reviews, total, nil
}

// UpdateReview edits a review. Existence is checked before access, so a
// missing review reports not-found even to callers who would not be allowed
// to touch it.
func (s *ReviewService) UpdateReview(ctx context.Context, actor domain.Actor, id string, input UpdateReviewInput) (*domain.Review, error) {
	review, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get review for update: %w", err)
	}

	if !actor.CanAccess(review.UserID) {
		return nil, apperrors.Forbidden("you may only edit your own reviews")
	}

	if input.Rating != nil {
		if err := validateRating(*input.Rating); err != nil {
			return nil, err
		}
		review.Rating = *input.Rating
	}
	if input.Comment != nil {
		review.Comment = *input.Comment
	}
	review.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}

	s.invalidateProduct(ctx, review.ProductID)

	s.logger.InfoContext(ctx, "review updated",
		slog.String("review_id", id),
		slog.Int("rating", review.Rating),
	)

	return review, nil
}

// DeleteReview removes a review, subject to the same owner-or-admin policy
// as UpdateReview.
func (s *ReviewService) DeleteReview(ctx context.Context, actor domain.Actor, id string) error {
	review, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get review for delete: %w", err)
	}

	if !actor.CanAccess(review.UserID) {
		return apperrors.Forbidden("you may only delete your own reviews")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	s.invalidateProduct(ctx, review.ProductID)

	s.logger.InfoContext(ctx, "review deleted",
		slog.String("review_id", id),
		slog.String("product_id", review.ProductID),
	)

	return nil
}

// GetSummary returns the current rating aggregate for a product.
func (s *ReviewService) GetSummary(ctx context.Context, productID string) (*domain.ReviewSummary, error) {
	if _, err := s.productRepo.GetByID(ctx, productID); err != nil {
		return nil, fmt.Errorf("get product for summary: %w", err)
	}

	summary, err := s.repo.GetSummary(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get review summary: %w", err)
	}

	return summary, nil
}

// invalidateProduct drops the cached product so the next read sees the fresh
// rating aggregate.
func (s *ReviewService) invalidateProduct(ctx context.Context, productID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, productID); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate product cache",
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
	}
}

// validateRating checks that a rating falls within the allowed bounds.
func validateRating(rating int) error {
	if rating < domain.RatingMin || rating > domain.RatingMax {
		return apperrors.InvalidInput(fmt.Sprintf("rating must be between %d and %d", domain.RatingMin, domain.RatingMax))
	}
	return nil
}
