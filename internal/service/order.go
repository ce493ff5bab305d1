package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ovenworks/storefront/internal/domain"
	"github.com/ovenworks/storefront/internal/event"
	"github.com/ovenworks/storefront/internal/repository"
	apperrors "github.com/ovenworks/storefront/pkg/errors"
)

// OrderService implements the business logic for orders, including the
// delivery tracking record and the WhatsApp contact link.
type OrderService struct {
	repo         repository.OrderRepository
	productRepo  repository.ProductRepository
	producer     *event.Producer
	logger       *slog.Logger
	shopWhatsApp string
	shopName     string
}

// NewOrderService creates a new order service. shopWhatsApp is the shop's
// WhatsApp number in international digits-only format.
func NewOrderService(
	repo repository.OrderRepository,
	productRepo repository.ProductRepository,
	producer *event.Producer,
	logger *slog.Logger,
	shopWhatsApp string,
	shopName string,
) *OrderService {
	return &OrderService{
		repo:         repo,
		productRepo:  productRepo,
		producer:     producer,
		logger:       logger,
		shopWhatsApp: shopWhatsApp,
		shopName:     shopName,
	}
}

// CreateOrderItemInput is a single requested line item.
type CreateOrderItemInput struct {
	ProductID string
	Quantity  int
}

// CreateOrderInput holds the parameters for placing an order.
type CreateOrderInput struct {
	Items           []CreateOrderItemInput
	DeliveryType    string
	DeliveryAddress string
	CustomerPhone   string
	Notes           string
}

// UpdateTrackingInput holds the parameters for a delivery tracking update.
// Status, when present, is appended to the history; the other fields
// overwrite their current values.
type UpdateTrackingInput struct {
	Status            *string
	Note              *string
	EstimatedDelivery *time.Time
	TrackingNumber    *string
}

// CreateOrder places a new order for the actor. Prices are snapshotted from
// the catalog at order time and the total is computed server-side.
func (s *OrderService) CreateOrder(ctx context.Context, actor domain.Actor, input CreateOrderInput) (*domain.Order, error) {
	if len(input.Items) == 0 {
		return nil, apperrors.InvalidInput("order must contain at least one item")
	}

	deliveryType := input.DeliveryType
	if deliveryType == "" {
		deliveryType = domain.DeliveryTypeDelivery
	}
	if !domain.IsValidDeliveryType(deliveryType) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid delivery type: %s", deliveryType))
	}
	if deliveryType == domain.DeliveryTypeDelivery && input.DeliveryAddress == "" {
		return nil, apperrors.InvalidInput("delivery address is required for delivery orders")
	}

	now := time.Now().UTC()
	orderID := uuid.New().String()

	var (
		items    []domain.OrderItem
		total    int64
		currency string
	)
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return nil, apperrors.InvalidInput("item quantity must be positive")
		}

		product, err := s.productRepo.GetByID(ctx, item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("get product for order: %w", err)
		}

		if currency == "" {
			currency = product.Currency
		}

		line := domain.OrderItem{
			ID:        uuid.New().String(),
			OrderID:   orderID,
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  item.Quantity,
		}
		items = append(items, line)
		total += line.LineTotal()
	}

	order := &domain.Order{
		ID:              orderID,
		UserID:          actor.ID,
		Status:          domain.OrderStatusPending,
		Items:           items,
		TotalAmount:     total,
		Currency:        currency,
		DeliveryType:    deliveryType,
		DeliveryAddress: input.DeliveryAddress,
		CustomerPhone:   input.CustomerPhone,
		Notes:           input.Notes,
		DeliveryTracking: domain.DeliveryTracking{
			StatusHistory: []domain.TrackingEntry{},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	if err := s.producer.PublishOrderCreated(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.created event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
		// Do not fail the operation if event publishing fails.
	}

	s.logger.InfoContext(ctx, "order created",
		slog.String("order_id", order.ID),
		slog.String("user_id", order.UserID),
		slog.Int64("total_amount", order.TotalAmount),
	)

	return order, nil
}

// GetOrder retrieves an order. Existence is checked before access, so a
// missing order reports not-found even to callers who would not be allowed
// to see it.
func (s *OrderService) GetOrder(ctx context.Context, actor domain.Actor, id string) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}

	if !actor.CanAccess(order.UserID) {
		return nil, apperrors.Forbidden("you may only view your own orders")
	}

	return order, nil
}

// ListMyOrders returns the actor's own orders, newest first.
func (s *OrderService) ListMyOrders(ctx context.Context, actor domain.Actor, status *string, page, perPage int) ([]domain.Order, int, error) {
	filter := repository.OrderFilter{
		UserID:  &actor.ID,
		Status:  status,
		Page:    page,
		PerPage: perPage,
	}
	return s.list(ctx, filter)
}

// ListOrders returns all orders across users. Admin only; the handler layer
// enforces the role, the service just lists.
func (s *OrderService) ListOrders(ctx context.Context, status *string, userID *string, page, perPage int) ([]domain.Order, int, error) {
	filter := repository.OrderFilter{
		UserID:  userID,
		Status:  status,
		Page:    page,
		PerPage: perPage,
	}
	return s.list(ctx, filter)
}

func (s *OrderService) list(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 20
	}
	if filter.PerPage > 100 {
		filter.PerPage = 100
	}
	if filter.Status != nil && !domain.IsValidOrderStatus(*filter.Status) {
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("invalid order status: %s", *filter.Status))
	}

	orders, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}

	return orders, total, nil
}

// UpdateStatus overwrites the order's status. Any status may follow any
// other; the tracking history is not touched, only UpdateTracking writes
// there.
func (s *OrderService) UpdateStatus(ctx context.Context, id string, status string) (*domain.Order, error) {
	if !domain.IsValidOrderStatus(status) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid order status: %s", status))
	}

	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order for status update: %w", err)
	}

	oldStatus := order.Status
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	order.Status = status
	order.UpdatedAt = time.Now().UTC()

	if err := s.producer.PublishOrderStatusChanged(ctx, id, oldStatus, status); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.status_changed event",
			slog.String("order_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order status updated",
		slog.String("order_id", id),
		slog.String("old_status", oldStatus),
		slog.String("new_status", status),
	)

	return order, nil
}

// UpdateTracking updates the order's delivery tracking record. A status in
// the input appends a timestamped entry to the history; the estimated
// delivery time and tracking number overwrite their current values.
func (s *OrderService) UpdateTracking(ctx context.Context, id string, input UpdateTrackingInput) (*domain.Order, error) {
	if input.Status == nil && input.EstimatedDelivery == nil && input.TrackingNumber == nil {
		return nil, apperrors.InvalidInput("tracking update must include at least one field")
	}

	var entry domain.TrackingEntry
	if input.Status != nil {
		if *input.Status == "" {
			return nil, apperrors.InvalidInput("tracking status must not be empty")
		}
		entry.Status = *input.Status
		entry.Timestamp = time.Now().UTC()
		if input.Note != nil {
			entry.Note = *input.Note
		}
	}

	if err := s.repo.AppendTracking(ctx, id, entry, input.EstimatedDelivery, input.TrackingNumber); err != nil {
		return nil, fmt.Errorf("update delivery tracking: %w", err)
	}

	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order after tracking update: %w", err)
	}

	if entry.Status != "" {
		if err := s.producer.PublishOrderTracking(ctx, id, entry); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish order.tracking_updated event",
				slog.String("order_id", id),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "delivery tracking updated",
		slog.String("order_id", id),
	)

	return order, nil
}

// GetTracking returns the order's delivery tracking record, subject to the
// owner-or-admin policy. An order that was never tracked returns an empty
// record.
func (s *OrderService) GetTracking(ctx context.Context, actor domain.Actor, id string) (*domain.DeliveryTracking, error) {
	order, err := s.GetOrder(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return &order.DeliveryTracking, nil
}

// DeleteOrder removes an order and its items.
func (s *OrderService) DeleteOrder(ctx context.Context, id string) error {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get order for delete: %w", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}

	if err := s.producer.PublishOrderDeleted(ctx, id, order.UserID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.deleted event",
			slog.String("order_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order deleted",
		slog.String("order_id", id),
	)

	return nil
}

// ContactLink builds a wa.me deep link carrying a human-readable summary of
// the order, addressed to the shop's WhatsApp number. Owner-or-admin.
func (s *OrderService) ContactLink(ctx context.Context, actor domain.Actor, id string) (string, error) {
	order, err := s.GetOrder(ctx, actor, id)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s, I would like to ask about my order %s:\n", s.shopName, order.ID)
	for _, item := range order.Items {
		fmt.Fprintf(&b, "%d x %s\n", item.Quantity, item.Name)
	}
	fmt.Fprintf(&b, "Total: %s %d\n", order.Currency, order.TotalAmount)
	fmt.Fprintf(&b, "Delivery type: %s", order.DeliveryType)

	return fmt.Sprintf("https://wa.me/%s?text=%s", s.shopWhatsApp, url.QueryEscape(b.String())), nil
}
