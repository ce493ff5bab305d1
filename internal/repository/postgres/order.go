package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ovenworks/storefront/internal/domain"
	"github.com/ovenworks/storefront/internal/repository"
	"github.com/ovenworks/storefront/pkg/database"
	apperrors "github.com/ovenworks/storefront/pkg/errors"
)

// OrderRepository implements repository.OrderRepository using PostgreSQL.
// The delivery tracking record is stored as a JSONB column on the orders
// table; history appends happen in SQL so concurrent writers cannot clobber
// each other's entries.
type OrderRepository struct {
	pool database.DBTX
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool database.DBTX) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create inserts a new order and its items atomically within a transaction.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	trackingJSON, err := json.Marshal(o.DeliveryTracking)
	if err != nil {
		return fmt.Errorf("marshal delivery tracking: %w", err)
	}

	orderQuery := `
		INSERT INTO orders (id, user_id, status, total_amount, currency, delivery_type, delivery_address, customer_phone, notes, delivery_tracking, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err = tx.Exec(ctx, orderQuery,
		o.ID,
		o.UserID,
		o.Status,
		o.TotalAmount,
		o.Currency,
		o.DeliveryType,
		o.DeliveryAddress,
		o.CustomerPhone,
		o.Notes,
		trackingJSON,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (id, order_id, product_id, name, price, quantity)
		VALUES ($1, $2, $3, $4, $5, $6)`

	for _, item := range o.Items {
		_, err = tx.Exec(ctx, itemQuery,
			item.ID,
			item.OrderID,
			item.ProductID,
			item.Name,
			item.Price,
			item.Quantity,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetByID retrieves an order by its ID, eagerly loading its items with a
// single LEFT JOIN + JSONB_AGG query.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `
		SELECT
			o.id, o.user_id, o.status, o.total_amount, o.currency, o.delivery_type,
			o.delivery_address, o.customer_phone, o.notes, o.delivery_tracking,
			o.created_at, o.updated_at,
			u.name AS customer_name, u.email AS customer_email,
			COALESCE(
				JSONB_AGG(
					JSONB_BUILD_OBJECT(
						'id', oi.id,
						'order_id', oi.order_id,
						'product_id', oi.product_id,
						'name', oi.name,
						'price', oi.price,
						'quantity', oi.quantity
					) ORDER BY oi.id
				) FILTER (WHERE oi.id IS NOT NULL),
				'[]'::jsonb
			) AS items
		FROM orders o
		JOIN users u ON u.id = o.user_id
		LEFT JOIN order_items oi ON o.id = oi.order_id
		WHERE o.id = $1
		GROUP BY o.id, o.user_id, o.status, o.total_amount, o.currency, o.delivery_type,
			o.delivery_address, o.customer_phone, o.notes, o.delivery_tracking,
			o.created_at, o.updated_at, u.name, u.email`

	var (
		o            domain.Order
		trackingJSON []byte
		itemsJSON    []byte
	)

	ctx, end := database.TraceQuery(ctx, "GetOrder", query)
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&o.ID,
		&o.UserID,
		&o.Status,
		&o.TotalAmount,
		&o.Currency,
		&o.DeliveryType,
		&o.DeliveryAddress,
		&o.CustomerPhone,
		&o.Notes,
		&trackingJSON,
		&o.CreatedAt,
		&o.UpdatedAt,
		&o.CustomerName,
		&o.CustomerEmail,
		&itemsJSON,
	)
	end(err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}

	if err := unmarshalTracking(trackingJSON, &o.DeliveryTracking); err != nil {
		return nil, err
	}

	if len(itemsJSON) > 0 && string(itemsJSON) != "null" && string(itemsJSON) != "[]" {
		if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
			return nil, fmt.Errorf("unmarshal order items: %w", err)
		}
	} else {
		o.Items = []domain.OrderItem{}
	}

	return &o, nil
}

// List returns orders matching the given filter with the total count.
func (r *OrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("o.user_id = $%d", argIndex))
		args = append(args, *filter.UserID)
		argIndex++
	}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("o.status = $%d", argIndex))
		args = append(args, *filter.Status)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Use count(*) OVER() for total count in a single query.
	query := fmt.Sprintf(`
		SELECT o.id, o.user_id, o.status, o.total_amount, o.currency, o.delivery_type,
			   o.delivery_address, o.customer_phone, o.notes, o.delivery_tracking,
			   o.created_at, o.updated_at, u.name AS customer_name, u.email AS customer_email,
			   count(*) OVER() AS total_count
		FROM orders o
		JOIN users u ON u.id = o.user_id
		%s
		ORDER BY o.created_at DESC
		LIMIT $%d OFFSET $%d`,
		whereClause, argIndex, argIndex+1,
	)

	limit := filter.PerPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}

	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var totalCount int
	orders := make([]domain.Order, 0)

	for rows.Next() {
		var (
			o            domain.Order
			trackingJSON []byte
		)

		if err := rows.Scan(
			&o.ID,
			&o.UserID,
			&o.Status,
			&o.TotalAmount,
			&o.Currency,
			&o.DeliveryType,
			&o.DeliveryAddress,
			&o.CustomerPhone,
			&o.Notes,
			&trackingJSON,
			&o.CreatedAt,
			&o.UpdatedAt,
			&o.CustomerName,
			&o.CustomerEmail,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan order row: %w", err)
		}

		if err := unmarshalTracking(trackingJSON, &o.DeliveryTracking); err != nil {
			return nil, 0, err
		}

		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate order rows: %w", err)
	}

	// Batch-load items for all orders in a single query to avoid N+1.
	if len(orders) > 0 {
		orderIDs := make([]string, len(orders))
		for i := range orders {
			orderIDs[i] = orders[i].ID
		}

		itemsQuery := `
			SELECT id, order_id, product_id, name, price, quantity
			FROM order_items
			WHERE order_id = ANY($1)
			ORDER BY id`

		itemRows, err := r.pool.Query(ctx, itemsQuery, orderIDs)
		if err != nil {
			return nil, 0, fmt.Errorf("batch load order items: %w", err)
		}
		defer itemRows.Close()

		itemsByOrderID := make(map[string][]domain.OrderItem, len(orders))
		for itemRows.Next() {
			var item domain.OrderItem
			if err := itemRows.Scan(
				&item.ID,
				&item.OrderID,
				&item.ProductID,
				&item.Name,
				&item.Price,
				&item.Quantity,
			); err != nil {
				return nil, 0, fmt.Errorf("scan order item: %w", err)
			}
			itemsByOrderID[item.OrderID] = append(itemsByOrderID[item.OrderID], item)
		}
		if err := itemRows.Err(); err != nil {
			return nil, 0, fmt.Errorf("iterate order item rows: %w", err)
		}

		for i := range orders {
			if items, ok := itemsByOrderID[orders[i].ID]; ok {
				orders[i].Items = items
			} else {
				orders[i].Items = []domain.OrderItem{}
			}
		}
	}

	return orders, totalCount, nil
}

// UpdateStatus changes the status of an order. The delivery tracking history
// is left untouched; only AppendTracking writes to it.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status string) error {
	query := `
		UPDATE orders
		SET status = $1, updated_at = $2
		WHERE id = $3`

	ct, err := r.pool.Exec(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("order", id)
	}

	return nil
}

// AppendTracking appends a history entry to the order's delivery tracking
// record and optionally updates the estimated delivery time and tracking
// number. The append happens in SQL so the history stays append-only under
// concurrent writers.
func (r *OrderRepository) AppendTracking(ctx context.Context, id string, entry domain.TrackingEntry, estimatedDelivery *time.Time, trackingNumber *string) error {
	// An entry with no status appends nothing; the scalar fields may still
	// be updated.
	entries := []domain.TrackingEntry{}
	if entry.Status != "" {
		entries = append(entries, entry)
	}
	entryJSON, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshal tracking entry: %w", err)
	}

	var etaJSON []byte
	if estimatedDelivery != nil {
		etaJSON, err = json.Marshal(estimatedDelivery.UTC())
		if err != nil {
			return fmt.Errorf("marshal estimated delivery time: %w", err)
		}
	}

	query := `
		UPDATE orders
		SET delivery_tracking = jsonb_set(
				delivery_tracking,
				'{status_history}',
				COALESCE(delivery_tracking->'status_history', '[]'::jsonb) || $1::jsonb
			)
			|| CASE WHEN $2::text IS NOT NULL THEN jsonb_build_object('estimated_delivery_time', $2::text::jsonb) ELSE '{}'::jsonb END
			|| CASE WHEN $3::text IS NOT NULL THEN jsonb_build_object('tracking_number', $3::text) ELSE '{}'::jsonb END,
			updated_at = $4
		WHERE id = $5`

	var etaArg *string
	if etaJSON != nil {
		s := string(etaJSON)
		etaArg = &s
	}

	ct, err := r.pool.Exec(ctx, query, entryJSON, etaArg, trackingNumber, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("append delivery tracking: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("order", id)
	}

	return nil
}

// Delete removes an order and its items from the database.
func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, id); err != nil {
		return fmt.Errorf("delete order items: %w", err)
	}

	ct, err := tx.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("order", id)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// unmarshalTracking decodes the delivery_tracking JSONB column, defaulting to
// an empty history when the column is null.
func unmarshalTracking(raw []byte, dst *domain.DeliveryTracking) error {
	if len(raw) == 0 || string(raw) == "null" {
		dst.StatusHistory = []domain.TrackingEntry{}
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("unmarshal delivery tracking: %w", err)
	}
	if dst.StatusHistory == nil {
		dst.StatusHistory = []domain.TrackingEntry{}
	}
	return nil
}
