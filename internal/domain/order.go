package domain

import "time"

// Order status constants.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// Delivery type constants.
const (
	DeliveryTypePickup   = "pickup"
	DeliveryTypeDelivery = "delivery"
)

// Order represents a customer order.
type Order struct {
	ID               string           `json:"id"`
	UserID           string           `json:"user_id"`
	Status           string           `json:"status"`
	Items            []OrderItem      `json:"items"`
	TotalAmount      int64            `json:"total_amount"`
	Currency         string           `json:"currency"`
	DeliveryType     string           `json:"delivery_type"`
	DeliveryAddress  string           `json:"delivery_address,omitempty"`
	CustomerPhone    string           `json:"customer_phone,omitempty"`
	Notes            string           `json:"notes,omitempty"`
	DeliveryTracking DeliveryTracking `json:"delivery_tracking"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`

	// CustomerName and CustomerEmail are the owner's public fields,
	// resolved on reads. Empty on writes.
	CustomerName  string `json:"customer_name,omitempty"`
	CustomerEmail string `json:"customer_email,omitempty"`
}

// OrderItem represents a line item in an order.
type OrderItem struct {
	ID        string `json:"id"`
	OrderID   string `json:"order_id"`
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
}

// LineTotal returns the total price for this line item.
func (i *OrderItem) LineTotal() int64 {
	return i.Price * int64(i.Quantity)
}

// DeliveryTracking holds the fulfilment record embedded in an order. The
// status history is append-only; entries are never rewritten once recorded.
type DeliveryTracking struct {
	StatusHistory         []TrackingEntry `json:"status_history"`
	EstimatedDeliveryTime *time.Time      `json:"estimated_delivery_time,omitempty"`
	TrackingNumber        string          `json:"tracking_number,omitempty"`
}

// TrackingEntry is a single timestamped event in an order's delivery history.
type TrackingEntry struct {
	Status    string    `json:"status"`
	Note      string    `json:"note,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ValidOrderStatuses returns all valid order statuses.
func ValidOrderStatuses() []string {
	return []string{
		OrderStatusPending,
		OrderStatusProcessing,
		OrderStatusDelivered,
		OrderStatusCancelled,
	}
}

// IsValidOrderStatus checks if a status string is a valid order status.
func IsValidOrderStatus(status string) bool {
	for _, s := range ValidOrderStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// ValidDeliveryTypes returns all valid delivery types.
func ValidDeliveryTypes() []string {
	return []string{DeliveryTypePickup, DeliveryTypeDelivery}
}

// IsValidDeliveryType checks if a string is a valid delivery type.
func IsValidDeliveryType(t string) bool {
	for _, d := range ValidDeliveryTypes() {
		if d == t {
			return true
		}
	}
	return false
}
