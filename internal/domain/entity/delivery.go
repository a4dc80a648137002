package entity

import "time"

// DeliveryStatus tracks a delivery from preparation to hand-over
type DeliveryStatus string

const (
	DeliveryStatusReady      DeliveryStatus = "ready"
	DeliveryStatusInProgress DeliveryStatus = "in_progress"
	DeliveryStatusDelivered  DeliveryStatus = "delivered"
)

// IsOpen reports whether the delivery has not been handed over yet
func (s DeliveryStatus) IsOpen() bool {
	return s == DeliveryStatusReady || s == DeliveryStatusInProgress
}

// Delivery is created at preparation and owned by the request that created it
type Delivery struct {
	ID          string          `json:"id"`
	RequestID   string          `json:"request_id"`
	DelivererID string          `json:"deliverer_id"`
	Status      DeliveryStatus  `json:"status"`
	Items       []*DeliveryItem `json:"items"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// DeliveryItem is the shipped quantity of one line item
type DeliveryItem struct {
	ID         string  `json:"id"`
	DeliveryID string  `json:"delivery_id"`
	LineItemID string  `json:"line_item_id"`
	Quantity   float64 `json:"quantity"`
}
