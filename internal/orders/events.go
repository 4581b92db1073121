package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderPlaced = "OrderPlaced"
)

// Envelope is the versioned wrapper every event travels in.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

type PlacedItem struct {
	FoodID string  `json:"food_id"`
	Name   string  `json:"name"`
	Qty    int     `json:"qty"`
	Price  float64 `json:"price"`
}

// OrderPlacedPayload feeds the notification/history consumers after a
// placement committed.
type OrderPlacedPayload struct {
	OrderID       string        `json:"order_id"`
	DisplayID     string        `json:"display_id"`
	UserID        string        `json:"user_id"`
	Items         []PlacedItem  `json:"items"`
	Total         float64       `json:"total_amount"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	PlacedAt      time.Time     `json:"placed_at"`
}
