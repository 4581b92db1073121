package orders

import (
	"math"
	"time"
)

// Food is the catalog view the order core reads: current price, availability
// and stock. The catalog service owns the rest of the food document.
type Food struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Category   string  `json:"category"`
	Vegetarian bool    `json:"vegetarian"`
	Available  bool    `json:"available"`
	Stock      int     `json:"stock"`
}

// Account is the slice of the user document the order core touches: balances
// and the cumulative spend counters.
type Account struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	WalletBalance float64 `json:"wallet_balance"`
	PointsBalance float64 `json:"points_balance"`
	TotalSpent    float64 `json:"total_spent"`
	TotalOrders   int     `json:"total_orders"`
}

// CartLine is a pending cart entry as the order core sees it. The cart also
// captures the price at add time, but placement always re-reads the current
// price, so the line carries none here.
type CartLine struct {
	FoodID       string `json:"food_id"`
	Qty          int    `json:"qty"`
	Group        string `json:"group,omitempty"`
	Instructions string `json:"special_instructions,omitempty"`
}

type OrderItem struct {
	FoodID       string  `json:"food_id"`
	Name         string  `json:"name"`
	Qty          int     `json:"qty"`
	Price        float64 `json:"price"`
	Instructions string  `json:"special_instructions,omitempty"`
}

type Order struct {
	ID             string        `json:"id"`
	DisplayID      string        `json:"order_id"` // human-readable, e.g. #ORD-0042
	UserID         string        `json:"user_id"`
	Items          []OrderItem   `json:"items"`
	Subtotal       float64       `json:"subtotal"`
	Tax            float64       `json:"tax"`
	Total          float64       `json:"total_amount"`
	PaymentMethod  PaymentMethod `json:"payment_method"`
	PaymentStatus  PaymentStatus `json:"payment_status"`
	Status         Status        `json:"status"`
	CookingStart   time.Time     `json:"cooking_start_time"`
	EstimatedReady time.Time     `json:"estimated_ready_time"`
	TransactionID  string        `json:"transaction_id,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

// RemainingMinutes reports whole minutes left until the order is expected to
// be ready, never negative. Meaningful only while the order is cooking.
func (o *Order) RemainingMinutes(now time.Time) int {
	if o.EstimatedReady.IsZero() {
		return 0
	}
	rem := o.EstimatedReady.Sub(now)
	if rem <= 0 {
		return 0
	}
	return int(math.Ceil(rem.Minutes()))
}

// Transaction is the append-only audit record of a monetary movement.
type Transaction struct {
	ID          string        `json:"id"`
	UserID      string        `json:"user_id"`
	OrderID     string        `json:"order_id,omitempty"`
	Amount      float64       `json:"amount"`
	Type        TxnType       `json:"type"`
	Method      PaymentMethod `json:"payment_method"`
	Status      PaymentStatus `json:"status"`
	Description string        `json:"description"`
	CreatedAt   time.Time     `json:"created_at"`
}

type TxnType string

const (
	TxnDebit  TxnType = "debit"
	TxnCredit TxnType = "credit"
)
