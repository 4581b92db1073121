package cart

import "time"

// Entry is one pending cart line. Price is captured when the item is added;
// order placement re-reads the live price, this one only drives the cart UI
// total.
type Entry struct {
	FoodID       string    `json:"food_id"`
	Name         string    `json:"name"`
	Qty          int       `json:"qty"`
	Price        float64   `json:"price"`
	Group        string    `json:"group,omitempty"`
	Instructions string    `json:"special_instructions,omitempty"`
	AddedAt      time.Time `json:"added_at"`
}

type Cart struct {
	UserID       string   `json:"user_id"`
	Entries      []Entry  `json:"items"`
	Shared       bool     `json:"is_shared"`
	ShareLink    string   `json:"share_link,omitempty"`
	Participants []string `json:"shared_with,omitempty"`
}

// Total is the display sum of captured prices; not the settlement amount.
func (c *Cart) Total() float64 {
	var sum float64
	for _, e := range c.Entries {
		sum += e.Price * float64(e.Qty)
	}
	return sum
}
