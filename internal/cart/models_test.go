package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCartTotal(t *testing.T) {
	c := &Cart{Entries: []Entry{
		{FoodID: "a", Qty: 2, Price: 45},
		{FoodID: "b", Qty: 1, Price: 10.50},
	}}
	assert.InDelta(t, 100.50, c.Total(), 1e-9)

	empty := &Cart{}
	assert.Equal(t, 0.0, empty.Total())
}
