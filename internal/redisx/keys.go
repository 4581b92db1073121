package redisx

import "time"

const (
	// Cache of an order's status: order_status:{order_id} -> {"status": "..."}
	KeyOrderStatus = "order_status:%s"

	// Dedup for event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Per-user notification feed (list, newest first): notify:feed:{user_id}
	KeyNotifyFeed = "notify:feed:%s"
)

var (
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
	TTLNotifyFeed  = 7 * 24 * time.Hour
)

// FeedMax caps how many feed entries a user keeps.
const FeedMax = 100
