package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/Sowndhar-2005/canteen-go/internal/kafka"
	"github.com/Sowndhar-2005/canteen-go/internal/orders"
	"github.com/Sowndhar-2005/canteen-go/internal/redisx"
)

// Service turns committed order events into per-user notification feed
// entries for the history/notification screens to poll.
type Service struct {
	Redis       *redis.Client
	ServiceName string
}

// FeedEntry is what lands in a user's Redis feed list.
type FeedEntry struct {
	OrderID       string               `json:"order_id"`
	DisplayID     string               `json:"display_id"`
	Total         float64              `json:"total_amount"`
	PaymentMethod orders.PaymentMethod `json:"payment_method"`
	PlacedAt      time.Time            `json:"placed_at"`
}

// HandleOrderPlaced is the consumer handler for the order-placed topic.
func (s *Service) HandleOrderPlaced(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := kafkax.UnmarshalEnvelope(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventOrderPlaced {
		return nil
	}

	// dedup by event id: redelivery must not duplicate feed entries
	dkey := fmt.Sprintf(redisx.KeyDedup, "notifier", env.EventID)
	if seen, _ := redisx.Exists(ctx, s.Redis, dkey); seen {
		return nil
	}

	p, err := kafkax.UnwrapPayload[orders.OrderPlacedPayload](env.Payload)
	if err != nil {
		return err
	}

	entry := kafkax.MustMarshal(FeedEntry{
		OrderID:       p.OrderID,
		DisplayID:     p.DisplayID,
		Total:         p.Total,
		PaymentMethod: p.PaymentMethod,
		PlacedAt:      p.PlacedAt,
	})

	key := fmt.Sprintf(redisx.KeyNotifyFeed, p.UserID)
	pipe := s.Redis.TxPipeline()
	pipe.LPush(ctx, key, entry)
	pipe.LTrim(ctx, key, 0, redisx.FeedMax-1)
	pipe.Expire(ctx, key, redisx.TTLNotifyFeed)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("push feed entry: %w", err)
	}

	return s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
}
