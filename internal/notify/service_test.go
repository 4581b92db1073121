package notify

import (
	"context"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	kafkax "github.com/Sowndhar-2005/canteen-go/internal/kafka"
	"github.com/Sowndhar-2005/canteen-go/internal/orders"
)

func TestHandleOrderPlaced_IgnoresOtherEventTypes(t *testing.T) {
	// Redis is nil on purpose: a foreign event type must be dropped before
	// any Redis access.
	s := &Service{ServiceName: "notifier-test"}

	env := orders.Envelope{EventID: "ev-1", EventType: "SomethingElse", Payload: []byte(`{}`)}
	err := s.HandleOrderPlaced(context.Background(), kafkago.Message{Value: kafkax.MustMarshal(env)})
	require.NoError(t, err)
}

func TestHandleOrderPlaced_RejectsGarbage(t *testing.T) {
	s := &Service{ServiceName: "notifier-test"}
	err := s.HandleOrderPlaced(context.Background(), kafkago.Message{Value: []byte("not json")})
	require.Error(t, err)
}
