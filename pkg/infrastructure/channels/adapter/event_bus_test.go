package adapter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mateusmacedo/bus-reservation/pkg/application"
	"github.com/mateusmacedo/bus-reservation/pkg/domain"
)

type seatEvent struct {
	BusID string `json:"busId"`
}

type testEvent struct {
	name    string
	payload seatEvent
}

func (e testEvent) EventName() string  { return e.name }
func (e testEvent) Payload() seatEvent { return e.payload }

type received struct {
	name      string
	payload   seatEvent
	requestID string
}

func TestChannelEventBusDeliversPayloadAndRequestID(t *testing.T) {
	bus := NewChannelEventBus[domain.Event[seatEvent], seatEvent](application.NopLogger{})
	t.Cleanup(func() { _ = bus.Close() })

	got := make(chan received, 1)
	bus.RegisterHandler("SeatsInitialized", application.EventHandlerFunc[domain.Event[seatEvent], seatEvent](
		func(ctx context.Context, e domain.Event[seatEvent]) error {
			requestID, _ := application.RequestIDFromContext(ctx)
			got <- received{name: e.EventName(), payload: e.Payload(), requestID: requestID}
			return nil
		}))

	ctx := application.WithRequestID(context.Background(), "req-42")
	require.NoError(t, bus.Publish(ctx, testEvent{name: "SeatsInitialized", payload: seatEvent{BusID: "bus-1"}}))

	select {
	case r := <-got:
		assert.Equal(t, "SeatsInitialized", r.name)
		assert.Equal(t, "bus-1", r.payload.BusID)
		assert.Equal(t, "req-42", r.requestID)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}
}
