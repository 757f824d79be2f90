package infrastructure_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mateusmacedo/bus-reservation/pkg/application"
	"github.com/mateusmacedo/bus-reservation/pkg/domain"
	"github.com/mateusmacedo/bus-reservation/pkg/infrastructure"
)

type message struct {
	name string
	body string
}

func (m message) CommandName() string { return m.name }
func (m message) QueryName() string   { return m.name }
func (m message) EventName() string   { return m.name }
func (m message) Payload() string     { return m.body }

func TestCommandBusRoutesByName(t *testing.T) {
	bus := infrastructure.NewSimpleCommandBus[domain.Command[string], string](application.NopLogger{})
	var got string
	bus.RegisterHandler("Echo", application.CommandHandlerFunc[domain.Command[string], string](
		func(_ context.Context, cmd domain.Command[string]) error {
			got = cmd.Payload()
			return nil
		}))

	require.NoError(t, bus.Dispatch(context.Background(), message{name: "Echo", body: "hello"}))
	assert.Equal(t, "hello", got)

	err := bus.Dispatch(context.Background(), message{name: "Missing"})
	assert.ErrorIs(t, err, infrastructure.ErrNoHandler)
}

func TestQueryBusHonoursCancellation(t *testing.T) {
	bus := infrastructure.NewSimpleQueryBus[domain.Query[string], string, int]()
	release := make(chan struct{})
	defer close(release)
	bus.RegisterHandler("Slow", application.QueryHandlerFunc[domain.Query[string], string, int](
		func(context.Context, domain.Query[string]) (int, error) {
			<-release
			return 1, nil
		}))
	bus.RegisterHandler("Len", application.QueryHandlerFunc[domain.Query[string], string, int](
		func(_ context.Context, q domain.Query[string]) (int, error) {
			return len(q.Payload()), nil
		}))

	n, err := bus.Dispatch(context.Background(), message{name: "Len", body: "four"})
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = bus.Dispatch(ctx, message{name: "Slow"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = bus.Dispatch(context.Background(), message{name: "Missing"})
	assert.ErrorIs(t, err, infrastructure.ErrNoHandler)
}

func TestEventBusFansOutAndJoinsErrors(t *testing.T) {
	bus := infrastructure.NewSimpleEventBus[domain.Event[string], string](application.NopLogger{})
	boom := errors.New("boom")
	var calls int32
	ok := application.EventHandlerFunc[domain.Event[string], string](func(context.Context, domain.Event[string]) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})
	failing := application.EventHandlerFunc[domain.Event[string], string](func(context.Context, domain.Event[string]) error {
		atomic.AddInt32(&calls, 1)
		return boom
	})
	bus.RegisterHandler("Happened", ok)
	bus.RegisterHandler("Happened", ok)
	bus.RegisterHandler("Failed", ok)
	bus.RegisterHandler("Failed", failing)

	require.NoError(t, bus.Publish(context.Background(), message{name: "Happened"}))
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))

	assert.ErrorIs(t, bus.Publish(context.Background(), message{name: "Failed"}), boom)
	assert.EqualValues(t, 4, atomic.LoadInt32(&calls))

	assert.NoError(t, bus.Publish(context.Background(), message{name: "Nobody"}))
}

func TestGenerateUUID(t *testing.T) {
	id := infrastructure.GenerateUUID()

	_, err := uuid.Parse(id)
	assert.NoError(t, err)
	assert.NotEqual(t, id, infrastructure.GenerateUUID())
}
