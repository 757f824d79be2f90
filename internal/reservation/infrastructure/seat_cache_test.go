package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mateusmacedo/bus-reservation/internal/reservation/application"
	"github.com/mateusmacedo/bus-reservation/internal/reservation/domain"
	pkgApp "github.com/mateusmacedo/bus-reservation/pkg/application"
)

func TestSeatCacheKeys(t *testing.T) {
	assert.Equal(t, "seats:bus-1", seatCacheKey(application.ListSeatsData{BusID: "bus-1"}))
	assert.Equal(t, "seats:bus-1", seatCacheKey(application.ListSeatsData{BusID: "bus-1", SeatType: "ELDER"}))
	assert.Equal(t, "seats:bus-1:available", seatCacheKey(application.ListSeatsData{BusID: "bus-1", OnlyAvailable: true}))
	assert.Equal(t, "seats:bus-1:available:ELDER", seatCacheKey(application.ListSeatsData{BusID: "bus-1", OnlyAvailable: true, SeatType: "elder"}))
	assert.Equal(t, "seats:bus-1:available:REGULAR", seatCacheKey(application.ListSeatsData{BusID: "bus-1", OnlyAvailable: true, SeatType: " regular "}))
	assert.Equal(t, "seats:bus-1:available", seatCacheKey(application.ListSeatsData{BusID: "bus-1", OnlyAvailable: true, SeatType: "  "}))
	assert.Equal(t, "seats:bus-1:generation", generationKey("bus-1"))
}

func TestEveryListingKeyIsInvalidated(t *testing.T) {
	keys := busKeys("bus-1")
	for _, seatType := range []string{"regular ", "Elder", " PREGNANT"} {
		q := application.ListSeatsData{BusID: "bus-1", OnlyAvailable: true, SeatType: seatType}
		assert.Contains(t, keys, seatCacheKey(q), seatType)
	}
}

func TestSeatCacheMissThenHit(t *testing.T) {
	ctx := context.Background()
	client, mock := redismock.NewClientMock()
	cache := NewRedisSeatCache(client, 30*time.Second, pkgApp.NopLogger{})
	q := application.ListSeatsData{BusID: "bus-1", OnlyAvailable: true}
	seats := []domain.Seat{{ID: "seat-1", BusID: "bus-1", SeatNumber: "R01", SeatType: domain.SeatRegular, Status: domain.SeatAvailable}}
	raw, err := json.Marshal(seats)
	require.NoError(t, err)

	mock.ExpectMGet("seats:bus-1:generation", "seats:bus-1:available").SetVal([]interface{}{"3", nil})
	mock.ExpectEvalSha(storeIfCurrent.Hash(), []string{"seats:bus-1:generation", "seats:bus-1:available"},
		int64(3), raw, int64(30000)).SetVal(int64(1))
	mock.ExpectMGet("seats:bus-1:generation", "seats:bus-1:available").SetVal([]interface{}{"3", string(raw)})

	_, generation, ok := cache.Get(ctx, q)
	assert.False(t, ok)
	assert.EqualValues(t, 3, generation)
	cache.Set(ctx, q, generation, seats)
	got, _, ok := cache.Get(ctx, q)
	assert.True(t, ok)
	assert.Equal(t, seats, got)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeatCacheMissingGenerationIsZero(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewRedisSeatCache(client, time.Minute, pkgApp.NopLogger{})

	mock.ExpectMGet("seats:bus-1:generation", "seats:bus-1").SetVal([]interface{}{nil, nil})

	_, generation, ok := cache.Get(context.Background(), application.ListSeatsData{BusID: "bus-1"})
	assert.False(t, ok)
	assert.Zero(t, generation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// uma leitura que começou antes da invalidação não regrava a listagem antiga
func TestSeatCacheSkipsWriteAfterInvalidation(t *testing.T) {
	ctx := context.Background()
	client, mock := redismock.NewClientMock()
	cache := NewRedisSeatCache(client, time.Minute, pkgApp.NopLogger{})
	q := application.ListSeatsData{BusID: "bus-1"}
	stale := []domain.Seat{{ID: "seat-1", BusID: "bus-1", SeatNumber: "R01", Status: domain.SeatAvailable}}
	raw, err := json.Marshal(stale)
	require.NoError(t, err)
	invalidation := append([]string{"seats:bus-1:generation"}, busKeys("bus-1")...)

	mock.ExpectMGet("seats:bus-1:generation", "seats:bus-1").SetVal([]interface{}{"1", nil})
	mock.ExpectEvalSha(invalidateBus.Hash(), invalidation).SetVal(int64(1))
	mock.ExpectEvalSha(storeIfCurrent.Hash(), []string{"seats:bus-1:generation", "seats:bus-1"},
		int64(1), raw, int64(60000)).SetVal(int64(0))

	_, generation, ok := cache.Get(ctx, q)
	require.False(t, ok)
	require.NoError(t, cache.InvalidateBus(ctx, "bus-1"))
	cache.Set(ctx, q, generation, stale)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeatCacheBackendFailureIsMiss(t *testing.T) {
	ctx := context.Background()
	client, mock := redismock.NewClientMock()
	cache := NewRedisSeatCache(client, time.Minute, pkgApp.NopLogger{})

	mock.ExpectMGet("seats:bus-1:generation", "seats:bus-1").SetErr(errors.New("connection refused"))
	mock.ExpectMGet("seats:bus-2:generation", "seats:bus-2").SetVal([]interface{}{"4", "not json"})
	mock.ExpectMGet("seats:bus-3:generation", "seats:bus-3").SetVal([]interface{}{"x", nil})

	_, generation, ok := cache.Get(ctx, application.ListSeatsData{BusID: "bus-1"})
	assert.False(t, ok)
	assert.Negative(t, generation)
	_, generation, ok = cache.Get(ctx, application.ListSeatsData{BusID: "bus-2"})
	assert.False(t, ok)
	assert.EqualValues(t, 4, generation)
	_, generation, ok = cache.Get(ctx, application.ListSeatsData{BusID: "bus-3"})
	assert.False(t, ok)
	assert.Negative(t, generation)

	// geração desconhecida não grava nada
	cache.Set(ctx, application.ListSeatsData{BusID: "bus-1"}, -1, nil)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeatCacheInvalidateBus(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewRedisSeatCache(client, time.Minute, pkgApp.NopLogger{})

	mock.ExpectEvalSha(invalidateBus.Hash(), []string{
		"seats:bus-1:generation",
		"seats:bus-1",
		"seats:bus-1:available",
		"seats:bus-1:available:REGULAR",
		"seats:bus-1:available:ELDER",
		"seats:bus-1:available:PREGNANT",
	}).SetVal(int64(2))
	mock.ExpectEvalSha(invalidateBus.Hash(), append([]string{"seats:bus-2:generation"}, busKeys("bus-2")...)).
		SetErr(errors.New("connection refused"))

	assert.NoError(t, cache.InvalidateBus(context.Background(), "bus-1"))
	assert.Error(t, cache.InvalidateBus(context.Background(), "bus-2"))

	assert.NoError(t, mock.ExpectationsWereMet())
}
