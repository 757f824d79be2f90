package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mateusmacedo/bus-reservation/internal/reservation/application"
	"github.com/mateusmacedo/bus-reservation/internal/reservation/domain"
	pkgApp "github.com/mateusmacedo/bus-reservation/pkg/application"
)

// RedisSeatCache guarda listagens de assentos em JSON sob
// seats:<busID>[:available[:<TYPE>]] e a geração do ônibus sob
// seats:<busID>:generation.
type RedisSeatCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger pkgApp.AppLogger
}

func NewRedisSeatCache(client redis.UniversalClient, ttl time.Duration, logger pkgApp.AppLogger) *RedisSeatCache {
	return &RedisSeatCache{client: client, ttl: ttl, logger: logger}
}

// storeIfCurrent grava KEYS[2] só se a geração em KEYS[1] ainda for ARGV[1].
var storeIfCurrent = redis.NewScript(`
local current = redis.call('GET', KEYS[1]) or '0'
if current ~= ARGV[1] then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
else
	redis.call('SET', KEYS[2], ARGV[2])
end
return 1
`)

// invalidateBus avança a geração em KEYS[1] e apaga as listagens restantes.
var invalidateBus = redis.NewScript(`
redis.call('INCR', KEYS[1])
return redis.call('DEL', unpack(KEYS, 2))
`)

func seatCacheKey(q application.ListSeatsData) string {
	key := fmt.Sprintf("seats:%s", q.BusID)
	if !q.OnlyAvailable {
		return key
	}
	key += ":available"
	if seatType := strings.ToUpper(strings.TrimSpace(q.SeatType)); seatType != "" {
		key += ":" + seatType
	}
	return key
}

func generationKey(busID string) string {
	return fmt.Sprintf("seats:%s:generation", busID)
}

// busKeys lista todas as chaves em que uma listagem do ônibus pode estar.
func busKeys(busID string) []string {
	keys := []string{
		seatCacheKey(application.ListSeatsData{BusID: busID}),
		seatCacheKey(application.ListSeatsData{BusID: busID, OnlyAvailable: true}),
	}
	for _, t := range domain.SeatTypes {
		keys = append(keys, seatCacheKey(application.ListSeatsData{BusID: busID, OnlyAvailable: true, SeatType: string(t)}))
	}
	return keys
}

// Get lê a geração e a listagem num único MGET.
func (c *RedisSeatCache) Get(ctx context.Context, q application.ListSeatsData) ([]domain.Seat, int64, bool) {
	key := seatCacheKey(q)
	values, err := c.client.MGet(ctx, generationKey(q.BusID), key).Result()
	if err != nil || len(values) != 2 {
		pkgApp.LogError(ctx, c.logger, "seat cache read failed", err, map[string]interface{}{"key": key})
		return nil, -1, false
	}

	var generation int64
	if raw, ok := values[0].(string); ok {
		if generation, err = strconv.ParseInt(raw, 10, 64); err != nil {
			pkgApp.LogError(ctx, c.logger, "seat cache generation is corrupt", err, map[string]interface{}{"key": key})
			return nil, -1, false
		}
	}

	raw, ok := values[1].(string)
	if !ok {
		return nil, generation, false
	}
	var seats []domain.Seat
	if err := json.Unmarshal([]byte(raw), &seats); err != nil {
		pkgApp.LogError(ctx, c.logger, "seat cache entry is corrupt", err, map[string]interface{}{"key": key})
		return nil, generation, false
	}
	return seats, generation, true
}

func (c *RedisSeatCache) Set(ctx context.Context, q application.ListSeatsData, generation int64, seats []domain.Seat) {
	if generation < 0 {
		return
	}
	key := seatCacheKey(q)
	raw, err := json.Marshal(seats)
	if err != nil {
		pkgApp.LogError(ctx, c.logger, "seat cache encode failed", err, map[string]interface{}{"key": key})
		return
	}

	stored, err := storeIfCurrent.Run(ctx, c.client, []string{generationKey(q.BusID), key}, generation, raw, c.ttl.Milliseconds()).Int()
	if err != nil {
		pkgApp.LogError(ctx, c.logger, "seat cache write failed", err, map[string]interface{}{"key": key})
		return
	}
	if stored == 0 {
		pkgApp.LogDebug(ctx, c.logger, "seat listing outdated by an invalidation, not cached", map[string]interface{}{"key": key})
	}
}

func (c *RedisSeatCache) InvalidateBus(ctx context.Context, busID string) error {
	keys := append([]string{generationKey(busID)}, busKeys(busID)...)
	if err := invalidateBus.Run(ctx, c.client, keys).Err(); err != nil {
		return fmt.Errorf("invalidate seat cache for bus %s: %w", busID, err)
	}
	return nil
}
