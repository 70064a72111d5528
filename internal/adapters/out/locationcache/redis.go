package locationcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/ports"
	"lastmile/internal/pkg/errs"

	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix keeps every key of the cache in one hash slot, so the put script is
// valid on a Redis cluster.
const DefaultKeyPrefix = "lastmile:{locations}"

var _ ports.LocationCache = (*Redis)(nil)

// putScript writes a fix unless a newer one is indexed, then trims the index to
// capacity, deleting the fixes of the oldest drivers.
//
// KEYS[1] fix key, KEYS[2] index; ARGV: driver id, recorded-at ms, payload, ttl ms,
// capacity, fix key prefix.
var putScript = redis.NewScript(`
local current = redis.call('ZSCORE', KEYS[2], ARGV[1])
if current and redis.call('EXISTS', KEYS[1]) == 1 and tonumber(current) > tonumber(ARGV[2]) then
	return 0
end
redis.call('SET', KEYS[1], ARGV[3], 'PX', ARGV[4])
redis.call('ZADD', KEYS[2], ARGV[2], ARGV[1])
local overflow = redis.call('ZCARD', KEYS[2]) - tonumber(ARGV[5])
if overflow > 0 then
	local oldest = redis.call('ZRANGE', KEYS[2], 0, overflow - 1)
	for _, id in ipairs(oldest) do
		redis.call('DEL', ARGV[6] .. id)
		redis.call('ZREM', KEYS[2], id)
	end
end
return 1
`)

// Redis is a LocationCache shared by every instance through one Redis server.
type Redis struct {
	client   redis.UniversalClient
	capacity int
	ttl      time.Duration
	prefix   string
}

type fixPayload struct {
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	AccuracyM  *float64  `json:"accuracy_m,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

func NewRedis(client redis.UniversalClient, capacity int, ttl time.Duration, prefix string) (*Redis, error) {
	if client == nil {
		return nil, errs.NewValueIsRequiredError("redis client")
	}
	if capacity <= 0 {
		return nil, errs.NewValueIsInvalidErrorWithCause("capacity", fmt.Errorf("%d is not positive", capacity))
	}
	if ttl <= 0 {
		return nil, errs.NewValueIsInvalidErrorWithCause("ttl", fmt.Errorf("%s is not positive", ttl))
	}
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Redis{client: client, capacity: capacity, ttl: ttl, prefix: prefix}, nil
}

func (r *Redis) fixKeyPrefix() string {
	return r.prefix + ":fix:"
}

func (r *Redis) indexKey() string {
	return r.prefix + ":index"
}

func (r *Redis) Put(ctx context.Context, loc ports.DriverLocation) error {
	if err := validate(loc); err != nil {
		return err
	}

	payload, err := json.Marshal(fixPayload{
		Lat:        loc.Point.Lat(),
		Lon:        loc.Point.Lon(),
		AccuracyM:  loc.AccuracyM,
		RecordedAt: loc.RecordedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode driver location: %w", err)
	}

	id := loc.DriverID.String()
	err = putScript.Run(ctx, r.client,
		[]string{r.fixKeyPrefix() + id, r.indexKey()},
		id, loc.RecordedAt.UnixMilli(), payload, r.ttl.Milliseconds(), r.capacity, r.fixKeyPrefix(),
	).Err()
	if err != nil {
		return errs.NewStoreUnavailableError("put driver location", err)
	}
	return nil
}

func (r *Redis) Get(ctx context.Context, driverID kernel.UUID) (ports.DriverLocation, error) {
	raw, err := r.client.Get(ctx, r.fixKeyPrefix()+driverID.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return ports.DriverLocation{}, errs.NewObjectNotFoundError("driver location", driverID)
	}
	if err != nil {
		return ports.DriverLocation{}, errs.NewStoreUnavailableError("get driver location", err)
	}

	var payload fixPayload
	if err = json.Unmarshal(raw, &payload); err != nil {
		return ports.DriverLocation{}, fmt.Errorf("decode driver location: %w", err)
	}
	point, err := kernel.NewGeoPoint(payload.Lat, payload.Lon)
	if err != nil {
		return ports.DriverLocation{}, err
	}
	return ports.DriverLocation{
		DriverID:   driverID,
		Point:      point,
		AccuracyM:  payload.AccuracyM,
		RecordedAt: payload.RecordedAt,
	}, nil
}
