package geocode

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	territorydomain "github.com/northlink/partnerhub/internal/territory/domain"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type cachedGeocoder struct {
	inner Geocoder
	rdb   *redis.Client
	ttl   time.Duration
	log   *zap.Logger
}

// WithCache wraps a geocoder with a redis read-through cache. Cache failures
// never fail the lookup; they fall through to the provider.
func WithCache(inner Geocoder, rdb *redis.Client, ttl time.Duration, log *zap.Logger) Geocoder {
	if rdb == nil {
		return inner
	}
	return &cachedGeocoder{
		inner: inner,
		rdb:   rdb,
		ttl:   ttl,
		log:   log.Named("geocode.cache"),
	}
}

func (c *cachedGeocoder) Geocode(ctx context.Context, addr territorydomain.Address) (territorydomain.Coordinates, error) {
	key := cacheKey(addr)

	if raw, err := c.rdb.Get(ctx, key).Result(); err == nil {
		var coords territorydomain.Coordinates
		if err := json.Unmarshal([]byte(raw), &coords); err == nil {
			return coords, nil
		}
	} else if err != redis.Nil {
		c.log.Warn("cache read failed", zap.Error(err))
	}

	coords, err := c.inner.Geocode(ctx, addr)
	if err != nil {
		return territorydomain.Coordinates{}, err
	}

	if raw, err := json.Marshal(coords); err == nil {
		if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			c.log.Warn("cache write failed", zap.Error(err))
		}
	}
	return coords, nil
}

func cacheKey(addr territorydomain.Address) string {
	normalized := strings.ToLower(fmt.Sprintf("%s|%s|%s|%s|%s",
		addr.Street, addr.City, addr.State, addr.ZipCode, addr.Country))
	sum := sha256.Sum256([]byte(normalized))
	return "geocode:" + hex.EncodeToString(sum[:])
}
