package geocode

import (
	"context"

	"github.com/northlink/partnerhub/internal/config"
	obsmetrics "github.com/northlink/partnerhub/internal/observability/metrics"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewRedisClient returns nil when no redis address is configured. Consumers
// must treat a nil client as "no cache".
func NewRedisClient(lc fx.Lifecycle, cfg config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return rdb.Close()
		},
	})
	return rdb
}

type GeocoderParam struct {
	fx.In

	Cfg     config.Config
	Redis   *redis.Client
	Log     *zap.Logger
	Metrics *obsmetrics.Metrics `optional:"true"`
}

// NewGeocoder returns nil when no provider endpoint is configured. Territory
// validation skips coordinate matching in that case.
func NewGeocoder(p GeocoderParam) Geocoder {
	if p.Cfg.GeocoderEndpoint == "" {
		return nil
	}
	cached := WithCache(NewHTTPProvider(p.Cfg.GeocoderEndpoint), p.Redis, p.Cfg.GeocoderCacheTTL, p.Log)
	return WithMetrics(cached, p.Metrics)
}

var Module = fx.Module("geocode",
	fx.Provide(NewRedisClient),
	fx.Provide(NewGeocoder),
)
