package geocode

import (
	"context"

	obsmetrics "github.com/northlink/partnerhub/internal/observability/metrics"
	territorydomain "github.com/northlink/partnerhub/internal/territory/domain"
)

type instrumentedGeocoder struct {
	inner   Geocoder
	metrics *obsmetrics.Metrics
}

// WithMetrics counts lookups by outcome.
func WithMetrics(inner Geocoder, metrics *obsmetrics.Metrics) Geocoder {
	if metrics == nil {
		return inner
	}
	return &instrumentedGeocoder{inner: inner, metrics: metrics}
}

func (g *instrumentedGeocoder) Geocode(ctx context.Context, addr territorydomain.Address) (territorydomain.Coordinates, error) {
	coords, err := g.inner.Geocode(ctx, addr)
	if err != nil {
		g.metrics.RecordGeocodeLookup(ctx, "error")
		return territorydomain.Coordinates{}, err
	}
	g.metrics.RecordGeocodeLookup(ctx, "ok")
	return coords, nil
}
