package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	commissionCalculations metric.Int64Counter
	commissionRejections   metric.Int64Counter
	territoryValidations   metric.Int64Counter
	geocodeLookups         metric.Int64Counter
	territoryConflicts     metric.Int64Gauge
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	ctx := context.Background()
	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "http", "http/protobuf":
		return otlpmetrichttp.New(ctx,
			otlpmetrichttp.WithEndpoint(endpoint),
			otlpmetrichttp.WithInsecure(),
		)
	case "", "grpc":
		return otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(endpoint),
			otlpmetricgrpc.WithInsecure(),
		)
	default:
		return nil, fmt.Errorf("unsupported otlp protocol %q", protocol)
	}
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "partnerhub"
	}
	meter := provider.Meter(name)

	commissionCalculations, err := meter.Int64Counter("partnerhub_commission_calculations_total")
	if err != nil {
		return nil, err
	}
	commissionRejections, err := meter.Int64Counter("partnerhub_commission_rejections_total")
	if err != nil {
		return nil, err
	}
	territoryValidations, err := meter.Int64Counter("partnerhub_territory_validations_total")
	if err != nil {
		return nil, err
	}
	geocodeLookups, err := meter.Int64Counter("partnerhub_geocode_lookups_total")
	if err != nil {
		return nil, err
	}
	territoryConflicts, err := meter.Int64Gauge("partnerhub_territory_conflicts_flagged")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		commissionCalculations: commissionCalculations,
		commissionRejections:   commissionRejections,
		territoryValidations:   territoryValidations,
		geocodeLookups:         geocodeLookups,
		territoryConflicts:     territoryConflicts,
	}, nil
}

// RecordCommissionCalculation increments successful calculation counts per tier.
func (m *Metrics) RecordCommissionCalculation(ctx context.Context, tier string) {
	if m == nil {
		return
	}
	m.commissionCalculations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tier", strings.TrimSpace(tier)),
	))
}

// RecordCommissionRejection increments rejected calculation counts per reason.
func (m *Metrics) RecordCommissionRejection(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.commissionRejections.Add(ctx, 1, metric.WithAttributes(
		attribute.String("reason", strings.TrimSpace(reason)),
	))
}

// RecordTerritoryValidation increments validation counts per match method.
func (m *Metrics) RecordTerritoryValidation(ctx context.Context, method string, matched bool) {
	if m == nil {
		return
	}
	m.territoryValidations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", strings.TrimSpace(method)),
		attribute.Bool("matched", matched),
	))
}

// RecordTerritoryConflicts reports the number of territories flagged by the
// latest overlap sweep.
func (m *Metrics) RecordTerritoryConflicts(ctx context.Context, flagged int) {
	if m == nil {
		return
	}
	m.territoryConflicts.Record(ctx, int64(flagged))
}

// RecordGeocodeLookup increments geocode lookup counts per outcome.
func (m *Metrics) RecordGeocodeLookup(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.geocodeLookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", strings.TrimSpace(outcome)),
	))
}
