// Package conflictscan periodically sweeps the territory set for boundary
// overlap and flags the worst offenders in the logs.
package conflictscan

import (
	"context"
	"time"

	"github.com/northlink/partnerhub/internal/config"
	obsmetrics "github.com/northlink/partnerhub/internal/observability/metrics"
	territorydomain "github.com/northlink/partnerhub/internal/territory/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// scoreThreshold is two shared zip codes or four shared cities.
const scoreThreshold = 4.0

type Worker struct {
	log         *zap.Logger
	interval    time.Duration
	territories territorydomain.Service
	metrics     *obsmetrics.Metrics

	cancel context.CancelFunc
	done   chan struct{}
}

type WorkerParam struct {
	fx.In

	Cfg         config.Config
	Log         *zap.Logger
	Territories territorydomain.Service
	Metrics     *obsmetrics.Metrics `optional:"true"`
}

func NewWorker(p WorkerParam) *Worker {
	return &Worker{
		log:         p.Log.Named("conflictscan"),
		interval:    p.Cfg.ConflictScanInterval,
		territories: p.Territories,
		metrics:     p.Metrics,
	}
}

func (w *Worker) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})

	go func() {
		defer close(w.done)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.sweep(ctx)
			}
		}
	}()
}

func (w *Worker) Stop() {
	if w.cancel == nil {
		return
	}
	w.cancel()
	<-w.done
}

func (w *Worker) sweep(ctx context.Context) {
	reports, err := w.territories.OptimizeAssignments(ctx)
	if err != nil {
		w.log.Error("overlap sweep failed", zap.Error(err))
		return
	}

	flagged := 0
	for _, report := range reports {
		if report.Score < scoreThreshold {
			break
		}
		flagged++
		w.log.Warn("territory overlap above threshold",
			zap.String("territory_id", report.TerritoryID),
			zap.String("territory_name", report.Name),
			zap.Float64("score", report.Score),
			zap.Int("conflicts", len(report.Conflicts)),
		)
	}
	w.metrics.RecordTerritoryConflicts(ctx, flagged)
	w.log.Info("overlap sweep complete",
		zap.Int("territories", len(reports)),
		zap.Int("flagged", flagged),
	)
}

func registerWorker(lc fx.Lifecycle, cfg config.Config, worker *Worker) {
	if cfg.ConflictScanInterval <= 0 {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			worker.Start()
			return nil
		},
		OnStop: func(context.Context) error {
			worker.Stop()
			return nil
		},
	})
}

var Module = fx.Module("conflictscan",
	fx.Provide(NewWorker),
	fx.Invoke(registerWorker),
)
