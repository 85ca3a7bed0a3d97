package conflictscan

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/northlink/partnerhub/internal/config"
	territorydomain "github.com/northlink/partnerhub/internal/territory/domain"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type stubTerritoryService struct {
	territorydomain.Service

	reports []territorydomain.ConflictReport
	err     error
	calls   atomic.Int64
}

func (s *stubTerritoryService) OptimizeAssignments(ctx context.Context) ([]territorydomain.ConflictReport, error) {
	s.calls.Add(1)
	return s.reports, s.err
}

func TestSweepFlagsHighScores(t *testing.T) {
	stub := &stubTerritoryService{
		reports: []territorydomain.ConflictReport{
			{TerritoryID: "t-a", Name: "A", Score: 6.0},
			{TerritoryID: "t-b", Name: "B", Score: 1.0},
		},
	}
	w := NewWorker(WorkerParam{
		Cfg:         config.Config{ConflictScanInterval: time.Minute},
		Log:         zap.NewNop(),
		Territories: stub,
	})

	w.sweep(context.Background())
	assert.Equal(t, int64(1), stub.calls.Load())
}

func TestSweepToleratesServiceError(t *testing.T) {
	stub := &stubTerritoryService{err: errors.New("boom")}
	w := NewWorker(WorkerParam{
		Cfg:         config.Config{ConflictScanInterval: time.Minute},
		Log:         zap.NewNop(),
		Territories: stub,
	})

	assert.NotPanics(t, func() {
		w.sweep(context.Background())
	})
}

func TestStartStopTerminates(t *testing.T) {
	stub := &stubTerritoryService{}
	w := NewWorker(WorkerParam{
		Cfg:         config.Config{ConflictScanInterval: 5 * time.Millisecond},
		Log:         zap.NewNop(),
		Territories: stub,
	})

	w.Start()
	time.Sleep(20 * time.Millisecond)
	w.Stop()

	assert.Greater(t, stub.calls.Load(), int64(0))
}
