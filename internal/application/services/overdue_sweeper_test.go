package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravekeeper/core/internal/domain/entities"
	"github.com/gravekeeper/core/internal/infrastructure/logger"
	"github.com/gravekeeper/core/internal/ports"
)

type countingSweeper struct {
	calls atomic.Int32
	err   error
}

func (c *countingSweeper) SweepOverdue(ctx context.Context) (*ports.SweepResult, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return &ports.SweepResult{}, nil
}

func TestOverdueSweeper_RunsImmediatelyThenPeriodically(t *testing.T) {
	sweeper := &countingSweeper{}
	s := NewOverdueSweeper(sweeper, 10*time.Millisecond, logger.NewNop())

	s.Start(context.Background())
	assert.GreaterOrEqual(t, sweeper.calls.Load(), int32(1))

	require.Eventually(t, func() bool {
		return sweeper.calls.Load() >= 3
	}, time.Second, 5*time.Millisecond)

	s.Stop()
	stopped := sweeper.calls.Load()
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, stopped, sweeper.calls.Load())
}

func TestOverdueSweeper_StartAndStopAreIdempotent(t *testing.T) {
	sweeper := &countingSweeper{}
	s := NewOverdueSweeper(sweeper, time.Hour, logger.NewNop())

	s.Stop()
	s.Start(context.Background())
	s.Start(context.Background())
	assert.Equal(t, int32(1), sweeper.calls.Load())

	s.Stop()
	s.Stop()
}

func TestOverdueSweeper_StopsWithParentContext(t *testing.T) {
	sweeper := &countingSweeper{}
	s := NewOverdueSweeper(sweeper, 5*time.Millisecond, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestOverdueSweeper_RunOnceLogsFailures(t *testing.T) {
	s := NewOverdueSweeper(&countingSweeper{err: errStoreDown}, time.Minute, logger.NewNop())
	assert.Nil(t, s.RunOnce(context.Background()))
}

func TestOverdueSweeper_DrivesMaintenanceService(t *testing.T) {
	store := seedSnapshots(task("a", entities.TaskStatusScheduled, "2025-05-20", "2025-05-31"))
	svc, _ := newLoadedService(t, store)

	s := NewOverdueSweeper(svc, time.Hour, logger.NewNop())
	result := s.RunOnce(context.Background())

	require.NotNil(t, result)
	assert.Equal(t, []string{"a"}, result.MarkedOverdue)
	assert.Equal(t, 1, store.saveCount())
}
