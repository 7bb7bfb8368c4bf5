package services

import (
	"context"
	"sync"
	"time"

	"github.com/gravekeeper/core/internal/infrastructure/logger"
	"github.com/gravekeeper/core/internal/ports"
)

// Sweeper is the part of the maintenance service the sweeper drives
type Sweeper interface {
	SweepOverdue(ctx context.Context) (*ports.SweepResult, error)
}

// OverdueSweeper runs the overdue sweep once on Start and then on a fixed interval
type OverdueSweeper struct {
	sweeper  Sweeper
	interval time.Duration
	logger   *logger.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewOverdueSweeper creates a sweeper. A non-positive interval falls back to one minute.
func NewOverdueSweeper(sweeper Sweeper, interval time.Duration, logger *logger.Logger) *OverdueSweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &OverdueSweeper{
		sweeper:  sweeper,
		interval: interval,
		logger:   logger.WithComponent("overdue_sweeper"),
	}
}

// Start performs an immediate sweep and launches the periodic loop.
// Calling Start on a running sweeper is a no-op.
func (s *OverdueSweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true

	s.RunOnce(loopCtx)
	go s.loop(loopCtx, s.done)

	s.logger.Infow("Overdue sweeper started", "interval", s.interval.String())
}

// Stop cancels the loop and waits for an in-flight sweep to finish
func (s *OverdueSweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel, done := s.cancel, s.done
	s.running = false
	s.mu.Unlock()

	cancel()
	<-done
	s.logger.Infow("Overdue sweeper stopped")
}

// RunOnce performs a single sweep and logs any failure
func (s *OverdueSweeper) RunOnce(ctx context.Context) *ports.SweepResult {
	result, err := s.sweeper.SweepOverdue(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Errorw("Overdue sweep failed", "error", err)
		}
		return nil
	}
	return result
}

func (s *OverdueSweeper) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}
