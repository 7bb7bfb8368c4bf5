package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gravekeeper/core/internal/domain/entities"
	"github.com/gravekeeper/core/internal/ports"
)

// memorySnapshots is a TaskSnapshotRepository that keeps the last saved JSON
type memorySnapshots struct {
	mu      sync.Mutex
	data    []byte
	saves   int
	loadErr error
	saveErr error
}

func (m *memorySnapshots) Load(ctx context.Context) ([]*entities.MaintenanceTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.data == nil {
		return nil, ports.ErrSnapshotNotFound
	}
	var tasks []*entities.MaintenanceTask
	if err := json.Unmarshal(m.data, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (m *memorySnapshots) Save(ctx context.Context, tasks []*entities.MaintenanceTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return err
	}
	m.data = data
	return nil
}

func (m *memorySnapshots) saved() []*entities.MaintenanceTask {
	m.mu.Lock()
	defer m.mu.Unlock()

	var tasks []*entities.MaintenanceTask
	_ = json.Unmarshal(m.data, &tasks)
	return tasks
}

func (m *memorySnapshots) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func seedSnapshots(tasks ...*entities.MaintenanceTask) *memorySnapshots {
	data, _ := json.Marshal(tasks)
	return &memorySnapshots{data: data}
}

// fakeClock is a settable clock
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{now: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// stubInventory serves a fixed set of graves
type stubInventory struct {
	graves map[string]*entities.Grave
}

func (s *stubInventory) GetPlot(ctx context.Context, id string) (*entities.Plot, error) {
	for _, g := range s.graves {
		if g.PlotID == id {
			return &entities.Plot{ID: id}, nil
		}
	}
	return nil, entities.ErrPlotNotFound
}

func (s *stubInventory) GetGrave(ctx context.Context, id string) (*entities.Grave, error) {
	g, ok := s.graves[id]
	if !ok {
		return nil, entities.ErrGraveNotFound
	}
	return g, nil
}

var errStoreDown = errors.New("store unavailable")

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }
