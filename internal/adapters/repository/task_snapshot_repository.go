package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gravekeeper/core/internal/domain/entities"
	"github.com/gravekeeper/core/internal/ports"
)

// SnapshotSchemaVersion is the envelope version written by Save
const SnapshotSchemaVersion = 1

type taskSnapshot struct {
	SchemaVersion int                         `json:"schema_version"`
	SavedAt       time.Time                   `json:"saved_at"`
	Tasks         []*entities.MaintenanceTask `json:"tasks"`
}

// TaskSnapshotRepository stores the whole task collection as one JSON
// document under a single key of a KeyValueStore.
type TaskSnapshotRepository struct {
	store ports.KeyValueStore
	key   string
	clock func() time.Time
}

// NewTaskSnapshotRepository creates a snapshot repository over store
func NewTaskSnapshotRepository(store ports.KeyValueStore, key string) *TaskSnapshotRepository {
	return &TaskSnapshotRepository{store: store, key: key, clock: time.Now}
}

// Load reads and decodes the snapshot. A bare JSON array is the version 0
// layout and is upgraded in memory.
func (r *TaskSnapshotRepository) Load(ctx context.Context) ([]*entities.MaintenanceTask, error) {
	data, err := r.store.Get(ctx, r.key)
	if errors.Is(err, ports.ErrKeyNotFound) {
		return nil, ports.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read task snapshot: %w", err)
	}
	return decodeSnapshot(data)
}

func (r *TaskSnapshotRepository) Save(ctx context.Context, tasks []*entities.MaintenanceTask) error {
	if tasks == nil {
		tasks = []*entities.MaintenanceTask{}
	}
	data, err := json.Marshal(taskSnapshot{
		SchemaVersion: SnapshotSchemaVersion,
		SavedAt:       r.clock().UTC(),
		Tasks:         tasks,
	})
	if err != nil {
		return fmt.Errorf("encode task snapshot: %w", err)
	}
	if err := r.store.Set(ctx, r.key, data); err != nil {
		return fmt.Errorf("write task snapshot: %w", err)
	}
	return nil
}

func decodeSnapshot(data []byte) ([]*entities.MaintenanceTask, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty document", ports.ErrCorruptSnapshot)
	}

	var tasks []*entities.MaintenanceTask
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &tasks); err != nil {
			return nil, fmt.Errorf("%w: %v", ports.ErrCorruptSnapshot, err)
		}
	case '{':
		var snap taskSnapshot
		if err := json.Unmarshal(trimmed, &snap); err != nil {
			return nil, fmt.Errorf("%w: %v", ports.ErrCorruptSnapshot, err)
		}
		if snap.SchemaVersion > SnapshotSchemaVersion {
			return nil, fmt.Errorf("%w: %d", ports.ErrUnsupportedSchema, snap.SchemaVersion)
		}
		if snap.SchemaVersion < 1 {
			return nil, fmt.Errorf("%w: missing schema_version", ports.ErrCorruptSnapshot)
		}
		tasks = snap.Tasks
	default:
		return nil, fmt.Errorf("%w: unexpected document", ports.ErrCorruptSnapshot)
	}

	out := make([]*entities.MaintenanceTask, 0, len(tasks))
	for i, t := range tasks {
		if t == nil {
			continue
		}
		if t.ID == "" || !t.Status.IsValid() {
			return nil, fmt.Errorf("%w: task %d has no id or an unknown status", ports.ErrCorruptSnapshot, i)
		}
		out = append(out, t)
	}
	return out, nil
}
