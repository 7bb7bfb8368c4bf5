package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravekeeper/core/internal/adapters/kvstore"
	"github.com/gravekeeper/core/internal/domain/entities"
	"github.com/gravekeeper/core/internal/ports"
)

const taskKey = "graveyard_maintenance"

func newSnapshotRepo(t *testing.T) (*TaskSnapshotRepository, ports.KeyValueStore) {
	t.Helper()
	store, err := kvstore.OpenBadger("", true, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	repo := NewTaskSnapshotRepository(store, taskKey)
	repo.clock = func() time.Time { return time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC) }
	return repo, store
}

func TestTaskSnapshotRepository_SaveAndLoad(t *testing.T) {
	repo, store := newSnapshotRepo(t)
	ctx := context.Background()

	_, err := repo.Load(ctx)
	assert.ErrorIs(t, err, ports.ErrSnapshotNotFound)

	assignee := "2"
	tasks := []*entities.MaintenanceTask{{
		ID:            "1",
		GraveID:       "1",
		PlotID:        "1",
		Title:         "Clean headstone",
		Category:      entities.TaskCategoryCleaning,
		Status:        entities.TaskStatusScheduled,
		AssignedTo:    &assignee,
		ScheduledDate: "2025-06-02",
		Deadline:      "2025-06-05",
		IsPublic:      true,
		CreatedAt:     time.Date(2025, 5, 30, 8, 0, 0, 0, time.UTC),
		UpdatedAt:     time.Date(2025, 5, 30, 8, 0, 0, 0, time.UTC),
	}}
	require.NoError(t, repo.Save(ctx, tasks))

	raw, err := store.Get(ctx, taskKey)
	require.NoError(t, err)
	var envelope map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &envelope))
	assert.JSONEq(t, `1`, string(envelope["schema_version"]))
	assert.JSONEq(t, `"2025-06-01T10:00:00Z"`, string(envelope["saved_at"]))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, tasks[0], loaded[0])
}

func TestTaskSnapshotRepository_SaveEmpty(t *testing.T) {
	repo, _ := newSnapshotRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, nil))
	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestTaskSnapshotRepository_LegacyArray(t *testing.T) {
	repo, store := newSnapshotRepo(t)
	ctx := context.Background()

	legacy := `[{"id":"3","graveId":"3","plotId":"1","title":"Repair fence","description":"",
		"category":"repair","status":"overdue","scheduledDate":"2025-05-10","deadline":"2025-05-20",
		"isPublic":false,"createdAt":"2025-05-01T00:00:00.000Z","updatedAt":"2025-05-21T00:00:00.000Z"}]`
	require.NoError(t, store.Set(ctx, taskKey, []byte(legacy)))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, entities.TaskStatusOverdue, loaded[0].Status)
	assert.Equal(t, entities.Date("2025-05-20"), loaded[0].Deadline)
}

func TestTaskSnapshotRepository_RejectsBadDocuments(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{"newer schema", `{"schema_version":2,"tasks":[]}`, ports.ErrUnsupportedSchema},
		{"missing version", `{"tasks":[]}`, ports.ErrCorruptSnapshot},
		{"truncated", `{"schema_version":1,"tasks":[`, ports.ErrCorruptSnapshot},
		{"scalar", `"tasks"`, ports.ErrCorruptSnapshot},
		{"empty", ``, ports.ErrCorruptSnapshot},
		{"unknown status", `[{"id":"1","status":"lost"}]`, ports.ErrCorruptSnapshot},
		{"missing id", `[{"status":"scheduled"}]`, ports.ErrCorruptSnapshot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, store := newSnapshotRepo(t)
			ctx := context.Background()
			require.NoError(t, store.Set(ctx, taskKey, []byte(tt.data)))

			_, err := repo.Load(ctx)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
