package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "Gravekeeper", cfg.App.Name)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "badger", cfg.Store.Driver)
	assert.Equal(t, "graveyard_maintenance", cfg.Store.TaskKey)
	assert.Equal(t, 60*time.Second, cfg.Maintenance.SweepInterval)
	assert.Equal(t, "UTC", cfg.Maintenance.Timezone)
	assert.True(t, cfg.Maintenance.SeedSampleData)
	assert.Equal(t, 3, cfg.Maintenance.UpcomingDays)
	assert.Equal(t, "allow_override", cfg.Burial.DecisionPolicy)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DB_DRIVER", "sqlite3")
	t.Setenv("DB_PATH", "/tmp/gk.db")
	t.Setenv("STORE_DRIVER", "redis")
	t.Setenv("MAINTENANCE_SWEEP_INTERVAL", "5s")
	t.Setenv("MAINTENANCE_TIMEZONE", "Asia/Tehran")
	t.Setenv("BURIAL_DECISION_POLICY", "final")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, "file:/tmp/gk.db?_foreign_keys=on&_busy_timeout=5000", cfg.Database.GetDSN())
	assert.Equal(t, "redis", cfg.Store.Driver)
	assert.Equal(t, 5*time.Second, cfg.Maintenance.SweepInterval)
	assert.Equal(t, "final", cfg.Burial.DecisionPolicy)

	loc, err := cfg.Maintenance.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Tehran", loc.String())
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"default jwt secret", map[string]string{"JWT_SECRET": ""}},
		{"unknown database driver", map[string]string{"JWT_SECRET": "s", "DB_DRIVER": "mysql"}},
		{"unknown store driver", map[string]string{"JWT_SECRET": "s", "STORE_DRIVER": "etcd"}},
		{"zero sweep interval", map[string]string{"JWT_SECRET": "s", "MAINTENANCE_SWEEP_INTERVAL": "0s"}},
		{"bad timezone", map[string]string{"JWT_SECRET": "s", "MAINTENANCE_TIMEZONE": "Mars/Olympus"}},
		{"bad decision policy", map[string]string{"JWT_SECRET": "s", "BURIAL_DECISION_POLICY": "sometimes"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
