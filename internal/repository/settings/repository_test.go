package settings

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	domain "github.com/Coolhgg/relife-scheduler/internal/domain/alarm"
)

// TestFileKV_GetSetRoundtrip checks persistence and the absent-key contract.
func TestFileKV_GetSetRoundtrip(t *testing.T) {
	t.Parallel()

	kv := NewFileKV(filepath.Join(t.TempDir(), "state.json"))
	ctx := context.Background()

	_, found, err := kv.Get(ctx, "missing")
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, kv.Set(ctx, "key", "value"))

	got, found, err := kv.Get(ctx, "key")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "value", got)
}

// TestRepository_ConfigDefaultsAndRoundtrip verifies the default fallback and
// persisted roundtrip of SchedulingConfig.
func TestRepository_ConfigDefaultsAndRoundtrip(t *testing.T) {
	t.Parallel()

	repo := NewRepository(NewFileKV(filepath.Join(t.TempDir(), "state.json")))
	ctx := context.Background()

	cfg, err := repo.LoadConfig(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.DefaultSchedulingConfig(), cfg)

	cfg.TimeZone = "Europe/Berlin"
	cfg.MaxDailyAdjustmentMinutes = 20

	require.NoError(t, repo.SaveConfig(ctx, cfg))

	loaded, err := repo.LoadConfig(ctx)
	require.NoError(t, err)
	require.Equal(t, cfg, loaded)
}

// TestRepository_StatsRoundtrip verifies zero stats fallback and persistence.
func TestRepository_StatsRoundtrip(t *testing.T) {
	t.Parallel()

	repo := NewRepository(NewFileKV(filepath.Join(t.TempDir(), "state.json")))
	ctx := context.Background()

	stats, err := repo.LoadStats(ctx)
	require.NoError(t, err)
	require.Zero(t, stats.TotalScheduled)

	stats.TotalScheduled = 4
	stats.RecordAdjustment("seasonal", -10)

	require.NoError(t, repo.SaveStats(ctx, stats))

	loaded, err := repo.LoadStats(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(4), loaded.TotalScheduled)
	require.Equal(t, "seasonal", loaded.MostEffectiveType)
	require.InDelta(t, 10, loaded.AverageAdjustmentMinutes, 0.001)
}
