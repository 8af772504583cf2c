package alarms

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/Coolhgg/relife-scheduler/internal/domain/alarm"
)

func newSQLiteTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "alarms.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

// TestSQLiteStore_CRUDRoundtrip walks create, get, list, update and delete.
func TestSQLiteStore_CRUDRoundtrip(t *testing.T) {
	t.Parallel()

	store := newSQLiteTestStore(t)
	ctx := context.Background()

	a := newTestAlarm("Workday")
	a.Pattern = &domain.RecurrencePattern{Kind: domain.PatternDaily}
	a.Optimizations = []domain.OptimizationRecord{
		{Type: "smart_wake_window", Enabled: true, AdjustmentMinutes: -10},
	}

	created, err := store.Create(ctx, a)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Workday", got.Label)
	require.Equal(t, a.Days, got.Days)
	require.NotNil(t, got.Pattern)
	require.Equal(t, domain.PatternDaily, got.Pattern.Kind)
	require.Len(t, got.Optimizations, 1)
	require.Equal(t, -10, got.Optimizations[0].AdjustmentMinutes)

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	clock := "06:30"
	enabled := false
	updated, err := store.Update(ctx, created.ID, &domain.Patch{Time: &clock, Enabled: &enabled})
	require.NoError(t, err)
	require.Equal(t, clock, updated.Time)
	require.False(t, updated.Enabled)

	require.NoError(t, store.Delete(ctx, created.ID))
	require.ErrorIs(t, store.Delete(ctx, created.ID), ErrNotFound)
}

// TestSQLiteStore_DuplicateID rejects a second create with the same id.
func TestSQLiteStore_DuplicateID(t *testing.T) {
	t.Parallel()

	store := newSQLiteTestStore(t)
	ctx := context.Background()

	a := newTestAlarm("One")
	a.ID = "fixed-id"

	_, err := store.Create(ctx, a)
	require.NoError(t, err)

	_, err = store.Create(ctx, a)
	require.ErrorIs(t, err, ErrAlreadyExists)
}

// TestSQLiteStore_GetMissing maps no rows onto ErrNotFound.
func TestSQLiteStore_GetMissing(t *testing.T) {
	t.Parallel()

	store := newSQLiteTestStore(t)

	_, err := store.Get(context.Background(), "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

// TestSQLiteStore_ListOrder returns alarms in creation order.
func TestSQLiteStore_ListOrder(t *testing.T) {
	t.Parallel()

	store := newSQLiteTestStore(t)
	ctx := context.Background()

	first := newTestAlarm("First")
	first.CreatedAt = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

	second := newTestAlarm("Second")
	second.CreatedAt = time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)

	_, err := store.Create(ctx, second)
	require.NoError(t, err)
	_, err = store.Create(ctx, first)
	require.NoError(t, err)

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "First", all[0].Label)
	require.Equal(t, "Second", all[1].Label)
}
