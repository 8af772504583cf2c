package alarms

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/Coolhgg/relife-scheduler/internal/domain/alarm"
)

func newTestAlarm(label string) *domain.Alarm {
	return &domain.Alarm{
		Time:    "07:00",
		Days:    []time.Weekday{time.Monday, time.Wednesday},
		Label:   label,
		Sound:   "gentle-bells",
		Enabled: true,
	}
}

// TestFileStore_CRUDRoundtrip walks create, get, list, update and delete.
func TestFileStore_CRUDRoundtrip(t *testing.T) {
	t.Parallel()

	store := NewFileStore(filepath.Join(t.TempDir(), "alarms.json"))
	ctx := context.Background()

	created, err := store.Create(ctx, newTestAlarm("Workday"))
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.False(t, created.CreatedAt.IsZero())

	got, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Workday", got.Label)

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	label := "Workday (early)"
	updated, err := store.Update(ctx, created.ID, &domain.Patch{Label: &label})
	require.NoError(t, err)
	require.Equal(t, label, updated.Label)

	require.NoError(t, store.Delete(ctx, created.ID))

	_, err = store.Get(ctx, created.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

// TestFileStore_MissingFileIsEmpty treats a missing file as an empty collection.
func TestFileStore_MissingFileIsEmpty(t *testing.T) {
	t.Parallel()

	store := NewFileStore(filepath.Join(t.TempDir(), "missing.json"))

	all, err := store.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, all)
}

// TestFileStore_DuplicateID rejects a second create with the same id.
func TestFileStore_DuplicateID(t *testing.T) {
	t.Parallel()

	store := NewFileStore(filepath.Join(t.TempDir(), "alarms.json"))
	ctx := context.Background()

	a := newTestAlarm("One")
	a.ID = "fixed-id"

	_, err := store.Create(ctx, a)
	require.NoError(t, err)

	_, err = store.Create(ctx, a)
	require.ErrorIs(t, err, ErrAlreadyExists)
}

// TestFileStore_RejectsInvalidAlarm validates on create and update.
func TestFileStore_RejectsInvalidAlarm(t *testing.T) {
	t.Parallel()

	store := NewFileStore(filepath.Join(t.TempDir(), "alarms.json"))
	ctx := context.Background()

	bad := newTestAlarm("Bad")
	bad.Time = "27:00"

	_, err := store.Create(ctx, bad)
	require.ErrorIs(t, err, domain.ErrInvalidTime)

	created, err := store.Create(ctx, newTestAlarm("Good"))
	require.NoError(t, err)

	badTime := "07:99"
	_, err = store.Update(ctx, created.ID, &domain.Patch{Time: &badTime})
	require.ErrorIs(t, err, domain.ErrInvalidTime)
}

// TestFileStore_CloneIsolation ensures returned values do not alias storage.
func TestFileStore_CloneIsolation(t *testing.T) {
	t.Parallel()

	store := NewFileStore(filepath.Join(t.TempDir(), "alarms.json"))
	ctx := context.Background()

	created, err := store.Create(ctx, newTestAlarm("Isolated"))
	require.NoError(t, err)

	created.Label = "mutated"

	got, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Isolated", got.Label)
}
