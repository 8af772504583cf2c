package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestMemoryScheduler covers scheduling, replacement and idempotent cancel.
func TestMemoryScheduler(t *testing.T) {
	t.Parallel()

	m := NewMemoryScheduler()
	ctx := context.Background()
	fireAt := time.Date(2025, time.March, 4, 7, 0, 0, 0, time.UTC)

	require.NoError(t, m.Schedule(ctx, 100, "Work", "Alarm at 07:00", fireAt))
	require.NoError(t, m.Schedule(ctx, 101, "Work", "Alarm at 07:00", fireAt.Add(24*time.Hour)))
	require.Equal(t, 2, m.Pending())

	// Rescheduling the same id replaces, not duplicates.
	require.NoError(t, m.Schedule(ctx, 100, "Work", "Alarm at 06:45", fireAt.Add(-15*time.Minute)))
	require.Equal(t, 2, m.Pending())

	require.NoError(t, m.Cancel(ctx, 100))
	require.Equal(t, 1, m.Pending())

	// Cancelling an unknown id is a no-op.
	require.NoError(t, m.Cancel(ctx, 100))
	require.NoError(t, m.Cancel(ctx, 999))
	require.Equal(t, 1, m.Pending())
}
