package notify

import (
	"context"
	"sync"
	"time"

	"github.com/Coolhgg/relife-scheduler/internal/logger"
)

// MemoryScheduler is an in-process notification backend: it keeps the pending
// set in memory and logs transitions. It stands in for a platform notification
// service when none is attached.
type MemoryScheduler struct {
	// mu protects pending.
	mu sync.Mutex
	// pending maps notification id to its fire instant.
	pending map[int64]time.Time
}

// NewMemoryScheduler creates an empty in-process backend.
func NewMemoryScheduler() *MemoryScheduler {
	return &MemoryScheduler{
		pending: make(map[int64]time.Time),
	}
}

// Schedule records the notification, replacing any previous one under the
// same id.
func (m *MemoryScheduler) Schedule(ctx context.Context, id int64, title, _ string, fireAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pending[id] = fireAt

	logger.DebugKV(ctx, "Notification scheduled",
		"notification_id", id, "title", title, "fire_at", fireAt.Format(time.RFC3339))

	return nil
}

// Cancel removes the notification. Cancelling an unknown id is a no-op.
func (m *MemoryScheduler) Cancel(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.pending, id)

	return nil
}

// Pending returns the number of scheduled notifications.
func (m *MemoryScheduler) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.pending)
}
