package notify

import (
	"context"
	"time"
)

// Scheduler is the external notification collaborator: typically the mobile
// platform's local notification API behind a bridge.
type Scheduler interface {
	// Schedule registers a notification with a stable numeric id.
	Schedule(ctx context.Context, id int64, title, body string, fireAt time.Time) error
	// Cancel removes a previously scheduled notification.
	// Cancelling an unknown id is not an error.
	Cancel(ctx context.Context, id int64) error
}
