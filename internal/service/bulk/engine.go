package bulk

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	domain "github.com/Coolhgg/relife-scheduler/internal/domain/alarm"
	"github.com/Coolhgg/relife-scheduler/internal/logger"
	"github.com/Coolhgg/relife-scheduler/internal/repository/alarms"
)

// ErrUnknownKind indicates a bulk operation kind the engine does not know.
// This is a contract violation by the caller, not a data condition, so it is
// the one failure mode returned as an error instead of a Result entry.
var ErrUnknownKind = errors.New("unknown bulk operation kind")

// Engine executes batched alarm operations with per-item failure accounting.
// There is no transactional rollback: partial application is expected and
// reported, never hidden.
type Engine struct {
	// store is the alarm persistence collaborator.
	store alarms.Store
}

// NewEngine creates a bulk engine over the provided store.
func NewEngine(store alarms.Store) *Engine {
	return &Engine{store: store}
}

// Execute runs the operation and reports per-item successes and failures.
func (e *Engine) Execute(ctx context.Context, op *domain.BulkOperation) (*domain.Result, error) {
	ctx = logger.WithName(ctx, "bulk")

	switch op.Kind {
	case domain.BulkCreate:
		return e.executeCreate(ctx, op.Creates), nil
	case domain.BulkUpdate:
		return e.executeUpdate(ctx, op.Updates), nil
	case domain.BulkDelete:
		return e.executeDelete(ctx, op.IDs), nil
	case domain.BulkDuplicate:
		return e.executeDuplicate(ctx, op.IDs), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, op.Kind)
	}
}

// executeCreate creates each payload independently.
func (e *Engine) executeCreate(ctx context.Context, payloads []*domain.Alarm) *domain.Result {
	result := new(domain.Result)

	if len(payloads) == 0 {
		result.Errors = append(result.Errors, "no alarms to create")

		return result
	}

	for _, payload := range payloads {
		if _, err := e.store.Create(ctx, payload); err != nil {
			result.AddFailure(fmt.Sprintf("create %q: %v", itemName(payload.Label, payload.ID), err))

			continue
		}

		result.Success++
	}

	logResult(ctx, "create", result)

	return result
}

// executeUpdate applies each patch independently.
func (e *Engine) executeUpdate(ctx context.Context, updates []domain.BulkItemUpdate) *domain.Result {
	result := new(domain.Result)

	if len(updates) == 0 {
		result.Errors = append(result.Errors, "no alarms to update")

		return result
	}

	for _, update := range updates {
		patch := update.Patch
		if _, err := e.store.Update(ctx, update.ID, &patch); err != nil {
			result.AddFailure(fmt.Sprintf("update %q: %v", update.ID, err))

			continue
		}

		result.Success++
	}

	logResult(ctx, "update", result)

	return result
}

// executeDelete removes each target independently.
func (e *Engine) executeDelete(ctx context.Context, ids []string) *domain.Result {
	result := new(domain.Result)

	if len(ids) == 0 {
		result.Errors = append(result.Errors, "no alarms to delete")

		return result
	}

	for _, id := range ids {
		if err := e.store.Delete(ctx, id); err != nil {
			result.AddFailure(fmt.Sprintf("delete %q: %v", id, err))

			continue
		}

		result.Success++
	}

	logResult(ctx, "delete", result)

	return result
}

// executeDuplicate clones each located alarm under a fresh id. A missing
// source alarm is a reported failure, never a silent skip.
func (e *Engine) executeDuplicate(ctx context.Context, ids []string) *domain.Result {
	result := new(domain.Result)

	if len(ids) == 0 {
		result.Errors = append(result.Errors, "no alarms to duplicate")

		return result
	}

	for _, id := range ids {
		source, err := e.store.Get(ctx, id)
		if err != nil {
			result.AddFailure(fmt.Sprintf("duplicate %q: %v", id, err))

			continue
		}

		copied := source.Clone()
		copied.ID = uuid.NewString()
		copied.Label = source.Label + " (Copy)"
		copied.CreatedAt = time.Time{}

		if _, err = e.store.Create(ctx, copied); err != nil {
			result.AddFailure(fmt.Sprintf("duplicate %q: %v", itemName(source.Label, id), err))

			continue
		}

		result.Success++
	}

	logResult(ctx, "duplicate", result)

	return result
}

// itemName prefers the label for human-readable error messages.
func itemName(label, id string) string {
	if label != "" {
		return label
	}

	return id
}

// logResult records the accounting of one bulk run.
func logResult(ctx context.Context, kind string, result *domain.Result) {
	logger.InfoKV(ctx, "Bulk operation finished",
		"kind", kind, "success", result.Success, "failed", result.Failed)
}
