package settings

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/Coolhgg/relife-scheduler/internal/domain/alarm"
)

// Fixed keys the engine state is persisted under.
const (
	// ConfigKey stores the serialized SchedulingConfig.
	ConfigKey = "scheduler.config"
	// StatsKey stores the serialized SchedulingStats.
	StatsKey = "scheduler.stats"
)

// Repository persists SchedulingConfig and SchedulingStats through a KV store.
type Repository struct {
	// kv is the underlying key-value collaborator.
	kv KV
}

// NewRepository creates a repository over the provided KV store.
func NewRepository(kv KV) *Repository {
	return &Repository{kv: kv}
}

// LoadConfig returns the persisted configuration, or the defaults when none
// has been saved yet.
func (r *Repository) LoadConfig(ctx context.Context) (*domain.SchedulingConfig, error) {
	value, found, err := r.kv.Get(ctx, ConfigKey)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if !found {
		return domain.DefaultSchedulingConfig(), nil
	}

	cfg := new(domain.SchedulingConfig)
	if err = json.Unmarshal([]byte(value), cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}

// SaveConfig persists the configuration.
func (r *Repository) SaveConfig(ctx context.Context, cfg *domain.SchedulingConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err = r.kv.Set(ctx, ConfigKey, string(data)); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	return nil
}

// LoadStats returns the persisted stats, or zero stats when none exist.
func (r *Repository) LoadStats(ctx context.Context) (*domain.SchedulingStats, error) {
	value, found, err := r.kv.Get(ctx, StatsKey)
	if err != nil {
		return nil, fmt.Errorf("load stats: %w", err)
	}

	if !found {
		return new(domain.SchedulingStats), nil
	}

	stats := new(domain.SchedulingStats)
	if err = json.Unmarshal([]byte(value), stats); err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}

	return stats, nil
}

// SaveStats persists the stats.
func (r *Repository) SaveStats(ctx context.Context, stats *domain.SchedulingStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}

	if err = r.kv.Set(ctx, StatsKey, string(data)); err != nil {
		return fmt.Errorf("save stats: %w", err)
	}

	return nil
}
