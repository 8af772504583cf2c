package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Coolhgg/relife-scheduler/internal/config"
	domain "github.com/Coolhgg/relife-scheduler/internal/domain/alarm"
	"github.com/Coolhgg/relife-scheduler/internal/logger"
	"github.com/Coolhgg/relife-scheduler/internal/repository/alarms"
	"github.com/Coolhgg/relife-scheduler/internal/repository/settings"
)

// ExportOptions contains inputs for the export entry point.
type ExportOptions struct {
	// ConfigPath is the path to the settings YAML file.
	ConfigPath string
	// OutputPath is where the snapshot JSON is written.
	OutputPath string
}

// ImportOptions contains inputs for the import entry point.
type ImportOptions struct {
	// ConfigPath is the path to the settings YAML file.
	ConfigPath string
	// InputPath is the snapshot JSON to restore.
	InputPath string
	// Policy controls how the snapshot is applied.
	Policy domain.ImportPolicy
}

// RunExport writes a snapshot of the configured store to a file.
func RunExport(ctx context.Context, opts *ExportOptions) error {
	ctx = logger.WithName(ctx, "export")

	engine, closeStore, err := newEngineFromConfig(opts.ConfigPath)
	if err != nil {
		return err
	}

	defer closeQuietly(ctx, closeStore)

	snap, err := engine.Export(ctx)
	if err != nil {
		return fmt.Errorf("export schedule: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	if err = os.WriteFile(filepath.Clean(opts.OutputPath), data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	logger.InfoKV(ctx, "Schedule exported", "path", opts.OutputPath, "alarms", snap.Meta.Count)

	return nil
}

// RunImport restores a snapshot file into the configured store and reports
// the per-alarm accounting.
func RunImport(ctx context.Context, opts *ImportOptions) error {
	ctx = logger.WithName(ctx, "import")

	contents, err := os.ReadFile(filepath.Clean(opts.InputPath))
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}

	snap := new(domain.Snapshot)
	if err = json.Unmarshal(contents, snap); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}

	engine, closeStore, err := newEngineFromConfig(opts.ConfigPath)
	if err != nil {
		return err
	}

	defer closeQuietly(ctx, closeStore)

	result, err := engine.Import(ctx, snap, opts.Policy)
	if err != nil {
		return fmt.Errorf("import schedule: %w", err)
	}

	for _, message := range result.Errors {
		logger.WarnKV(ctx, "Import item failed", "reason", message)
	}

	logger.InfoKV(ctx, "Schedule imported", "success", result.Success, "failed", result.Failed)

	return nil
}

// newEngineFromConfig builds a snapshot engine over the configured backends.
func newEngineFromConfig(configPath string) (*Engine, func() error, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load settings: %w", err)
	}

	store, closeStore, err := alarms.NewFromConfig(cfg)
	if err != nil {
		return nil, nil, err
	}

	settingsRepo := settings.NewRepository(settings.NewFileKV(cfg.SettingsFile))

	return NewEngine(store, settingsRepo), closeStore, nil
}

// closeQuietly releases store resources, logging instead of failing.
func closeQuietly(ctx context.Context, closeStore func() error) {
	if err := closeStore(); err != nil {
		logger.ErrorKV(ctx, "Failed to close alarm store", "error", err)
	}
}
