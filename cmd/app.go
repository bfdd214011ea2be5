package cmd

import (
	"fmt"

	"github.com/iksnae/duckchat/internal"
)

// app bundles the stores every command works against
type app struct {
	paths   internal.DataPaths
	cfg     internal.Config
	logs    *internal.LogStore
	pointer *internal.ActivePointer
}

// openApp resolves the data directory, loads the config and opens the
// pointer store
func openApp() (*app, error) {
	paths, err := internal.ResolveDataPaths(storagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory: %w", err)
	}
	if err := paths.Ensure(); err != nil {
		return nil, err
	}

	cfg, err := internal.EnsureConfig(paths.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	store, err := cfg.OpenPointerStore(paths.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s pointer store: %w", cfg.PointerBackend, err)
	}

	logs := internal.NewLogStore(paths.Sessions)
	return &app{
		paths:   paths,
		cfg:     cfg,
		logs:    logs,
		pointer: internal.NewActivePointer(store, logs),
	}, nil
}

func (a *app) Close() {
	if err := a.pointer.Close(); err != nil {
		internal.LogWarn("Failed to close pointer store: %v", err)
	}
}

// retention builds a retention manager honoring the config
func (a *app) retention() *internal.RetentionManager {
	m := internal.NewRetentionManager(a.logs, a.pointer)
	m.ProtectActiveOnPurge = a.cfg.ProtectActiveSessionOnPurge
	return m
}
