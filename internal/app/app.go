// Package app wires the bridge services together with explicit construction
// and caller-controlled lifetimes. No globals; everything is built once here
// and handed to the CLI.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"cmdbridge/internal/domain"
	"cmdbridge/internal/infra/config"
	"cmdbridge/internal/infra/mcpclient"
	"cmdbridge/internal/infra/router"
	"cmdbridge/internal/infra/runner"
	"cmdbridge/internal/infra/skills"
	"cmdbridge/internal/infra/telemetry"
	"cmdbridge/internal/infra/watcher"
	"cmdbridge/internal/infra/wrapper"
)

type Config struct {
	ConfigPath string
	SkillsRoot string
	BinDir     string
	WorkDir    string
	Logger     *zap.Logger
	Metrics    domain.Metrics
	// Session is the external shell collaborator; nil means native commands
	// fail with a handled error.
	Session router.BashSession
}

// App owns every long-lived service of the bridge.
type App struct {
	Servers   config.Servers
	Manager   *mcpclient.Manager
	Skills    *skills.Store
	Installer *wrapper.Installer
	Updater   *watcher.AutoUpdater
	Watcher   *watcher.Watcher
	Router    *router.Router

	logger *zap.Logger
}

func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("app")
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}

	servers, err := config.NewLoader(logger).Load(cfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load server config: %w", err)
	}

	manager := mcpclient.NewManager(logger)
	for _, name := range servers.Names() {
		manager.Register(mcpclient.New(servers.Entries[name], mcpclient.Options{Logger: logger}))
	}

	store := skills.NewStore(cfg.SkillsRoot, logger)
	installer, err := wrapper.OpenInstaller(cfg.BinDir, logger)
	if err != nil {
		return nil, err
	}

	updater := watcher.NewAutoUpdater(store, installer, logger)
	fsWatcher := watcher.New(cfg.SkillsRoot, watcher.Options{Logger: logger})

	rt := router.New(router.Options{
		Servers: servers.Entries,
		Clients: func(entry domain.ServerEntry) router.ProtocolClient {
			return mcpclient.New(entry, mcpclient.Options{Logger: logger})
		},
		Skills:    store,
		Runner:    runner.New(runner.Options{Logger: logger, BinDir: installer.BinDir()}),
		Searcher:  installer,
		Formatter: wrapper.FormatListing,
		Session:   cfg.Session,
		Metrics:   metrics,
		Logger:    logger,
		WorkDir:   cfg.WorkDir,
	})

	return &App{
		Servers:   servers,
		Manager:   manager,
		Skills:    store,
		Installer: installer,
		Updater:   updater,
		Watcher:   fsWatcher,
		Router:    rt,
		logger:    logger,
	}, nil
}

// Sync brings the installed wrappers in line with the current config and
// skills tree: orphaned server wrappers go first, then skill wrappers are
// reconciled, then wrappers for every reachable server tool are installed.
func (a *App) Sync(ctx context.Context) error {
	if _, err := a.Installer.CleanupOrphans(a.Servers.Names()); err != nil {
		return fmt.Errorf("orphan cleanup: %w", err)
	}
	if _, err := a.Updater.SyncAll(); err != nil {
		return fmt.Errorf("skill sync: %w", err)
	}

	a.Manager.ConnectAll(ctx)
	defer a.Manager.DisconnectAll()

	toolsByServer := a.Manager.ListAllTools(ctx)
	installed := 0
	for server, tools := range toolsByServer {
		for _, tool := range tools {
			w, err := wrapper.GenerateMCP(server, tool)
			if err != nil {
				a.logger.Warn("wrapper generation failed",
					zap.String("server", server),
					zap.String("tool", tool.Name),
					zap.Error(err),
				)
				continue
			}
			if _, err := a.Installer.Install(w); err != nil {
				return err
			}
			installed++
		}
	}
	a.logger.Info("sync complete",
		telemetry.EventField(telemetry.EventSyncComplete),
		zap.Int("serverTools", installed),
	)
	return nil
}

// Watch runs the filesystem watcher and auto-updater until ctx ends.
func (a *App) Watch(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		done <- a.Updater.Run(ctx, a.Watcher.Events())
	}()
	if err := a.Watcher.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	select {
	case err := <-done:
		if err != nil && ctx.Err() == nil {
			return err
		}
	case <-time.After(time.Second):
	}
	return ctx.Err()
}

// Close releases resources owned by the app.
func (a *App) Close() error {
	a.Manager.DisconnectAll()
	return a.Installer.Close()
}
