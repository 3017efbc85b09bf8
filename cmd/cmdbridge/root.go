package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"cmdbridge/internal/app"
)

type cliOptions struct {
	configPath string
	skillsRoot string
	binDir     string
	workDir    string
	logLevel   string
	logger     *zap.Logger
}

func newRootCommand() *cobra.Command {
	home, _ := os.UserHomeDir()
	opts := cliOptions{
		configPath: filepath.Join(home, ".cmdbridge", "servers.yaml"),
		skillsRoot: filepath.Join(home, ".cmdbridge", "skills"),
		binDir:     filepath.Join(home, ".cmdbridge", "bin"),
		workDir:    ".",
		logLevel:   "warn",
		logger:     zap.NewNop(),
	}

	root := &cobra.Command{
		Use:   "cmdbridge",
		Short: "Bridge tool servers and skill scripts into invocable commands",
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			logger, err := buildLogger(opts.logLevel)
			if err != nil {
				return err
			}
			opts.logger = logger
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			_ = opts.logger.Sync()
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", opts.configPath, "path to server config file")
	root.PersistentFlags().StringVar(&opts.skillsRoot, "skills", opts.skillsRoot, "skills root directory")
	root.PersistentFlags().StringVar(&opts.binDir, "bin", opts.binDir, "wrapper bin directory")
	root.PersistentFlags().StringVar(&opts.workDir, "workdir", opts.workDir, "working directory for built-in commands")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", opts.logLevel, "log level (debug, info, warn, error)")

	root.AddCommand(
		newRouteCmd(&opts),
		newSyncCmd(&opts),
		newWatchCmd(&opts),
		newToolsCmd(&opts),
		newSearchCmd(&opts),
	)
	return root
}

func buildLogger(level string) (*zap.Logger, error) {
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parsed)
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

func newApp(opts *cliOptions) (*app.App, error) {
	return app.New(app.Config{
		ConfigPath: opts.configPath,
		SkillsRoot: opts.skillsRoot,
		BinDir:     opts.binDir,
		WorkDir:    opts.workDir,
		Logger:     opts.logger,
		Session:    &shellSession{},
	})
}
