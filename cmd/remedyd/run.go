package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/zeusync/remedy/internal/config"
	"github.com/zeusync/remedy/internal/core/observability/log"
	"github.com/zeusync/remedy/internal/injector"
)

var configPath string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the simulated host, the engine and the operator surface",
	Args:  cobra.NoArgs,
	RunE:  runDaemon,
}

var checkConfigCmd = &cobra.Command{
	Use:   "check-config",
	Short: "Validate a config file and print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return writeYAML(cmd.OutOrStdout(), cfg)
	},
}

func init() {
	for _, c := range []*cobra.Command{runCmd, checkConfigCmd} {
		c.Flags().StringVarP(&configPath, "config", "c", "", "path to a .yaml, .yml or .toml config file")
	}
}

func loadConfig() (config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	app, cleanup, err := injector.InitializeApp(cfg)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app.Logger.Info("remedyd starting",
		log.String("listen_addr", cfg.Server.ListenAddr),
		log.String("live_mode", cfg.LiveMode),
		log.Int("buildings", cfg.Host.Buildings),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.Host.Run(gctx, app.Engine) })
	g.Go(func() error { return app.Server.Run(gctx) })

	if configPath != "" {
		w, err := config.NewWatcher(configPath, reloader(app), config.WithWatcherLogger(app.Logger))
		if err != nil {
			app.Logger.Warn("config hot reload disabled", log.Error(err))
		} else {
			g.Go(func() error { return w.Run(gctx) })
		}
	}

	if err = g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	app.Logger.Info("remedyd stopped")
	return nil
}

// reloader applies the parts of a reloaded config that can change at
// runtime. Everything else needs a restart.
func reloader(app *injector.App) config.ApplyFunc {
	return func(next config.Config) error {
		if err := app.Engine.SetSettings(next.Remediation); err != nil {
			return err
		}
		app.Logger.SetLevel(next.Level())
		if next.Host != app.Config.Host || next.Server != app.Config.Server || next.LiveMode != app.Config.LiveMode {
			app.Logger.Warn("host, server and live mode changes apply on restart")
		}
		return nil
	}
}
