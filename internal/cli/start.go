package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/haskel/hostwatch/internal/config"
	"github.com/haskel/hostwatch/internal/detector"
	"github.com/haskel/hostwatch/internal/logger"
	"github.com/haskel/hostwatch/internal/monitor"
	"github.com/haskel/hostwatch/internal/server"
	"github.com/haskel/hostwatch/internal/state"
	"github.com/haskel/hostwatch/internal/storage"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the hostwatch agent",
	Long: `Start collecting metrics in the foreground and serve them over HTTP
and WebSocket. SIGHUP reloads the config file and resets anomaly history;
SIGINT and SIGTERM shut down gracefully.`,
	RunE: runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

// loadConfig reads --config (strictly when given) and applies the
// --host/--port overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	if cfgFile != "" {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		fromEnv, err := config.FromEnv()
		if err != nil {
			return nil, err
		}
		cfg = fromEnv
	}

	if cmd.Flags().Changed("port") {
		cfg.Server.Port = port
	}
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = host
	}
	return cfg, cfg.Validate()
}

func collectorOptions(cfg *config.Config) monitor.CollectorOptions {
	return monitor.CollectorOptions{
		Interval:       cfg.MonitoringInterval(),
		CPUSettle:      cfg.CPUSettle(),
		HwmonRoot:      cfg.Monitoring.HwmonRoot,
		USBRoot:        cfg.Monitoring.USBRoot,
		KernelLogSince: cfg.Monitoring.KernelLogWindow,
		GPUEnabled:     cfg.Monitoring.GPUEnabled,
		GPUTimeout:     cfg.GPUTimeout(),
	}
}

// restartRequired lists the settings that differ between the running config
// and a reloaded one but are only read at startup.
func restartRequired(running, reloaded *config.Config) []string {
	var changed []string
	check := func(name string, differs bool) {
		if differs {
			changed = append(changed, name)
		}
	}

	a, b := running, reloaded
	check("server.host", a.Server.Host != b.Server.Host)
	check("server.port", a.Server.Port != b.Server.Port)
	check("server.pid_file", a.Server.PIDFile != b.Server.PIDFile)
	check("server.profiling", a.Server.Profiling != b.Server.Profiling)
	check("server.rate_limit", a.Server.RateLimit != b.Server.RateLimit)
	check("server.cors", a.Server.CORS.Enabled != b.Server.CORS.Enabled ||
		!slices.Equal(a.Server.CORS.AllowedOrigins, b.Server.CORS.AllowedOrigins))
	check("monitoring", a.Monitoring != b.Monitoring)
	check("storage", a.Storage != b.Storage)
	check("logging", a.Logging != b.Logging)
	return changed
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	log.Info("hostwatch starting",
		"version", Version,
		"config", cfgFile,
		"interval", cfg.MonitoringInterval(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	collector, err := monitor.NewCollector(ctx, collectorOptions(cfg), log)
	if err != nil {
		return fmt.Errorf("failed to create collector: %w", err)
	}

	store, err := storage.Open(storage.Options{
		Path:            cfg.Storage.Path,
		Retention:       cfg.Retention(),
		CleanupInterval: cfg.CleanupInterval(),
	}, log)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	store.Start(ctx)

	if err := store.SetSetting(ctx, "version", Version); err != nil {
		log.Warn("failed to record version", "error", err)
	}
	if err := store.SetSetting(ctx, "last_start", time.Now().UTC().Format(time.RFC3339)); err != nil {
		log.Warn("failed to record start time", "error", err)
	}

	cell := state.NewCell(state.DefaultAnomalyCapacity)
	det := detector.New(monitor.CoreCount(ctx))

	agg := monitor.NewAggregator(collector, det, store, cell, cfg.MonitoringInterval(), log)
	if err := agg.Start(ctx); err != nil {
		_ = store.Stop()
		return fmt.Errorf("failed to start aggregator: %w", err)
	}

	if cfg.Server.PIDFile != "" {
		if err := writePIDFile(cfg.Server.PIDFile); err != nil {
			log.Warn("failed to write PID file", "error", err)
		} else {
			defer os.Remove(cfg.Server.PIDFile)
		}
	}

	srv := server.New(cfg, cell, store, log, Version)

	sighupCh := make(chan os.Signal, 1)
	sigCh := make(chan os.Signal, 1)
	shutdownDone := make(chan struct{})

	signal.Notify(sighupCh, syscall.SIGHUP)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		for {
			select {
			case <-sighupCh:
				log.Info("SIGHUP received, reloading configuration")

				newCfg, err := loadConfig(cmd)
				if err != nil {
					log.Error("invalid configuration, reload aborted", "error", err)
					continue
				}

				if changed := restartRequired(cfg, newCfg); len(changed) > 0 {
					log.Warn("settings changed that only apply after a restart", "settings", changed)
				}

				srv.ReloadConfig(newCfg)
				agg.ResetHistory()
			case <-shutdownDone:
				return
			}
		}
	}()

	go func() {
		<-sigCh

		log.Info("shutdown signal received")

		signal.Stop(sighupCh)
		signal.Stop(sigCh)
		close(shutdownDone)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown error", "error", err)
		}

		if err := agg.Stop(); err != nil {
			log.Error("aggregator shutdown error", "error", err)
		}

		if err := store.Stop(); err != nil {
			log.Error("storage shutdown error", "error", err)
		}

		cancel()
	}()

	log.Info("hostwatch ready", "addr", srv.Addr(), "gpu", collector.GPUAvailable())

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	<-ctx.Done()
	log.Info("hostwatch stopped")
	return nil
}
