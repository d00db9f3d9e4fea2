package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/darshan-rambhia/hostwatch/internal/alerter"
	"github.com/darshan-rambhia/hostwatch/internal/api"
	"github.com/darshan-rambhia/hostwatch/internal/cache"
	"github.com/darshan-rambhia/hostwatch/internal/config"
	"github.com/darshan-rambhia/hostwatch/internal/forecast"
	"github.com/darshan-rambhia/hostwatch/internal/monitor"
	"github.com/darshan-rambhia/hostwatch/internal/notify"
	"github.com/darshan-rambhia/hostwatch/internal/scheduler"
	"github.com/darshan-rambhia/hostwatch/internal/store"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler and HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			logger := newLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
			slog.SetDefault(logger)

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return serve(ctx, cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	ver, sha, built, dirty := buildInfo()
	slog.Info("starting hostwatch",
		"version", ver,
		"commit", sha,
		"built", built,
		"dirty", dirty,
		"go", runtime.Version(),
		"listen", cfg.Listen,
	)

	// Initialize store
	st, err := store.New(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	c := cache.New(cfg.AlertHistorySize)

	providers := buildProviders(cfg.Notifications, logger)
	notifier := notify.NewNotifier(providers...)
	a := alerter.NewAlerter(c, notifier, monitor.Thresholds(cfg.Thresholds), nil)
	defer a.Wait()

	mon := monitor.New(newSampler(cfg), st, c, a, forecast.New(forecast.NewUnseededNoise()), monitor.ForecastOptions{
		HorizonHours:  cfg.Forecast.HorizonHours,
		HistoryWindow: cfg.Forecast.HistoryWindow.Duration,
		Sensitivity:   cfg.Forecast.Sensitivity,
	})

	sched := scheduler.New()
	if err := monitor.Register(sched, mon, store.NewPruner(st, cfg.Retention.Duration), cfg.Tasks); err != nil {
		sched.Shutdown()
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sched.Run(ctx) })

	server := api.NewServer(cfg.Listen, c, st, sched, mon, api.ForecastDefaults{
		HorizonHours: cfg.Forecast.HorizonHours,
		Sensitivity:  cfg.Forecast.Sensitivity,
	})
	g.Go(func() error { return server.Run(ctx) })

	slog.Info("all components started",
		"tasks", len(sched.List()),
		"notifications", notifier.Providers(),
	)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("fatal error", "error", err)
		return err
	}

	slog.Info("hostwatch stopped gracefully")
	return nil
}
