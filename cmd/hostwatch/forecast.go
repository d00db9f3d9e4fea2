package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"

	"github.com/darshan-rambhia/hostwatch/internal/cache"
	"github.com/darshan-rambhia/hostwatch/internal/forecast"
	"github.com/darshan-rambhia/hostwatch/internal/model"
	"github.com/darshan-rambhia/hostwatch/internal/monitor"
	"github.com/darshan-rambhia/hostwatch/internal/store"
	"github.com/spf13/cobra"
)

func newForecastCmd(configPath *string) *cobra.Command {
	var (
		hours       int
		sensitivity float64
		seed        uint64
	)
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Forecast resource usage from stored snapshots and print the report as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			slog.SetDefault(newLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat))

			if !cmd.Flags().Changed("hours") {
				hours = cfg.Forecast.HorizonHours
			}
			if !cmd.Flags().Changed("sensitivity") {
				sensitivity = cfg.Forecast.Sensitivity
			}
			noise := forecast.NewUnseededNoise()
			if cmd.Flags().Changed("seed") {
				noise = forecast.NewRandomNoise(seed)
			}

			st, err := store.New(cfg.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()

			mon := monitor.New(nil, st, cache.New(1), nil, forecast.New(noise), monitor.ForecastOptions{
				HorizonHours:  cfg.Forecast.HorizonHours,
				HistoryWindow: cfg.Forecast.HistoryWindow.Duration,
				Sensitivity:   cfg.Forecast.Sensitivity,
			})
			report, err := mon.Analyze(cmd.Context(), hours, sensitivity)
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().IntVar(&hours, "hours", 24, "forecast horizon in hours")
	cmd.Flags().Float64Var(&sensitivity, "sensitivity", 0.5, "anomaly sensitivity in [0,1]")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "seed for reproducible noise")
	return cmd
}

func writeReport(w io.Writer, report model.ForecastReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
