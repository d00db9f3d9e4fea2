package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"

	"github.com/darshan-rambhia/hostwatch/internal/alerter"
	"github.com/darshan-rambhia/hostwatch/internal/model"
	"github.com/darshan-rambhia/hostwatch/internal/monitor"
	"github.com/spf13/cobra"
)

type sampleOutput struct {
	Snapshot model.MetricSnapshot `json:"snapshot"`
	Alerts   []model.Alert        `json:"alerts"`
}

func newSampleCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sample",
		Short: "Take one snapshot and print it with its alerts as JSON",
		Long:  "Take one snapshot of the host and evaluate it against the threshold table. Nothing is stored and no notifications are sent.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			slog.SetDefault(newLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat))

			snap, err := newSampler(cfg).Sample(cmd.Context())
			if err != nil {
				return err
			}
			return writeSample(cmd.OutOrStdout(), snap, monitor.Thresholds(cfg.Thresholds))
		},
	}
}

func writeSample(w io.Writer, snap model.MetricSnapshot, table alerter.Table) error {
	alerts := alerter.Evaluate(snap, table)
	if alerts == nil {
		alerts = []model.Alert{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(sampleOutput{Snapshot: snap, Alerts: alerts})
}
