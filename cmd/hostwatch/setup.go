package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/darshan-rambhia/hostwatch/internal/config"
	"github.com/darshan-rambhia/hostwatch/internal/notify"
	"github.com/darshan-rambhia/hostwatch/internal/sampler"
)

// loadConfig wraps config.Load with a friendlier message for a missing file.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, config.ErrConfigFileNotFound) {
		return nil, fmt.Errorf("%w\n\nCopy the example config to get started:\n  cp hostwatch.example.yml %s", err, path)
	}
	if err != nil {
		return nil, fmt.Errorf("loading config (%s): %w", path, err)
	}
	return cfg, nil
}

// newLogger builds the slog handler chosen by the config.
func newLogger(w io.Writer, level, format string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: logLevel}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// buildProviders turns notification config entries into providers.
func buildProviders(cfgs []config.NotificationConfig, logger *slog.Logger) []notify.Provider {
	var providers []notify.Provider
	for _, ncfg := range cfgs {
		switch ncfg.Type {
		case "log":
			providers = append(providers, notify.NewLog(logger))
		case "ntfy":
			providers = append(providers, notify.NewNtfy(ncfg.URL, ncfg.Topic))
		case "webhook":
			method := ncfg.Method
			if method == "" {
				method = http.MethodPost
			}
			providers = append(providers, notify.NewWebhook(ncfg.URL, method, ncfg.Headers))
		case "email":
			providers = append(providers, notify.NewEmail(notify.EmailConfig{
				Host:       ncfg.SMTPHost,
				Port:       ncfg.SMTPPort,
				Username:   ncfg.Username,
				Password:   ncfg.Password,
				From:       ncfg.From,
				Recipients: ncfg.Recipients,
			}))
		default:
			slog.Warn("ignoring unknown notification type", "type", ncfg.Type)
		}
	}
	return providers
}

func newSampler(cfg *config.Config) *sampler.Sampler {
	return sampler.New(sampler.NewHostSource(), sampler.Config{
		DiskPath:  cfg.DiskPath,
		CPUWindow: cfg.CPUWindow.Duration,
	})
}
