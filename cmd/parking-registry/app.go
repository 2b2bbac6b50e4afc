package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"parking-registry/internal/config"
	"parking-registry/internal/logging"
	"parking-registry/internal/parking"
	"parking-registry/internal/storage"
)

// app holds everything a command needs once configuration is resolved.
type app struct {
	cfg       *config.Config
	fs        afero.Fs
	ledger    *parking.InstrumentedLedger
	telemetry *parking.TelemetryProvider
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}

	logging.Init(cfg.Environment)

	telemetry, err := parking.NewTelemetryProvider(cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("initialize telemetry: %w", err)
	}

	fs := afero.NewOsFs()
	store := storage.NewFileStore(fs, cfg.Storage.DataFile)
	if err := store.EnsureReady(); err != nil {
		telemetry.Shutdown(context.Background())
		return nil, err
	}

	tariff := parking.NewTariff(cfg.Tariff.BasePrice, cfg.Tariff.HourlyRate)
	ledger := parking.NewLedger(store, tariff, parking.WithStrictStorage(cfg.Storage.Strict))

	instrumented, err := parking.NewInstrumentedLedger(ledger, telemetry)
	if err != nil {
		telemetry.Shutdown(context.Background())
		return nil, fmt.Errorf("instrument ledger: %w", err)
	}

	logging.Logger().Debug().
		Str("data_file", store.Path()).
		Str("base_price", tariff.BasePrice().StringFixed(2)).
		Str("hourly_rate", tariff.HourlyRate().StringFixed(2)).
		Msg("registry ready")

	return &app{
		cfg:       cfg,
		fs:        fs,
		ledger:    instrumented,
		telemetry: telemetry,
	}, nil
}

func (a *app) close() {
	logging.Logger().Debug().Msg("shutting down telemetry")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.telemetry.Shutdown(ctx); err != nil {
		logging.Logger().Warn().Err(err).Msg("error shutting down telemetry")
	}
}
