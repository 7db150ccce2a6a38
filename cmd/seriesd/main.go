package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/neuroviz/tsview/internal/config"
	"github.com/neuroviz/tsview/pkg/api"
	"github.com/neuroviz/tsview/pkg/storage"
	"github.com/neuroviz/tsview/pkg/timeseries"
)

const version = "0.3.0"

func main() {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)

	level.Info(logger).Log("msg", "starting seriesd", "version", version)

	cfg := config.DefaultConfig()
	if err := cfg.Validate(); err != nil {
		level.Error(logger).Log("msg", "invalid configuration", "err", err)
		os.Exit(1)
	}
	level.Info(logger).Log(
		"msg", "configuration loaded",
		"listen", cfg.Server.ListenAddr,
		"storage", cfg.Storage.Path,
		"series", cfg.Series.Title,
	)

	store, err := storage.NewStore(&storage.Config{
		Path:             cfg.Storage.Path,
		CompressionLevel: cfg.Storage.CompressionLevel,
		RowCacheSize:     cfg.Storage.RowCacheSize,
	}, log.With(logger, "component", "storage"))
	if err != nil {
		level.Error(logger).Log("msg", "failed to open array store", "err", err)
		os.Exit(1)
	}
	defer store.Close()

	series, err := timeseries.New(store, log.With(logger, "component", "timeseries"), timeseries.Options{
		Title:        cfg.Series.Title,
		SamplePeriod: cfg.Series.SamplePeriod,
		StartTime:    cfg.Series.StartTime,
		Kind:         seriesKind(cfg.Series.Kind),
	})
	if err != nil {
		level.Error(logger).Log("msg", "failed to create series", "err", err)
		os.Exit(1)
	}
	if err := series.Configure(); err != nil {
		level.Error(logger).Log("msg", "failed to configure series, is the data directory populated?", "err", err)
		os.Exit(1)
	}
	level.Info(logger).Log(
		"msg", "series configured",
		"dimensions", series.NrDimensions,
		"time_length", series.Lengths[0],
	)

	server := api.NewServer(cfg.Server.ListenAddr, log.With(logger, "component", "api"))
	server.RegisterSeries(cfg.Series.Title, series)

	go func() {
		level.Info(logger).Log("msg", "api server listening", "addr", cfg.Server.ListenAddr)
		if err := server.Start(); err != nil {
			level.Error(logger).Log("msg", "server error", "err", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	level.Info(logger).Log("msg", "shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		level.Error(logger).Log("msg", "server shutdown error", "err", err)
	}
	level.Info(logger).Log("msg", "stopped")
}

func seriesKind(s string) timeseries.Kind {
	switch s {
	case "sensor":
		return timeseries.KindSensor
	case "region":
		return timeseries.KindRegion
	case "surface":
		return timeseries.KindSurface
	default:
		return timeseries.KindGeneric
	}
}
