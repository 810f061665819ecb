// @title Spending Forecast API
// @version 1.0
// @description Per-entity drug spending trend fitting and forecasting.
// @host localhost:8080
// @BasePath /
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"spending-forecast/internal/api"
	"spending-forecast/internal/api/handler"
	"spending-forecast/internal/config"
	"spending-forecast/internal/logging"
	"spending-forecast/internal/model"
	"spending-forecast/internal/pipeline"
	"spending-forecast/internal/store"
	"spending-forecast/pkg/router"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "pipeline: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, closer, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer closer.Close()

	// Init DB
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to open run store: %w", err)
	}
	defer st.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	p := pipeline.New(pipeline.Options{
		EntityField:   cfg.Data.EntityField,
		History:       model.YearRange{Start: cfg.Data.HistoryStart, End: cfg.Data.HistoryEnd},
		MaxYearsAhead: cfg.Data.MaxYearsAhead,
		Logger:        logger,
	})
	tracker := pipeline.NewTracker(st, pipeline.NewMetrics(reg), logger)
	exporter := pipeline.NewExporter(cfg.Export.OutputDir, p.Options().Families)
	svc := pipeline.NewService(p, tracker, exporter, cfg.Data.Path, cfg.Data.DefaultYearsAhead)

	// Create router
	r := router.New(logger)
	r.AllowOrigins(cfg.Server.AllowedOrigins...)

	// Register API routes
	api.RegisterRoutes(r, handler.New(svc, st, logger), promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("starting spending forecast service",
		"addr", cfg.Addr(),
		"data", cfg.Data.Path,
		"history", p.Options().History.String(),
		"store", cfg.Store.Path,
	)
	return r.Start(ctx, cfg.Addr(), router.ServerOptions{
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
}
