package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"spending-forecast/internal/config"
	"spending-forecast/internal/logging"
	"spending-forecast/internal/model"
	"spending-forecast/internal/pipeline"

	"github.com/spf13/cobra"
)

var (
	flagConfig string
	flagData   string
	flagYears  int
	flagQuiet  bool
)

var rootCmd = &cobra.Command{
	Use:          "forecast",
	Short:        "Drug spending trend forecaster",
	Long:         "Fit a linear spending trend per drug over the history years and extrapolate it forward.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().StringVarP(&flagData, "data", "d", "", "Dataset path or URL (overrides the config)")
	rootCmd.PersistentFlags().IntVarP(&flagYears, "years", "n", 0, "Years to forecast (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Only log errors")
}

// session is a loaded and trained pipeline for one command invocation
type session struct {
	cfg     *config.Config
	log     *slog.Logger
	service *pipeline.Service
	trained model.TrainResult
}

// newSession loads the dataset and trains every entity. outputDir overrides the
// export directory when not empty.
func newSession(ctx context.Context, outputDir string) (*session, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagData != "" {
		cfg.Data.Path = flagData
	}
	if outputDir != "" {
		cfg.Export.OutputDir = outputDir
	}

	logCfg := cfg.Logging
	logCfg.Format = "text"
	if flagQuiet {
		logCfg.Level = "error"
	}
	logger := logging.NewWithWriter(os.Stderr, logCfg)

	p := pipeline.New(pipeline.Options{
		EntityField:   cfg.Data.EntityField,
		History:       model.YearRange{Start: cfg.Data.HistoryStart, End: cfg.Data.HistoryEnd},
		MaxYearsAhead: cfg.Data.MaxYearsAhead,
		Logger:        logger,
	})
	exporter := pipeline.NewExporter(cfg.Export.OutputDir, p.Options().Families)
	svc := pipeline.NewService(p, pipeline.NewTracker(nil, nil, logger), exporter, cfg.Data.Path, cfg.Data.DefaultYearsAhead)

	if _, err := svc.LoadData(ctx); err != nil {
		return nil, err
	}
	_, trained, err := svc.TrainModels(ctx)
	if err != nil {
		return nil, err
	}
	if !trained.Success {
		return nil, fmt.Errorf("no entity could be fitted (%d skipped)", trained.Skipped)
	}

	return &session{cfg: cfg, log: logger, service: svc, trained: trained}, nil
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
