package pipeline

import (
	"context"
	"log/slog"

	"spending-forecast/internal/model"
)

// Operation names recorded for runs
const (
	OpLoad    = "load"
	OpTrain   = "train"
	OpPredict = "predict"
	OpExport  = "export"
)

// Service runs pipeline operations as tracked runs. It is what the HTTP
// handlers and the CLI call.
type Service struct {
	Pipeline          *Pipeline
	Tracker           *Tracker
	Exporter          *Exporter
	Source            string
	DefaultYearsAhead int

	log *slog.Logger
}

// NewService wires a pipeline to a tracker and exporter
func NewService(p *Pipeline, tracker *Tracker, exporter *Exporter, source string, defaultYearsAhead int) *Service {
	if tracker == nil {
		tracker = NewTracker(nil, nil, p.log)
	}
	if defaultYearsAhead <= 0 {
		defaultYearsAhead = 3
	}
	return &Service{
		Pipeline:          p,
		Tracker:           tracker,
		Exporter:          exporter,
		Source:            source,
		DefaultYearsAhead: defaultYearsAhead,
		log:               p.opts.Logger.With("component", "service"),
	}
}

// LoadOutcome is the result of loading and preprocessing
type LoadOutcome struct {
	RunID      string                  `json:"run_id"`
	Load       model.LoadResult        `json:"load"`
	Preprocess *model.PreprocessReport `json:"preprocess,omitempty"`
}

// LoadData loads the configured source and preprocesses it as one run
func (s *Service) LoadData(ctx context.Context) (LoadOutcome, error) {
	run := s.Tracker.Start(ctx, OpLoad)
	out := LoadOutcome{RunID: run.ID}

	load, err := s.Pipeline.Load(ctx, s.Source)
	if err != nil {
		run.Finish(false, err, nil)
		return out, err
	}
	out.Load = load
	run.Log("info", "Data loaded", map[string]interface{}{
		"records":         load.RecordCount,
		"missing_columns": load.MissingColumns,
	})

	report, err := s.Pipeline.Preprocess()
	if err != nil {
		run.Finish(false, err, out)
		return out, err
	}
	out.Preprocess = &report
	s.Tracker.Metrics().ImputedCells.Add(float64(report.ImputedCells()))

	sm := run.Finish(true, nil, out)
	s.log.Info("load completed", "run_id", run.ID, "records", load.RecordCount, "duration", sm.Duration)
	return out, nil
}

// TrainModels retrains every entity as one run
func (s *Service) TrainModels(ctx context.Context) (string, model.TrainResult, error) {
	run := s.Tracker.Start(ctx, OpTrain)

	result, err := s.Pipeline.Train()
	if err != nil {
		run.Finish(false, err, nil)
		return run.ID, result, err
	}

	run.EntityErrors(result.SkippedOutcomes())
	s.Tracker.Metrics().TrainedEntities.Set(float64(result.Entities))

	detail := map[string]interface{}{
		"success":  result.Success,
		"fitted":   result.Fitted,
		"entities": result.Entities,
		"skipped":  result.Skipped,
		"history":  result.History,
	}
	sm := run.Finish(result.Success, nil, detail)
	s.log.Info("train completed", "run_id", run.ID, "fitted", result.Fitted, "skipped", result.Skipped, "duration", sm.Duration)
	return run.ID, result, nil
}

// Forecast predicts yearsAhead years; zero means the default horizon
func (s *Service) Forecast(ctx context.Context, yearsAhead int) (string, model.PredictResult, error) {
	if yearsAhead == 0 {
		yearsAhead = s.DefaultYearsAhead
	}
	run := s.Tracker.Start(ctx, OpPredict)

	result, err := s.Pipeline.Predict(yearsAhead)
	if err != nil {
		run.Finish(false, err, nil)
		return run.ID, result, err
	}

	run.EntityErrors(result.Omitted)
	run.Finish(true, nil, map[string]interface{}{
		"years":    result.Years,
		"entities": len(result.Bundles),
		"omitted":  len(result.Omitted),
	})
	return run.ID, result, nil
}

// Export predicts and writes the forecast in format as one run
func (s *Service) Export(ctx context.Context, format string, yearsAhead int) (string, model.ExportResult, error) {
	if yearsAhead == 0 {
		yearsAhead = s.DefaultYearsAhead
	}
	run := s.Tracker.Start(ctx, OpExport)

	result, err := s.Pipeline.Predict(yearsAhead)
	if err != nil {
		run.Finish(false, err, nil)
		return run.ID, model.ExportResult{}, err
	}
	run.EntityErrors(result.Omitted)

	exported, err := s.Exporter.Export(run.ID, format, result)
	run.Finish(exported.Success, err, exported)
	return run.ID, exported, err
}
