// Package pipeline loads per-entity spending records, imputes missing metric
// values, fits one least-squares trend per entity and metric family, and
// extrapolates those trends into future years.
//
// A Pipeline holds the loaded dataset and the trained models. It is safe for
// concurrent use: load, preprocess and train take an exclusive lock, predict
// and status a shared one.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"spending-forecast/internal/model"
)

// Options configures a Pipeline
type Options struct {
	EntityField   string
	History       model.YearRange
	Families      []model.MetricFamily
	MaxYearsAhead int
	Logger        *slog.Logger
	HTTPClient    *http.Client
}

// DefaultOptions matches the drug spending dataset layout
func DefaultOptions() Options {
	return Options{
		EntityField:   "Brnd_Name",
		History:       model.YearRange{Start: 2018, End: 2022},
		Families:      model.DefaultFamilies(),
		MaxYearsAhead: 50,
	}
}

// Status is a snapshot of what the pipeline currently holds
type Status struct {
	Source          string          `json:"source,omitempty"`
	Loaded          bool            `json:"loaded"`
	Records         int             `json:"records"`
	Preprocessed    bool            `json:"preprocessed"`
	TrainedEntities int             `json:"trained_entities"`
	TrainedAt       *time.Time      `json:"trained_at,omitempty"`
	History         model.YearRange `json:"history"`
}

// Pipeline owns the dataset and the per-family model mappings
type Pipeline struct {
	opts Options
	log  *slog.Logger

	mu           sync.RWMutex
	data         *model.Dataset
	preprocessed bool
	models       modelSet
	trainedAt    time.Time
}

// New creates an empty pipeline
func New(opts Options) *Pipeline {
	def := DefaultOptions()
	if opts.EntityField == "" {
		opts.EntityField = def.EntityField
	}
	if opts.History.Len() == 0 {
		opts.History = def.History
	}
	if len(opts.Families) == 0 {
		opts.Families = def.Families
	}
	if opts.MaxYearsAhead <= 0 {
		opts.MaxYearsAhead = def.MaxYearsAhead
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Pipeline{
		opts:   opts,
		log:    opts.Logger.With("component", "pipeline"),
		models: newModelSet(opts.Families),
	}
}

// Options returns the effective options
func (p *Pipeline) Options() Options {
	return p.opts
}

// Load reads source and replaces the dataset. On failure the previous dataset is kept.
func (p *Pipeline) Load(ctx context.Context, source string) (model.LoadResult, error) {
	p.log.Info("loading data", "source", source)

	ds, err := readSource(ctx, p.opts.HTTPClient, source)
	if err != nil {
		p.log.Error("failed to load data", "source", source, "error", err)
		return model.LoadResult{}, err
	}

	result := model.LoadResult{
		Source:         source,
		RecordCount:    ds.Len(),
		TrackedColumns: trackedColumns(ds.Columns, p.opts.Families),
		MissingColumns: missingColumns(ds.Columns, p.opts.Families, p.opts.History),
	}
	if len(result.MissingColumns) > 0 {
		p.log.Warn("expected metric columns absent from every record", "columns", result.MissingColumns)
	}
	if dups := duplicateEntities(ds, p.opts.EntityField); len(dups) > 0 {
		p.log.Warn("duplicate entity identifiers, later records win at training", "entities", dups)
	}

	p.mu.Lock()
	p.data = ds
	p.preprocessed = false
	p.mu.Unlock()

	p.log.Info("successfully loaded records", "source", source, "count", result.RecordCount)
	return result, nil
}

// Preprocess coerces and mean-imputes the tracked metric columns of the loaded dataset
func (p *Pipeline) Preprocess() (model.PreprocessReport, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.data == nil {
		p.log.Error("no data to preprocess")
		return model.PreprocessReport{}, ErrNoData
	}

	ds, report, err := preprocess(p.data, p.opts.Families)
	if err != nil {
		p.log.Error("error during preprocessing", "error", err)
		return model.PreprocessReport{}, err
	}

	p.data = ds
	p.preprocessed = true
	p.log.Info("data preprocessing completed", "columns", len(report.Columns), "imputed_cells", report.ImputedCells())
	return report, nil
}

// Train fits every entity's models and replaces the model mappings as a whole.
// Success is false, without an error, when no entity could be fitted.
func (p *Pipeline) Train() (model.TrainResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.data == nil {
		p.log.Error("no data available for training")
		return model.TrainResult{}, ErrNoData
	}
	if !p.preprocessed {
		p.log.Warn("training on data that has not been preprocessed")
	}

	models, result := fitModels(p.data, p.opts.EntityField, p.opts.Families, p.opts.History)
	for _, o := range result.SkippedOutcomes() {
		p.log.Error("error training models for entity", "entity", o.Entity, "index", o.Index, "metric", o.Metric, "reason", o.Reason)
	}

	p.models = models
	p.trainedAt = time.Now().UTC()
	p.log.Info("successfully trained models", "fitted", result.Fitted, "entities", result.Entities, "skipped", result.Skipped)
	return result, nil
}

// Predict evaluates every trained entity for yearsAhead years after the history
func (p *Pipeline) Predict(yearsAhead int) (model.PredictResult, error) {
	if yearsAhead < 1 || yearsAhead > p.opts.MaxYearsAhead {
		return model.PredictResult{}, fmt.Errorf("%w: years_ahead must be between 1 and %d, got %d",
			ErrInvalidHorizon, p.opts.MaxYearsAhead, yearsAhead)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.models.entities(p.opts.Families) == 0 {
		p.log.Error("no trained models available")
		return model.PredictResult{}, ErrNotTrained
	}

	result := forecast(p.models, p.opts.Families, futureYears(p.opts.History, yearsAhead))
	for _, o := range result.Omitted {
		p.log.Error("prediction error for entity", "entity", o.Entity, "metric", o.Metric, "reason", o.Reason)
	}
	return result, nil
}

// Model returns one trained model
func (p *Pipeline) Model(entity, metric string) (model.TrendModel, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	m, ok := p.models[metric][entity]
	return m, ok
}

// Status reports what is loaded and trained
func (p *Pipeline) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()

	st := Status{
		Loaded:          p.data != nil,
		Records:         p.data.Len(),
		Preprocessed:    p.preprocessed,
		TrainedEntities: p.models.entities(p.opts.Families),
		History:         p.opts.History,
	}
	if p.data != nil {
		st.Source = p.data.Source
	}
	if !p.trainedAt.IsZero() {
		t := p.trainedAt
		st.TrainedAt = &t
	}
	return st
}
