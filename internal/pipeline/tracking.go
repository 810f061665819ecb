package pipeline

import (
	"context"
	"log/slog"
	"time"

	"spending-forecast/internal/model"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder persists run history. *store.Store implements it.
type Recorder interface {
	CreateRun(ctx context.Context, runID, operation string) error
	FinishRun(ctx context.Context, runID, status string, detail interface{}) error
	SaveRunErrors(ctx context.Context, runID string, errs []model.RunError) error
	SavePipelineLog(ctx context.Context, runID, stage, level, message string, fields map[string]interface{}) error
}

// Metrics are the Prometheus collectors for pipeline operations
type Metrics struct {
	Operations      *prometheus.CounterVec
	StageDuration   *prometheus.HistogramVec
	TrainedEntities prometheus.Gauge
	EntityErrors    *prometheus.CounterVec
	ImputedCells    prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg when it is not nil
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "forecast",
			Name:      "operations_total",
			Help:      "Pipeline operations by name and final status.",
		}, []string{"operation", "status"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "forecast",
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline operations.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"operation"}),
		TrainedEntities: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "forecast",
			Name:      "trained_entities",
			Help:      "Entities held in the current model mapping.",
		}),
		EntityErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "forecast",
			Name:      "entity_errors_total",
			Help:      "Entities skipped at training or omitted at prediction.",
		}, []string{"stage"}),
		ImputedCells: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "forecast",
			Name:      "imputed_cells_total",
			Help:      "Metric cells replaced by the column mean.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Operations, m.StageDuration, m.TrainedEntities, m.EntityErrors, m.ImputedCells)
	}
	return m
}

// Tracker records operations as runs in the Recorder and in Prometheus.
// Recorder failures are logged and never fail the operation.
type Tracker struct {
	recorder Recorder
	metrics  *Metrics
	log      *slog.Logger
}

// NewTracker builds a tracker; recorder and metrics may be nil
func NewTracker(recorder Recorder, metrics *Metrics, logger *slog.Logger) *Tracker {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{recorder: recorder, metrics: metrics, log: logger.With("component", "tracker")}
}

// Metrics exposes the tracker's collectors
func (t *Tracker) Metrics() *Metrics {
	return t.metrics
}

// Run is one tracked operation
type Run struct {
	ID        string
	Operation string

	ctx     context.Context
	tracker *Tracker
	start   time.Time
	errors  int
}

// Start opens a run for operation
func (t *Tracker) Start(ctx context.Context, operation string) *Run {
	r := &Run{
		ID:        uuid.New().String(),
		Operation: operation,
		ctx:       ctx,
		tracker:   t,
		start:     time.Now(),
	}
	if t.recorder != nil {
		if err := t.recorder.CreateRun(ctx, r.ID, operation); err != nil {
			t.log.Warn("failed to record run", "run_id", r.ID, "operation", operation, "error", err)
		}
	}
	r.Log("info", "Starting "+operation, nil)
	return r
}

// Log records a stage log line against the run
func (r *Run) Log(level, message string, fields map[string]interface{}) {
	t := r.tracker
	if t.recorder == nil {
		return
	}
	if err := t.recorder.SavePipelineLog(r.ctx, r.ID, r.Operation, level, message, fields); err != nil {
		t.log.Warn("failed to record pipeline log", "run_id", r.ID, "error", err)
	}
}

// EntityErrors records skipped or omitted entities against the run
func (r *Run) EntityErrors(outcomes []model.EntityOutcome) {
	if len(outcomes) == 0 {
		return
	}
	r.errors += len(outcomes)
	t := r.tracker
	t.metrics.EntityErrors.WithLabelValues(r.Operation).Add(float64(len(outcomes)))

	if t.recorder == nil {
		return
	}
	errs := make([]model.RunError, len(outcomes))
	for i, o := range outcomes {
		errs[i] = model.RunError{Stage: r.Operation, Entity: o.Entity, Metric: o.Metric, Message: o.Reason}
	}
	if err := t.recorder.SaveRunErrors(r.ctx, r.ID, errs); err != nil {
		t.log.Warn("failed to record entity errors", "run_id", r.ID, "count", len(errs), "error", err)
	}
}

// Finish closes the run; a nil err with ok false still marks it failed
func (r *Run) Finish(ok bool, err error, detail interface{}) model.StageMetrics {
	t := r.tracker
	end := time.Now()
	status := model.RunCompleted
	if err != nil || !ok {
		status = model.RunFailed
	}

	t.metrics.Operations.WithLabelValues(r.Operation, status).Inc()
	t.metrics.StageDuration.WithLabelValues(r.Operation).Observe(end.Sub(r.start).Seconds())

	fields := map[string]interface{}{"duration_ms": end.Sub(r.start).Milliseconds()}
	if err != nil {
		fields["error"] = err.Error()
		r.Log("error", r.Operation+" failed", fields)
	} else {
		r.Log("info", r.Operation+" "+status, fields)
	}

	if t.recorder != nil {
		if detail == nil && err != nil {
			detail = map[string]string{"error": err.Error()}
		}
		if ferr := t.recorder.FinishRun(r.ctx, r.ID, status, detail); ferr != nil {
			t.log.Warn("failed to finish run", "run_id", r.ID, "error", ferr)
		}
	}

	return model.StageMetrics{
		Stage:      r.Operation,
		StartTime:  r.start,
		EndTime:    end,
		Duration:   end.Sub(r.start),
		ErrorCount: int64(r.errors),
		Status:     status,
	}
}
