package model

import (
	"encoding/json"
	"time"
)

// TrendModel is a fitted line value = Slope*year + Intercept for one entity and one metric family
type TrendModel struct {
	Entity    string    `json:"entity"`
	Metric    string    `json:"metric"`
	Slope     float64   `json:"slope"`
	Intercept float64   `json:"intercept"`
	RSquared  float64   `json:"r_squared"`
	Points    int       `json:"points"`
	History   YearRange `json:"history"`
}

// At evaluates the line at year
func (m TrendModel) At(year int) float64 {
	return m.Slope*float64(year) + m.Intercept
}

// ForecastBundle holds one entity's predictions for every metric family
type ForecastBundle struct {
	Years  []int                `json:"years"`
	Values map[string][]float64 `json:"-"` // metric key -> predictions aligned with Years
}

// MarshalJSON flattens the per-metric sequences next to the year list
func (b ForecastBundle) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(b.Values)+1)
	for k, v := range b.Values {
		out[k] = v
	}
	out["years"] = b.Years
	return json.Marshal(out)
}

// UnmarshalJSON reverses MarshalJSON
func (b *ForecastBundle) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	b.Values = make(map[string][]float64, len(raw))
	for k, v := range raw {
		if k == "years" {
			if err := json.Unmarshal(v, &b.Years); err != nil {
				return err
			}
			continue
		}
		var seq []float64
		if err := json.Unmarshal(v, &seq); err != nil {
			return err
		}
		b.Values[k] = seq
	}
	return nil
}

// Entity outcome statuses
const (
	OutcomeFitted  = "fitted"
	OutcomeSkipped = "skipped"
	OutcomeOmitted = "omitted"
)

// EntityOutcome reports what happened to one entity in a batch operation
type EntityOutcome struct {
	Entity string `json:"entity"`
	Index  int    `json:"index"` // record position in the dataset
	Status string `json:"status"`
	Metric string `json:"metric,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// LoadResult summarizes a successful load
type LoadResult struct {
	Source         string   `json:"source"`
	RecordCount    int      `json:"record_count"`
	TrackedColumns []string `json:"tracked_columns"`
	MissingColumns []string `json:"missing_columns,omitempty"` // expected columns absent from every record
}

// ColumnImputation describes how one metric column was filled
type ColumnImputation struct {
	Column      string  `json:"column"`
	Mean        float64 `json:"mean"`
	Observed    int     `json:"observed"`
	Absent      int     `json:"absent"`
	Null        int     `json:"null"`
	Unparseable int     `json:"unparseable"`
}

// Imputed is the number of cells replaced by the mean
func (c ColumnImputation) Imputed() int {
	return c.Absent + c.Null + c.Unparseable
}

// PreprocessReport summarizes a successful preprocess pass
type PreprocessReport struct {
	RecordCount int                `json:"record_count"`
	Columns     []ColumnImputation `json:"columns"`
}

// ImputedCells totals the imputed cells across columns
func (r PreprocessReport) ImputedCells() int {
	n := 0
	for _, c := range r.Columns {
		n += c.Imputed()
	}
	return n
}

// TrainResult aggregates per-entity outcomes of one training pass
type TrainResult struct {
	Success  bool            `json:"success"`
	Fitted   int             `json:"fitted"`   // records fitted
	Entities int             `json:"entities"` // distinct identifiers in the model mapping
	Skipped  int             `json:"skipped"`
	Outcomes []EntityOutcome `json:"outcomes"`
	History  YearRange       `json:"history"`
}

// SkippedOutcomes returns only the skipped entities
func (r TrainResult) SkippedOutcomes() []EntityOutcome {
	var out []EntityOutcome
	for _, o := range r.Outcomes {
		if o.Status == OutcomeSkipped {
			out = append(out, o)
		}
	}
	return out
}

// PredictResult is the forecast for every modeled entity
type PredictResult struct {
	Years   []int                     `json:"years"`
	Bundles map[string]ForecastBundle `json:"bundles"`
	Omitted []EntityOutcome           `json:"omitted,omitempty"`
}

// ExportResult represents the result of an export operation
type ExportResult struct {
	Type        string    `json:"type"` // "csv", "json", "xlsx"
	Path        string    `json:"path"`
	RecordCount int       `json:"record_count"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}
