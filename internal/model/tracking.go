package model

import "time"

// Run statuses
const (
	RunRunning   = "running"
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// Run is one recorded façade operation (load, train, predict, export)
type Run struct {
	ID        string    `json:"id"`
	Operation string    `json:"operation"`
	Status    string    `json:"status"`
	Detail    string    `json:"detail,omitempty"` // JSON summary of the operation result
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RunError is a per-entity failure recorded against a run
type RunError struct {
	ID        int64     `json:"id"`
	RunID     string    `json:"run_id"`
	Stage     string    `json:"stage"`
	Entity    string    `json:"entity,omitempty"`
	Metric    string    `json:"metric,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// PipelineLog is a stage log line recorded against a run
type PipelineLog struct {
	ID        int64                  `json:"id"`
	RunID     string                 `json:"run_id"`
	Stage     string                 `json:"stage"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// StageMetrics records timing for one pipeline stage invocation
type StageMetrics struct {
	Stage            string        `json:"stage"`
	StartTime        time.Time     `json:"start_time"`
	EndTime          time.Time     `json:"end_time"`
	Duration         time.Duration `json:"duration"`
	RecordsProcessed int64         `json:"records_processed"`
	ErrorCount       int64         `json:"error_count"`
	Status           string        `json:"status"`
}
