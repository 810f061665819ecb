package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrDataSource marks a missing, unreadable or malformed data source
	ErrDataSource = errors.New("data source error")
	// ErrNoData is returned when a stage runs before anything is loaded
	ErrNoData = errors.New("no data loaded")
	// ErrAllMissingColumn is returned when a tracked column has no usable value
	ErrAllMissingColumn = errors.New("metric column has no usable values")
	// ErrNotTrained is returned when predicting without any trained model
	ErrNotTrained = errors.New("no trained models available")
	// ErrInvalidHorizon is returned for a years-ahead value outside the allowed range
	ErrInvalidHorizon = errors.New("invalid forecast horizon")
)

// DataSourceError wraps the cause of a failed load
type DataSourceError struct {
	Source string
	Err    error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("data source %q: %v", e.Source, e.Err)
}

// Unwrap exposes both ErrDataSource and the underlying cause to errors.Is
func (e *DataSourceError) Unwrap() []error {
	return []error{ErrDataSource, e.Err}
}

// AllMissingColumnError names the column that could not be imputed
type AllMissingColumnError struct {
	Column string
	Rows   int
}

func (e *AllMissingColumnError) Error() string {
	return fmt.Sprintf("column %s: all %d values missing or non-numeric", e.Column, e.Rows)
}

func (e *AllMissingColumnError) Unwrap() error {
	return ErrAllMissingColumn
}
