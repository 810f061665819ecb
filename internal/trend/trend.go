// Package trend fits single-regressor least-squares lines to yearly series.
package trend

import (
	"errors"
	"fmt"
	"math"

	"spending-forecast/internal/model"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrTooFewPoints = errors.New("at least two points are required")
	ErrNonFinite    = errors.New("series contains a non-finite value")
	ErrDegenerate   = errors.New("all points share the same year")
)

// Fit fits value = slope*year + intercept by ordinary least squares.
// The year is used as-is, with no centering or scaling.
func Fit(s model.Series) (model.TrendModel, error) {
	if len(s.Points) < 2 {
		return model.TrendModel{}, fmt.Errorf("%s/%s: %w", s.Entity, s.Metric.Key, ErrTooFewPoints)
	}

	xs, ys := s.XY()
	if floats.HasNaN(ys) || hasInf(ys) {
		return model.TrendModel{}, fmt.Errorf("%s/%s: %w", s.Entity, s.Metric.Key, ErrNonFinite)
	}
	if floats.Max(xs) == floats.Min(xs) {
		return model.TrendModel{}, fmt.Errorf("%s/%s: %w", s.Entity, s.Metric.Key, ErrDegenerate)
	}

	intercept, slope := stat.LinearRegression(xs, ys, nil, false)
	if math.IsNaN(slope) || math.IsNaN(intercept) {
		return model.TrendModel{}, fmt.Errorf("%s/%s: %w", s.Entity, s.Metric.Key, ErrNonFinite)
	}

	return model.TrendModel{
		Entity:    s.Entity,
		Metric:    s.Metric.Key,
		Slope:     slope,
		Intercept: intercept,
		RSquared:  rSquared(xs, ys, intercept, slope),
		Points:    len(s.Points),
		History:   model.YearRange{Start: s.Points[0].Year, End: s.Points[len(s.Points)-1].Year},
	}, nil
}

// Evaluate returns the model's value at each year.
func Evaluate(m model.TrendModel, years []int) ([]float64, error) {
	out := make([]float64, len(years))
	for i, y := range years {
		v := m.At(y)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%s/%s at %d: %w", m.Entity, m.Metric, y, ErrNonFinite)
		}
		out[i] = v
	}
	return out, nil
}

// rSquared is 1 for a flat series, which a line fits exactly.
func rSquared(xs, ys []float64, intercept, slope float64) float64 {
	r2 := stat.RSquared(xs, ys, nil, intercept, slope)
	if math.IsNaN(r2) {
		return 1
	}
	return r2
}

func hasInf(vs []float64) bool {
	for _, v := range vs {
		if math.IsInf(v, 0) {
			return true
		}
	}
	return false
}
