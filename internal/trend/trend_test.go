package trend

import (
	"math"
	"testing"

	"spending-forecast/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func series(values ...float64) model.Series {
	s := model.Series{Entity: "Eliquis", Metric: model.TotalSpending}
	for i, v := range values {
		s.Points = append(s.Points, model.Point{Year: 2018 + i, Value: v})
	}
	return s
}

func TestFit_PerfectLine(t *testing.T) {
	m, err := Fit(series(100, 200, 300, 400, 500))
	require.NoError(t, err)

	assert.InDelta(t, 100.0, m.Slope, 1e-9)
	assert.InDelta(t, 600.0, m.At(2023), 1e-6)
	assert.InDelta(t, 1.0, m.RSquared, 1e-12)
	assert.Equal(t, 5, m.Points)
	assert.Equal(t, model.YearRange{Start: 2018, End: 2022}, m.History)
	assert.Equal(t, "total_spending", m.Metric)
}

func TestFit_LeastSquares(t *testing.T) {
	// y = 2x + 1 around x = 0..4 with symmetric noise; slope and mean are preserved
	s := model.Series{Entity: "x", Metric: model.AvgSpending}
	ys := []float64{1.5, 2.5, 5, 7.5, 8.5}
	for i, y := range ys {
		s.Points = append(s.Points, model.Point{Year: i, Value: y})
	}

	m, err := Fit(s)
	require.NoError(t, err)
	assert.InDelta(t, 1.9, m.Slope, 1e-9)
	assert.InDelta(t, 1.2, m.Intercept, 1e-9)
	assert.Less(t, m.RSquared, 1.0)
}

func TestFit_FlatSeries(t *testing.T) {
	m, err := Fit(series(42, 42, 42, 42, 42))
	require.NoError(t, err)

	assert.InDelta(t, 0.0, m.Slope, 1e-9)
	assert.InDelta(t, 42.0, m.At(2030), 1e-6)
	assert.Equal(t, 1.0, m.RSquared)
}

func TestFit_Deterministic(t *testing.T) {
	s := series(12.5, 17.25, 9.75, 30, 28.125)
	a, err := Fit(s)
	require.NoError(t, err)
	b, err := Fit(s)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestFit_Errors(t *testing.T) {
	tests := []struct {
		name string
		s    model.Series
		want error
	}{
		{"single point", series(1), ErrTooFewPoints},
		{"nan", series(1, math.NaN(), 3), ErrNonFinite},
		{"inf", series(1, 2, math.Inf(1)), ErrNonFinite},
		{
			"same year",
			model.Series{Entity: "x", Metric: model.TotalSpending, Points: []model.Point{{Year: 2020, Value: 1}, {Year: 2020, Value: 2}}},
			ErrDegenerate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Fit(tt.s)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestEvaluate(t *testing.T) {
	m := model.TrendModel{Entity: "x", Metric: "total_spending", Slope: 10, Intercept: -20000}

	got, err := Evaluate(m, []int{2023, 2024, 2025})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{230, 240, 250}, got, 1e-9)

	_, err = Evaluate(model.TrendModel{Slope: math.Inf(1)}, []int{2023})
	assert.ErrorIs(t, err, ErrNonFinite)
}
