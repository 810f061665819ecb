package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"spending-forecast/internal/logging"
	"spending-forecast/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPipeline() *Pipeline {
	opts := DefaultOptions()
	opts.Logger = logging.Discard()
	return New(opts)
}

// record builds one entity row with both families over 2018-2022
func record(name string, total, avg [5]interface{}) map[string]interface{} {
	rec := map[string]interface{}{"Brnd_Name": name}
	for i := 0; i < 5; i++ {
		rec[fmt.Sprintf("Tot_Spndng_%d", 2018+i)] = total[i]
		rec[fmt.Sprintf("Avg_Spnd_Per_Bene_%d", 2018+i)] = avg[i]
	}
	return rec
}

func writeJSON(t *testing.T, records interface{}) string {
	t.Helper()
	data, err := json.Marshal(records)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "drug_data.json")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func loadAndPreprocess(t *testing.T, p *Pipeline, source string) {
	t.Helper()
	_, err := p.Load(context.Background(), source)
	require.NoError(t, err)
	_, err = p.Preprocess()
	require.NoError(t, err)
}

func TestLoadJSONFile(t *testing.T) {
	p := newTestPipeline()

	res, err := p.Load(context.Background(), "testdata/drug_data.json")
	require.NoError(t, err)

	assert.Equal(t, 3, res.RecordCount)
	assert.Len(t, res.TrackedColumns, 10)
	assert.Empty(t, res.MissingColumns)

	st := p.Status()
	assert.True(t, st.Loaded)
	assert.False(t, st.Preprocessed)
	assert.Equal(t, 3, st.Records)
	assert.Equal(t, "testdata/drug_data.json", st.Source)
}

func TestLoadCSVFile(t *testing.T) {
	p := newTestPipeline()

	res, err := p.Load(context.Background(), "testdata/drug_data.csv")
	require.NoError(t, err)
	assert.Equal(t, 2, res.RecordCount)

	report, err := p.Preprocess()
	require.NoError(t, err)
	assert.Equal(t, 1, report.ImputedCells())

	_, err = p.Train()
	require.NoError(t, err)
	m, ok := p.Model("Beta", model.TotalSpending.Key)
	require.True(t, ok)
	assert.Equal(t, 5, m.Points)
}

func TestLoadFromURL(t *testing.T) {
	body, err := os.ReadFile("testdata/drug_data.json")
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/data.json":
			w.Header().Set("Content-Type", "application/json")
			w.Write(body)
		case "/export":
			w.Header().Set("Content-Type", "text/csv")
			w.Write([]byte("Brnd_Name,Tot_Spndng_2018\nAlpha,1\n"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	p := newTestPipeline()

	res, err := p.Load(context.Background(), srv.URL+"/data.json")
	require.NoError(t, err)
	assert.Equal(t, 3, res.RecordCount)

	res, err = p.Load(context.Background(), srv.URL+"/export")
	require.NoError(t, err)
	assert.Equal(t, 1, res.RecordCount)
	assert.Contains(t, res.MissingColumns, "Tot_Spndng_2022")

	_, err = p.Load(context.Background(), srv.URL+"/missing.json")
	assert.ErrorIs(t, err, ErrDataSource)
}

func TestLoadFailures(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		return path
	}

	tests := []struct {
		name   string
		source string
	}{
		{"missing file", filepath.Join(dir, "nope.json")},
		{"empty source", ""},
		{"malformed json", write("bad.json", `[{"Brnd_Name": "A",`)},
		{"object not array", write("obj.json", `{"Brnd_Name": "A"}`)},
		{"array of scalars", write("scalars.json", `[1, 2, 3]`)},
		{"trailing data", write("trailing.json", `[] []`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestPipeline().Load(context.Background(), tt.source)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrDataSource)

			var dse *DataSourceError
			require.True(t, errors.As(err, &dse))
			assert.Equal(t, tt.source, dse.Source)
		})
	}
}

func TestFailedLoadKeepsPreviousDataset(t *testing.T) {
	p := newTestPipeline()
	loadAndPreprocess(t, p, "testdata/drug_data.json")

	_, err := p.Load(context.Background(), filepath.Join(t.TempDir(), "gone.json"))
	require.Error(t, err)

	st := p.Status()
	assert.Equal(t, 3, st.Records)
	assert.True(t, st.Preprocessed)
}

func TestLoadEmptyArray(t *testing.T) {
	p := newTestPipeline()
	res, err := p.Load(context.Background(), writeJSON(t, []interface{}{}))
	require.NoError(t, err)
	assert.Equal(t, 0, res.RecordCount)

	report, err := p.Preprocess()
	require.NoError(t, err)
	assert.Empty(t, report.Columns)

	tr, err := p.Train()
	require.NoError(t, err)
	assert.False(t, tr.Success)
}

func TestPreprocessImputesColumnMean(t *testing.T) {
	p := newTestPipeline()
	_, err := p.Load(context.Background(), "testdata/drug_data.json")
	require.NoError(t, err)

	report, err := p.Preprocess()
	require.NoError(t, err)

	assert.Equal(t, 3, report.RecordCount)
	assert.Len(t, report.Columns, 10)
	assert.Equal(t, 2, report.ImputedCells())

	byColumn := make(map[string]model.ColumnImputation)
	for _, c := range report.Columns {
		byColumn[c.Column] = c
	}
	assert.InDelta(t, 550.0, byColumn["Tot_Spndng_2019"].Mean, 1e-9)
	assert.Equal(t, 1, byColumn["Tot_Spndng_2019"].Null)
	assert.InDelta(t, 8.5, byColumn["Avg_Spnd_Per_Bene_2020"].Mean, 1e-9)
	assert.Equal(t, 1, byColumn["Avg_Spnd_Per_Bene_2020"].Unparseable)
	assert.Equal(t, 3, byColumn["Tot_Spndng_2020"].Observed)

	rec := p.data.Records[1]
	assert.Equal(t, 550.0, rec["Tot_Spndng_2019"])
	assert.Equal(t, 70.0, rec["Tot_Spndng_2020"])
	assert.Equal(t, "betamine", rec["Gnrc_Name"])
	assert.Equal(t, 8.5, p.data.Records[2]["Avg_Spnd_Per_Bene_2020"])
}

func TestPreprocessMiddleValue(t *testing.T) {
	ones := [5]interface{}{1, 1, 1, 1, 1}
	records := []map[string]interface{}{
		record("A", [5]interface{}{10, 1, 1, 1, 1}, ones),
		record("B", [5]interface{}{nil, 1, 1, 1, 1}, ones),
		record("C", [5]interface{}{30, 1, 1, 1, 1}, ones),
	}
	delete(records[1], "Tot_Spndng_2018")

	p := newTestPipeline()
	loadAndPreprocess(t, p, writeJSON(t, records))

	assert.Equal(t, 20.0, p.data.Records[1]["Tot_Spndng_2018"])
}

func TestPreprocessAllMissingColumn(t *testing.T) {
	ones := [5]interface{}{1, 1, 1, 1, 1}
	records := []map[string]interface{}{
		record("A", [5]interface{}{1, 1, "x", 1, 1}, ones),
		record("B", [5]interface{}{1, 1, nil, 1, 1}, ones),
	}

	p := newTestPipeline()
	_, err := p.Load(context.Background(), writeJSON(t, records))
	require.NoError(t, err)

	_, err = p.Preprocess()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAllMissingColumn)

	var amc *AllMissingColumnError
	require.True(t, errors.As(err, &amc))
	assert.Equal(t, "Tot_Spndng_2020", amc.Column)
	assert.Equal(t, 2, amc.Rows)

	assert.False(t, p.Status().Preprocessed)
	assert.Equal(t, "x", p.data.Records[0]["Tot_Spndng_2020"])
}

func TestPreprocessWithoutData(t *testing.T) {
	_, err := newTestPipeline().Preprocess()
	assert.ErrorIs(t, err, ErrNoData)
}

func TestTrainSkipsMalformedEntity(t *testing.T) {
	flat := [5]interface{}{1, 2, 3, 4, 5}
	records := []map[string]interface{}{
		record("Good", [5]interface{}{100, 200, 300, 400, 500}, flat),
		record("Bad", [5]interface{}{100, "abc", 300, 400, 500}, flat),
	}

	p := newTestPipeline()
	_, err := p.Load(context.Background(), writeJSON(t, records))
	require.NoError(t, err)

	res, err := p.Train()
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, 1, res.Fitted)
	assert.Equal(t, 1, res.Entities)
	assert.Equal(t, 1, res.Skipped)

	skipped := res.SkippedOutcomes()
	require.Len(t, skipped, 1)
	assert.Equal(t, "Bad", skipped[0].Entity)
	assert.Equal(t, 1, skipped[0].Index)
	assert.Equal(t, model.TotalSpending.Key, skipped[0].Metric)

	_, ok := p.Model("Bad", model.TotalSpending.Key)
	assert.False(t, ok)
	_, ok = p.Model("Bad", model.AvgSpending.Key)
	assert.False(t, ok)

	pred, err := p.Predict(2)
	require.NoError(t, err)
	require.Len(t, pred.Bundles, 1)
	assert.Contains(t, pred.Bundles, "Good")
}

func TestTrainSkipsMissingIdentifierAndColumns(t *testing.T) {
	flat := [5]interface{}{1, 1, 1, 1, 1}
	noName := record("", flat, flat)
	delete(noName, "Brnd_Name")
	noColumn := record("Short", flat, flat)
	delete(noColumn, "Avg_Spnd_Per_Bene_2022")

	p := newTestPipeline()
	_, err := p.Load(context.Background(), writeJSON(t, []map[string]interface{}{noName, noColumn}))
	require.NoError(t, err)

	res, err := p.Train()
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, 2, res.Skipped)
	assert.Contains(t, res.Outcomes[1].Reason, "Avg_Spnd_Per_Bene_2022")
}

func TestTrainDuplicateEntityLaterWins(t *testing.T) {
	flat := [5]interface{}{1, 1, 1, 1, 1}
	records := []map[string]interface{}{
		record("Dup", [5]interface{}{1, 2, 3, 4, 5}, flat),
		record("Dup", [5]interface{}{10, 20, 30, 40, 50}, flat),
	}

	p := newTestPipeline()
	loadAndPreprocess(t, p, writeJSON(t, records))

	res, err := p.Train()
	require.NoError(t, err)
	assert.Equal(t, 2, res.Fitted)
	assert.Equal(t, 1, res.Entities)

	m, ok := p.Model("Dup", model.TotalSpending.Key)
	require.True(t, ok)
	assert.InDelta(t, 10.0, m.Slope, 1e-6)
}

func TestTrainWithoutData(t *testing.T) {
	_, err := newTestPipeline().Train()
	assert.ErrorIs(t, err, ErrNoData)
}

func TestRetrainReplacesModels(t *testing.T) {
	flat := [5]interface{}{1, 1, 1, 1, 1}
	p := newTestPipeline()
	loadAndPreprocess(t, p, writeJSON(t, []map[string]interface{}{record("Old", flat, flat)}))
	_, err := p.Train()
	require.NoError(t, err)

	loadAndPreprocess(t, p, writeJSON(t, []map[string]interface{}{record("New", flat, flat)}))
	_, err = p.Train()
	require.NoError(t, err)

	_, ok := p.Model("Old", model.TotalSpending.Key)
	assert.False(t, ok)
	_, ok = p.Model("New", model.TotalSpending.Key)
	assert.True(t, ok)
	assert.Equal(t, 1, p.Status().TrainedEntities)
}

func TestTrainIsDeterministic(t *testing.T) {
	p := newTestPipeline()
	loadAndPreprocess(t, p, "testdata/drug_data.json")

	_, err := p.Train()
	require.NoError(t, err)
	first, err := p.Predict(3)
	require.NoError(t, err)

	_, err = p.Train()
	require.NoError(t, err)
	second, err := p.Predict(3)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestPredictLinearTrend(t *testing.T) {
	p := newTestPipeline()
	loadAndPreprocess(t, p, "testdata/drug_data.json")
	_, err := p.Train()
	require.NoError(t, err)

	res, err := p.Predict(3)
	require.NoError(t, err)

	assert.Equal(t, []int{2023, 2024, 2025}, res.Years)
	assert.Empty(t, res.Omitted)
	require.Len(t, res.Bundles, 3)

	alpha := res.Bundles["Alpha"]
	assert.Equal(t, []int{2023, 2024, 2025}, alpha.Years)
	assert.InDeltaSlice(t, []float64{600, 700, 800}, alpha.Values[model.TotalSpending.Key], 1e-6)
	assert.InDeltaSlice(t, []float64{10, 10, 10}, alpha.Values[model.AvgSpending.Key], 1e-6)

	gamma := res.Bundles["Gamma"]
	assert.InDeltaSlice(t, []float64{500, 400, 300}, gamma.Values[model.TotalSpending.Key], 1e-6)
}

func TestForecastOmitsUnevaluableEntities(t *testing.T) {
	history := model.YearRange{Start: 2018, End: 2022}
	line := func(entity, metric string, slope, intercept float64) model.TrendModel {
		return model.TrendModel{Entity: entity, Metric: metric, Slope: slope, Intercept: intercept, Points: 5, History: history}
	}

	families := model.DefaultFamilies()
	models := newModelSet(families)
	total, avg := model.TotalSpending.Key, model.AvgSpending.Key
	models[total]["Good"] = line("Good", total, 100, -201700)
	models[avg]["Good"] = line("Good", avg, 0, 10)
	models[total]["Huge"] = line("Huge", total, math.MaxFloat64, 0)
	models[avg]["Huge"] = line("Huge", avg, 0, 10)
	models[avg]["Half"] = line("Half", avg, 0, 10)

	res := forecast(models, families, futureYears(history, 2))

	assert.Equal(t, []int{2023, 2024}, res.Years)
	require.Len(t, res.Bundles, 1)
	good, ok := res.Bundles["Good"]
	require.True(t, ok)
	assert.Equal(t, []int{2023, 2024}, good.Years)
	assert.InDeltaSlice(t, []float64{600, 700}, good.Values[total], 1e-6)
	assert.InDeltaSlice(t, []float64{10, 10}, good.Values[avg], 1e-6)

	tests := []struct {
		entity string
		metric string
		reason string
	}{
		{"Half", total, "no total_spending model"},
		{"Huge", total, "non-finite"},
	}

	require.Len(t, res.Omitted, len(tests))
	for i, tt := range tests {
		t.Run(tt.entity, func(t *testing.T) {
			got := res.Omitted[i]
			assert.Equal(t, tt.entity, got.Entity)
			assert.Equal(t, model.OutcomeOmitted, got.Status)
			assert.Equal(t, tt.metric, got.Metric)
			assert.Contains(t, got.Reason, tt.reason)
			assert.NotContains(t, res.Bundles, tt.entity)
		})
	}
}

func TestPredictBundleJSON(t *testing.T) {
	p := newTestPipeline()
	loadAndPreprocess(t, p, "testdata/drug_data.json")
	_, err := p.Train()
	require.NoError(t, err)

	res, err := p.Predict(1)
	require.NoError(t, err)

	data, err := json.Marshal(res.Bundles["Alpha"])
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Len(t, raw, 3)
	assert.Contains(t, raw, "years")
	assert.Contains(t, raw, "total_spending")
	assert.Contains(t, raw, "avg_spending")
}

func TestPredictErrors(t *testing.T) {
	p := newTestPipeline()

	_, err := p.Predict(3)
	assert.ErrorIs(t, err, ErrNotTrained)

	for _, n := range []int{0, -1, 51} {
		_, err := p.Predict(n)
		assert.ErrorIs(t, err, ErrInvalidHorizon, "years_ahead=%d", n)
	}
}

func TestPredictAfterFailedTrainIsNotTrained(t *testing.T) {
	bad := [5]interface{}{"x", 1, 1, 1, 1}
	p := newTestPipeline()
	_, err := p.Load(context.Background(), writeJSON(t, []map[string]interface{}{record("Only", bad, bad)}))
	require.NoError(t, err)

	res, err := p.Train()
	require.NoError(t, err)
	assert.False(t, res.Success)

	_, err = p.Predict(1)
	assert.ErrorIs(t, err, ErrNotTrained)
}

func TestConcurrentPredictAndTrain(t *testing.T) {
	p := newTestPipeline()
	loadAndPreprocess(t, p, "testdata/drug_data.json")
	_, err := p.Train()
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			res, err := p.Predict(2)
			assert.NoError(t, err)
			assert.Len(t, res.Bundles, 3)
		}()
		go func() {
			defer wg.Done()
			_, err := p.Train()
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}
