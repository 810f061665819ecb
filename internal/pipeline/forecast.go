package pipeline

import (
	"fmt"
	"sort"

	"spending-forecast/internal/model"
	"spending-forecast/internal/trend"
)

// futureYears is the contiguous range of n years after the history ends
func futureYears(history model.YearRange, n int) []int {
	years := make([]int, n)
	for i := range years {
		years[i] = history.End + 1 + i
	}
	return years
}

// forecast evaluates every entity's models at years. Entities that cannot be
// evaluated are reported in Omitted instead of failing the call.
func forecast(models modelSet, families []model.MetricFamily, years []int) model.PredictResult {
	result := model.PredictResult{
		Years:   years,
		Bundles: make(map[string]model.ForecastBundle),
	}

	for _, entity := range modelEntities(models) {
		bundle := model.ForecastBundle{
			Years:  append([]int(nil), years...),
			Values: make(map[string][]float64, len(families)),
		}

		var omitted *model.EntityOutcome
		for _, family := range families {
			m, ok := models[family.Key][entity]
			if !ok {
				omitted = &model.EntityOutcome{Entity: entity, Status: model.OutcomeOmitted, Metric: family.Key,
					Reason: fmt.Sprintf("no %s model", family.Key)}
				break
			}
			values, err := trend.Evaluate(m, years)
			if err != nil {
				omitted = &model.EntityOutcome{Entity: entity, Status: model.OutcomeOmitted, Metric: family.Key, Reason: err.Error()}
				break
			}
			bundle.Values[family.Key] = values
		}

		if omitted != nil {
			result.Omitted = append(result.Omitted, *omitted)
			continue
		}
		result.Bundles[entity] = bundle
	}
	return result
}

// modelEntities lists every entity with at least one model, sorted
func modelEntities(models modelSet) []string {
	seen := make(map[string]struct{})
	for _, byEntity := range models {
		for entity := range byEntity {
			seen[entity] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for e := range seen {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}
