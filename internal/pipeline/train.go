package pipeline

import (
	"fmt"

	"spending-forecast/internal/model"
	"spending-forecast/internal/trend"
	"spending-forecast/pkg/utils"
)

// modelSet holds one mapping per metric family: metric key -> entity -> model
type modelSet map[string]map[string]model.TrendModel

func newModelSet(families []model.MetricFamily) modelSet {
	ms := make(modelSet, len(families))
	for _, f := range families {
		ms[f.Key] = make(map[string]model.TrendModel)
	}
	return ms
}

// entities is the number of distinct entities with a model for the first family
func (ms modelSet) entities(families []model.MetricFamily) int {
	if len(families) == 0 {
		return 0
	}
	return len(ms[families[0].Key])
}

// buildSeries reads one entity's history for a family, strictly coercing each value
func buildSeries(rec model.GenericRecord, entity string, family model.MetricFamily, history model.YearRange) (model.Series, error) {
	s := model.Series{Entity: entity, Metric: family, Points: make([]model.Point, 0, history.Len())}
	for _, year := range history.Years() {
		column := family.Column(year)
		v, ok := rec[column]
		if !ok {
			return s, fmt.Errorf("missing column %s", column)
		}
		f, ok := utils.ToFloat(v)
		if !ok {
			return s, fmt.Errorf("%s: cannot convert %v to a number", column, v)
		}
		s.Points = append(s.Points, model.Point{Year: year, Value: f})
	}
	return s, nil
}

// fitEntity fits every family for one record; any failure skips the whole entity
func fitEntity(rec model.GenericRecord, entity string, families []model.MetricFamily, history model.YearRange) ([]model.TrendModel, *model.EntityOutcome) {
	fitted := make([]model.TrendModel, 0, len(families))
	for _, family := range families {
		s, err := buildSeries(rec, entity, family, history)
		if err != nil {
			return nil, skippedOutcome(entity, family, err)
		}
		m, err := trend.Fit(s)
		if err != nil {
			return nil, skippedOutcome(entity, family, err)
		}
		fitted = append(fitted, m)
	}
	return fitted, nil
}

func skippedOutcome(entity string, family model.MetricFamily, err error) *model.EntityOutcome {
	return &model.EntityOutcome{Entity: entity, Status: model.OutcomeSkipped, Metric: family.Key, Reason: err.Error()}
}

// fitModels runs one full training pass over ds
func fitModels(ds *model.Dataset, entityField string, families []model.MetricFamily, history model.YearRange) (modelSet, model.TrainResult) {
	models := newModelSet(families)
	result := model.TrainResult{History: history, Outcomes: make([]model.EntityOutcome, 0, len(ds.Records))}

	for i, rec := range ds.Records {
		entity, err := entityID(rec, entityField)
		if err != nil {
			result.Outcomes = append(result.Outcomes, model.EntityOutcome{Index: i, Status: model.OutcomeSkipped, Reason: err.Error()})
			result.Skipped++
			continue
		}

		fitted, skipped := fitEntity(rec, entity, families, history)
		if skipped != nil {
			skipped.Index = i
			result.Outcomes = append(result.Outcomes, *skipped)
			result.Skipped++
			continue
		}

		for _, m := range fitted {
			models[m.Metric][entity] = m
		}
		result.Outcomes = append(result.Outcomes, model.EntityOutcome{Entity: entity, Index: i, Status: model.OutcomeFitted})
		result.Fitted++
	}

	result.Entities = models.entities(families)
	result.Success = result.Fitted > 0
	return models, result
}
