package pipeline

import (
	"spending-forecast/internal/model"
	"spending-forecast/pkg/utils"
)

// missingReason says why a metric cell had no usable value
type missingReason int

const (
	present missingReason = iota
	absent                // key not in the record
	null                  // JSON null or empty CSV cell
	unparseable           // value did not coerce to a finite number
)

// cell is a coerced metric value; value is meaningful only when reason is present
type cell struct {
	value  float64
	reason missingReason
}

func coerceCell(rec model.GenericRecord, column string) cell {
	v, ok := rec[column]
	switch {
	case !ok:
		return cell{reason: absent}
	case v == nil:
		return cell{reason: null}
	}
	f, ok := utils.ToFloat(v)
	if !ok {
		return cell{reason: unparseable}
	}
	return cell{value: f, reason: present}
}

// preprocess coerces every tracked column to float64 and fills missing cells with
// the column mean of the observed values. It works on a copy; ds is not modified.
func preprocess(ds *model.Dataset, families []model.MetricFamily) (*model.Dataset, model.PreprocessReport, error) {
	out := ds.Clone()
	report := model.PreprocessReport{RecordCount: len(out.Records)}

	for _, column := range trackedColumns(out.Columns, families) {
		cells := make([]cell, len(out.Records))
		imp := model.ColumnImputation{Column: column}
		var sum float64

		for i, rec := range out.Records {
			c := coerceCell(rec, column)
			cells[i] = c
			switch c.reason {
			case present:
				imp.Observed++
				sum += c.value
			case absent:
				imp.Absent++
			case null:
				imp.Null++
			case unparseable:
				imp.Unparseable++
			}
		}

		if imp.Observed == 0 {
			return nil, model.PreprocessReport{}, &AllMissingColumnError{Column: column, Rows: len(out.Records)}
		}
		imp.Mean = sum / float64(imp.Observed)

		for i, rec := range out.Records {
			if cells[i].reason == present {
				rec[column] = cells[i].value
			} else {
				rec[column] = imp.Mean
			}
		}
		report.Columns = append(report.Columns, imp)
	}

	return out, report, nil
}
