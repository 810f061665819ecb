package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"spending-forecast/internal/model"
)

// trackedColumns returns the dataset columns belonging to any metric family
func trackedColumns(columns []string, families []model.MetricFamily) []string {
	var out []string
	for _, col := range columns {
		for _, f := range families {
			if strings.HasPrefix(col, f.Prefix) {
				out = append(out, col)
				break
			}
		}
	}
	return out
}

// missingColumns lists the expected family/year columns absent from every record
func missingColumns(columns []string, families []model.MetricFamily, history model.YearRange) []string {
	present := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		present[c] = struct{}{}
	}

	var out []string
	for _, f := range families {
		for _, y := range history.Years() {
			if _, ok := present[f.Column(y)]; !ok {
				out = append(out, f.Column(y))
			}
		}
	}
	return out
}

// entityID reads the identifier field of a record
func entityID(rec model.GenericRecord, field string) (string, error) {
	v, ok := rec[field]
	if !ok || v == nil {
		return "", fmt.Errorf("missing entity identifier %s", field)
	}
	id := strings.TrimSpace(fmt.Sprintf("%v", v))
	if id == "" {
		return "", fmt.Errorf("blank entity identifier %s", field)
	}
	return id, nil
}

// duplicateEntities lists identifiers that occur on more than one record
func duplicateEntities(ds *model.Dataset, field string) []string {
	counts := make(map[string]int)
	for _, rec := range ds.Records {
		if id, err := entityID(rec, field); err == nil {
			counts[id]++
		}
	}

	var dups []string
	for id, n := range counts {
		if n > 1 {
			dups = append(dups, id)
		}
	}
	sort.Strings(dups)
	return dups
}
