package model

import (
	"fmt"
	"strconv"
)

// GenericRecord is a schema-agnostic map for one entity row
type GenericRecord map[string]interface{}

// Dataset is the loaded table of entity records
type Dataset struct {
	Source  string          `json:"source"`
	Records []GenericRecord `json:"records"`
	Columns []string        `json:"columns"` // sorted union of keys across records
}

// Len returns the number of records
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// Clone returns a copy whose records can be rewritten without touching d
func (d *Dataset) Clone() *Dataset {
	out := &Dataset{
		Source:  d.Source,
		Records: make([]GenericRecord, len(d.Records)),
		Columns: append([]string(nil), d.Columns...),
	}
	for i, rec := range d.Records {
		cp := make(GenericRecord, len(rec))
		for k, v := range rec {
			cp[k] = v
		}
		out.Records[i] = cp
	}
	return out
}

// MetricFamily is a tracked quantity with one column per historical year
type MetricFamily struct {
	Key    string `json:"key"`    // e.g. total_spending
	Prefix string `json:"prefix"` // e.g. Tot_Spndng_
}

// Column returns the column name holding this family's value for year
func (m MetricFamily) Column(year int) string {
	return m.Prefix + strconv.Itoa(year)
}

var (
	TotalSpending = MetricFamily{Key: "total_spending", Prefix: "Tot_Spndng_"}
	AvgSpending   = MetricFamily{Key: "avg_spending", Prefix: "Avg_Spnd_Per_Bene_"}
)

// DefaultFamilies are the metric families modeled for every entity
func DefaultFamilies() []MetricFamily {
	return []MetricFamily{TotalSpending, AvgSpending}
}

// YearRange is an inclusive range of calendar years
type YearRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Years lists every year in the range in increasing order
func (r YearRange) Years() []int {
	if r.End < r.Start {
		return nil
	}
	years := make([]int, 0, r.End-r.Start+1)
	for y := r.Start; y <= r.End; y++ {
		years = append(years, y)
	}
	return years
}

// Len is the number of years in the range
func (r YearRange) Len() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start + 1
}

func (r YearRange) String() string {
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// Point is one (year, value) observation
type Point struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

// Series is one entity's values for one metric family, ordered by year
type Series struct {
	Entity string       `json:"entity"`
	Metric MetricFamily `json:"metric"`
	Points []Point      `json:"points"`
}

// XY splits the series into regressor and response slices
func (s Series) XY() ([]float64, []float64) {
	xs := make([]float64, len(s.Points))
	ys := make([]float64, len(s.Points))
	for i, p := range s.Points {
		xs[i] = float64(p.Year)
		ys[i] = p.Value
	}
	return xs, ys
}
