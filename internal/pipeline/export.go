package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"spending-forecast/internal/model"
	"spending-forecast/pkg/utils"

	"github.com/xuri/excelize/v2"
)

// Export formats
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatXLSX = "xlsx"
)

// Exporter writes forecasts to files under one directory per run
type Exporter struct {
	outputs  *utils.OutputManager
	families []model.MetricFamily
}

// NewExporter creates an exporter rooted at outputDir
func NewExporter(outputDir string, families []model.MetricFamily) *Exporter {
	if len(families) == 0 {
		families = model.DefaultFamilies()
	}
	return &Exporter{outputs: utils.NewOutputManager(outputDir), families: families}
}

// Outputs exposes the output layout for download handlers
func (e *Exporter) Outputs() *utils.OutputManager {
	return e.outputs
}

// Export writes result as forecast.<format> in the run's directory
func (e *Exporter) Export(runID, format string, result model.PredictResult) (model.ExportResult, error) {
	res := model.ExportResult{Type: format, Timestamp: time.Now().UTC()}

	switch format {
	case FormatCSV, FormatJSON, FormatXLSX:
	default:
		err := fmt.Errorf("unsupported export format %q", format)
		res.Error = err.Error()
		return res, err
	}

	path, err := e.outputs.FilePath(runID, "forecast."+format)
	if err != nil {
		res.Error = err.Error()
		return res, err
	}
	res.Path = path

	switch format {
	case FormatCSV:
		res.RecordCount, err = e.writeFile(path, func(w io.Writer) (int, error) { return e.WriteCSV(w, result) })
	case FormatJSON:
		res.RecordCount, err = e.writeFile(path, func(w io.Writer) (int, error) { return e.WriteJSON(w, runID, result) })
	case FormatXLSX:
		res.RecordCount, err = e.WriteXLSX(path, result)
	}

	if err != nil {
		res.Error = err.Error()
		return res, err
	}
	res.Success = true
	return res, nil
}

func (e *Exporter) writeFile(path string, write func(io.Writer) (int, error)) (int, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	n, err := write(file)
	if cerr := file.Close(); err == nil && cerr != nil {
		err = cerr
	}
	return n, err
}

// WriteCSV writes one row per entity and year with one column per metric family
func (e *Exporter) WriteCSV(w io.Writer, result model.PredictResult) (int, error) {
	writer := csv.NewWriter(w)

	header := []string{"entity", "year"}
	for _, f := range e.families {
		header = append(header, f.Key)
	}
	if err := writer.Write(header); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}

	rows := 0
	for _, entity := range sortedEntities(result.Bundles) {
		bundle := result.Bundles[entity]
		for i, year := range bundle.Years {
			row := []string{entity, strconv.Itoa(year)}
			for _, f := range e.families {
				row = append(row, strconv.FormatFloat(bundle.Values[f.Key][i], 'f', -1, 64))
			}
			if err := writer.Write(row); err != nil {
				return rows, fmt.Errorf("failed to write row: %w", err)
			}
			rows++
		}
	}

	writer.Flush()
	return rows, writer.Error()
}

// WriteJSON writes export metadata and the bundles
func (e *Exporter) WriteJSON(w io.Writer, runID string, result model.PredictResult) (int, error) {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	exportData := map[string]interface{}{
		"export_info": map[string]interface{}{
			"run_id":       runID,
			"exported_at":  time.Now().UTC(),
			"record_count": len(result.Bundles),
			"years":        result.Years,
		},
		"data": result.Bundles,
	}
	if err := encoder.Encode(exportData); err != nil {
		return 0, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return len(result.Bundles), nil
}

// WriteXLSX writes one sheet per metric family with a row per entity and a column per year
func (e *Exporter) WriteXLSX(path string, result model.PredictResult) (int, error) {
	f := excelize.NewFile()
	defer f.Close()

	entities := sortedEntities(result.Bundles)
	for i, family := range e.families {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", family.Key); err != nil {
				return 0, err
			}
		} else if _, err := f.NewSheet(family.Key); err != nil {
			return 0, err
		}

		header := []interface{}{"Entity"}
		for _, y := range result.Years {
			header = append(header, y)
		}
		if err := f.SetSheetRow(family.Key, "A1", &header); err != nil {
			return 0, err
		}

		for r, entity := range entities {
			row := []interface{}{entity}
			for _, v := range result.Bundles[entity].Values[family.Key] {
				row = append(row, v)
			}
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return 0, err
			}
			if err := f.SetSheetRow(family.Key, cell, &row); err != nil {
				return 0, err
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return 0, fmt.Errorf("failed to save workbook: %w", err)
	}
	return len(entities), nil
}

func sortedEntities(bundles map[string]model.ForecastBundle) []string {
	out := make([]string, 0, len(bundles))
	for e := range bundles {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}
