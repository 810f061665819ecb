package pipeline

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"spending-forecast/internal/model"
	"spending-forecast/pkg/utils"
)

// readSource loads a dataset from a local path or an http(s) URL.
// Every structural problem is returned as a *DataSourceError.
func readSource(ctx context.Context, client *http.Client, source string) (*model.Dataset, error) {
	if strings.TrimSpace(source) == "" {
		return nil, &DataSourceError{Source: source, Err: fmt.Errorf("no source configured")}
	}

	body, contentType, err := openSource(ctx, client, source)
	if err != nil {
		return nil, &DataSourceError{Source: source, Err: err}
	}
	defer body.Close()

	var records []model.GenericRecord
	if isCSV(source, contentType) {
		records, err = decodeCSV(body)
	} else {
		records, err = decodeJSON(body)
	}
	if err != nil {
		return nil, &DataSourceError{Source: source, Err: err}
	}

	return &model.Dataset{
		Source:  source,
		Records: records,
		Columns: columnUnion(records),
	}, nil
}

func openSource(ctx context.Context, client *http.Client, source string) (io.ReadCloser, string, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		file, err := os.Open(source)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open file: %w", err)
		}
		return file, "", nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to GET source: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, "", fmt.Errorf("unexpected status %d from source", resp.StatusCode)
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}

func isCSV(source, contentType string) bool {
	if strings.Contains(strings.ToLower(contentType), "csv") {
		return true
	}
	path := source
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	return strings.EqualFold(filepath.Ext(path), ".csv")
}

// decodeJSON expects a top-level array of objects
func decodeJSON(r io.Reader) ([]model.GenericRecord, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("unexpected data after the top-level JSON value")
	}

	items, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("expected a JSON array of records, got %T", raw)
	}

	records := make([]model.GenericRecord, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("record %d is not a JSON object", i)
		}
		records = append(records, model.GenericRecord(m))
	}
	return records, nil
}

// decodeCSV reads a header row followed by one record per line
func decodeCSV(r io.Reader) ([]model.GenericRecord, error) {
	csvReader := csv.NewReader(r)
	csvReader.LazyQuotes = true

	headers, err := csvReader.Read()
	if err == io.EOF {
		return []model.GenericRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i, h := range headers {
		// Clean header names: trim whitespace and remove ALL quotes
		headers[i] = strings.ReplaceAll(strings.TrimSpace(h), `"`, "")
	}

	records := make([]model.GenericRecord, 0)
	for {
		row, err := csvReader.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("CSV read error: %w", err)
		}

		rec := make(model.GenericRecord, len(headers))
		for i, h := range headers {
			if strings.TrimSpace(row[i]) == "" {
				rec[h] = nil
				continue
			}
			rec[h] = utils.ParseValue(row[i])
		}
		records = append(records, rec)
	}
}

func columnUnion(records []model.GenericRecord) []string {
	seen := make(map[string]struct{})
	for _, rec := range records {
		for k := range rec {
			seen[k] = struct{}{}
		}
	}
	cols := make([]string, 0, len(seen))
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}
