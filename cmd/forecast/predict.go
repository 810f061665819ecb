package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var flagTable bool

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Print the forecast for every entity",
	RunE:  runPredict,
}

func init() {
	predictCmd.Flags().BoolVar(&flagTable, "table", false, "Render a table instead of JSON")
	rootCmd.AddCommand(predictCmd)
}

func runPredict(cmd *cobra.Command, _ []string) error {
	s, err := newSession(cmd.Context(), "")
	if err != nil {
		return err
	}

	_, result, err := s.service.Forecast(cmd.Context(), flagYears)
	if err != nil {
		return err
	}

	if !flagTable {
		enc := json.NewEncoder(out(cmd))
		enc.SetIndent("", "  ")
		return enc.Encode(result.Bundles)
	}

	families := s.service.Pipeline.Options().Families
	headers := []string{"Entity", "Year"}
	for _, f := range families {
		headers = append(headers, f.Key)
	}

	var rows [][]string
	for _, entity := range sortedKeys(result.Bundles) {
		bundle := result.Bundles[entity]
		for i, year := range bundle.Years {
			row := []string{entity, strconv.Itoa(year)}
			for _, f := range families {
				row = append(row, formatAmount(bundle.Values[f.Key][i]))
			}
			rows = append(rows, row)
		}
	}

	fmt.Fprintln(out(cmd), renderTable(fmt.Sprintf("FORECAST  %d-%d", result.Years[0], result.Years[len(result.Years)-1]), headers, rows))
	if len(result.Omitted) > 0 {
		fmt.Fprintf(out(cmd), "  %d entities omitted\n", len(result.Omitted))
	}
	return nil
}
