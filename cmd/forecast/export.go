package main

import (
	"fmt"

	"spending-forecast/internal/pipeline"

	"github.com/spf13/cobra"
)

var (
	flagFormat string
	flagOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the forecast to a csv, json or xlsx file",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&flagFormat, "format", "f", pipeline.FormatXLSX, "Export format: csv, json or xlsx")
	exportCmd.Flags().StringVarP(&flagOut, "out", "o", "", "Output directory (default from config)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	switch flagFormat {
	case pipeline.FormatCSV, pipeline.FormatJSON, pipeline.FormatXLSX:
	default:
		return fmt.Errorf("unsupported format %q", flagFormat)
	}

	s, err := newSession(cmd.Context(), flagOut)
	if err != nil {
		return err
	}

	_, result, err := s.service.Export(cmd.Context(), flagFormat, flagYears)
	if err != nil {
		return err
	}
	fmt.Fprintf(out(cmd), "Wrote %d rows to %s\n", result.RecordCount, result.Path)
	return nil
}
