package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// OutputManager lays out export files under one directory per run
type OutputManager struct {
	BaseOutputDir string
}

// NewOutputManager creates a new output manager
func NewOutputManager(baseOutputDir string) *OutputManager {
	return &OutputManager{
		BaseOutputDir: baseOutputDir,
	}
}

// RunDir creates and returns the directory for a run's outputs
func (om *OutputManager) RunDir(runID string) (string, error) {
	runDir := filepath.Join(om.BaseOutputDir, filepath.Base(runID))
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create run output directory: %w", err)
	}
	return runDir, nil
}

// FilePath returns the path of fileName inside the run's directory
func (om *OutputManager) FilePath(runID, fileName string) (string, error) {
	runDir, err := om.RunDir(runID)
	if err != nil {
		return "", err
	}
	return filepath.Join(runDir, filepath.Base(fileName)), nil
}

// Resolve maps a download request to a path, refusing anything outside the base dir
func (om *OutputManager) Resolve(runID, fileName string) (string, error) {
	if runID == "" || fileName == "" || runID != filepath.Base(runID) || fileName != filepath.Base(fileName) ||
		runID == ".." || fileName == ".." {
		return "", fmt.Errorf("invalid output reference %q/%q", runID, fileName)
	}
	return filepath.Join(om.BaseOutputDir, runID, fileName), nil
}

// DownloadURL is the API path that serves a run's file
func (om *OutputManager) DownloadURL(runID, fileName string) string {
	return fmt.Sprintf("/api/v1/download/%s/%s", runID, filepath.Base(fileName))
}

// FileType determines the export type from the extension
func (om *OutputManager) FileType(fileName string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv":
		return "csv"
	case ".json":
		return "json"
	case ".xlsx", ".xls":
		return "xlsx"
	default:
		return "unknown"
	}
}

// RemoveRun deletes a run's output directory and everything in it
func (om *OutputManager) RemoveRun(runID string) error {
	if runID == "" || runID != filepath.Base(runID) || runID == ".." || runID == "." {
		return fmt.Errorf("invalid run id %q", runID)
	}
	return os.RemoveAll(filepath.Join(om.BaseOutputDir, runID))
}

// ContentType is the MIME type served for an export file
func (om *OutputManager) ContentType(fileName string) string {
	switch om.FileType(fileName) {
	case "csv":
		return "text/csv"
	case "json":
		return "application/json"
	case "xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}
