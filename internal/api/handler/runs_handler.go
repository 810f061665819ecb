package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"spending-forecast/internal/model"
	"spending-forecast/pkg/router"
)

// RunStore reads and prunes recorded run history. *store.Store implements it.
type RunStore interface {
	ListRuns(ctx context.Context, limit int) ([]model.Run, error)
	GetRun(ctx context.Context, runID string) (model.Run, error)
	GetRunErrors(ctx context.Context, runID string) ([]model.RunError, error)
	GetPipelineLogs(ctx context.Context, runID string, limit int) ([]model.PipelineLog, error)
	DeleteRun(ctx context.Context, runID string) error
}

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// ListRuns retrieves recent runs
// @Summary List runs
// @Description Get the most recent pipeline runs, newest first
// @Tags runs
// @Produce json
// @Param limit query int false "Maximum number of runs" default(50)
// @Success 200 {array} model.Run
// @Failure 400 {object} model.ErrorResponse
// @Failure 503 {object} model.ErrorResponse "Run history disabled"
// @Router /api/v1/runs [get]
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if !h.historyEnabled(w) {
		return
	}
	limit, err := queryLimit(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	runs, err := h.runs.ListRuns(r.Context(), limit)
	if err != nil {
		h.writeError(w, fmt.Errorf("failed to list runs: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

// GetRun retrieves a specific run
// @Summary Get run
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} model.Run
// @Failure 404 {object} model.ErrorResponse "Run not found"
// @Router /api/v1/runs/{id} [get]
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	if !h.historyEnabled(w) {
		return
	}
	run, err := h.runs.GetRun(r.Context(), router.Param(r, 0))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// GetRunErrors retrieves the entities a run skipped or omitted
// @Summary Get run errors
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} map[string]interface{} "Run errors"
// @Failure 404 {object} model.ErrorResponse "Run not found"
// @Router /api/v1/runs/{id}/errors [get]
func (h *Handler) GetRunErrors(w http.ResponseWriter, r *http.Request) {
	if !h.historyEnabled(w) {
		return
	}
	runID := router.Param(r, 0)
	if _, err := h.runs.GetRun(r.Context(), runID); err != nil {
		h.writeError(w, err)
		return
	}

	errs, err := h.runs.GetRunErrors(r.Context(), runID)
	if err != nil {
		h.writeError(w, fmt.Errorf("failed to retrieve errors: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"run_id": runID,
		"errors": errs,
		"count":  len(errs),
	})
}

// GetRunLogs retrieves a run's stage log lines
// @Summary Get run logs
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Param limit query int false "Maximum number of lines" default(50)
// @Success 200 {object} map[string]interface{} "Run logs"
// @Failure 404 {object} model.ErrorResponse "Run not found"
// @Router /api/v1/runs/{id}/logs [get]
func (h *Handler) GetRunLogs(w http.ResponseWriter, r *http.Request) {
	if !h.historyEnabled(w) {
		return
	}
	runID := router.Param(r, 0)
	limit, err := queryLimit(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if _, err := h.runs.GetRun(r.Context(), runID); err != nil {
		h.writeError(w, err)
		return
	}

	logs, err := h.runs.GetPipelineLogs(r.Context(), runID, limit)
	if err != nil {
		h.writeError(w, fmt.Errorf("failed to retrieve logs: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"run_id": runID,
		"logs":   logs,
		"count":  len(logs),
	})
}

// DeleteRun deletes a run and its export files
// @Summary Delete run
// @Description Delete a run, its recorded errors and logs, and its output directory
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} model.MessageResponse
// @Failure 404 {object} model.ErrorResponse "Run not found"
// @Router /api/v1/runs/{id} [delete]
func (h *Handler) DeleteRun(w http.ResponseWriter, r *http.Request) {
	if !h.historyEnabled(w) {
		return
	}
	runID := router.Param(r, 0)
	if err := h.runs.DeleteRun(r.Context(), runID); err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.service.Exporter.Outputs().RemoveRun(runID); err != nil {
		h.log.Warn("failed to delete run outputs", "run_id", runID, "error", err)
	}
	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "Run deleted", RunID: runID})
}

// ExportForecast writes the current forecast to a file
// @Summary Export forecast
// @Description Forecast every trained entity and write it as csv, json or xlsx
// @Tags forecasts
// @Produce json
// @Param format query string false "Export format" Enums(csv, json, xlsx) default(csv)
// @Param years_ahead query int false "Number of future years" default(3)
// @Success 200 {object} map[string]interface{} "Export result with download URL"
// @Failure 400 {object} model.ErrorResponse
// @Failure 409 {object} model.ErrorResponse "No trained models"
// @Router /api/v1/forecasts/export [post]
func (h *Handler) ExportForecast(w http.ResponseWriter, r *http.Request) {
	years, err := h.yearsAhead(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	req := model.ExportRequest{Format: r.URL.Query().Get("format"), YearsAhead: years}
	if req.Format == "" {
		req.Format = "csv"
	}
	if err := h.validate.Struct(req); err != nil {
		h.writeError(w, &requestError{msg: "invalid export request", err: err})
		return
	}

	runID, result, err := h.service.Export(r.Context(), req.Format, req.YearsAhead)
	if err != nil {
		h.writeRunError(w, runID, err)
		return
	}

	outputs := h.service.Exporter.Outputs()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":      "Forecast exported successfully",
		"run_id":       runID,
		"result":       result,
		"download_url": outputs.DownloadURL(runID, result.Path),
	})
}

// DownloadFile serves an exported file
// @Summary Download export
// @Tags forecasts
// @Produce octet-stream
// @Param run path string true "Run ID"
// @Param file path string true "File name"
// @Success 200 {file} file
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/v1/download/{run}/{file} [get]
func (h *Handler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	outputs := h.service.Exporter.Outputs()
	runID, fileName := router.Param(r, 0), router.Param(r, 1)

	path, err := outputs.Resolve(runID, fileName)
	if err != nil {
		h.writeError(w, &requestError{msg: "invalid file reference", err: err})
		return
	}
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && info.IsDir()) {
		writeJSON(w, http.StatusNotFound, model.ErrorResponse{Error: "File not found", Details: fileName})
		return
	}
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", outputs.ContentType(fileName))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	http.ServeFile(w, r, path)
}

func (h *Handler) historyEnabled(w http.ResponseWriter) bool {
	if h.runs != nil {
		return true
	}
	writeJSON(w, http.StatusServiceUnavailable, model.ErrorResponse{Error: "Run history is disabled"})
	return false
}

func queryLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultListLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxListLimit {
		return 0, &requestError{msg: fmt.Sprintf("limit must be between 1 and %d", maxListLimit)}
	}
	return n, nil
}
