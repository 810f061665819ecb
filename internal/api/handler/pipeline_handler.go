package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"spending-forecast/internal/model"
	"spending-forecast/internal/pipeline"
	"spending-forecast/internal/store"

	"github.com/go-playground/validator/v10"
)

// Handler serves the pipeline, run-history and export endpoints
type Handler struct {
	service  *pipeline.Service
	runs     RunStore
	validate *validator.Validate
	log      *slog.Logger
}

// New creates a handler; runs may be nil when no history database is configured
func New(service *pipeline.Service, runs RunStore, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service:  service,
		runs:     runs,
		validate: validator.New(),
		log:      logger.With("component", "handler"),
	}
}

// LoadData loads and preprocesses the configured dataset
// @Summary Load data
// @Description Load the configured spending dataset and impute missing metric values
// @Tags legacy
// @Produce json
// @Success 200 {object} model.MessageResponse "Data loaded successfully"
// @Failure 500 {object} model.ErrorResponse "Failed to load data"
// @Router /load_data [get]
func (h *Handler) LoadData(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.LoadData(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{
			Error: "Failed to load data", Details: err.Error(), RunID: out.RunID,
		})
		return
	}
	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "Data loaded successfully", RunID: out.RunID, Result: out})
}

// TrainModels fits a trend per entity and metric
// @Summary Train models
// @Description Fit one linear trend per entity and metric family over the history years
// @Tags legacy
// @Produce json
// @Success 200 {object} model.MessageResponse "Models trained successfully"
// @Failure 500 {object} model.ErrorResponse "Model training failed"
// @Router /train_models [get]
func (h *Handler) TrainModels(w http.ResponseWriter, r *http.Request) {
	runID, result, err := h.service.TrainModels(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{
			Error: "Model training failed", Details: err.Error(), RunID: runID,
		})
		return
	}
	if !result.Success {
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{
			Error: "Model training failed", Details: "no entity could be fitted", RunID: runID, Result: result,
		})
		return
	}
	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "Models trained successfully", RunID: runID, Result: result})
}

// Predict returns the forecast bundle of every trained entity
// @Summary Predict
// @Description Extrapolate every trained entity's trends for years_ahead years after the history
// @Tags legacy
// @Produce json
// @Param years_ahead query int false "Number of future years" default(3)
// @Success 200 {object} map[string]model.ForecastBundle "Forecast per entity"
// @Failure 400 {object} model.ErrorResponse "Invalid years_ahead"
// @Failure 500 {object} model.ErrorResponse "Prediction failed"
// @Router /predict [get]
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	years, err := h.yearsAhead(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	_, result, err := h.service.Forecast(r.Context(), years)
	switch {
	case errors.Is(err, pipeline.ErrInvalidHorizon):
		h.writeError(w, err)
		return
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{Error: "Prediction failed", Details: err.Error()})
		return
	case len(result.Bundles) == 0:
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{Error: "Prediction failed", Details: "no entity could be forecast"})
		return
	}
	writeJSON(w, http.StatusOK, result.Bundles)
}

// PipelineLoad loads and preprocesses the configured dataset
// @Summary Load data
// @Description Load the configured spending dataset and impute missing metric values, recorded as a run
// @Tags pipeline
// @Produce json
// @Success 200 {object} model.MessageResponse
// @Failure 422 {object} model.ErrorResponse "Unreadable source or unusable column"
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/pipeline/load [post]
func (h *Handler) PipelineLoad(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.LoadData(r.Context())
	if err != nil {
		h.writeRunError(w, out.RunID, err)
		return
	}
	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "Data loaded successfully", RunID: out.RunID, Result: out})
}

// PipelineTrain retrains every entity
// @Summary Train models
// @Description Retrain every entity and replace the model mappings, recorded as a run
// @Tags pipeline
// @Produce json
// @Success 200 {object} model.MessageResponse
// @Failure 409 {object} model.ErrorResponse "No data loaded"
// @Failure 422 {object} model.ErrorResponse "No entity could be fitted"
// @Router /api/v1/pipeline/train [post]
func (h *Handler) PipelineTrain(w http.ResponseWriter, r *http.Request) {
	runID, result, err := h.service.TrainModels(r.Context())
	if err != nil {
		h.writeRunError(w, runID, err)
		return
	}
	if !result.Success {
		writeJSON(w, http.StatusUnprocessableEntity, model.ErrorResponse{
			Error: "Model training failed", Details: "no entity could be fitted", RunID: runID, Result: result,
		})
		return
	}
	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "Models trained successfully", RunID: runID, Result: result})
}

// PipelinePredict returns the full forecast including omitted entities
// @Summary Predict
// @Description Forecast every trained entity, reporting entities that could not be evaluated
// @Tags pipeline
// @Produce json
// @Param years_ahead query int false "Number of future years" default(3)
// @Success 200 {object} model.MessageResponse
// @Failure 400 {object} model.ErrorResponse "Invalid years_ahead"
// @Failure 409 {object} model.ErrorResponse "No trained models"
// @Router /api/v1/pipeline/predict [get]
func (h *Handler) PipelinePredict(w http.ResponseWriter, r *http.Request) {
	years, err := h.yearsAhead(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	runID, result, err := h.service.Forecast(r.Context(), years)
	if err != nil {
		h.writeRunError(w, runID, err)
		return
	}
	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "Prediction completed", RunID: runID, Result: result})
}

// PipelineStatus reports what is loaded and trained
// @Summary Pipeline status
// @Tags pipeline
// @Produce json
// @Success 200 {object} pipeline.Status
// @Router /api/v1/pipeline/status [get]
func (h *Handler) PipelineStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Pipeline.Status())
}

// yearsAhead reads and validates the years_ahead query parameter
func (h *Handler) yearsAhead(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("years_ahead")
	if raw == "" {
		return h.service.DefaultYearsAhead, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &requestError{msg: fmt.Sprintf("years_ahead must be an integer, got %q", raw)}
	}
	req := model.PredictRequest{YearsAhead: n}
	if err := h.validate.Struct(req); err != nil {
		return 0, &requestError{msg: "invalid years_ahead", err: err}
	}
	return req.YearsAhead, nil
}

// requestError is a malformed client request
type requestError struct {
	msg string
	err error
}

func (e *requestError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return e.msg + ": " + e.err.Error()
}

func (e *requestError) Unwrap() error { return e.err }

// statusFor maps errors to HTTP status codes
func statusFor(err error) int {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr), errors.Is(err, pipeline.ErrInvalidHorizon):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, pipeline.ErrNoData), errors.Is(err, pipeline.ErrNotTrained):
		return http.StatusConflict
	case errors.Is(err, pipeline.ErrDataSource), errors.Is(err, pipeline.ErrAllMissingColumn):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	h.writeRunError(w, "", err)
}

func (h *Handler) writeRunError(w http.ResponseWriter, runID string, err error) {
	code := statusFor(err)
	resp := model.ErrorResponse{Error: http.StatusText(code), Details: err.Error(), RunID: runID}
	if code == http.StatusInternalServerError {
		resp.Details = "internal error"
		h.log.Error("request failed", "run_id", runID, "error", err)
	}
	writeJSON(w, code, resp)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
