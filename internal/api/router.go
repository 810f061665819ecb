package api

import (
	"net/http"

	_ "spending-forecast/docs"
	"spending-forecast/internal/api/handler"
	"spending-forecast/pkg/router"

	httpSwagger "github.com/swaggo/http-swagger"
)

// RegisterRoutes mounts the forecast API. metrics may be nil.
func RegisterRoutes(r *router.Router, h *handler.Handler, metrics http.Handler) {
	// Dashboard routes
	r.GET("/load_data", h.LoadData)
	r.GET("/train_models", h.TrainModels)
	r.GET("/predict", h.Predict)

	r.POST("/api/v1/pipeline/load", h.PipelineLoad)
	r.POST("/api/v1/pipeline/train", h.PipelineTrain)
	r.GET("/api/v1/pipeline/predict", h.PipelinePredict)
	r.GET("/api/v1/pipeline/status", h.PipelineStatus)

	r.GET("/api/v1/runs", h.ListRuns)
	// More specific routes first
	r.GET("/api/v1/runs/*/errors", h.GetRunErrors)
	r.GET("/api/v1/runs/*/logs", h.GetRunLogs)
	// Generic run route last
	r.GET("/api/v1/runs/*", h.GetRun)
	r.DELETE("/api/v1/runs/*", h.DeleteRun)

	r.POST("/api/v1/forecasts/export", h.ExportForecast)
	r.GET("/api/v1/download/*/*", h.DownloadFile)

	if metrics != nil {
		r.GET("/metrics", metrics.ServeHTTP)
	}
	r.Handle("/swagger/", httpSwagger.WrapHandler)
}
