package model

// PredictRequest is the query for GET /predict
type PredictRequest struct {
	YearsAhead int `json:"years_ahead" validate:"gte=1"`
}

// ExportRequest is the query for POST /api/v1/forecasts/export
type ExportRequest struct {
	Format     string `json:"format" validate:"oneof=csv json xlsx"`
	YearsAhead int    `json:"years_ahead" validate:"gte=1"`
}

// MessageResponse is the success payload of load/train
type MessageResponse struct {
	Message string      `json:"message"`
	RunID   string      `json:"run_id,omitempty"`
	Result  interface{} `json:"result,omitempty"`
}

// ErrorResponse is the failure payload of every endpoint
type ErrorResponse struct {
	Error   string      `json:"error"`
	Details string      `json:"details,omitempty"`
	RunID   string      `json:"run_id,omitempty"`
	Result  interface{} `json:"result,omitempty"`
}
