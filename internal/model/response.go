package model

// MetricsResponse is the envelope for metrics list endpoints, wrapping rows
// in a "data_preview" array with optional pagination metadata.
type MetricsResponse struct {
	DataPreview []map[string]interface{} `json:"data_preview"`
	Meta        *ResponseMeta            `json:"meta,omitempty"`
}

// ResponseMeta contains pagination and timing information for list responses.
type ResponseMeta struct {
	Count  int     `json:"count"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
	TookMs float64 `json:"took_ms"`
}

// TokenResponse is the payload returned by a successful login.
type TokenResponse struct {
	Token string `json:"token"`
}

// ErrorResponse is the standard envelope for error responses.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the structured error information returned by the API.
// Messages are fixed strings; internal error detail is logged, never returned.
type ErrorDetail struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Param   string `json:"param,omitempty"`
}
