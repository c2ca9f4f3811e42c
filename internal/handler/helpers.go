package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/admetra/admetra/internal/model"
	"github.com/admetra/admetra/internal/query"
)

// writeJSON serializes v as JSON and writes it to the response with the given
// HTTP status code. The Content-Type header is set to application/json.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a structured error response using the standard error
// envelope.
func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, model.ErrorResponse{
		Error: model.ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// writeValidationError maps a query validation failure to a 422 response
// naming the offending parameter.
func writeValidationError(w http.ResponseWriter, err error) {
	var verr *query.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusUnprocessableEntity, model.ErrorResponse{
			Error: model.ErrorDetail{
				Code:    http.StatusUnprocessableEntity,
				Message: verr.Message,
				Param:   verr.Param,
			},
		})
		return
	}
	writeError(w, http.StatusUnprocessableEntity, err.Error())
}

// readJSON decodes the request body as JSON into v. The body is closed after
// decoding regardless of success or failure.
func readJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
