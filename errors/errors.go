package errors

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/auracorp/aurastudio/log"
)

// APIError is the uniform shape written to the wire for any request failure,
// matching the error response shape in the external interface contract.
type APIError struct {
	Type          string `json:"type"`
	Title         string `json:"title"`
	Status        int    `json:"status"`
	Detail        string `json:"detail"`
	CorrelationID string `json:"correlationId"`
}

func writeHTTPError(w http.ResponseWriter, code Code, status int, detail, correlationID string) APIError {
	apiErr := APIError{
		Type:          "https://aurastudio.local/errors#" + string(code),
		Title:         string(code),
		Status:        status,
		Detail:        detail,
		CorrelationID: correlationID,
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(apiErr); err != nil {
		log.Error(context.Background(), "error writing HTTP error body", err)
	}
	return apiErr
}

// WriteHTTP writes the given taxonomy code as an HTTP response, deriving the
// status code from the taxonomy table.
func WriteHTTP(w http.ResponseWriter, code Code, detail, correlationID string) APIError {
	return writeHTTPError(w, code, HTTPStatus(code), detail, correlationID)
}

// WriteHTTPNotFound is a convenience wrapper for the common 404 case, which
// isn't part of the job error taxonomy (it's a routing-level error).
func WriteHTTPNotFound(w http.ResponseWriter, detail, correlationID string) APIError {
	return writeHTTPError(w, "E_NotFound", http.StatusNotFound, detail, correlationID)
}
