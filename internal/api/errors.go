package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	apperrors "github.com/defi-dashboard/internal/errors"
	"github.com/defi-dashboard/internal/types"
)

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error types.ServiceError `json:"error"`
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, statusCode int, svcErr *types.ServiceError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: *svcErr})
}

// respondAppError maps err through the error categories.
func respondAppError(w http.ResponseWriter, err error) {
	catErr := apperrors.Categorize(err)
	respondError(w, apperrors.GetHTTPStatusCode(catErr), catErr.ToServiceError())
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// parseToolArguments decodes a JSON object body. An empty body means no arguments.
func parseToolArguments(r *http.Request) (map[string]any, error) {
	args := map[string]any{}
	if r.Body == nil {
		return args, nil
	}

	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := decoder.Decode(&args); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, apperrors.NewInvalidInputError("request body must be a JSON object of tool arguments")
	}
	if args == nil {
		// a literal null body
		args = map[string]any{}
	}
	return args, nil
}

const maxBodyBytes = 1 << 20
