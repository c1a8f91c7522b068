package errors

import (
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrorResponse is the envelope rendered for every non-2xx API response
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// ErrorDetail carries the caller-facing message and the reportable details
// recorded by the builder. Internal error text never leaks here.
type ErrorDetail struct {
	Display       string         `json:"message"`
	InternalError string         `json:"internal_error,omitempty"`
	Details       map[string]any `json:"details,omitempty"`
}

// NewErrorResponse builds the response envelope for an error produced by the
// builder: the display message is the first non-empty hint in the chain, the
// details are the merged reportable details.
func NewErrorResponse(err error) ErrorResponse {
	return ErrorResponse{
		Success: false,
		Error: ErrorDetail{
			Display: DisplayMessage(err),
			Details: SafeDetails(err),
		},
	}
}

// DisplayMessage returns the caller-facing message for err. Hints are the
// only error text considered safe to surface; anything else falls back to a
// generic message.
func DisplayMessage(err error) string {
	// GetAllHints is post-order traversal, first non-empty wins
	for _, hint := range errors.GetAllHints(err) {
		if hint = strings.TrimSpace(hint); hint != "" {
			return hint
		}
	}
	return "An unexpected error occurred"
}

// SafeDetails collects the reportable details attached anywhere in the error
// chain into one flat map
func SafeDetails(err error) map[string]any {
	details := make(map[string]any)

	for _, sdp := range errors.GetAllSafeDetails(err) {
		for _, payload := range sdp.SafeDetails {
			if !strings.HasPrefix(payload, safeDetailJSONPrefix) {
				continue
			}

			var jsonDetails map[string]any
			if err := json.Unmarshal([]byte(payload[len(safeDetailJSONPrefix):]), &jsonDetails); err == nil {
				for k, v := range jsonDetails {
					details[k] = v
				}
			}
		}
	}

	return details
}
