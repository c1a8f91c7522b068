package remote

import (
	"encoding/json"
	"net/http"

	ierr "github.com/invoiceflow/invoiceflow/internal/errors"
)

// backendErrorBody is the error envelope returned by the invoice backend
type backendErrorBody struct {
	Success bool `json:"success"`
	Error   struct {
		Message string         `json:"message"`
		Details map[string]any `json:"details,omitempty"`
	} `json:"error"`
}

// decodeError converts a non-2xx backend response into a typed error. The
// backend-provided message is preserved as the hint so callers can surface it
// verbatim.
func decodeError(statusCode int, body []byte) error {
	message := "request rejected by invoice backend"
	var payload backendErrorBody
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		message = payload.Error.Message
	}

	builder := ierr.NewError(message).
		WithHint(message).
		WithReportableDetails(map[string]any{
			"status_code": statusCode,
		})

	switch {
	case statusCode == http.StatusNotFound:
		return builder.Mark(ierr.ErrNotFound)
	case statusCode >= 400 && statusCode < 500:
		return builder.Mark(ierr.ErrRemoteRejection)
	default:
		return builder.Mark(ierr.ErrNetwork)
	}
}
