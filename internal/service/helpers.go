package service

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// displayMessage returns the caller-facing message for an error: the first
// non-empty hint if one was attached, otherwise the raw error string
func displayMessage(err error) string {
	if err == nil {
		return ""
	}
	for _, hint := range errors.GetAllHints(err) {
		if hint = strings.TrimSpace(hint); hint != "" {
			return hint
		}
	}
	return err.Error()
}
