package errors

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
)

// safeDetailJSONPrefix tags reportable details so SafeDetails can tell them
// apart from other safe payloads in the chain
const safeDetailJSONPrefix = "__json__:"

// ErrorBuilder assembles the error shape this service reports everywhere: an
// internal message, caller-facing hints, reportable details, and a sentinel
// mark that drives the HTTP status mapping. It does not implement the error
// interface; Mark (or Err) must end the chain.
type ErrorBuilder struct {
	err error
}

// NewError starts a builder chain from a message
func NewError(msg string) *ErrorBuilder {
	return &ErrorBuilder{err: errors.New(msg)}
}

// WithError starts a builder chain wrapping an existing error, typically a
// backend or transport failure that needs a hint and a sentinel
func WithError(err error) *ErrorBuilder {
	return &ErrorBuilder{err: err}
}

// WithMessage adds internal context, never shown to callers
func (b *ErrorBuilder) WithMessage(msg string) *ErrorBuilder {
	b.err = errors.WithMessage(b.err, msg)
	return b
}

// WithHint adds the caller-facing message; the first non-empty hint in the
// chain becomes the response display message
func (b *ErrorBuilder) WithHint(hint string) *ErrorBuilder {
	b.err = errors.WithHint(b.err, hint)
	return b
}

// WithHintf is WithHint with formatting
func (b *ErrorBuilder) WithHintf(format string, args ...any) *ErrorBuilder {
	b.err = errors.WithHintf(b.err, format, args...)
	return b
}

// WithReportableDetails attaches structured details safe to return to the
// caller (invoice ids, operation names, allowed values)
func (b *ErrorBuilder) WithReportableDetails(details map[string]any) *ErrorBuilder {
	marshaled, err := json.Marshal(details)
	if err != nil {
		return b
	}
	b.err = errors.WithSafeDetails(b.err, safeDetailJSONPrefix+"%s", errors.Safe(string(marshaled)))
	return b
}

// Mark ties the chain to one of the package sentinels so callers can classify
// it with errors.Is. Should be the last call in the chain.
func (b *ErrorBuilder) Mark(reference error) error {
	b.err = errors.Mark(b.err, reference)
	return b.err
}

// Err returns the built error without a sentinel mark
func (b *ErrorBuilder) Err() error {
	return b.err
}
