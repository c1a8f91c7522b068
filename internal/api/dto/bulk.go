package dto

import (
	"github.com/shopspring/decimal"

	ierr "github.com/invoiceflow/invoiceflow/internal/errors"
	"github.com/invoiceflow/invoiceflow/internal/types"
	"github.com/invoiceflow/invoiceflow/internal/validator"
)

// BulkValidateRequest asks for a dry-run classification of a bulk operation.
// Validation performs no mutation and is safe to call repeatedly.
type BulkValidateRequest struct {
	// operation is the workflow action to classify against
	Operation types.InvoiceOperation `json:"operation" validate:"required"`

	// invoice_ids is the candidate set; duplicates are deduplicated before
	// classification and an empty set yields can_proceed=false
	InvoiceIDs []string `json:"invoice_ids"`
}

func (r *BulkValidateRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if err := r.Operation.Validate(); err != nil {
		return err
	}
	return nil
}

// BulkExecuteOptions carries the execution knobs of a bulk operation
type BulkExecuteOptions struct {
	// stop_on_error aborts remaining items after the first observed failure;
	// untried items are counted as skipped
	StopOnError bool `json:"stop_on_error,omitempty"`

	// reason is an optional audit note applied to every item
	Reason string `json:"reason,omitempty"`

	// notes is optional free-form text applied to every item
	Notes string `json:"notes,omitempty"`

	// force bypasses soft validations server-side on each item
	Force bool `json:"force,omitempty"`

	// confirmation must equal CONFIRM_DELETE for the delete operation
	Confirmation string `json:"confirmation,omitempty"`

	// max_concurrency bounds parallel item execution; values <= 1 mean
	// sequential processing in input order. Ignored when stop_on_error is set.
	MaxConcurrency int `json:"max_concurrency,omitempty" validate:"omitempty,min=1,max=16"`
}

// BulkExecuteRequest applies a workflow operation to a set of invoices
type BulkExecuteRequest struct {
	Operation  types.InvoiceOperation `json:"operation" validate:"required"`
	InvoiceIDs []string               `json:"invoice_ids"`
	Options    BulkExecuteOptions     `json:"options"`
}

func (r *BulkExecuteRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if err := r.Operation.Validate(); err != nil {
		return err
	}
	if r.Operation == types.InvoiceOperationMarkPaid {
		return ierr.NewError("mark_paid is not a bulk operation").
			WithHint("mark_paid can only be applied to a single invoice").
			Mark(ierr.ErrInvalidOperation)
	}
	if r.Operation == types.InvoiceOperationDelete && r.Options.Confirmation != types.DeleteConfirmationToken {
		return ierr.NewError("bulk delete requires explicit confirmation").
			WithHintf("Set confirmation to %q to delete invoices in bulk", types.DeleteConfirmationToken).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ValidInvoiceSummary describes one invoice that satisfies the operation's
// precondition
type ValidInvoiceSummary struct {
	ID            string              `json:"id"`
	InvoiceNumber *string             `json:"invoice_number,omitempty"`
	Status        types.InvoiceStatus `json:"status"`
	TotalAmount   decimal.Decimal     `json:"total_amount"`
}

// InvalidInvoiceSummary describes one invoice that fails the operation's
// precondition, with human-readable reasons
type InvalidInvoiceSummary struct {
	ID            string              `json:"id"`
	InvoiceNumber *string             `json:"invoice_number,omitempty"`
	Status        types.InvoiceStatus `json:"status"`
	Reasons       []string            `json:"reasons"`
}

// BulkOperationValidation is the ephemeral result of a dry-run classification.
// It is computed fresh on every validation request and never persisted.
// valid_count + invalid_count + not_found_count == total_requested always
// holds after deduplication.
type BulkOperationValidation struct {
	Operation       types.InvoiceOperation  `json:"operation"`
	TotalRequested  int                     `json:"total_requested"`
	ValidCount      int                     `json:"valid_count"`
	InvalidCount    int                     `json:"invalid_count"`
	NotFoundCount   int                     `json:"not_found_count"`
	CanProceed      bool                    `json:"can_proceed"`
	ValidInvoices   []ValidInvoiceSummary   `json:"valid_invoices"`
	InvalidInvoices []InvalidInvoiceSummary `json:"invalid_invoices"`
	NotFoundIDs     []string                `json:"not_found_ids"`
}

// BulkFailedItem records a per-item execution failure
type BulkFailedItem struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// BulkResult aggregates the per-item outcomes of a bulk execution. It is
// always returned to the caller, never thrown, so mixed outcomes can be
// rendered; a failure on one invoice never rolls back any other.
type BulkResult struct {
	Operation   types.InvoiceOperation `json:"operation"`
	Successful  int                    `json:"successful"`
	Failed      int                    `json:"failed"`
	Skipped     int                    `json:"skipped"`
	FailedItems []BulkFailedItem       `json:"failed_items"`
}
