package dto

import (
	"github.com/shopspring/decimal"

	"github.com/invoiceflow/invoiceflow/internal/domain/invoice"
	ierr "github.com/invoiceflow/invoiceflow/internal/errors"
	"github.com/invoiceflow/invoiceflow/internal/types"
	"github.com/invoiceflow/invoiceflow/internal/validator"
)

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	*invoice.Invoice
}

// NewInvoiceResponse creates a response from a domain invoice
func NewInvoiceResponse(inv *invoice.Invoice) *InvoiceResponse {
	return &InvoiceResponse{Invoice: inv}
}

// ListInvoicesResponse represents a paginated list of invoices
type ListInvoicesResponse struct {
	Items      []*InvoiceResponse       `json:"items"`
	Pagination types.PaginationResponse `json:"pagination"`
}

// InvoiceActionRequest is the payload for a single-invoice workflow action.
// force bypasses soft validations server-side only; hard state preconditions
// are always enforced.
type InvoiceActionRequest struct {
	// force instructs the backend to bypass soft validations (e.g. minor
	// balance warnings) for this transition
	Force bool `json:"force,omitempty"`

	// reason is an optional audit note explaining the action
	Reason string `json:"reason,omitempty"`

	// notes is optional free-form text stored with the transition
	Notes string `json:"notes,omitempty"`
}

func (r *InvoiceActionRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// MarkInvoicePaidRequest is the payload for marking a posted invoice paid
type MarkInvoicePaidRequest struct {
	// amount is the optional partial amount settled; omitted means fully paid
	Amount *decimal.Decimal `json:"amount,omitempty"`
}

func (r *MarkInvoicePaidRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if r.Amount != nil && r.Amount.IsNegative() {
		return ierr.NewError("amount must be non-negative").
			WithHint("Please provide a non-negative amount").
			WithReportableDetails(map[string]any{
				"amount": r.Amount.String(),
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
