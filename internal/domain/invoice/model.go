package invoice

import (
	"github.com/shopspring/decimal"

	"github.com/invoiceflow/invoiceflow/internal/types"
)

// Invoice represents the invoice domain model. The backend service owns the
// authoritative copy; instances held here are replaced wholesale after each
// successful workflow transition and never mutated in place.
type Invoice struct {
	ID            string              `json:"id"`
	InvoiceNumber *string             `json:"invoice_number,omitempty"`
	InvoiceType   types.InvoiceType   `json:"invoice_type"`
	InvoiceStatus types.InvoiceStatus `json:"invoice_status"`
	PaymentStatus types.PaymentStatus `json:"payment_status"`
	ThirdPartyID  string              `json:"third_party_id"`
	Currency      string              `json:"currency"`

	Subtotal        decimal.Decimal `json:"subtotal"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`

	// JournalEntryID references the posted accounting entry. It is set iff the
	// invoice is POSTED, or CANCELLED after having been posted.
	JournalEntryID *string `json:"journal_entry_id,omitempty"`

	Description string         `json:"description,omitempty"`
	Metadata    types.Metadata `json:"metadata,omitempty"`
	Lines       []*InvoiceLine `json:"lines,omitempty"`
	types.BaseModel
}

// GetRemainingAmount returns the unsettled portion of the invoice
func (i *Invoice) GetRemainingAmount() decimal.Decimal {
	return i.TotalAmount.Sub(i.PaidAmount)
}

// RecalculateTotals recomputes the derived monetary fields from the lines.
// Only meaningful on DRAFT invoices; posted invoices are immutable.
func (i *Invoice) RecalculateTotals() {
	subtotal := decimal.Zero
	tax := decimal.Zero
	for _, line := range i.Lines {
		lineTotal := line.Total(i.Currency)
		subtotal = subtotal.Add(lineTotal)
		tax = tax.Add(line.TaxAmount(i.Currency))
	}

	i.Subtotal = subtotal
	i.TaxAmount = tax
	i.TotalAmount = subtotal.Add(tax)
	i.RemainingAmount = i.TotalAmount.Sub(i.PaidAmount)
}

func (i *Invoice) Validate() error {
	if err := i.InvoiceType.Validate(); err != nil {
		return err
	}

	if err := i.InvoiceStatus.Validate(); err != nil {
		return err
	}

	if i.TotalAmount.IsNegative() {
		return NewValidationError("total_amount", "must be non negative")
	}

	if i.PaidAmount.IsNegative() {
		return NewValidationError("paid_amount", "must be non negative")
	}

	if i.PaidAmount.GreaterThan(i.TotalAmount) {
		return NewValidationError("paid_amount", "must be less than or equal to total_amount")
	}

	if i.RemainingAmount.IsNegative() {
		return NewValidationError("remaining_amount", "must be non negative")
	}

	if !i.Subtotal.Add(i.TaxAmount).Equal(i.TotalAmount) {
		return NewValidationError("total_amount", "must equal subtotal + tax_amount")
	}

	if !i.PaidAmount.Add(i.RemainingAmount).Equal(i.TotalAmount) {
		return NewValidationError("remaining_amount", "must equal total_amount - paid_amount")
	}

	// journal entry presence follows the lifecycle state
	if i.InvoiceStatus == types.InvoiceStatusDraft && i.JournalEntryID != nil {
		return NewValidationError("journal_entry_id", "must not be set on a DRAFT invoice")
	}
	if i.InvoiceStatus == types.InvoiceStatusPosted && i.JournalEntryID == nil {
		return NewValidationError("journal_entry_id", "must be set on a POSTED invoice")
	}

	for _, line := range i.Lines {
		if err := line.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// IsEditable reports whether the invoice may still be modified or deleted
func (i *Invoice) IsEditable() bool {
	return i.InvoiceStatus == types.InvoiceStatusDraft
}
