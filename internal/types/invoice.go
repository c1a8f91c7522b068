package types

import (
	"github.com/samber/lo"

	ierr "github.com/invoiceflow/invoiceflow/internal/errors"
)

// InvoiceStatus represents the current state of an invoice in its lifecycle.
// The lifecycle is a closed set: payment state is tracked separately as
// PaymentStatus and never feeds back into the lifecycle.
type InvoiceStatus string

const (
	// InvoiceStatusDraft indicates invoice is editable and deletable
	InvoiceStatusDraft InvoiceStatus = "DRAFT"
	// InvoiceStatusPosted indicates invoice has been posted to the ledger and is immutable
	InvoiceStatusPosted InvoiceStatus = "POSTED"
	// InvoiceStatusCancelled indicates invoice has been cancelled with a reversal entry
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

func (s InvoiceStatus) String() string {
	return string(s)
}

func (s InvoiceStatus) Validate() error {
	allowed := []InvoiceStatus{
		InvoiceStatusDraft,
		InvoiceStatusPosted,
		InvoiceStatusCancelled,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid invoice status").
			WithHint("Please provide a valid invoice status").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// InvoiceType categorizes the direction and nature of the invoice
type InvoiceType string

const (
	// InvoiceTypeCustomer indicates a sales invoice issued to a customer
	InvoiceTypeCustomer InvoiceType = "CUSTOMER_INVOICE"
	// InvoiceTypeSupplier indicates a purchase invoice received from a supplier
	InvoiceTypeSupplier InvoiceType = "SUPPLIER_INVOICE"
	// InvoiceTypeCreditNote indicates a credit note reducing a prior invoice
	InvoiceTypeCreditNote InvoiceType = "CREDIT_NOTE"
	// InvoiceTypeDebitNote indicates a debit note increasing a prior invoice
	InvoiceTypeDebitNote InvoiceType = "DEBIT_NOTE"
)

func (t InvoiceType) String() string {
	return string(t)
}

func (t InvoiceType) Validate() error {
	allowed := []InvoiceType{
		InvoiceTypeCustomer,
		InvoiceTypeSupplier,
		InvoiceTypeCreditNote,
		InvoiceTypeDebitNote,
	}
	if !lo.Contains(allowed, t) {
		return ierr.NewError("invalid invoice type").
			WithHint("Please provide a valid invoice type").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// PaymentStatus represents how much of a posted invoice has been settled.
// It is orthogonal to InvoiceStatus; the payment subsystem is external.
type PaymentStatus string

const (
	PaymentStatusUnpaid        PaymentStatus = "UNPAID"
	PaymentStatusPartiallyPaid PaymentStatus = "PARTIALLY_PAID"
	PaymentStatusPaid          PaymentStatus = "PAID"
)

func (s PaymentStatus) String() string {
	return string(s)
}

func (s PaymentStatus) Validate() error {
	allowed := []PaymentStatus{
		PaymentStatusUnpaid,
		PaymentStatusPartiallyPaid,
		PaymentStatusPaid,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid payment status").
			WithHint("Please provide a valid payment status").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// InvoiceOperation is a workflow action that can be applied to an invoice.
// The set is closed so operation dispatch is exhaustive at compile time.
type InvoiceOperation string

const (
	// InvoiceOperationPost transitions DRAFT -> POSTED and generates the journal entry
	InvoiceOperationPost InvoiceOperation = "post"
	// InvoiceOperationCancel transitions POSTED -> CANCELLED and generates a reversal entry
	InvoiceOperationCancel InvoiceOperation = "cancel"
	// InvoiceOperationResetToDraft returns a posted or cancelled invoice to DRAFT
	InvoiceOperationResetToDraft InvoiceOperation = "reset_to_draft"
	// InvoiceOperationDelete permanently removes a DRAFT invoice
	InvoiceOperationDelete InvoiceOperation = "delete"
	// InvoiceOperationMarkPaid marks a posted invoice as settled
	InvoiceOperationMarkPaid InvoiceOperation = "mark_paid"
)

func (o InvoiceOperation) String() string {
	return string(o)
}

func (o InvoiceOperation) Validate() error {
	allowed := []InvoiceOperation{
		InvoiceOperationPost,
		InvoiceOperationCancel,
		InvoiceOperationResetToDraft,
		InvoiceOperationDelete,
		InvoiceOperationMarkPaid,
	}
	if !lo.Contains(allowed, o) {
		return ierr.NewError("invalid invoice operation").
			WithHint("Please provide a valid invoice operation").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// BulkOperations is the subset of operations supported by the bulk endpoints
func BulkOperations() []InvoiceOperation {
	return []InvoiceOperation{
		InvoiceOperationPost,
		InvoiceOperationCancel,
		InvoiceOperationResetToDraft,
		InvoiceOperationDelete,
	}
}

// DeleteConfirmationToken is the safety token a caller must supply with a
// bulk delete. A mismatch rejects the whole call before any item is processed.
const DeleteConfirmationToken = "CONFIRM_DELETE"
