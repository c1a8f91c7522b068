package invoice

import (
	"errors"
	"fmt"

	"github.com/invoiceflow/invoiceflow/internal/types"
)

// The invoice lifecycle is a closed state machine:
//
//	post:           DRAFT -> POSTED       (backend generates the journal entry
//	                                       and assigns the invoice number)
//	cancel:         POSTED -> CANCELLED   (backend generates a reversal entry)
//	reset_to_draft: POSTED|CANCELLED -> DRAFT (backend deletes the journal or
//	                                       reversal entry and clears the reference)
//	delete:         DRAFT -> removed
//	mark_paid:      POSTED, payment side only; lifecycle state unchanged
//
// Preconditions are checked here before any remote call and re-checked
// server-side. The resulting state is never computed locally: callers replace
// their copy with the backend's post-transition representation.

// TransitionError describes why a workflow operation is not allowed from the
// invoice's current status
type TransitionError struct {
	Operation types.InvoiceOperation
	From      types.InvoiceStatus
	Reason    string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s not allowed from %s: %s", e.Operation, e.From, e.Reason)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// IsTransitionError checks if an error is a transition error
func IsTransitionError(err error) bool {
	var te *TransitionError
	return errors.As(err, &te)
}

// CheckOperation verifies that op may be applied to inv in its current state.
// It performs no mutation and no I/O; the returned *TransitionError carries a
// human-readable reason suitable for bulk validation summaries.
func CheckOperation(inv *Invoice, op types.InvoiceOperation) error {
	switch op {
	case types.InvoiceOperationPost:
		if inv.InvoiceStatus != types.InvoiceStatusDraft {
			return &TransitionError{
				Operation: op,
				From:      inv.InvoiceStatus,
				Reason:    fmt.Sprintf("cannot post a %s invoice; only DRAFT invoices can be posted", inv.InvoiceStatus),
			}
		}
		return nil

	case types.InvoiceOperationCancel:
		if inv.InvoiceStatus != types.InvoiceStatusPosted {
			return &TransitionError{
				Operation: op,
				From:      inv.InvoiceStatus,
				Reason:    fmt.Sprintf("cannot cancel a %s invoice; only POSTED invoices can be cancelled", inv.InvoiceStatus),
			}
		}
		return nil

	case types.InvoiceOperationResetToDraft:
		if inv.InvoiceStatus != types.InvoiceStatusPosted && inv.InvoiceStatus != types.InvoiceStatusCancelled {
			return &TransitionError{
				Operation: op,
				From:      inv.InvoiceStatus,
				Reason:    "invoice is already in DRAFT",
			}
		}
		return nil

	case types.InvoiceOperationDelete:
		if inv.InvoiceStatus != types.InvoiceStatusDraft {
			return &TransitionError{
				Operation: op,
				From:      inv.InvoiceStatus,
				Reason:    fmt.Sprintf("cannot delete a %s invoice; not in DRAFT", inv.InvoiceStatus),
			}
		}
		return nil

	case types.InvoiceOperationMarkPaid:
		if inv.InvoiceStatus != types.InvoiceStatusPosted {
			return &TransitionError{
				Operation: op,
				From:      inv.InvoiceStatus,
				Reason:    fmt.Sprintf("cannot mark a %s invoice as paid; only POSTED invoices can be paid", inv.InvoiceStatus),
			}
		}
		if inv.PaymentStatus == types.PaymentStatusPaid {
			return &TransitionError{
				Operation: op,
				From:      inv.InvoiceStatus,
				Reason:    "invoice is already fully paid",
			}
		}
		return nil

	default:
		return &TransitionError{
			Operation: op,
			From:      inv.InvoiceStatus,
			Reason:    "unknown operation",
		}
	}
}

// CanApply reports whether op may be applied to inv in its current state
func CanApply(inv *Invoice, op types.InvoiceOperation) bool {
	return CheckOperation(inv, op) == nil
}
