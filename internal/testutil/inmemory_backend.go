package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/invoiceflow/invoiceflow/internal/domain/invoice"
	ierr "github.com/invoiceflow/invoiceflow/internal/errors"
	"github.com/invoiceflow/invoiceflow/internal/remote"
	"github.com/invoiceflow/invoiceflow/internal/types"
)

// InMemoryBackend implements remote.Client against an in-memory invoice set,
// simulating the backend's authoritative transition handling: server-side
// precondition re-checks, invoice number assignment and journal entry
// bookkeeping. Failures can be injected per operation and invoice id.
type InMemoryBackend struct {
	mu       sync.RWMutex
	invoices map[string]*invoice.Invoice
	failures map[string]error
	calls    []string
	seq      int
}

// NewInMemoryBackend creates an empty in-memory backend
func NewInMemoryBackend() *InMemoryBackend {
	return &InMemoryBackend{
		invoices: make(map[string]*invoice.Invoice),
		failures: make(map[string]error),
	}
}

// Seed inserts an invoice directly into the backend's set
func (b *InMemoryBackend) Seed(inv *invoice.Invoice) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.invoices[inv.ID] = copyInvoice(inv)
}

// FailOn injects an error for the next calls of operation on invoice id
func (b *InMemoryBackend) FailOn(operation, id string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[failureKey(operation, id)] = err
}

// Calls returns the recorded mutation calls in order, as "operation:id"
func (b *InMemoryBackend) Calls() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]string{}, b.calls...)
}

// Clear removes all invoices, injected failures and recorded calls
func (b *InMemoryBackend) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.invoices = make(map[string]*invoice.Invoice)
	b.failures = make(map[string]error)
	b.calls = nil
	b.seq = 0
}

// Invoice returns the backend's current copy of an invoice, or nil
func (b *InMemoryBackend) Invoice(id string) *invoice.Invoice {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return copyInvoice(b.invoices[id])
}

func (b *InMemoryBackend) GetInvoice(ctx context.Context, id string) (*invoice.Invoice, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	inv, exists := b.invoices[id]
	if !exists {
		return nil, notFoundError(id)
	}
	return copyInvoice(inv), nil
}

func (b *InMemoryBackend) ListInvoices(ctx context.Context, filter *types.InvoiceFilter) (*remote.ListResult, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var items []*invoice.Invoice
	for _, inv := range b.invoices {
		if matchesFilter(inv, filter) {
			items = append(items, copyInvoice(inv))
		}
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})

	total := len(items)
	if filter != nil && !filter.IsUnlimited() {
		start := filter.GetOffset()
		if start > len(items) {
			start = len(items)
		}
		end := start + filter.GetLimit()
		if end > len(items) {
			end = len(items)
		}
		items = items[start:end]
	}

	result := &remote.ListResult{
		Items: items,
		Pagination: types.PaginationResponse{
			Total: total,
		},
	}
	if filter != nil {
		result.Pagination.Limit = filter.GetLimit()
		result.Pagination.Offset = filter.GetOffset()
	}
	return result, nil
}

func (b *InMemoryBackend) PostInvoice(ctx context.Context, id string, opts remote.ActionOptions) (*invoice.Invoice, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, failureKey("post", id))

	if err := b.takeFailure("post", id); err != nil {
		return nil, err
	}

	inv, exists := b.invoices[id]
	if !exists {
		return nil, notFoundError(id)
	}
	if err := invoice.CheckOperation(inv, types.InvoiceOperationPost); err != nil {
		return nil, rejectionError(err)
	}

	updated := copyInvoice(inv)
	updated.InvoiceStatus = types.InvoiceStatusPosted
	if updated.InvoiceNumber == nil {
		b.seq++
		updated.InvoiceNumber = lo.ToPtr(fmt.Sprintf("INV-%05d", b.seq))
	}
	updated.JournalEntryID = lo.ToPtr(types.GenerateUUIDWithPrefix("je"))

	b.invoices[id] = updated
	return copyInvoice(updated), nil
}

func (b *InMemoryBackend) CancelInvoice(ctx context.Context, id string, opts remote.ActionOptions) (*invoice.Invoice, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, failureKey("cancel", id))

	if err := b.takeFailure("cancel", id); err != nil {
		return nil, err
	}

	inv, exists := b.invoices[id]
	if !exists {
		return nil, notFoundError(id)
	}
	if err := invoice.CheckOperation(inv, types.InvoiceOperationCancel); err != nil {
		return nil, rejectionError(err)
	}

	updated := copyInvoice(inv)
	updated.InvoiceStatus = types.InvoiceStatusCancelled

	b.invoices[id] = updated
	return copyInvoice(updated), nil
}

func (b *InMemoryBackend) ResetInvoiceToDraft(ctx context.Context, id string, opts remote.ActionOptions) (*invoice.Invoice, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, failureKey("reset_to_draft", id))

	if err := b.takeFailure("reset_to_draft", id); err != nil {
		return nil, err
	}

	inv, exists := b.invoices[id]
	if !exists {
		return nil, notFoundError(id)
	}
	if err := invoice.CheckOperation(inv, types.InvoiceOperationResetToDraft); err != nil {
		return nil, rejectionError(err)
	}

	updated := copyInvoice(inv)
	updated.InvoiceStatus = types.InvoiceStatusDraft
	updated.JournalEntryID = nil

	b.invoices[id] = updated
	return copyInvoice(updated), nil
}

func (b *InMemoryBackend) DeleteInvoice(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, failureKey("delete", id))

	if err := b.takeFailure("delete", id); err != nil {
		return err
	}

	inv, exists := b.invoices[id]
	if !exists {
		return notFoundError(id)
	}
	if err := invoice.CheckOperation(inv, types.InvoiceOperationDelete); err != nil {
		return rejectionError(err)
	}

	delete(b.invoices, id)
	return nil
}

func (b *InMemoryBackend) MarkInvoicePaid(ctx context.Context, id string, opts remote.MarkPaidOptions) (*invoice.Invoice, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, failureKey("mark_paid", id))

	if err := b.takeFailure("mark_paid", id); err != nil {
		return nil, err
	}

	inv, exists := b.invoices[id]
	if !exists {
		return nil, notFoundError(id)
	}
	if err := invoice.CheckOperation(inv, types.InvoiceOperationMarkPaid); err != nil {
		return nil, rejectionError(err)
	}

	updated := copyInvoice(inv)
	if opts.Amount != nil && opts.Amount.LessThan(updated.TotalAmount) {
		updated.PaidAmount = *opts.Amount
		updated.PaymentStatus = types.PaymentStatusPartiallyPaid
	} else {
		updated.PaidAmount = updated.TotalAmount
		updated.PaymentStatus = types.PaymentStatusPaid
	}
	updated.RemainingAmount = updated.TotalAmount.Sub(updated.PaidAmount)

	b.invoices[id] = updated
	return copyInvoice(updated), nil
}

func (b *InMemoryBackend) DuplicateInvoice(ctx context.Context, id string) (*invoice.Invoice, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, failureKey("duplicate", id))

	if err := b.takeFailure("duplicate", id); err != nil {
		return nil, err
	}

	inv, exists := b.invoices[id]
	if !exists {
		return nil, notFoundError(id)
	}

	duplicate := copyInvoice(inv)
	duplicate.ID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE)
	duplicate.InvoiceNumber = nil
	duplicate.JournalEntryID = nil
	duplicate.InvoiceStatus = types.InvoiceStatusDraft
	duplicate.PaymentStatus = types.PaymentStatusUnpaid
	duplicate.PaidAmount = decimal.Zero
	duplicate.RemainingAmount = duplicate.TotalAmount

	b.invoices[duplicate.ID] = duplicate
	return copyInvoice(duplicate), nil
}

func (b *InMemoryBackend) takeFailure(operation, id string) error {
	key := failureKey(operation, id)
	if err, exists := b.failures[key]; exists {
		return err
	}
	return nil
}

func failureKey(operation, id string) string {
	return operation + ":" + id
}

func notFoundError(id string) error {
	return ierr.NewError("invoice not found").
		WithHintf("Invoice %s does not exist", id).
		Mark(ierr.ErrNotFound)
}

func rejectionError(err error) error {
	return ierr.WithError(err).
		WithHint(err.Error()).
		Mark(ierr.ErrRemoteRejection)
}

// copyInvoice returns a deep copy so callers never share memory with the
// backend's authoritative set
func copyInvoice(inv *invoice.Invoice) *invoice.Invoice {
	if inv == nil {
		return nil
	}

	copied := *inv
	if inv.InvoiceNumber != nil {
		copied.InvoiceNumber = lo.ToPtr(*inv.InvoiceNumber)
	}
	if inv.JournalEntryID != nil {
		copied.JournalEntryID = lo.ToPtr(*inv.JournalEntryID)
	}
	if inv.Metadata != nil {
		copied.Metadata = make(types.Metadata, len(inv.Metadata))
		for k, v := range inv.Metadata {
			copied.Metadata[k] = v
		}
	}
	if inv.Lines != nil {
		copied.Lines = make([]*invoice.InvoiceLine, len(inv.Lines))
		for i, line := range inv.Lines {
			lineCopy := *line
			copied.Lines[i] = &lineCopy
		}
	}
	return &copied
}

func matchesFilter(inv *invoice.Invoice, filter *types.InvoiceFilter) bool {
	if filter == nil {
		return true
	}

	if len(filter.InvoiceIDs) > 0 && !lo.Contains(filter.InvoiceIDs, inv.ID) {
		return false
	}
	if filter.ThirdPartyID != "" && inv.ThirdPartyID != filter.ThirdPartyID {
		return false
	}
	if filter.InvoiceType != "" && inv.InvoiceType != filter.InvoiceType {
		return false
	}
	if len(filter.InvoiceStatus) > 0 && !lo.Contains(filter.InvoiceStatus, inv.InvoiceStatus) {
		return false
	}
	if len(filter.PaymentStatus) > 0 && !lo.Contains(filter.PaymentStatus, inv.PaymentStatus) {
		return false
	}
	return true
}
