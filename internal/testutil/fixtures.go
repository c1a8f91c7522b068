package testutil

import (
	"context"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/invoiceflow/invoiceflow/internal/cache"
	"github.com/invoiceflow/invoiceflow/internal/config"
	"github.com/invoiceflow/invoiceflow/internal/domain/invoice"
	"github.com/invoiceflow/invoiceflow/internal/types"
)

// NewDraftInvoice builds a consistent DRAFT customer invoice with a single
// 100.00 line for use in tests
func NewDraftInvoice(id string) *invoice.Invoice {
	inv := &invoice.Invoice{
		ID:            id,
		InvoiceType:   types.InvoiceTypeCustomer,
		InvoiceStatus: types.InvoiceStatusDraft,
		PaymentStatus: types.PaymentStatusUnpaid,
		ThirdPartyID:  "party_acme",
		Currency:      "usd",
		PaidAmount:    decimal.Zero,
		Lines: []*invoice.InvoiceLine{
			{
				ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE_LINE),
				InvoiceID:   id,
				Sequence:    1,
				Description: "Consulting services",
				Quantity:    decimal.NewFromInt(1),
				UnitPrice:   decimal.NewFromInt(100),
				AccountID:   "acc_revenue",
			},
		},
		BaseModel: types.GetDefaultBaseModel(context.Background()),
	}
	inv.RecalculateTotals()
	return inv
}

// NewPostedInvoice builds a POSTED invoice with an assigned number and
// journal entry
func NewPostedInvoice(id string) *invoice.Invoice {
	inv := NewDraftInvoice(id)
	inv.InvoiceStatus = types.InvoiceStatusPosted
	inv.InvoiceNumber = lo.ToPtr("INV-" + id)
	inv.JournalEntryID = lo.ToPtr("je_" + id)
	return inv
}

// NewCancelledInvoice builds a CANCELLED invoice that was posted before
// cancellation, so it retains its journal entry reference
func NewCancelledInvoice(id string) *invoice.Invoice {
	inv := NewPostedInvoice(id)
	inv.InvoiceStatus = types.InvoiceStatusCancelled
	return inv
}

// NewTestCache builds an enabled invoice cache with short test friendly TTLs
func NewTestCache() *cache.InvoiceCache {
	return cache.NewInvoiceCache(&config.Configuration{
		Cache: config.CacheConfig{
			Enabled:         true,
			TTL:             time.Minute,
			CleanupInterval: time.Minute,
		},
	})
}
