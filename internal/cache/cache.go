package cache

import (
	"context"
	"time"

	goCache "github.com/patrickmn/go-cache"

	"github.com/invoiceflow/invoiceflow/internal/config"
	"github.com/invoiceflow/invoiceflow/internal/domain/invoice"
)

// InvoiceCache holds the local copy of backend-owned invoices. It is a plain
// dependency-injected container, owned by the application root and passed by
// handle; the underlying store is safe for concurrent readers and writers.
//
// Entries are only ever replaced wholesale with the backend's authoritative
// representation after a successful remote call; a failed call leaves the
// cache untouched.
type InvoiceCache struct {
	store   *goCache.Cache
	enabled bool
	ttl     time.Duration
}

// NewInvoiceCache creates an invoice cache from configuration
func NewInvoiceCache(cfg *config.Configuration) *InvoiceCache {
	return &InvoiceCache{
		store:   goCache.New(cfg.Cache.TTL, cfg.Cache.CleanupInterval),
		enabled: cfg.Cache.Enabled,
		ttl:     cfg.Cache.TTL,
	}
}

// Get returns the cached invoice for id, if present
func (c *InvoiceCache) Get(_ context.Context, id string) (*invoice.Invoice, bool) {
	if !c.enabled {
		return nil, false
	}
	value, found := c.store.Get(id)
	if !found {
		return nil, false
	}
	inv, ok := value.(*invoice.Invoice)
	return inv, ok
}

// Replace stores the backend's authoritative copy of the invoice
func (c *InvoiceCache) Replace(_ context.Context, inv *invoice.Invoice) {
	if !c.enabled || inv == nil {
		return
	}
	c.store.Set(inv.ID, inv, c.ttl)
}

// Remove drops the cached copy of a deleted invoice
func (c *InvoiceCache) Remove(_ context.Context, id string) {
	if !c.enabled {
		return
	}
	c.store.Delete(id)
}

// Flush removes all cached invoices
func (c *InvoiceCache) Flush(_ context.Context) {
	c.store.Flush()
}
