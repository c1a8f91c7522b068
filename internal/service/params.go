package service

import (
	"github.com/invoiceflow/invoiceflow/internal/cache"
	"github.com/invoiceflow/invoiceflow/internal/config"
	"github.com/invoiceflow/invoiceflow/internal/logger"
	"github.com/invoiceflow/invoiceflow/internal/remote"
)

// ServiceParams bundles the dependencies shared by all services
type ServiceParams struct {
	Logger  *logger.Logger
	Config  *config.Configuration
	Backend remote.Client
	Cache   *cache.InvoiceCache
}
