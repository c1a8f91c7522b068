package api

import (
	"github.com/gin-gonic/gin"

	v1 "github.com/invoiceflow/invoiceflow/internal/api/v1"
	"github.com/invoiceflow/invoiceflow/internal/rest/middleware"
)

type Handlers struct {
	Invoice *v1.InvoiceHandler
	Health  *v1.HealthHandler
}

func NewRouter(handlers Handlers) *gin.Engine {
	router := gin.Default()
	router.Use(middleware.RequestID())
	router.Use(middleware.ErrorHandler())

	router.GET("/health", handlers.Health.Health)

	// v1 routes
	v1Group := router.Group("/v1")
	registerV1Routes(v1Group, handlers)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	invoices := router.Group("/invoices")
	{
		invoices.GET("", handlers.Invoice.ListInvoices)
		invoices.GET("/:id", handlers.Invoice.GetInvoice)
		invoices.POST("/:id/post", handlers.Invoice.PostInvoice)
		invoices.POST("/:id/cancel", handlers.Invoice.CancelInvoice)
		invoices.POST("/:id/reset-to-draft", handlers.Invoice.ResetInvoiceToDraft)
		invoices.POST("/:id/mark-paid", handlers.Invoice.MarkInvoicePaid)
		invoices.POST("/:id/duplicate", handlers.Invoice.DuplicateInvoice)
		invoices.DELETE("/:id", handlers.Invoice.DeleteInvoice)

		bulk := invoices.Group("/bulk")
		{
			bulk.POST("/validate", handlers.Invoice.ValidateBulkOperation)
			bulk.POST("/:operation", handlers.Invoice.ExecuteBulkOperation)
		}
	}
}
