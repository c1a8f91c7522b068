package v1

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/invoiceflow/invoiceflow/internal/api/dto"
	ierr "github.com/invoiceflow/invoiceflow/internal/errors"
	"github.com/invoiceflow/invoiceflow/internal/logger"
	"github.com/invoiceflow/invoiceflow/internal/service"
	"github.com/invoiceflow/invoiceflow/internal/types"
)

type InvoiceHandler struct {
	invoiceService service.InvoiceService
	bulkService    service.BulkService
	logger         *logger.Logger
}

func NewInvoiceHandler(invoiceService service.InvoiceService, bulkService service.BulkService, logger *logger.Logger) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
		bulkService:    bulkService,
		logger:         logger,
	}
}

// ListInvoices returns invoices matching the query filter
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	var filter types.InvoiceFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.logger.Errorw("failed to bind query parameters", "error", err)
		c.Error(ierr.WithError(err).WithHint("invalid query parameters").Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.invoiceService.ListInvoices(c.Request.Context(), &filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetInvoice returns one invoice with its lines
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("invalid invoice id").WithHint("invoice id is required").Mark(ierr.ErrValidation))
		return
	}

	invoice, err := h.invoiceService.GetInvoice(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, invoice)
}

// PostInvoice transitions a DRAFT invoice to POSTED
func (h *InvoiceHandler) PostInvoice(c *gin.Context) {
	h.handleAction(c, h.invoiceService.PostInvoice)
}

// CancelInvoice transitions a POSTED invoice to CANCELLED
func (h *InvoiceHandler) CancelInvoice(c *gin.Context) {
	h.handleAction(c, h.invoiceService.CancelInvoice)
}

// ResetInvoiceToDraft returns a posted or cancelled invoice to DRAFT
func (h *InvoiceHandler) ResetInvoiceToDraft(c *gin.Context) {
	h.handleAction(c, h.invoiceService.ResetInvoiceToDraft)
}

// DeleteInvoice removes a DRAFT invoice and all its lines
func (h *InvoiceHandler) DeleteInvoice(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("invalid invoice id").WithHint("invoice id is required").Mark(ierr.ErrValidation))
		return
	}

	if err := h.invoiceService.DeleteInvoice(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "invoice deleted"})
}

// MarkInvoicePaid marks a POSTED invoice as settled
func (h *InvoiceHandler) MarkInvoicePaid(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("invalid invoice id").WithHint("invoice id is required").Mark(ierr.ErrValidation))
		return
	}

	var req dto.MarkInvoicePaidRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.logger.Errorw("failed to bind request", "error", err)
			c.Error(ierr.WithError(err).WithHint("invalid request").Mark(ierr.ErrValidation))
			return
		}
	}

	invoice, err := h.invoiceService.MarkInvoicePaid(c.Request.Context(), id, req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, invoice)
}

// DuplicateInvoice creates a DRAFT copy of an invoice
func (h *InvoiceHandler) DuplicateInvoice(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("invalid invoice id").WithHint("invoice id is required").Mark(ierr.ErrValidation))
		return
	}

	invoice, err := h.invoiceService.DuplicateInvoice(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, invoice)
}

// ValidateBulkOperation dry-runs a bulk operation and returns the partition
// of valid, invalid and not-found invoices
func (h *InvoiceHandler) ValidateBulkOperation(c *gin.Context) {
	var req dto.BulkValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorw("failed to bind request", "error", err)
		c.Error(ierr.WithError(err).WithHint("invalid request").Mark(ierr.ErrValidation))
		return
	}

	validation, err := h.bulkService.ValidateOperation(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, validation)
}

// ExecuteBulkOperation applies a workflow operation to a set of invoices and
// returns the aggregated per-item outcomes. The operation path segment uses
// the same hyphenated form as the single-invoice routes (reset-to-draft).
func (h *InvoiceHandler) ExecuteBulkOperation(c *gin.Context) {
	operation := types.InvoiceOperation(strings.ReplaceAll(c.Param("operation"), "-", "_"))

	var req dto.BulkExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorw("failed to bind request", "error", err)
		c.Error(ierr.WithError(err).WithHint("invalid request").Mark(ierr.ErrValidation))
		return
	}
	req.Operation = operation

	result, err := h.bulkService.ExecuteBulk(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *InvoiceHandler) handleAction(c *gin.Context, action func(ctx context.Context, id string, req dto.InvoiceActionRequest) (*dto.InvoiceResponse, error)) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("invalid invoice id").WithHint("invoice id is required").Mark(ierr.ErrValidation))
		return
	}

	var req dto.InvoiceActionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.logger.Errorw("failed to bind request", "error", err)
			c.Error(ierr.WithError(err).WithHint("invalid request").Mark(ierr.ErrValidation))
			return
		}
	}

	invoice, err := action(c.Request.Context(), id, req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, invoice)
}
